// Package store keeps the development backend's state in memory: users,
// stored files, share codes and simulated downloads.
package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/dmitrijs2005/gophdisk/internal/devserver/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound     = common.ErrorNotFound
	ErrUnauthorized = common.ErrorUnauthorized
	ErrExists       = errors.New("already exists")
)

const (
	shareCodeLen      = 6
	shareCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// Downloads whose name contains this marker fail half way.
	failMarker = "fail"
)

// Store is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	users     map[string]*models.User // by username
	files     map[int64]*models.File
	nextFile  int64
	shares    map[string]*models.Share
	downloads map[string]*models.Download
	order     []string
}

func New() *Store {
	return &Store{
		now:       time.Now,
		users:     make(map[string]*models.User),
		files:     make(map[int64]*models.File),
		shares:    make(map[string]*models.Share),
		downloads: make(map[string]*models.Download),
	}
}

// AddUser creates an account with a bcrypt-hashed password.
func (s *Store) AddUser(username, password string) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("empty username")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return nil, fmt.Errorf("user %q: %w", username, ErrExists)
	}
	u := &models.User{ID: uuid.NewString(), UserName: username, PasswordHash: hash, CreatedAt: s.now().UTC()}
	s.users[username] = u
	return u, nil
}

// Authenticate returns the user when password matches.
func (s *Store) Authenticate(username, password string) (*models.User, error) {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return nil, ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

func (s *Store) userByID(id string) *models.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// AddFile stores data for userID and returns a copy of the record.
func (s *Store) AddFile(userID, filename string, data []byte) models.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.addFileLocked(userID, filename, data)
}

func (s *Store) addFileLocked(userID, filename string, data []byte) *models.File {
	s.nextFile++
	f := &models.File{
		ID:           s.nextFile,
		UserID:       userID,
		Filename:     filename,
		Data:         data,
		OriginalSize: int64(len(data)),
		CreatedAt:    s.now().UTC(),
	}
	s.files[f.ID] = f
	return f
}

// Files lists userID's files, newest first.
func (s *Store) Files(userID string) []models.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.File
	for _, f := range s.files {
		if f.UserID == userID {
			out = append(out, *f)
		}
	}
	slices.SortFunc(out, func(a, b models.File) int {
		if a.ID > b.ID {
			return -1
		}
		if a.ID < b.ID {
			return 1
		}
		return 0
	})
	return out
}

// File returns one of userID's files.
func (s *Store) File(userID string, id int64) (models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.UserID != userID {
		return models.File{}, ErrNotFound
	}
	return *f, nil
}

// DeleteFile removes the file and its share code.
func (s *Store) DeleteFile(userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.UserID != userID {
		return ErrNotFound
	}
	if f.ShareCode != "" {
		delete(s.shares, f.ShareCode)
	}
	delete(s.files, id)
	return nil
}

// CreateShare exposes a file under a fresh code. Sharing an already shared
// file replaces its code. An empty password creates an open share.
func (s *Store) CreateShare(userID string, id int64, password string) (models.Share, error) {
	var hash []byte
	if password != "" {
		var err error
		if hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost); err != nil {
			return models.Share{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok || f.UserID != userID {
		return models.Share{}, ErrNotFound
	}
	if f.ShareCode != "" {
		delete(s.shares, f.ShareCode)
	}

	code := s.newCodeLocked()
	sh := &models.Share{Code: code, FileID: id, UserID: userID, PasswordHash: hash, CreatedAt: s.now().UTC()}
	s.shares[code] = sh
	f.ShareCode = code
	return *sh, nil
}

func (s *Store) newCodeLocked() string {
	for {
		b := common.GenerateRandByteArray(shareCodeLen)
		for i := range b {
			b[i] = shareCodeAlphabet[int(b[i])%len(shareCodeAlphabet)]
		}
		if _, taken := s.shares[string(b)]; !taken {
			return string(b)
		}
	}
}

// SharedFile is a share resolved to its file and owner.
type SharedFile struct {
	Share    models.Share
	File     models.File
	Username string
}

// Shared resolves code without checking any password.
func (s *Store) Shared(code string) (SharedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shares[code]
	if !ok {
		return SharedFile{}, ErrNotFound
	}
	f, ok := s.files[sh.FileID]
	if !ok {
		return SharedFile{}, ErrNotFound
	}
	out := SharedFile{Share: *sh, File: *f}
	if u := s.userByID(sh.UserID); u != nil {
		out.Username = u.UserName
	}
	return out, nil
}

// OpenShared resolves code and checks password for protected shares.
func (s *Store) OpenShared(code, password string) (SharedFile, error) {
	sf, err := s.Shared(code)
	if err != nil {
		return SharedFile{}, err
	}
	if sf.Share.HasPassword() && bcrypt.CompareHashAndPassword(sf.Share.PasswordHash, []byte(password)) != nil {
		return SharedFile{}, ErrUnauthorized
	}
	return sf, nil
}

// StartDownload registers a simulated fetch in the starting state.
func (s *Store) StartDownload(userID, kind, filename string) models.Download {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &models.Download{
		ID:        uuid.NewString(),
		UserID:    userID,
		Filename:  filename,
		Kind:      kind,
		Status:    models.DownloadStarting,
		CreatedAt: s.now().UTC(),
	}
	s.downloads[d.ID] = d
	s.order = append(s.order, d.ID)
	return *d
}

// Downloads lists userID's downloads in creation order.
func (s *Store) Downloads(userID string) []models.Download {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Download{}
	for _, id := range s.order {
		if d := s.downloads[id]; d.UserID == userID {
			out = append(out, *d)
		}
	}
	return out
}

func (s *Store) Download(userID, id string) (models.Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.downloads[id]
	if !ok || d.UserID != userID {
		return models.Download{}, ErrNotFound
	}
	return *d, nil
}

// Advance moves every active download forward by step percent. A download
// reaching 100 becomes a stored file of its owner. It returns how many
// downloads changed.
func (s *Store) Advance(step int) int {
	if step <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, id := range s.order {
		d := s.downloads[id]
		if !d.Active() {
			continue
		}
		changed++
		d.Status = models.DownloadDownloading
		d.Progress = min(d.Progress+step, 100)

		if d.Progress >= 50 && strings.Contains(strings.ToLower(d.Filename), failMarker) {
			d.Status = models.DownloadError
			d.Error = "no sources available"
			continue
		}
		if d.Progress == 100 {
			d.Status = models.DownloadCompleted
			s.addFileLocked(d.UserID, d.Filename, fmt.Appendf(nil, "%s payload of %s\n", d.Kind, d.Filename))
		}
	}
	return changed
}
