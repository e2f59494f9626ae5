package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cmodels "github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/dmitrijs2005/gophdisk/internal/devserver/auth"
	"github.com/dmitrijs2005/gophdisk/internal/devserver/models"
	"github.com/dmitrijs2005/gophdisk/internal/devserver/store"
	"github.com/dmitrijs2005/gophdisk/internal/netx"
	"github.com/go-chi/chi/v5"
)

const maxJSONBody = 64 << 10

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type passwordBody struct {
	Password string `json:"password"`
}

type uploadResponse struct {
	Message      string `json:"message"`
	Filename     string `json:"filename"`
	DownloadID   string `json:"download_id,omitempty"`
	OriginalSize int64  `json:"original_size,omitempty"`
}

type downloadView struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

type fileView struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	FileSize     int64     `json:"file_size"`
	OriginalSize int64     `json:"original_size,omitempty"`
	ShareCode    string    `json:"share_code,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type shareView struct {
	Filename    string    `json:"filename"`
	FileSize    int64     `json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
	Username    string    `json:"username,omitempty"`
	HasPassword bool      `json:"has_password"`
}

type grantView struct {
	Code        string `json:"share_code"`
	HasPassword bool   `json:"has_password"`
}

func toDownloadView(d models.Download) downloadView {
	return downloadView{ID: d.ID, Filename: d.Filename, Type: d.Kind, Status: d.Status, Progress: d.Progress, Error: d.Error}
}

func toFileView(f models.File) fileView {
	return fileView{
		ID:           f.ID,
		Filename:     f.Filename,
		FileSize:     int64(len(f.Data)),
		OriginalSize: f.OriginalSize,
		ShareCode:    f.ShareCode,
		CreatedAt:    f.CreatedAt,
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		netx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		netx.WriteError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		s.logger.Error(r.Context(), "token generation failed", "error", err)
		netx.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info(r.Context(), "Logged in", "username", user.UserName)
	netx.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

// upload accepts a direct file, a torrent file or an ed2k link. Direct
// files are stored synchronously, the other two start a download.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		netx.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	switch kind := r.FormValue("type"); kind {
	case "":
		name, data, ok := s.formFile(w, r, "file")
		if !ok {
			return
		}
		f := s.store.AddFile(uid, name, data)
		netx.WriteJSON(w, http.StatusOK, uploadResponse{Message: "file uploaded", Filename: f.Filename, OriginalSize: f.OriginalSize})

	case "torrent":
		name, data, ok := s.formFile(w, r, "torrent_file")
		if !ok {
			return
		}
		if len(data) == 0 {
			netx.WriteError(w, http.StatusBadRequest, "torrent file is empty")
			return
		}
		s.startDownload(w, r, uid, kind, strings.TrimSuffix(name, ".torrent"))

	case "ed2k":
		link := strings.TrimSpace(r.FormValue("ed2k_link"))
		if !strings.HasPrefix(link, common.Ed2kScheme) {
			netx.WriteError(w, http.StatusBadRequest, "invalid ed2k link")
			return
		}
		s.startDownload(w, r, uid, kind, cmodels.Ed2kLink{Link: link}.DisplayName())

	default:
		netx.WriteError(w, http.StatusBadRequest, "unsupported upload type "+strconv.Quote(kind))
	}
}

func (s *Server) formFile(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		netx.WriteError(w, http.StatusBadRequest, "missing "+field)
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		netx.WriteError(w, http.StatusBadRequest, "unreadable "+field)
		return "", nil, false
	}
	name := filepath.Base(header.Filename)
	if name == "." || name == "/" {
		name = field
	}
	return name, data, true
}

func (s *Server) startDownload(w http.ResponseWriter, r *http.Request, uid, kind, name string) {
	d := s.store.StartDownload(uid, kind, name)
	s.logger.Info(r.Context(), "Download started", "id", d.ID, "type", kind, "filename", name)
	netx.WriteJSON(w, http.StatusOK, uploadResponse{Message: "download started", Filename: d.Filename, DownloadID: d.ID})
}

func (s *Server) listDownloads(w http.ResponseWriter, r *http.Request) {
	list := s.store.Downloads(userID(r.Context()))
	views := make([]downloadView, 0, len(list))
	for _, d := range list {
		views = append(views, toDownloadView(d))
	}
	netx.WriteJSON(w, http.StatusOK, map[string]any{"downloads": views})
}

func (s *Server) getDownload(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Download(userID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		netx.WriteError(w, http.StatusNotFound, "download not found")
		return
	}
	netx.WriteJSON(w, http.StatusOK, toDownloadView(d))
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	list := s.store.Files(userID(r.Context()))
	views := make([]fileView, 0, len(list))
	for _, f := range list {
		views = append(views, toFileView(f))
	}
	netx.WriteJSON(w, http.StatusOK, map[string]any{"files": views})
}

func fileID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		netx.WriteError(w, http.StatusBadRequest, "invalid file id")
		return 0, false
	}
	return id, true
}

func (s *Server) fileContent(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}
	f, err := s.store.File(userID(r.Context()), id)
	if err != nil {
		netx.WriteError(w, http.StatusNotFound, "file not found")
		return
	}
	s.serveFile(w, r, f, chi.URLParam(r, "mode"))
}

func (s *Server) createShare(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}
	var req passwordBody
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			netx.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sh, err := s.store.CreateShare(userID(r.Context()), id, req.Password)
	if err != nil {
		s.writeStoreError(w, r, err, "file not found")
		return
	}
	netx.WriteJSON(w, http.StatusOK, grantView{Code: sh.Code, HasPassword: sh.HasPassword()})
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := fileID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteFile(userID(r.Context()), id); err != nil {
		s.writeStoreError(w, r, err, "file not found")
		return
	}
	netx.WriteJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}

func (s *Server) shareInfo(w http.ResponseWriter, r *http.Request) {
	sf, err := s.store.Shared(chi.URLParam(r, "code"))
	if err != nil {
		s.writeStoreError(w, r, err, "share not found")
		return
	}
	netx.WriteJSON(w, http.StatusOK, shareView{
		Filename:    sf.File.Filename,
		FileSize:    int64(len(sf.File.Data)),
		CreatedAt:   sf.Share.CreatedAt,
		Username:    sf.Username,
		HasPassword: sf.Share.HasPassword(),
	})
}

func (s *Server) shareContent(w http.ResponseWriter, r *http.Request) {
	var req passwordBody
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			netx.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	sf, err := s.store.OpenShared(chi.URLParam(r, "code"), req.Password)
	if err != nil {
		if errors.Is(err, store.ErrUnauthorized) {
			netx.WriteError(w, http.StatusUnauthorized, "invalid share password")
			return
		}
		s.writeStoreError(w, r, err, "share not found")
		return
	}
	s.serveFile(w, r, sf.File, chi.URLParam(r, "mode"))
}

// serveFile writes f as an attachment (download) or inline (preview).
// Only video and text files can be previewed.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, f models.File, mode string) {
	disposition := "attachment"
	switch mode {
	case "download":
	case "preview":
		if !cmodels.Classify(f.Filename).Previewable() {
			netx.WriteError(w, http.StatusUnsupportedMediaType, "preview not available for this file type")
			return
		}
		disposition = "inline"
	default:
		netx.WriteError(w, http.StatusNotFound, "unknown mode")
		return
	}

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Filename)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": f.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(f.Data); err != nil {
		s.logger.Warn(r.Context(), "write file", "id", f.ID, "error", err)
	}
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		netx.WriteError(w, http.StatusNotFound, notFound)
	case errors.Is(err, store.ErrUnauthorized):
		netx.WriteError(w, http.StatusUnauthorized, "unauthorized")
	default:
		s.logger.Error(r.Context(), "store error", "error", err)
		netx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
