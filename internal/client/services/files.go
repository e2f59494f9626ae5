package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdisk/internal/client/client"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
	"github.com/dmitrijs2005/gophdisk/internal/client/resource"
	"github.com/dmitrijs2005/gophdisk/internal/client/share"
	"github.com/dmitrijs2005/gophdisk/internal/client/sink"
	"github.com/dmitrijs2005/gophdisk/internal/common"
)

// FileService covers the user's stored files and shared files.
//
// Payloads are opened into the resource manager slot matching the mode, so
// opening a second preview revokes the first one.
type FileService interface {
	List(ctx context.Context) ([]models.StoredFile, error)
	Open(ctx context.Context, id int64, mode models.RetrievalMode) (*resource.Handle, error)
	ShareInfo(ctx context.Context, code string) (*models.ShareSession, error)
	OpenShared(ctx context.Context, code string, password []byte, mode models.RetrievalMode) (*resource.Handle, error)
	Save(ctx context.Context, h *resource.Handle) (string, error)
	Close(mode models.RetrievalMode)
	Share(ctx context.Context, id int64, password []byte) (*models.ShareGrant, error)
	Delete(ctx context.Context, id int64) error
}

type fileService struct {
	client    client.Client
	gate      *share.Gate
	resources *resource.Manager
	sink      sink.Sink
}

func NewFileService(c client.Client, gate *share.Gate, resources *resource.Manager, s sink.Sink) FileService {
	return &fileService{client: c, gate: gate, resources: resources, sink: s}
}

// SlotFor maps a retrieval mode to its resource slot.
func SlotFor(mode models.RetrievalMode) resource.Slot {
	if mode == models.ModePreview {
		return resource.SlotPreview
	}
	return resource.SlotDownload
}

func (s *fileService) List(ctx context.Context) ([]models.StoredFile, error) {
	return s.client.ListFiles(ctx)
}

// Open fetches a stored file into the mode's slot. Previews are limited to
// video and text: the listing is consulted first so an archive is never
// transferred, and the served filename is checked again before Acquire.
func (s *fileService) Open(ctx context.Context, id int64, mode models.RetrievalMode) (*resource.Handle, error) {
	var listed string
	if mode == models.ModePreview {
		listed = s.storedName(ctx, id)
		if listed != "" && !models.Classify(listed).Previewable() {
			return nil, share.ErrPreviewUnavailable
		}
	}

	p, err := s.client.FileContent(ctx, id, mode)
	if err != nil {
		return nil, err
	}
	if p.Filename == "" {
		p.Filename = listed
	}
	if mode == models.ModePreview && !models.Classify(p.Filename).Previewable() {
		p.Body.Close()
		return nil, share.ErrPreviewUnavailable
	}
	return s.resources.Acquire(ctx, SlotFor(mode), p)
}

// storedName returns the listed filename of id, or "" when the listing is
// unavailable or does not contain it.
func (s *fileService) storedName(ctx context.Context, id int64) string {
	files, err := s.client.ListFiles(ctx)
	if err != nil {
		return ""
	}
	for _, f := range files {
		if f.ID == id {
			return f.Filename
		}
	}
	return ""
}

func (s *fileService) ShareInfo(ctx context.Context, code string) (*models.ShareSession, error) {
	return s.gate.FetchInfo(ctx, code)
}

func (s *fileService) OpenShared(ctx context.Context, code string, password []byte, mode models.RetrievalMode) (*resource.Handle, error) {
	p, err := s.gate.Retrieve(ctx, code, password, mode)
	if err != nil {
		return nil, err
	}
	if p.Filename == "" {
		if info, err := s.gate.FetchInfo(ctx, code); err == nil {
			p.Filename = info.Filename
		}
	}
	return s.resources.Acquire(ctx, SlotFor(mode), p)
}

// Save writes h to the configured sink.
func (s *fileService) Save(ctx context.Context, h *resource.Handle) (string, error) {
	if s.sink == nil {
		return "", fmt.Errorf("no download sink configured")
	}
	return s.sink.Save(ctx, h)
}

// Close revokes whatever the mode's slot currently holds.
func (s *fileService) Close(mode models.RetrievalMode) {
	s.resources.ReleaseSlot(SlotFor(mode))
}

func (s *fileService) Share(ctx context.Context, id int64, password []byte) (*models.ShareGrant, error) {
	defer common.WipeByteArray(password)
	return s.client.CreateShare(ctx, id, password)
}

func (s *fileService) Delete(ctx context.Context, id int64) error {
	return s.client.DeleteFile(ctx, id)
}
