package client

import (
	"context"

	"github.com/dmitrijs2005/gophdisk/internal/client/models"
)

// Client is the storage service API as seen by the client core.
type Client interface {
	Ping(ctx context.Context) error
	Login(ctx context.Context, username string, password []byte) (string, error)
	SetToken(token string)

	Upload(ctx context.Context, form *models.UploadForm) (*models.UploadResponse, error)
	ListDownloads(ctx context.Context) ([]models.Snapshot, error)
	GetDownload(ctx context.Context, id string) (*models.Snapshot, error)

	ShareInfo(ctx context.Context, code string) (*models.ShareSession, error)
	ShareContent(ctx context.Context, code string, password []byte, mode models.RetrievalMode) (*models.Payload, error)

	ListFiles(ctx context.Context) ([]models.StoredFile, error)
	FileContent(ctx context.Context, id int64, mode models.RetrievalMode) (*models.Payload, error)
	CreateShare(ctx context.Context, id int64, password []byte) (*models.ShareGrant, error)
	DeleteFile(ctx context.Context, id int64) error
}
