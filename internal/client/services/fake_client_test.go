package services

import (
	"context"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophdisk/internal/client/client"
	"github.com/dmitrijs2005/gophdisk/internal/client/models"
)

// fakeClient implements client.Client for service tests.
type fakeClient struct {
	LoginToken string
	LoginErr   error
	PingErr    error

	Token          string
	LastLoginUser  string
	LastLoginPass  string
	LastShareID    int64
	LastSharePass  string
	DeletedID      int64
	UploadResp     *models.UploadResponse
	Downloads      []models.Snapshot
	Files          []models.StoredFile
	Shares         map[string]*models.ShareSession
	SharePasswords map[string]string
	Contents       map[int64]string
	ContentNames   map[int64]string
	ContentCalls   int
	LastBody       *trackedBody
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Ping(context.Context) error { return f.PingErr }

func (f *fakeClient) Login(_ context.Context, username string, password []byte) (string, error) {
	f.LastLoginUser = username
	f.LastLoginPass = string(password)
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	f.Token = f.LoginToken
	return f.LoginToken, nil
}

func (f *fakeClient) SetToken(token string) { f.Token = token }

func (f *fakeClient) Upload(context.Context, *models.UploadForm) (*models.UploadResponse, error) {
	return f.UploadResp, nil
}

func (f *fakeClient) ListDownloads(context.Context) ([]models.Snapshot, error) {
	return f.Downloads, nil
}

func (f *fakeClient) GetDownload(_ context.Context, id string) (*models.Snapshot, error) {
	for _, s := range f.Downloads {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, &client.APIError{StatusCode: 404, Message: "not found"}
}

func (f *fakeClient) ShareInfo(_ context.Context, code string) (*models.ShareSession, error) {
	s, ok := f.Shares[code]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, Message: "Share not found"}
	}
	return s, nil
}

func (f *fakeClient) ShareContent(_ context.Context, code string, password []byte, _ models.RetrievalMode) (*models.Payload, error) {
	s, ok := f.Shares[code]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, Message: "Share not found"}
	}
	if s.HasPassword && f.SharePasswords[code] != string(password) {
		return nil, &client.APIError{StatusCode: 401, Message: "Invalid password"}
	}
	return &models.Payload{Body: io.NopCloser(strings.NewReader("shared:" + s.Filename))}, nil
}

func (f *fakeClient) ListFiles(context.Context) ([]models.StoredFile, error) {
	return f.Files, nil
}

func (f *fakeClient) FileContent(_ context.Context, id int64, _ models.RetrievalMode) (*models.Payload, error) {
	f.ContentCalls++
	c, ok := f.Contents[id]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, Message: "File not found"}
	}
	name, ok := f.ContentNames[id]
	if !ok {
		name = "file.txt"
	}
	f.LastBody = &trackedBody{Reader: strings.NewReader(c)}
	return &models.Payload{Filename: name, Body: f.LastBody}, nil
}

// trackedBody records whether the payload body was closed.
type trackedBody struct {
	io.Reader
	closed bool
}

func (b *trackedBody) Close() error {
	b.closed = true
	return nil
}

func (f *fakeClient) CreateShare(_ context.Context, id int64, password []byte) (*models.ShareGrant, error) {
	f.LastShareID = id
	f.LastSharePass = string(password)
	return &models.ShareGrant{Code: "abc123", HasPassword: len(password) > 0}, nil
}

func (f *fakeClient) DeleteFile(_ context.Context, id int64) error {
	f.DeletedID = id
	return nil
}
