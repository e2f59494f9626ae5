// Package httpapi serves the storage REST API on top of the in-memory store.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/devserver/store"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	address   string
	store     *store.Store
	logger    logging.Logger
	jwtSecret []byte
	tokenTTL  time.Duration
	maxUpload int64
}

func NewServer(address string, l logging.Logger, s *store.Store, secretKey string, tokenTTL time.Duration, maxUpload int64) *Server {
	return &Server{
		address:   address,
		store:     s,
		logger:    l.With("module", "http_server"),
		jwtSecret: []byte(secretKey),
		tokenTTL:  tokenTTL,
		maxUpload: maxUpload,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)

		r.Get("/share/{code}", s.shareInfo)
		r.Post("/share/{code}/{mode}", s.shareContent)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)

			r.Post("/upload", s.upload)
			r.Get("/downloads", s.listDownloads)
			r.Get("/downloads/{id}", s.getDownload)
			r.Get("/files", s.listFiles)
			r.Get("/files/{id}/{mode}", s.fileContent)
			r.Post("/files/{id}/share", s.createShare)
			r.Delete("/files/{id}", s.deleteFile)
		})
	})
	return r
}

// Run listens on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
