package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/dmitrijs2005/gophdisk/internal/devserver/auth"
	"github.com/dmitrijs2005/gophdisk/internal/netx"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const userIDKey ctxKey = "userID"

func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// requireToken rejects requests without a valid bearer token and stores
// the token's user id in the request context.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		accessToken, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || accessToken == "" {
			netx.WriteError(w, http.StatusUnauthorized, "missing token")
			return
		}

		id, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
		if err != nil {
			netx.WriteError(w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
