// Package netx collects the small HTTP helpers shared by the REST client and
// the development backend.
package netx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// ResponseTooLargeError reports that a body exceeded the configured limit.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// IsResponseTooLarge reports whether err is a ResponseTooLargeError.
func IsResponseTooLarge(err error) bool {
	var limitErr ResponseTooLargeError
	return errors.As(err, &limitErr)
}

// ReadAllWithLimit reads r up to limit bytes. If limit <= 0 it behaves like
// io.ReadAll.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	lr := &io.LimitedReader{R: r, N: limit + 1}
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}

// FilenameFromDisposition extracts the filename parameter of a
// Content-Disposition header. It returns "" when absent or malformed.
func FilenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		// Some servers send an unquoted filename with spaces.
		if _, after, ok := strings.Cut(header, "filename="); ok {
			return strings.Trim(strings.TrimSpace(after), `"`)
		}
		return ""
	}
	return params["filename"]
}

// errorBody is the JSON error envelope used by the storage API.
type errorBody struct {
	Error string `json:"error"`
}

// ErrorMessage reads at most 64 KiB of an error response and returns the
// server-provided "error" field, or the trimmed raw text when the body is
// not JSON, or the status text when the body is empty.
func ErrorMessage(resp *http.Response) string {
	b, _ := ReadAllWithLimit(resp.Body, 64<<10)
	var eb errorBody
	if err := json.Unmarshal(b, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	if s := strings.TrimSpace(string(b)); s != "" && !strings.HasPrefix(s, "{") {
		return s
	}
	return http.StatusText(resp.StatusCode)
}

// WriteError writes the JSON error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorBody{Error: msg})
}

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
