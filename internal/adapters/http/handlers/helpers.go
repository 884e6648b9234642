package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/dto"
	"github.com/jsamuelsen11/collab-sync/internal/domain"
	"github.com/jsamuelsen11/collab-sync/internal/platform/logging"
)

// maxBodyBytes caps request bodies. The largest accepted body is a move
// request, a handful of ids and two positions.
const maxBodyBytes = 64 << 10

// pathParam returns the named chi route parameter, which must not be blank.
func pathParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		return "", &domain.ValidationError{Fields: map[string]string{name: domain.MsgRequired}}
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).WarnContext(r.Context(), "encoding response",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
}

// validatable is a request DTO with field checks.
type validatable interface {
	Validate() error
}

// decodeAndValidate reads exactly one JSON object into dst and validates it.
// Unknown fields are rejected so a misspelled to_position is not silently
// read as zero. On failure it writes the problem response and returns false.
func decodeAndValidate[T validatable](w http.ResponseWriter, r *http.Request, dst T) bool {
	if err := decodeBody(w, r, dst); err != nil {
		dto.WriteErrorResponse(w, r, &domain.ValidationError{Fields: map[string]string{"body": err.Error()}})
		return false
	}
	if err := dst.Validate(); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("exceeds %d bytes", tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("is empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("has %s", strings.TrimPrefix(err.Error(), "json: "))
		default:
			return errors.New("invalid JSON")
		}
	}
	if dec.More() {
		return errors.New("has trailing data")
	}
	return nil
}
