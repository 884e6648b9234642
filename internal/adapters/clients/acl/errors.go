// Package acl is the anti-corruption layer between the engine and an entity
// store reached over HTTP. The entity subpackage translates the store's JSON
// into domain types; this package runs the requests and maps the store's
// failures onto domain sentinels.
package acl

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/jsamuelsen11/collab-sync/internal/domain"
)

// maxErrorBodySize bounds how much of a failed response is read.
const maxErrorBodySize = 1 << 20

// Problem codes the store uses to refine a status.
const (
	codeItemNotFound      = "ITEM_NOT_FOUND"
	codeContainerNotFound = "CONTAINER_NOT_FOUND"
	codeDocumentNotFound  = "DOCUMENT_NOT_FOUND"
	codeVersionConflict   = "VERSION_CONFLICT"
	codeStaleEdit         = "STALE_EDIT_CONFLICT"
	codeAlreadyExists     = "ALREADY_EXISTS"
)

// byCode refines a status family by problem code. The empty code is the
// family default.
var byCode = map[int]map[string]error{
	http.StatusNotFound: {
		"":                    domain.ErrNotFound,
		codeItemNotFound:      domain.ErrItemNotFound,
		codeContainerNotFound: domain.ErrContainerNotFound,
		codeDocumentNotFound:  domain.ErrDocumentNotFound,
	},
	// Every write the store accepts is version-guarded, so an unexplained
	// 409 is a version conflict.
	http.StatusConflict: {
		"":                  domain.ErrVersionConflict,
		codeVersionConflict: domain.ErrVersionConflict,
		codeStaleEdit:       domain.ErrStaleEdit,
		codeAlreadyExists:   domain.ErrConflict,
	},
}

// problem is an RFC 9457 body as the store sends it.
type problem struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
	Errors []struct {
		Location string `json:"location"`
		Message  string `json:"message"`
	} `json:"errors"`
}

// TranslateHTTPError maps a failed store response onto a domain error. An
// application/problem+json body refines the status through its code and
// contributes its detail; 400 and 422 bodies with field errors become a
// *domain.ValidationError.
func TranslateHTTPError(resp *http.Response) error {
	p := readProblem(resp)
	detail := p.Detail
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}

	code := resp.StatusCode
	switch {
	case code == http.StatusNotFound || code == http.StatusConflict:
		sentinel, ok := byCode[code][p.Code]
		if !ok {
			sentinel = byCode[code][""]
		}
		return fmt.Errorf("%s: %w", detail, sentinel)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		if len(p.Errors) == 0 {
			return fmt.Errorf("%s: %w", detail, domain.ErrValidation)
		}
		fields := make(map[string]string, len(p.Errors))
		for _, e := range p.Errors {
			fields[strings.TrimPrefix(e.Location, "body.")] = e.Message
		}
		return &domain.ValidationError{Fields: fields}
	case code == http.StatusGone:
		return fmt.Errorf("%s: %w", detail, domain.ErrStaleEdit)
	case code == http.StatusPreconditionFailed:
		return fmt.Errorf("%s: %w", detail, domain.ErrVersionConflict)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("entity store rejected credentials: %s: %w", detail, domain.ErrUnavailable)
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w", detail, domain.ErrUnavailable)
	default:
		return fmt.Errorf("unexpected status %d: %s", code, detail)
	}
}

// readProblem returns the zero problem unless the body is a parsable
// problem document.
func readProblem(resp *http.Response) problem {
	var p problem
	if resp.Body == nil {
		return p
	}
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != "application/problem+json" {
		return p
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil || json.Unmarshal(body, &p) != nil {
		return problem{}
	}
	return p
}
