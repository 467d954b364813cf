// Package validator checks reference registrations before they reach a
// registry, reporting every offending field at once.
package validator

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

const (
	MaxIDLength   = 255
	MaxTextLength = 1 << 20
)

// ValidationError holds per-field failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// Unwrap makes every ValidationError an ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateRegisterRequest checks a registration of kind. An empty ID is
// allowed; the caller assigns one.
func ValidateRegisterRequest(kind store.Kind, req *ingestion.RegisterRequest) error {
	errs := make(map[string]string)
	if kind != store.KindDocument && kind != store.KindCertificate {
		errs["kind"] = fmt.Sprintf("must be %q or %q", store.KindDocument, store.KindCertificate)
	}
	if req.ID != "" {
		switch {
		case strings.TrimSpace(req.ID) != req.ID:
			errs["id"] = "must not have leading or trailing whitespace"
		case len(req.ID) > MaxIDLength:
			errs["id"] = fmt.Sprintf("must be at most %d bytes", MaxIDLength)
		case strings.IndexFunc(req.ID, unicode.IsControl) >= 0:
			errs["id"] = "must not contain control characters"
		}
	}
	if strings.TrimSpace(req.Text) == "" {
		errs["text"] = "text is required"
	} else if len(req.Text) > MaxTextLength {
		errs["text"] = fmt.Sprintf("must be at most %d bytes", MaxTextLength)
	}
	if req.Fields != nil && kind == store.KindDocument {
		errs["fields"] = "only certificates carry fields"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
