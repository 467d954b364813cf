package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/certificate"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/corpus/store"
	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

func TestValidateRegisterRequest(t *testing.T) {
	tests := []struct {
		name   string
		kind   store.Kind
		req    ingestion.RegisterRequest
		fields []string
	}{
		{"valid document", store.KindDocument, ingestion.RegisterRequest{ID: "doc-1", Text: "hello"}, nil},
		{"generated id", store.KindDocument, ingestion.RegisterRequest{Text: "hello"}, nil},
		{"certificate with fields", store.KindCertificate, ingestion.RegisterRequest{Text: "x", Fields: &certificate.Info{HolderName: "A B"}}, nil},
		{"blank text", store.KindDocument, ingestion.RegisterRequest{ID: "a", Text: " \n"}, []string{"text"}},
		{"padded id", store.KindDocument, ingestion.RegisterRequest{ID: " a", Text: "t"}, []string{"id"}},
		{"long id", store.KindDocument, ingestion.RegisterRequest{ID: strings.Repeat("x", MaxIDLength+1), Text: "t"}, []string{"id"}},
		{"control id", store.KindDocument, ingestion.RegisterRequest{ID: "a\x00b", Text: "t"}, []string{"id"}},
		{"long text", store.KindDocument, ingestion.RegisterRequest{Text: strings.Repeat("a", MaxTextLength+1)}, []string{"text"}},
		{"document fields", store.KindDocument, ingestion.RegisterRequest{Text: "t", Fields: &certificate.Info{}}, []string{"fields"}},
		{"bad kind", store.Kind("image"), ingestion.RegisterRequest{Text: ""}, []string{"kind", "text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegisterRequest(tt.kind, &tt.req)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.fields)
			}
			for _, f := range tt.fields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing field %q in %v", f, verr.Fields)
				}
			}
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Error("validation error does not match ErrInvalidInput")
			}
			if apperrors.HTTPStatusCode(err) != 400 {
				t.Errorf("status = %d", apperrors.HTTPStatusCode(err))
			}
		})
	}
}

func TestValidationErrorMessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"text": "b", "id": "a"}}
	if got := err.Error(); got != "id: a; text: b" {
		t.Errorf("Error() = %q", got)
	}
}
