package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", New(ErrInternal, http.StatusTeapot, "x"), http.StatusTeapot},
		{"invalid configuration", InvalidConfiguration("nGramSize", "must be >= 1, got %d", 0), http.StatusBadRequest},
		{"wrapped invalid input", fmt.Errorf("decoding: %w", ErrInvalidInput), http.StatusBadRequest},
		{"not found", ErrDocumentNotFound, http.StatusNotFound},
		{"sealed", ErrCorpusSealed, http.StatusConflict},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"deadline", fmt.Errorf("analyze: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInvalidConfigurationWrapsSentinel(t *testing.T) {
	err := InvalidConfiguration("weights", "sum to %.2f", 0.9)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration in chain, got %v", err)
	}
	want := "invalid configuration: weights: sum to 0.90"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
