package ngram

import (
	"errors"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

func TestExtract(t *testing.T) {
	tokens := []string{"the", "cat", "sat", "on", "the", "cat", "sat"}

	tests := []struct {
		name string
		n    int
		want []string
	}{
		{"unigrams collapse duplicates", 1, []string{"the", "cat", "sat", "on"}},
		{"trigrams", 3, []string{"the cat sat", "cat sat on", "sat on the", "on the cat"}},
		{"whole sequence", 7, []string{"the cat sat on the cat sat"}},
		{"longer than sequence", 8, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tokens, tt.n)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d (%v)", len(got), len(tt.want), got)
			}
			for _, g := range tt.want {
				if !got.Contains(g) {
					t.Errorf("missing %q in %v", g, got)
				}
			}
		})
	}
}

func TestExtractEmptyInput(t *testing.T) {
	got, err := Extract(nil, DefaultSize)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Extract(nil) = %#v, want empty set", got)
	}
}

func TestExtractInvalidWidth(t *testing.T) {
	for _, n := range []int{0, -3} {
		if _, err := Extract([]string{"a"}, n); !errors.Is(err, apperrors.ErrInvalidConfiguration) {
			t.Errorf("Extract(n=%d) err = %v, want ErrInvalidConfiguration", n, err)
		}
	}
}
