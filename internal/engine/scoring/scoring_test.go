package scoring

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		w       Weights
		wantErr bool
	}{
		{"default", DefaultWeights(), false},
		{"all jaccard", Weights{Jaccard: 1}, false},
		{"float drift", Weights{Jaccard: 0.1 + 0.2, Cosine: 0.7}, false},
		{"sum too high", Weights{Jaccard: 0.6, Cosine: 0.6}, true},
		{"negative", Weights{Jaccard: 1.5, Cosine: -0.5}, true},
		{"NaN", Weights{Jaccard: math.NaN(), Cosine: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.w.Validate()
			if tt.wantErr && !errors.Is(err, apperrors.ErrInvalidConfiguration) {
				t.Errorf("Validate() = %v, want ErrInvalidConfiguration", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestValidateThreshold(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		if err := ValidateThreshold("threshold", v); err != nil {
			t.Errorf("ValidateThreshold(%v) = %v", v, err)
		}
	}
	for _, v := range []float64{-0.01, 1.01, math.NaN()} {
		if err := ValidateThreshold("threshold", v); !errors.Is(err, apperrors.ErrInvalidConfiguration) {
			t.Errorf("ValidateThreshold(%v) = %v, want ErrInvalidConfiguration", v, err)
		}
	}
}

func TestCombineDeterministicAndMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	w := DefaultWeights()
	for i := 0; i < 1000; i++ {
		j, c := rng.Float64(), rng.Float64()
		base := Combine(j, c, w)
		if base != Combine(j, c, w) {
			t.Fatalf("Combine(%v, %v) not deterministic", j, c)
		}
		dj, dc := rng.Float64()*(1-j), rng.Float64()*(1-c)
		if Combine(j+dj, c, w) < base {
			t.Fatalf("Combine decreased when jaccard rose: %v -> %v", j, j+dj)
		}
		if Combine(j, c+dc, w) < base {
			t.Fatalf("Combine decreased when cosine rose: %v -> %v", c, c+dc)
		}
	}
	if got := Combine(1, 1, w); math.Abs(got-1) > 1e-12 {
		t.Errorf("Combine(1, 1) = %v, want 1", got)
	}
}

func TestClassifyInclusiveThreshold(t *testing.T) {
	if !Classify(0.70, DefaultSimilarityThreshold) {
		t.Error("score equal to threshold should match")
	}
	if Classify(0.6999, DefaultSimilarityThreshold) {
		t.Error("score below threshold should not match")
	}
}

func TestPlagiarismConfidence(t *testing.T) {
	tests := []struct {
		max     float64
		isMatch bool
		want    int
	}{
		{1.0, true, 0},
		{0.8, true, 20},
		{0.704, true, 30},
		{0.5, false, 75},
		{0.0, false, 100},
		{0.334, false, 83},
	}
	for _, tt := range tests {
		if got := PlagiarismConfidence(tt.max, tt.isMatch); got != tt.want {
			t.Errorf("PlagiarismConfidence(%v, %v) = %d, want %d", tt.max, tt.isMatch, got, tt.want)
		}
	}
}

func TestForgeryConfidence(t *testing.T) {
	if got := ForgeryConfidence(0.876); got != 88 {
		t.Errorf("ForgeryConfidence(0.876) = %d, want 88", got)
	}
	if c := ClassifyForgery(false, 0.99); c.IsMatch || c.Confidence != 100 {
		t.Errorf("ClassifyForgery(false) = %+v", c)
	}
	if c := ClassifyForgery(true, 0.9); !c.IsMatch || c.Confidence != 90 {
		t.Errorf("ClassifyForgery(true, 0.9) = %+v", c)
	}
}

func TestClassifyPlagiarism(t *testing.T) {
	c := ClassifyPlagiarism(0.9, DefaultSimilarityThreshold)
	if !c.IsMatch || c.Confidence != 10 {
		t.Errorf("ClassifyPlagiarism(0.9) = %+v", c)
	}
	c = ClassifyPlagiarism(0.2, DefaultSimilarityThreshold)
	if c.IsMatch || c.Confidence != 90 {
		t.Errorf("ClassifyPlagiarism(0.2) = %+v", c)
	}
}

func TestRankTieBreaksByInsertion(t *testing.T) {
	in := []Scored{
		{DocID: "c", Seq: 3, Combined: 0.5},
		{DocID: "a", Seq: 1, Combined: 0.5},
		{DocID: "top", Seq: 4, Combined: 0.9},
		{DocID: "b", Seq: 2, Combined: 0.5},
		{DocID: "low", Seq: 0, Combined: 0.1},
	}
	got := Rank(in, 0)
	want := []string{"top", "a", "b", "c", "low"}
	for i, id := range want {
		if got[i].DocID != id {
			t.Fatalf("rank[%d] = %s, want %s (%+v)", i, got[i].DocID, id, got)
		}
	}
	if in[0].DocID != "c" {
		t.Error("Rank modified its input")
	}
	if limited := Rank(in, 2); len(limited) != 2 || limited[1].DocID != "a" {
		t.Errorf("Rank(limit=2) = %+v", limited)
	}
}

func TestPercent(t *testing.T) {
	tests := map[float64]float64{
		1:        100,
		0:        0,
		0.123456: 12.35,
		0.5:      50,
	}
	for in, want := range tests {
		if got := Percent(in); math.Abs(got-want) > 1e-9 {
			t.Errorf("Percent(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 200); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("Truncate = %q, want abc...", got)
	}
	if got := Truncate("héllo wörld", 4); got != "héll..." {
		t.Errorf("Truncate(multibyte) = %q", got)
	}
	if got := Truncate("abcdef", 0); got != "abcdef" {
		t.Errorf("Truncate(disabled) = %q", got)
	}
}
