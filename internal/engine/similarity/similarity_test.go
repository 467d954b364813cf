package similarity

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/internal/engine/ngram"
)

func set(items ...string) ngram.Set {
	s := make(ngram.Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b ngram.Set
		want float64
	}{
		{"both empty", set(), set(), 0},
		{"a empty", set(), set("x"), 0},
		{"b nil", set("x"), nil, 0},
		{"identical", set("a", "b", "c"), set("a", "b", "c"), 1},
		{"disjoint", set("a", "b"), set("c", "d"), 0},
		{"half overlap", set("a", "b", "c"), set("b", "c", "d"), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); got != tt.want {
				t.Errorf("Jaccard() = %v, want %v", got, tt.want)
			}
			if got := Jaccard(tt.b, tt.a); got != tt.want {
				t.Errorf("Jaccard() not symmetric: %v", got)
			}
		})
	}
}

func TestTokenSetJaccard(t *testing.T) {
	got := TokenSetJaccard("issued to [NAME] on [DATE]", "issued to [NAME] on [DATE] [DATE]")
	if got != 1 {
		t.Errorf("TokenSetJaccard() = %v, want 1", got)
	}
	if got := TokenSetJaccard("", "anything"); got != 0 {
		t.Errorf("TokenSetJaccard(empty) = %v, want 0", got)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		x, y []string
		want float64
	}{
		{"both empty", nil, nil, 0},
		{"one empty", []string{"a"}, nil, 0},
		{"disjoint", []string{"apple", "banana"}, []string{"dog", "frog"}, 0},
		{"identical", []string{"the", "quick", "the"}, []string{"the", "quick", "the"}, 1},
		// x = {a:2, b:1}, y = {a:1}; dot = 2, |x| = sqrt(5), |y| = 1
		{"weighted", []string{"a", "a", "b"}, []string{"a"}, 2 / math.Sqrt(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.x, tt.y)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSelfSimilarityIsOne(t *testing.T) {
	x := []string{"to", "be", "or", "not", "to", "be", "that", "is", "the", "question"}
	if got := Cosine(x, x); math.Abs(got-1) > 1e-12 {
		t.Errorf("Cosine(x, x) = %v, want 1", got)
	}
}

func TestMetricsStayInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	randomTokens := func() []string {
		n := rng.Intn(40)
		out := make([]string, n)
		for i := range out {
			out[i] = vocab[rng.Intn(len(vocab))]
		}
		return out
	}
	for i := 0; i < 2000; i++ {
		x, y := randomTokens(), randomTokens()
		if c := Cosine(x, y); c < 0 || c > 1 || math.IsNaN(c) {
			t.Fatalf("Cosine(%v, %v) = %v outside [0,1]", x, y, c)
		}
		gx, _ := ngram.Extract(x, 2)
		gy, _ := ngram.Extract(y, 2)
		if j := Jaccard(gx, gy); j < 0 || j > 1 || math.IsNaN(j) {
			t.Fatalf("Jaccard = %v outside [0,1]", j)
		}
	}
}

func TestFrequencyMagnitude(t *testing.T) {
	v := Frequencies([]string{"hello", "hello", "world"})
	if v["hello"] != 2 || v["world"] != 1 {
		t.Fatalf("Frequencies = %v", v)
	}
	if math.Abs(v.Magnitude()-math.Sqrt(5)) > 1e-12 {
		t.Errorf("Magnitude = %v, want sqrt(5)", v.Magnitude())
	}
}
