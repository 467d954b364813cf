package segment

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Similarity-Engine/pkg/errors"
)

// naiveFind extends every offset pair directly, without the window index,
// then drops each run whose query and reference ranges both lie inside
// another run.
func naiveFind(query, reference []string, minLen int) []Match {
	var runs []Match
	for i := 0; i+minLen <= len(query); i++ {
		for j := 0; j+minLen <= len(reference); j++ {
			k := 0
			for i+k < len(query) && j+k < len(reference) && query[i+k] == reference[j+k] {
				k++
			}
			if k >= minLen {
				runs = append(runs, Match{
					Text:            strings.Join(query[i:i+k], " "),
					Length:          k,
					QueryOffset:     i,
					ReferenceOffset: j,
				})
			}
		}
	}
	matches := make([]Match, 0)
	for a, m := range runs {
		contained := false
		for b, o := range runs {
			if a != b && within(m, o) {
				contained = true
				break
			}
		}
		if !contained {
			matches = append(matches, m)
		}
	}
	return matches
}

// within reports whether m's query and reference ranges both lie inside o's.
func within(m, o Match) bool {
	return m.QueryOffset >= o.QueryOffset && m.QueryOffset+m.Length <= o.QueryOffset+o.Length &&
		m.ReferenceOffset >= o.ReferenceOffset && m.ReferenceOffset+m.Length <= o.ReferenceOffset+o.Length
}

func TestFindSelfMatchIsOneSegment(t *testing.T) {
	tokens := strings.Fields("the quick brown fox jumps over the lazy dog")
	for minLen := 1; minLen <= len(tokens); minLen++ {
		got, err := Find(tokens, tokens, minLen)
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("minLen=%d: got %d segments, want 1: %+v", minLen, len(got), got)
		}
		m := got[0]
		if m.QueryOffset != 0 || m.ReferenceOffset != 0 || m.Length != len(tokens) {
			t.Errorf("minLen=%d: segment = %+v, want full span at (0,0)", minLen, m)
		}
	}
}

func TestFindSelfMatchRepetitive(t *testing.T) {
	tokens := strings.Fields(strings.Repeat("a ", 25))
	got, err := Find(tokens, tokens, 10)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 || got[0].Length != 25 {
		t.Errorf("got %+v, want one segment of length 25", got)
	}
}

func TestFindShortInputs(t *testing.T) {
	long := strings.Fields("one two three four five six seven eight nine ten eleven")
	short := long[:4]
	for _, tc := range []struct {
		name   string
		q, r   []string
		minLen int
	}{
		{"short query", short, long, 5},
		{"short reference", long, short, 5},
		{"empty query", nil, long, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Find(tc.q, tc.r, tc.minLen)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("Find = %#v, want empty", got)
			}
		})
	}
}

func TestFindInvalidMinLength(t *testing.T) {
	_, err := Find([]string{"a"}, []string{"a"}, 0)
	if !errors.Is(err, apperrors.ErrInvalidConfiguration) {
		t.Errorf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestFindStopsAtBoundary(t *testing.T) {
	query := strings.Fields("x y a b c d")
	reference := strings.Fields("a b c d z")
	got, err := Find(query, reference, 3)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := []Match{{Text: "a b c d", Length: 4, QueryOffset: 2, ReferenceOffset: 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Find = %+v, want %+v", got, want)
	}
}

func TestFindReportsDistinctRuns(t *testing.T) {
	query := strings.Fields("alpha beta gamma delta noise epsilon zeta eta theta")
	reference := strings.Fields("epsilon zeta eta theta filler alpha beta gamma delta")
	got, err := Find(query, reference, 3)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := []Match{
		{Text: "alpha beta gamma delta", Length: 4, QueryOffset: 0, ReferenceOffset: 5},
		{Text: "epsilon zeta eta theta", Length: 4, QueryOffset: 5, ReferenceOffset: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Find = %+v, want %+v", got, want)
	}
}

func TestFindRepeatedPassages(t *testing.T) {
	passage := "a b c d e f g h i j"
	for _, tc := range []struct {
		name   string
		q, r   string
		minLen int
		want   []Match
	}{
		{
			name:   "reference repeats the passage",
			q:      passage,
			r:      passage + " x y z " + passage,
			minLen: 10,
			want: []Match{
				{Text: passage, Length: 10, QueryOffset: 0, ReferenceOffset: 0},
				{Text: passage, Length: 10, QueryOffset: 0, ReferenceOffset: 13},
			},
		},
		{
			name:   "query repeats the passage",
			q:      passage + " x " + passage,
			r:      passage,
			minLen: 10,
			want: []Match{
				{Text: passage, Length: 10, QueryOffset: 0, ReferenceOffset: 0},
				{Text: passage, Length: 10, QueryOffset: 11, ReferenceOffset: 0},
			},
		},
		{
			name:   "shorter run elsewhere in the reference",
			q:      "a b c d e f g h",
			r:      "a b c d e f g h q c d e f z",
			minLen: 4,
			want: []Match{
				{Text: "a b c d e f g h", Length: 8, QueryOffset: 0, ReferenceOffset: 0},
				{Text: "c d e f", Length: 4, QueryOffset: 2, ReferenceOffset: 9},
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Find(strings.Fields(tc.q), strings.Fields(tc.r), tc.minLen)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Find = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFindMatchesNaiveDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vocab := []string{"a", "b", "c", "d"}
	randomTokens := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = vocab[rng.Intn(len(vocab))]
		}
		return out
	}
	for round := 0; round < 500; round++ {
		q := randomTokens(rng.Intn(60))
		r := randomTokens(rng.Intn(60))
		if rng.Intn(3) == 0 && len(q) > 10 {
			// Plant a shared run so long matches are exercised.
			r = append(append(randomTokens(rng.Intn(5)), q[3:len(q)-2]...), randomTokens(rng.Intn(5))...)
		}
		minLen := 1 + rng.Intn(6)
		got, err := Find(q, r, minLen)
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		want := naiveFind(q, r, minLen)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round %d minLen=%d\nq=%v\nr=%v\ngot  %+v\nwant %+v", round, minLen, q, r, got, want)
		}
	}
}

func TestFindNoStrictSubRuns(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	vocab := []string{"x", "y", "z"}
	for round := 0; round < 300; round++ {
		q := make([]string, rng.Intn(50))
		r := make([]string, rng.Intn(50))
		for i := range q {
			q[i] = vocab[rng.Intn(len(vocab))]
		}
		for i := range r {
			r[i] = vocab[rng.Intn(len(vocab))]
		}
		minLen := 2 + rng.Intn(4)
		got, err := Find(q, r, minLen)
		if err != nil {
			t.Fatalf("Find: %v", err)
		}
		for a, m := range got {
			if m.Length < minLen {
				t.Fatalf("segment %+v shorter than %d", m, minLen)
			}
			for b, o := range got {
				if a == b {
					continue
				}
				if within(m, o) {
					t.Fatalf("segment %+v lies inside %+v", m, o)
				}
			}
		}
	}
}

func BenchmarkFind(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	words := strings.Fields("lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor")
	doc := make([]string, 2000)
	for i := range doc {
		doc[i] = words[rng.Intn(len(words))]
	}
	other := append(append([]string{}, doc[500:900]...), doc[100:300]...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Find(doc, other, DefaultMinLength); err != nil {
			b.Fatal(err)
		}
	}
}
