package advisor

import (
	"errors"
	"math"
	"testing"

	"github.com/freeeve/hexciv/pkg/civ"
)

func TestDocumentsCoverCatalog(t *testing.T) {
	cat := civ.DefaultCatalog()
	docs := Documents(cat)
	want := len(cat.Units) + len(cat.Buildings) + len(cat.Techs) + len(cat.Eras)
	if len(docs) != want {
		t.Fatalf("expected %d documents, got %d", want, len(docs))
	}
	seen := make(map[string]bool)
	for _, d := range docs {
		if seen[d.ID] {
			t.Errorf("duplicate document %s", d.ID)
		}
		seen[d.ID] = true
		if d.Text == "" || d.Title == "" {
			t.Errorf("document %s has no text", d.ID)
		}
	}
	if !seen["tech:agriculture"] || !seen["unit:settler"] || !seen["era:ancient"] {
		t.Error("expected agriculture, settler and ancient era documents")
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"City science +2.", []string{"city", "science"}},
		{"Bronze-Working, a", []string{"bronze", "working"}},
		{"  ", nil},
	}
	for _, tt := range tests {
		got := Tokenize(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(0)
	if e.Dim() != DefaultDim {
		t.Fatalf("expected default dim, got %d", e.Dim())
	}
	a, err := e.Embed("Found a new city")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, _ := e.Embed("found a NEW city!")
	var norm float64
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("embedding should ignore case and punctuation")
		}
		norm += float64(a[i]) * float64(a[i])
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("expected unit vector, got norm %f", norm)
	}
	if _, err := e.Embed("?!"); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearchRanksMatchingDocumentFirst(t *testing.T) {
	idx, err := New(civ.DefaultCatalog(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tests := []struct {
		query string
		want  string
	}{
		{"settler founds a new city", "unit:settler"},
		{"Agriculture technology", "tech:agriculture"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := idx.Search(tt.query, 3)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(results) != 3 {
				t.Fatalf("expected 3 results, got %d", len(results))
			}
			if results[0].ID != tt.want {
				t.Errorf("expected %s first, got %s (%v)", tt.want, results[0].ID, results)
			}
			for i := 1; i < len(results); i++ {
				if results[i].Score > results[i-1].Score {
					t.Fatalf("results not sorted: %v", results)
				}
			}
		})
	}
}

func TestSearchLimits(t *testing.T) {
	docs := []Document{
		{ID: "a", Title: "Granary", Text: "Stores food."},
		{ID: "b", Title: "Library", Text: "Adds science."},
	}
	idx, err := NewIndex(docs, NewHashEmbedder(64))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	results, err := idx.Search("food", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 || results[0].ID != "a" {
		t.Fatalf("unexpected results: %v", results)
	}
	if results, _ := idx.Search("food", 0); len(results) != 2 {
		t.Errorf("default k should cap at the index size, got %d", len(results))
	}
	if _, err := idx.Search("", 3); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}

	empty, _ := NewIndex(nil, NewHashEmbedder(64))
	if results, err := empty.Search("food", 3); err != nil || len(results) != 0 {
		t.Errorf("empty index: %v %v", results, err)
	}
}

func TestNewFallsBackWithoutModel(t *testing.T) {
	idx, err := New(civ.DefaultCatalog(), "/nonexistent/advisor.onnx")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := idx.embedder.(*HashEmbedder); !ok {
		t.Fatalf("expected hashed fallback, got %T", idx.embedder)
	}
	if _, err := NewONNXEmbedder("/nonexistent/advisor.onnx", 0); err == nil {
		t.Error("expected load error")
	}
}
