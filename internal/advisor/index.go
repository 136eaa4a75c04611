package advisor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gorgonia.org/tensor"

	"github.com/freeeve/hexciv/pkg/civ"
)

// DefaultK is the number of results returned when none is requested.
const DefaultK = 3

// MaxK bounds the number of results per search.
const MaxK = 20

// Result is a document with its cosine score against the query.
type Result struct {
	Document
	Score float32 `json:"score"`
}

// Index holds the document embeddings as an [N, D] matrix.
type Index struct {
	docs     []Document
	embedder Embedder
	matrix   *tensor.Dense
}

// NewIndex embeds docs with embedder.
func NewIndex(docs []Document, embedder Embedder) (*Index, error) {
	dim := embedder.Dim()
	backing := make([]float32, 0, len(docs)*dim)
	kept := make([]Document, 0, len(docs))
	for _, d := range docs {
		v, err := embedder.Embed(d.Title + ". " + d.Text)
		if errors.Is(err, ErrEmptyQuery) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", d.ID, err)
		}
		backing = append(backing, v...)
		kept = append(kept, d)
	}
	idx := &Index{docs: kept, embedder: embedder}
	if len(kept) > 0 {
		idx.matrix = tensor.New(
			tensor.WithShape(len(kept), dim),
			tensor.Of(tensor.Float32),
			tensor.WithBacking(backing),
		)
	}
	return idx, nil
}

// New builds the catalog index. When modelPath is set the ONNX embedder is
// used; a model that fails to load falls back to hashed features.
func New(cat *civ.Catalog, modelPath string) (*Index, error) {
	var embedder Embedder = NewHashEmbedder(DefaultDim)
	if modelPath != "" {
		e, err := NewONNXEmbedder(modelPath, DefaultDim)
		if err != nil {
			log.Warn().Err(err).Str("path", modelPath).Msg("Advisor model unavailable, using hashed embeddings")
		} else {
			embedder = e
		}
	}
	idx, err := NewIndex(Documents(cat), embedder)
	if err != nil {
		return nil, err
	}
	log.Info().Int("documents", idx.Len()).Int("dim", embedder.Dim()).Msg("Advisor index built")
	return idx, nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.docs) }

// Search returns the k documents most similar to query, best first.
func (x *Index) Search(query string, k int) ([]Result, error) {
	if k <= 0 {
		k = DefaultK
	}
	k = min(k, MaxK)
	q, err := x.embedder.Embed(query)
	if err != nil {
		return nil, err
	}
	if x.matrix == nil {
		return []Result{}, nil
	}

	qv := tensor.New(tensor.WithShape(len(q)), tensor.Of(tensor.Float32), tensor.WithBacking(q))
	scoresT, err := x.matrix.MatVecMul(qv)
	if err != nil {
		return nil, fmt.Errorf("score documents: %w", err)
	}
	scores, ok := scoresT.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected score type %T", scoresT.Data())
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	k = min(k, len(order))
	out := make([]Result, k)
	for i := 0; i < k; i++ {
		out[i] = Result{Document: x.docs[order[i]], Score: scores[order[i]]}
	}
	return out, nil
}
