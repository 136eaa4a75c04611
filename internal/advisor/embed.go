package advisor

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"unicode"

	"lukechampine.com/blake3"
)

// DefaultDim is the embedding width of the advisor index.
const DefaultDim = 256

// ErrEmptyQuery is returned when a text has no searchable tokens.
var ErrEmptyQuery = errors.New("query has no searchable words")

// Embedder maps text to a fixed-width vector.
type Embedder interface {
	Embed(text string) ([]float32, error)
	Dim() int
}

// HashEmbedder is a hashed bag of words: each lower-cased token adds +1 or
// -1 to one bucket picked by its hash. Vectors are L2-normalized.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder creates a HashEmbedder of width dim, or DefaultDim when
// dim is not positive.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Dim() int { return h.dim }

func (h *HashEmbedder) Embed(text string) ([]float32, error) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrEmptyQuery
	}
	v := make([]float32, h.dim)
	for _, tok := range tokens {
		sum := blake3.Sum256([]byte(tok))
		x := binary.LittleEndian.Uint64(sum[:8])
		bucket := int(x % uint64(h.dim))
		if sum[8]&1 == 0 {
			v[bucket]++
		} else {
			v[bucket]--
		}
	}
	normalize(v)
	return v, nil
}

// Tokenize splits text into lower-cased words of two or more letters or
// digits.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}
