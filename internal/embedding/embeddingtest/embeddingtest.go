// Package embeddingtest provides a deterministic embedder for tests that
// must not reach a model server.
package embeddingtest

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/embeddings"
)

const Dimensions = 256

// NewEmbedder returns an embedder that hashes lower-cased words into a
// fixed-size bag-of-words vector. Identical texts embed identically and
// texts sharing words have a positive cosine similarity.
func NewEmbedder() *embeddings.EmbedderImpl {
	e, err := embeddings.NewEmbedder(embeddings.EmbedderClientFunc(embedTexts))
	if err != nil {
		panic(err)
	}
	return e
}

func embedTexts(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = Vector(text)
	}
	return vectors, nil
}

// Vector embeds a single text.
func Vector(text string) []float32 {
	v := make([]float32, Dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%Dimensions]++
	}
	// zero vectors cannot be normalized
	if len(words) == 0 {
		v[0] = 1
	}
	return v
}
