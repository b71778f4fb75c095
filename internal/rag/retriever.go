package rag

import (
	"context"

	"github.com/rs/zerolog/log"

	"document-chat/internal/models"
)

const DefaultTopK = 10

type Retriever struct {
	store Store
	k     int
}

func NewRetriever(store Store, k int) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{store: store, k: k}
}

// Retrieve returns the k segments most similar to question, unchanged from
// the store's ranking.
func (r *Retriever) Retrieve(ctx context.Context, question string) (models.RetrievalResult, error) {
	result, err := r.store.Query(ctx, question, r.k)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		log.Info().Str("question", question).Msg("no relevant information found")
	}
	return result, nil
}
