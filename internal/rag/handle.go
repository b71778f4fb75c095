package rag

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"document-chat/internal/parser"
)

// Handle owns the store and tracks whether the configured document has been
// ingested into it. Ingestion runs at most once per process; a store that
// already holds segments when the handle is opened counts as populated.
type Handle struct {
	store    Store
	path     string
	splitter *parser.Splitter

	mu        sync.Mutex
	populated bool
	ingests   int
}

// OpenHandle checks the store once to decide whether ingestion is needed.
func OpenHandle(ctx context.Context, store Store, path string, splitter *parser.Splitter) (*Handle, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored segments: %v", err)
	}
	if count > 0 {
		log.Info().Int("segments", count).Msg("Store already populated, skipping ingestion")
	}
	return &Handle{
		store:     store,
		path:      path,
		splitter:  splitter,
		populated: count > 0,
	}, nil
}

func (h *Handle) Store() Store { return h.store }

func (h *Handle) Populated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.populated
}

// Ingestions reports how many times ingestion ran through this handle.
func (h *Handle) Ingestions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ingests
}

// EnsurePopulated ingests the document unless that already happened.
// Concurrent callers wait for the running ingestion. After a failure the
// handle stays unpopulated and the next call tries again.
func (h *Handle) EnsurePopulated(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.populated {
		return nil
	}

	h.ingests++
	if _, err := Ingest(ctx, h.path, h.store, h.splitter); err != nil {
		return err
	}
	h.populated = true
	return nil
}

// Reset empties the store and marks the handle unpopulated.
func (h *Handle) Reset(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.store.Reset(ctx); err != nil {
		return err
	}
	h.populated = false
	return nil
}
