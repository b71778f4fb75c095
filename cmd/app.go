package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"document-chat/internal/chromemdb"
	"document-chat/internal/config"
	"document-chat/internal/db"
	"document-chat/internal/embedding"
	"document-chat/internal/helper"
	"document-chat/internal/llmservice"
	"document-chat/internal/parser"
	"document-chat/internal/rag"
)

// app holds the wired pipeline for one process.
type app struct {
	store  rag.Store
	handle *rag.Handle
	rag    *rag.RAG
	bunDB  *bun.DB
}

func (a *app) Close() {
	if a.bunDB != nil {
		if err := a.bunDB.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing database")
		}
	}
}

func newSplitter(cfg *config.Config) *parser.Splitter {
	return parser.NewSplitter(
		parser.WithChunkSize(cfg.RAG.ChunkSize),
		parser.WithChunkOverlap(cfg.RAG.ChunkOverlap),
	)
}

// openStore opens the configured store. The returned bun.DB is nil for
// the chromem driver.
func openStore(ctx context.Context, cfg *config.Config) (rag.Store, *bun.DB, error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing embedder: %w", err)
	}

	switch cfg.Store.Driver {
	case "postgres":
		sqldb, err := db.ConnectDB(&cfg.Store)
		if err != nil {
			return nil, nil, fmt.Errorf("error connecting to database: %w", err)
		}
		bunDB := db.NewDB(sqldb, cfg.Store.Debug)
		if err := db.InitDB(ctx, bunDB); err != nil {
			_ = bunDB.Close()
			return nil, nil, fmt.Errorf("error initializing database: %w", err)
		}
		store := db.NewStore(bunDB, embedder)
		store.SetMinSimilarity(cfg.RAG.MinSimilarity)
		return store, bunDB, nil
	default:
		if err := helper.CreateFolder(cfg.Store.Path); err != nil {
			return nil, nil, err
		}
		store, err := chromemdb.NewVectorDBManager(&cfg.Store, false, embedder)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating vector database manager: %w", err)
		}
		store.SetMinSimilarity(cfg.RAG.MinSimilarity)
		return store, nil, nil
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, bunDB, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{store: store, bunDB: bunDB}

	a.handle, err = rag.OpenHandle(ctx, store, cfg.Document.Path, newSplitter(cfg))
	if err != nil {
		a.Close()
		return nil, err
	}

	generator, err := llmservice.NewGenerator(&cfg.LLM)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("error initializing generator: %w", err)
	}
	a.rag = rag.NewRAG(a.handle, generator, cfg)
	return a, nil
}

// openChromem opens the store for export and import, which only the chromem
// driver supports.
func openChromem(cmd *cobra.Command) (*chromemdb.VectorDBManager, func(), error) {
	store, bunDB, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	a := &app{store: store, bunDB: bunDB}
	m, ok := store.(*chromemdb.VectorDBManager)
	if !ok {
		a.Close()
		return nil, nil, errors.New("export and import are only supported by the chromem store")
	}
	return m, a.Close, nil
}
