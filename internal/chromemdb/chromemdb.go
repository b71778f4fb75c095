package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"document-chat/internal/config"
	"document-chat/internal/embedding"
	"document-chat/internal/models"
)

// VectorDBManager encapsulates the chromem-go database operations for one
// collection of segments.
type VectorDBManager struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
	embedder       embeddings.Embedder
	dbPath         string
	compress       bool
	encryptionKey  string
	minSimilarity  float32
}

// NewVectorDBManager opens (or creates) the store described by cfg. With
// inMemory set nothing is written to cfg.Path.
func NewVectorDBManager(cfg *config.StoreConfig, inMemory bool, embedder embeddings.Embedder) (*VectorDBManager, error) {
	var (
		db  *chromem.DB
		err error
	)
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create database: %v", models.ErrStoreWrite, err)
		}
	}

	m := &VectorDBManager{
		db:             db,
		collectionName: cfg.Collection,
		embedder:       embedder,
		dbPath:         cfg.Path,
		compress:       cfg.Compress,
		encryptionKey:  cfg.EncryptionKey,
	}
	if _, err := m.GetOrCreateCollection(); err != nil {
		return nil, err
	}
	return m, nil
}

// SetMinSimilarity drops query results below threshold. Zero keeps everything.
func (m *VectorDBManager) SetMinSimilarity(threshold float32) {
	m.minSimilarity = threshold
}

// create or read collection
func (m *VectorDBManager) GetOrCreateCollection() (*chromem.Collection, error) {
	c, err := m.db.GetOrCreateCollection(m.collectionName, nil, embedding.EmbeddingFunc(m.embedder))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create/get collection: %v", models.ErrStoreWrite, err)
	}
	m.collection = c
	return c, nil
}

// Add embeds and stores segments. Ids must be unique within the batch and
// must not exist in the collection yet.
func (m *VectorDBManager) Add(ctx context.Context, segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(segments))
	for _, s := range segments {
		if s.ID == "" {
			return fmt.Errorf("%w: segment without id", models.ErrStoreWrite)
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s in batch", models.ErrStoreWrite, s.ID)
		}
		seen[s.ID] = struct{}{}
		if m.exists(ctx, s.ID) {
			return fmt.Errorf("%w: id %s already stored", models.ErrStoreWrite, s.ID)
		}
	}

	vectors, err := embedding.GenerateEmbedding(ctx, m.embedder, segments)
	if err != nil {
		return fmt.Errorf("%w: failed to embed segments: %v", models.ErrStoreWrite, err)
	}

	docs := make([]chromem.Document, len(segments))
	for i, s := range segments {
		docs[i] = chromem.Document{
			ID:        s.ID,
			Content:   s.Content,
			Metadata:  s.Metadata(),
			Embedding: vectors[i],
		}
	}

	log.Info().Msgf("Adding %d documents to vector database", len(docs))
	if err := m.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: failed to add documents: %v", models.ErrStoreWrite, err)
	}
	return nil
}

func (m *VectorDBManager) exists(ctx context.Context, id string) bool {
	_, err := m.collection.GetByID(ctx, id)
	return err == nil
}

// Query returns up to k segments ordered by cosine similarity to text.
// An empty collection yields an empty result.
func (m *VectorDBManager) Query(ctx context.Context, text string, k int) (models.RetrievalResult, error) {
	count := m.collection.Count()
	if count == 0 || k <= 0 {
		return models.RetrievalResult{}, nil
	}
	if k > count {
		k = count
	}

	results, err := m.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	retrieved := make(models.RetrievalResult, 0, len(results))
	for _, r := range results {
		if m.minSimilarity > 0 && r.Similarity < m.minSimilarity {
			continue
		}
		retrieved = append(retrieved, models.NewRetrievedSegment(r.ID, r.Content, r.Metadata, r.Similarity))
	}
	log.Debug().Str("query", text).Int("results", len(retrieved)).Msg("Queried vector database")
	return retrieved, nil
}

func (m *VectorDBManager) Count(_ context.Context) (int, error) {
	return m.collection.Count(), nil
}

// Reset deletes the collection and starts a new empty one.
func (m *VectorDBManager) Reset(_ context.Context) error {
	if err := m.db.DeleteCollection(m.collectionName); err != nil {
		return fmt.Errorf("%w: failed to drop collection: %v", models.ErrStoreWrite, err)
	}
	_, err := m.GetOrCreateCollection()
	return err
}

// ExportPath is the default export file for the collection.
func (m *VectorDBManager) ExportPath() string {
	name := m.collectionName + ".chromem"
	if m.compress {
		name += ".gz"
	}
	return filepath.Join(m.dbPath, name)
}

// Export writes the collection, encrypted, to filePath.
func (m *VectorDBManager) Export(_ context.Context, filePath string) error {
	if m.encryptionKey == "" {
		return errors.New("encryption key is required")
	}
	if filePath == "" {
		filePath = m.ExportPath()
	}

	log.Debug().
		Str("collection", m.collectionName).
		Str("file", filePath).
		Bool("compress", m.compress).
		Msg("Exporting collection")
	if err := m.db.ExportToFile(filePath, m.compress, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	return nil
}

// Import replaces the collection with the one stored in filePath.
func (m *VectorDBManager) Import(_ context.Context, filePath string) error {
	if filePath == "" {
		filePath = m.ExportPath()
	}
	if err := m.db.ImportFromFile(filePath, m.encryptionKey, m.collectionName); err != nil {
		return fmt.Errorf("%w: failed to import database: %v", models.ErrStoreWrite, err)
	}
	// the import swaps in a new collection object
	_, err := m.GetOrCreateCollection()
	return err
}
