package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"document-chat/internal/config"
	"document-chat/internal/embedding"
	"document-chat/internal/models"
)

type Segment struct {
	bun.BaseModel `bun:"table:segments,alias:s"`
	ID            string          `bun:"id,pk"`
	Content       string          `bun:"content,notnull"`
	Source        string          `bun:"source,notnull"`
	PageNumber    int             `bun:"page,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector"`
	Similarity    float32         `bun:"similarity,scanonly"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(cfg *config.StoreConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("store.dsn is required")
	}
	opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
	if cfg.Password != "" {
		opts = append(opts, pgdriver.WithPassword(cfg.Password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
}

// InitDB enables pgvector and creates the segments table.
func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewRaw("CREATE EXTENSION IF NOT EXISTS vector").Exec(ctx); err != nil {
		return fmt.Errorf("failed to enable pgvector: %v", err)
	}
	_, err := db.NewCreateTable().Model((*Segment)(nil)).IfNotExists().Exec(ctx)
	return err
}

func DropSegments(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Segment)(nil)).IfExists().Exec(ctx)
	return err
}

// Store keeps segments in Postgres and ranks them by cosine distance.
type Store struct {
	db            *bun.DB
	embedder      embeddings.Embedder
	minSimilarity float32
}

func NewStore(db *bun.DB, embedder embeddings.Embedder) *Store {
	return &Store{db: db, embedder: embedder}
}

func (s *Store) SetMinSimilarity(threshold float32) {
	s.minSimilarity = threshold
}

func (s *Store) Add(ctx context.Context, segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	ids := make([]string, 0, len(segments))
	seen := make(map[string]struct{}, len(segments))
	for _, seg := range segments {
		if seg.ID == "" {
			return fmt.Errorf("%w: segment without id", models.ErrStoreWrite)
		}
		if _, ok := seen[seg.ID]; ok {
			return fmt.Errorf("%w: duplicate id %s in batch", models.ErrStoreWrite, seg.ID)
		}
		seen[seg.ID] = struct{}{}
		ids = append(ids, seg.ID)
	}

	existing, err := s.db.NewSelect().Model((*Segment)(nil)).Where("id IN (?)", bun.In(ids)).Count(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreWrite, err)
	}
	if existing > 0 {
		return fmt.Errorf("%w: %d ids already stored", models.ErrStoreWrite, existing)
	}

	vectors, err := embedding.GenerateEmbedding(ctx, s.embedder, segments)
	if err != nil {
		return fmt.Errorf("%w: failed to embed segments: %v", models.ErrStoreWrite, err)
	}

	rows := make([]Segment, len(segments))
	for i, seg := range segments {
		rows[i] = Segment{
			ID:         seg.ID,
			Content:    seg.Content,
			Source:     seg.Source,
			PageNumber: seg.PageNumber,
			Embedding:  pgvector.NewVector(vectors[i]),
		}
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreWrite, describe(err))
	}
	log.Info().Msgf("Stored %d segments in postgres", len(rows))
	return nil
}

func (s *Store) Query(ctx context.Context, text string, k int) (models.RetrievalResult, error) {
	if k <= 0 {
		return models.RetrievalResult{}, nil
	}
	vec, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}
	qv := pgvector.NewVector(vec)

	var rows []Segment
	err = s.db.NewSelect().
		Model(&rows).
		Column("id", "content", "source", "page").
		ColumnExpr("1 - (embedding <=> ?) AS similarity", qv).
		OrderExpr("embedding <=> ?", qv).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %v", err)
	}

	result := make(models.RetrievalResult, 0, len(rows))
	for _, r := range rows {
		if s.minSimilarity > 0 && r.Similarity < s.minSimilarity {
			continue
		}
		result = append(result, models.RetrievedSegment{
			Segment: models.Segment{
				ID:         r.ID,
				Content:    r.Content,
				Source:     r.Source,
				PageNumber: r.PageNumber,
			},
			Similarity: r.Similarity,
		})
	}
	return result, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*Segment)(nil)).Count(ctx)
}

func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.NewTruncateTable().Model((*Segment)(nil)).Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStoreWrite, err)
	}
	return nil
}

// describe adds the SQLSTATE to postgres errors.
func describe(err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		if pgErr.IntegrityViolation() {
			return fmt.Errorf("integrity violation (%s): %s", pgErr.Field('C'), pgErr.Field('M'))
		}
		return fmt.Errorf("postgres error %s: %s", pgErr.Field('C'), pgErr.Field('M'))
	}
	return err
}
