package rag

import (
	"context"

	"github.com/rs/zerolog/log"

	"document-chat/internal/models"
	"document-chat/internal/parser"
)

// Ingest loads the document at path, splits it and writes the segments to
// store with ids id0..idN-1 in split order. It returns the number of
// segments written.
func Ingest(ctx context.Context, path string, store Store, splitter *parser.Splitter) (int, error) {
	segments, err := Prepare(path, splitter)
	if err != nil {
		return 0, err
	}
	if len(segments) == 0 {
		log.Warn().Str("file", path).Msg("Document produced no segments")
		return 0, nil
	}
	if err := store.Add(ctx, segments); err != nil {
		return 0, err
	}
	log.Info().Str("file", path).Int("segments", len(segments)).Msg("Ingested document")
	return len(segments), nil
}

// Prepare loads and splits the document and assigns segment ids without
// touching any store.
func Prepare(path string, splitter *parser.Splitter) ([]models.Segment, error) {
	pages, err := parser.LoadPages(path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", path).Int("pages", len(pages)).Msg("Loaded pages")

	segments, err := splitter.Split(pages)
	if err != nil {
		return nil, err
	}
	for i := range segments {
		segments[i].ID = models.SegmentID(i)
	}
	return segments, nil
}
