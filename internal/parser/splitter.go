package parser

import (
	"fmt"
	"strings"

	"document-chat/internal/models"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 10000 // characters
	DefaultChunkOverlap = 200   // characters
)

// Splitter cuts page units into overlapping segments of at most chunkSize
// characters.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	splitter     textsplitter.TextSplitter
}

type Option func(*Splitter)

func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

func WithChunkOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.chunkOverlap = overlap
		}
	}
}

func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = s.chunkSize / 2
	}
	s.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(s.chunkSize),
		textsplitter.WithChunkOverlap(s.chunkOverlap),
	)
	return s
}

func (s *Splitter) ChunkSize() int    { return s.chunkSize }
func (s *Splitter) ChunkOverlap() int { return s.chunkOverlap }

// Split returns the segments of pages in document order. Ids are left empty;
// they are assigned when the segments are written to a store.
func (s *Splitter) Split(pages []models.Page) ([]models.Segment, error) {
	var segments []models.Segment
	for _, page := range pages {
		if strings.TrimSpace(page.Content) == "" {
			continue
		}
		chunks, err := s.splitter.SplitText(page.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %v", page.Number, err)
		}
		for _, chunk := range chunks {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			segments = append(segments, models.Segment{
				Content:    chunk,
				Source:     page.Source,
				PageNumber: page.Number,
			})
		}
	}
	return segments, nil
}
