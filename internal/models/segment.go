package models

import (
	"fmt"
	"strconv"
	"time"
)

// Page is one page unit of a loaded document. Number is 1-based, 0 when unknown.
type Page struct {
	Content string
	Source  string
	Number  int
}

// Segment is a slice of page text, the unit that is stored and retrieved.
type Segment struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Source     string `json:"source"`
	PageNumber int    `json:"page_number,omitempty"`
}

// SegmentID returns the id of the n-th segment of an ingestion run.
func SegmentID(n int) string {
	return fmt.Sprintf("%s%d", SegmentIDPrefix, n)
}

// Metadata returns the store metadata for the segment.
func (s Segment) Metadata() map[string]string {
	m := map[string]string{MetaSource: s.Source, MetaPage: ""}
	if s.PageNumber > 0 {
		m[MetaPage] = strconv.Itoa(s.PageNumber)
	}
	return m
}

// RetrievedSegment is a segment returned by a similarity query.
type RetrievedSegment struct {
	Segment
	Similarity float32 `json:"similarity"`
}

// NewRetrievedSegment rebuilds a segment from store fields.
func NewRetrievedSegment(id, content string, metadata map[string]string, similarity float32) RetrievedSegment {
	page, _ := strconv.Atoi(metadata[MetaPage])
	return RetrievedSegment{
		Segment: Segment{
			ID:         id,
			Content:    content,
			Source:     metadata[MetaSource],
			PageNumber: page,
		},
		Similarity: similarity,
	}
}

// RetrievalResult is ordered by similarity, most relevant first.
type RetrievalResult []RetrievedSegment

// Citation identifies a page of a source document.
type Citation struct {
	Source     string `json:"source"`
	PageNumber int    `json:"page_number,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation.
type Turn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// PromptResponse is the outcome of one pipeline run.
type PromptResponse struct {
	Query     string     `json:"query"`
	Prompt    string     `json:"-"`
	Source    string     `json:"sources"`
	Content   string     `json:"answer"`
	Citations []Citation `json:"citations"`
}
