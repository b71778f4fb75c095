// Package prompt builds the text sent to the answer generator from a
// question and the segments retrieved for it.
package prompt

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"document-chat/internal/models"
)

const DefaultContextLimit = 1000

// Prompt is an assembled prompt together with the parts it was built from.
type Prompt struct {
	Text      string
	Context   string
	Sources   string
	Citations []models.Citation
}

type Assembler struct {
	contextLimit int
}

// NewAssembler returns an assembler that caps the context block at limit
// characters. A non-positive limit selects DefaultContextLimit.
func NewAssembler(limit int) *Assembler {
	if limit <= 0 {
		limit = DefaultContextLimit
	}
	return &Assembler{contextLimit: limit}
}

// Assemble renders the prompt for question. An empty result yields the
// NoContext and NoRelevantSource placeholders.
func (a *Assembler) Assemble(question string, result models.RetrievalResult) Prompt {
	p := Prompt{
		Context: models.NoContext,
		Sources: models.NoRelevantSource,
	}
	if len(result) > 0 {
		p.Citations = Citations(result)
		p.Sources = FormatCitations(p.Citations)
		p.Context = BuildContext(result, a.contextLimit)
	}
	p.Text = fmt.Sprintf(models.PromptTemplate, question, p.Context, p.Sources)
	return p
}

// Citations returns the distinct (source, page) pairs of result in first-seen order.
func Citations(result models.RetrievalResult) []models.Citation {
	seen := make(map[models.Citation]struct{}, len(result))
	var citations []models.Citation
	for _, r := range result {
		c := models.Citation{Source: r.Source, PageNumber: r.PageNumber}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		citations = append(citations, c)
	}
	return citations
}

// FormatCitation renders a single citation line.
func FormatCitation(c models.Citation) string {
	source := c.Source
	if source == "" {
		source = "Unknown"
	} else {
		source = filepath.Base(source)
	}
	page := models.UnknownPage
	if c.PageNumber > 0 {
		page = strconv.Itoa(c.PageNumber)
	}
	return fmt.Sprintf(models.CitationFormat, source, page)
}

func FormatCitations(citations []models.Citation) string {
	lines := make([]string, 0, len(citations))
	for _, c := range citations {
		lines = append(lines, FormatCitation(c))
	}
	return strings.Join(lines, "\n")
}

// BuildContext joins the retrieved contents with spaces and keeps the first
// limit characters. The cut is not word aware.
func BuildContext(result models.RetrievalResult, limit int) string {
	parts := make([]string, 0, len(result))
	for _, r := range result {
		parts = append(parts, r.Content)
	}
	return truncate(strings.Join(parts, " "), limit)
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
