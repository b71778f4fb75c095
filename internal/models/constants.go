package models

const (
	ThinkTag = `(?s)<think>.*?</think>`

	// Store metadata keys.
	MetaSource = "source"
	MetaPage   = "page"

	SegmentIDPrefix = "id"

	UnknownPage      = "N/D"
	NoContext        = "No context available"
	NoRelevantSource = "No relevant information found"
	CitationFormat   = "Source: %s, Page: %s"
)

var (
	// PromptTemplate takes the question, the context block and the source lines.
	PromptTemplate = `
## SYSTEM ROLE
You are an AI assistant providing concise, accurate answers based only on the given context.

## USER QUESTION
"%s"

## CONTEXT
'''
%s
'''

## RESPONSE FORMAT
**Answer:** [Concise response]

**Key Insights:**
- Bullet point 1
- Bullet point 2

%s
`
)
