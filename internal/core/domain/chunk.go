package domain

import "strings"

type SourceType string

const (
	SourceStatute  SourceType = "statute"
	SourceCaseLaw  SourceType = "case_law"
	SourceTraining SourceType = "training"
	SourceUnknown  SourceType = "unknown"
)

// ParseSourceType maps a stored tag to the closed source-type set,
// falling back to SourceUnknown for anything unrecognized.
func ParseSourceType(s string) SourceType {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case SourceStatute:
		return SourceStatute
	case SourceCaseLaw:
		return SourceCaseLaw
	case SourceTraining:
		return SourceTraining
	default:
		return SourceUnknown
	}
}

// Chunk is the atomic retrievable unit of the legal corpus. Identifier
// lists (statute numbers, case citations, chapter numbers) are stored
// comma-joined, matching how the ingestion side writes them.
type Chunk struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	SourceType     SourceType `json:"source_type"`
	SourceFile     string     `json:"source_file,omitempty"`
	Title          string     `json:"title,omitempty"`
	ContextHeader  string     `json:"context_header,omitempty"`
	StatuteNumbers string     `json:"statute_numbers,omitempty"`
	CaseCitations  string     `json:"case_citations,omitempty"`
	ChapterNumbers string     `json:"chapter_numbers,omitempty"`
	Jurisdiction   string     `json:"jurisdiction,omitempty"`
	Superseded     bool       `json:"superseded,omitempty"`
	TokenCount     int        `json:"token_count"`
	Embedding      []float32  `json:"-"`
}

// StatuteList splits the comma-joined statute numbers, dropping blanks.
func (c Chunk) StatuteList() []string {
	return splitCommaList(c.StatuteNumbers)
}

func (c Chunk) CitationList() []string {
	return splitCommaList(c.CaseCitations)
}

func (c Chunk) ChapterList() []string {
	return splitCommaList(c.ChapterNumbers)
}

func splitCommaList(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
