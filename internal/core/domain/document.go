package domain

// SourceDocument is one raw corpus file before chunking. SourceType
// and Jurisdiction come from where the file lives in the corpus tree;
// the indexer derives everything else from the text.
type SourceDocument struct {
	Path         string     `json:"path"`
	Filename     string     `json:"filename"`
	SourceType   SourceType `json:"source_type"`
	Jurisdiction string     `json:"jurisdiction,omitempty"`
	Text         string     `json:"-"`
}
