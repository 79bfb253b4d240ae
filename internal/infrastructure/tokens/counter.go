package tokens

import (
	"log/slog"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens with the cl100k_base encoding so context
// budgets line up with how the corpus was chunked. If the encoding
// cannot be loaded it falls back to a characters-over-four estimate.
type Counter struct {
	encoding *tiktoken.Tiktoken
}

func NewCounter(logger *slog.Logger) *Counter {
	if logger == nil {
		logger = slog.Default()
	}
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("token_encoding_unavailable", "encoding", "cl100k_base", "error", err)
		return &Counter{}
	}
	return &Counter{encoding: encoding}
}

func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.encoding == nil {
		return utf8.RuneCountInString(text) / 4
	}
	return len(c.encoding.Encode(text, nil, nil))
}
