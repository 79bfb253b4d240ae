package ollama

import (
	"fmt"
	"strings"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

func buildAnswerPrompt(question string, window domain.ContextWindow) string {
	var sources strings.Builder
	for idx, src := range window.Sources {
		sources.WriteString(fmt.Sprintf("[%d] %s", idx+1, src.SourceFile))
		if src.Title != "" {
			sources.WriteString(" - " + src.Title)
		}
		sources.WriteString("\n")
	}

	return fmt.Sprintf(`You are a legal information assistant for Wisconsin law enforcement.
Answer the question using only the context below.
Cite statute numbers exactly as they appear in the context.
If the context does not contain the answer, say so directly instead of guessing.

Question:
%s

Context:
%s

Sources:
%s`, question, window.Text, sources.String())
}
