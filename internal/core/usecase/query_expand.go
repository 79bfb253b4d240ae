package usecase

import (
	"regexp"
	"strings"

	"github.com/brian-an/wisconsin-law-rag/internal/core/domain"
)

// Statute numbers like "346.63" or "940.01(1)(b)", with or without a
// leading section sign.
var statuteNumberPattern = regexp.MustCompile(`(?:§\s*)?(\d{2,4}\.\d{2,4}(?:\(\d+\)(?:\([a-z]\))?)?)`)

// Case citations like "2023 WI App 45", "2023 WI 12", "2023AP001234".
var caseCitationPattern = regexp.MustCompile(`(\d{4}\s*(?:WI\s*(?:App\s*)?\d+|AP\s*\d+))`)

var abbreviationPatterns = buildAbbreviationPatterns()

type abbreviationPattern struct {
	re   *regexp.Regexp
	full string
}

func buildAbbreviationPatterns() []abbreviationPattern {
	out := make([]abbreviationPattern, 0, len(abbreviations))
	for _, a := range abbreviations {
		// The optional trailing parenthetical catches text that was
		// already annotated, so repeated expansion is a no-op.
		re := regexp.MustCompile(`(?i)\b(` + regexp.QuoteMeta(a.Short) + `)\b(\s*\([^)]*\))?`)
		out = append(out, abbreviationPattern{re: re, full: a.Full})
	}
	return out
}

// ExpandQuery rewrites a raw query for hybrid search: abbreviations are
// annotated inline with their legal expansion, colloquialisms contribute
// formal synonyms to the semantic query, and statute/case tokens are
// extracted verbatim as exact-match keywords. Statute numbers are never
// rewritten; the dictionaries only target alphabetic tokens.
func ExpandQuery(raw string) domain.ExpandedQuery {
	corrected := expandAbbreviations(raw)

	statutes := statuteNumberPattern.FindAllStringSubmatch(corrected, -1)
	cases := caseCitationPattern.FindAllStringSubmatch(corrected, -1)
	keywords := make([]string, 0, len(statutes)+len(cases))
	for _, m := range statutes {
		keywords = append(keywords, m[1])
	}
	for _, m := range cases {
		keywords = append(keywords, m[1])
	}
	keywords = dedupeInOrder(keywords)

	synonyms := closedSynonyms(raw)

	// Only synonyms not already present in the corrected text are
	// appended, and the appended tail goes through abbreviation
	// annotation itself, so re-expanding an expanded query is a no-op.
	semantic := corrected
	lowerCorrected := strings.ToLower(corrected)
	missing := make([]string, 0, len(synonyms))
	for _, syn := range synonyms {
		if !strings.Contains(lowerCorrected, strings.ToLower(syn)) {
			missing = append(missing, syn)
		}
	}
	if len(missing) > 0 {
		semantic = expandAbbreviations(corrected + " " + strings.Join(missing, " "))
	}

	return domain.ExpandedQuery{
		Original:      raw,
		CorrectedText: corrected,
		SemanticQuery: semantic,
		ExactKeywords: keywords,
		Synonyms:      synonyms,
		ChapterHints:  chapterHints(raw),
	}
}

// expandAbbreviations rewrites whole-token abbreviation hits as
// "ABBR (Full Expansion)" so both forms stay searchable. Tokens already
// followed by a parenthetical are left alone, which makes the rewrite
// idempotent.
func expandAbbreviations(text string) string {
	result := text
	for _, p := range abbreviationPatterns {
		full := p.full
		result = p.re.ReplaceAllStringFunc(result, func(match string) string {
			groups := p.re.FindStringSubmatch(match)
			if groups[2] != "" {
				return match
			}
			return groups[1] + " (" + full + ")"
		})
	}
	return result
}

// legalSynonyms returns formal equivalents for informal phrases found
// in the query, deduplicated in discovery order.
func legalSynonyms(query string) []string {
	lower := strings.ToLower(query)
	var out []string
	for _, c := range colloquialisms {
		if strings.Contains(lower, c.Informal) {
			out = append(out, c.Formal...)
		}
	}
	return dedupeInOrder(out)
}

// closedSynonyms expands synonyms to a fixed point: a synonym that is
// itself a known colloquialism (e.g. "Terry stop") pulls in its own
// formal equivalents. Without the closure, expanding an expanded query
// could keep discovering new terms.
func closedSynonyms(query string) []string {
	synonyms := legalSynonyms(query)
	for range colloquialisms {
		composed := query + " " + strings.Join(synonyms, " ")
		merged := dedupeInOrder(append(synonyms, legalSynonyms(composed)...))
		if len(merged) == len(synonyms) {
			break
		}
		synonyms = merged
	}
	return synonyms
}

// chapterHints returns statute chapter numbers for topics mentioned in
// the query.
func chapterHints(query string) []string {
	lower := strings.ToLower(query)
	var out []string
	for _, t := range topicToChapters {
		if strings.Contains(lower, t.Topic) {
			out = append(out, t.Chapters...)
		}
	}
	return dedupeInOrder(out)
}

func dedupeInOrder(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
