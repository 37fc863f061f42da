package search

import (
	"strings"
)

// Field weights: a token found in the name counts more than one found in
// the provenance text.
const (
	weightName     = 3
	weightClass    = 2
	weightFreeText = 1
)

// Keyword searches docs by case-insensitive keyword matching over name,
// path, classification and provenance. All query tokens must match (AND
// semantics). Results are ranked by where the tokens matched.
func Keyword(docs []Doc, query string, limit int) []Result {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []Result{}
	}

	var out []Result
	for _, d := range docs {
		name := strings.ToLower(d.Name + "\n" + d.Path)
		class := strings.ToLower(d.Classification + "\n" + d.Describe)
		text := strings.ToLower(d.Provenance)

		var score float64
		var why []string
		ok := true
		for _, tok := range tokens {
			switch {
			case strings.Contains(name, tok):
				score += weightName
				why = appendOnce(why, "name")
			case strings.Contains(class, tok):
				score += weightClass
				why = appendOnce(why, "classification")
			case strings.Contains(text, tok):
				score += weightFreeText
				why = appendOnce(why, "provenance")
			default:
				ok = false
			}
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		out = append(out, Result{Doc: d, Score: score, Why: strings.Join(why, ",")})
	}

	SortResults(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func appendOnce(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func tokenize(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
