package matching

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/zulandar/hazstudy/internal/catalog"
	"github.com/zulandar/hazstudy/internal/models"
)

const (
	// fallbackLimit caps the result size whenever a fallback is used.
	fallbackLimit = 3
	// minTokenLen is the shortest description word that counts as a keyword.
	minTokenLen = 5
	// relatedScore is the minimum node score to be considered related.
	relatedScore = 2
)

// RelatedStudies narrows the catalog to studies at the context installation
// whose unit and equipment contain the supplied text. When nothing matches it
// falls back to the installation's studies, then to the whole catalog, and
// truncates the fallback to three entries.
func RelatedStudies(all []models.HistoricalStudy, c Context) []models.HistoricalStudy {
	unit := strings.ToLower(strings.TrimSpace(c.Unit))
	equipment := strings.ToLower(strings.TrimSpace(c.Equipment))

	atInstallation := make([]models.HistoricalStudy, 0, len(all))
	for _, s := range all {
		if catalog.IsAll(c.Installation) || s.Installation == c.Installation {
			atInstallation = append(atInstallation, s)
		}
	}

	narrow := make([]models.HistoricalStudy, 0, len(atInstallation))
	for _, s := range atInstallation {
		if unit != "" && !strings.Contains(strings.ToLower(s.Unit), unit) {
			continue
		}
		if equipment != "" && !strings.Contains(strings.ToLower(s.Equipment), equipment) {
			continue
		}
		narrow = append(narrow, s)
	}
	if len(narrow) > 0 {
		return narrow
	}

	fallback := atInstallation
	if len(fallback) == 0 {
		fallback = all
	}
	return head(fallback, fallbackLimit)
}

// ScoreNode rates how strongly a node's description matches the context:
// +2 for the equipment, +1 for the unit, +1 for each description word of at
// least five characters.
func ScoreNode(n models.ProcessNode, c Context) int {
	text := strings.ToLower(n.Description)
	unit := strings.ToLower(strings.TrimSpace(c.Unit))
	equipment := strings.ToLower(strings.TrimSpace(c.Equipment))

	score := 0
	if equipment != "" && strings.Contains(text, equipment) {
		score += 2
	}
	if unit != "" && strings.Contains(text, unit) {
		score++
	}
	for _, token := range Tokens(c.Description) {
		if strings.Contains(text, token) {
			score++
		}
	}
	return score
}

// Tokens returns the lower-cased description words long enough to count as
// keywords. Repeated words are kept and score once per occurrence.
func Tokens(description string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(description)) {
		if utf8.RuneCountInString(f) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

// ScoredNode pairs a node with its relevance score.
type ScoredNode struct {
	Node  models.ProcessNode `json:"node"`
	Score int                `json:"score"`
}

// RelatedNodes filters nodes to the context installation and keeps those
// scoring at least two, best first. With no description, unit or equipment
// it returns the first three installation nodes unscored; when scoring
// matches nothing it falls back to the same three.
func RelatedNodes(all []models.ProcessNode, c Context) []ScoredNode {
	filtered := make([]models.ProcessNode, 0, len(all))
	for _, n := range all {
		if catalog.IsAll(c.Installation) || n.Installation == c.Installation {
			filtered = append(filtered, n)
		}
	}

	if !hasSearchText(c) {
		return unscored(head(filtered, fallbackLimit))
	}

	var related []ScoredNode
	for _, n := range filtered {
		if score := ScoreNode(n, c); score >= relatedScore {
			related = append(related, ScoredNode{Node: n, Score: score})
		}
	}
	if len(related) == 0 {
		return unscored(head(filtered, fallbackLimit))
	}
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Score > related[j].Score
	})
	return related
}

func hasSearchText(c Context) bool {
	return strings.TrimSpace(c.Description) != "" ||
		strings.TrimSpace(c.Unit) != "" ||
		strings.TrimSpace(c.Equipment) != ""
}

func unscored(nodes []models.ProcessNode) []ScoredNode {
	out := make([]ScoredNode, len(nodes))
	for i, n := range nodes {
		out[i] = ScoredNode{Node: n}
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
