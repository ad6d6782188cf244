package matching

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/zulandar/hazstudy/internal/catalog"
	"github.com/zulandar/hazstudy/internal/models"
)

// summaryStudyLimit caps how many studies the narrative lists.
const summaryStudyLimit = 5

// Result is the output of one recommendation request.
type Result struct {
	Context     Context                  `json:"context"`
	Methodology Methodology              `json:"methodology"`
	Studies     []models.HistoricalStudy `json:"studies"`
	Nodes       []ScoredNode             `json:"nodes"`
}

// NodeList returns the ranked nodes without their scores.
func (r *Result) NodeList() []models.ProcessNode {
	out := make([]models.ProcessNode, len(r.Nodes))
	for i, sn := range r.Nodes {
		out[i] = sn.Node
	}
	return out
}

// Engine computes recommendations against a catalog.
type Engine struct {
	catalog catalog.Store
}

// NewEngine creates an Engine over the given catalog.
func NewEngine(store catalog.Store) *Engine {
	return &Engine{catalog: store}
}

// Recommend selects a methodology and the related studies and nodes. The
// whole catalog is read so that the study fallback can reach other
// installations.
func (e *Engine) Recommend(c Context) (*Result, error) {
	studies, err := e.catalog.Studies(catalog.AllInstallations)
	if err != nil {
		return nil, fmt.Errorf("matching: recommend: %w", err)
	}
	nodes, err := e.catalog.Nodes(catalog.AllInstallations)
	if err != nil {
		return nil, fmt.Errorf("matching: recommend: %w", err)
	}
	return &Result{
		Context:     c,
		Methodology: SelectMethodology(c.Situation, c.Phase),
		Studies:     RelatedStudies(studies, c),
		Nodes:       RelatedNodes(nodes, c),
	}, nil
}

// Summary renders the recommendation as a short markdown narrative.
func Summary(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "For the problem described, the suggested methodology is:\n\n- **%s**\n\n", r.Methodology.Name)
	fmt.Fprintf(&b, "**Why?** %s\n\n", r.Methodology.Rationale)
	fmt.Fprintf(&b, "Found **%d** potentially relevant historical %s", len(r.Studies), plural(len(r.Studies), "study", "studies"))
	if len(r.Studies) == 0 {
		b.WriteString(".\n")
		return b.String()
	}
	b.WriteString(":\n\n")
	for i, s := range r.Studies {
		if i == summaryStudyLimit {
			break
		}
		fmt.Fprintf(&b, "- `%s` - %s (%d) at **%s - %s** [Coverage: %s, Status: %s]\n",
			s.ID, s.Type, s.Year, s.Installation, s.Unit, s.Coverage, s.Status)
	}
	return b.String()
}

// SummaryHTML renders the narrative to HTML for the presentation layer.
func SummaryHTML(r *Result) string {
	return MarkdownHTML(Summary(r))
}

// MarkdownHTML converts markdown text (such as an edited rationale) to HTML.
func MarkdownHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return string(markdown.ToHTML([]byte(md), p, renderer))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
