package worksheet

// Suggestion is a curation hint offered for a row.
type Suggestion struct {
	RowID          string `json:"row_id"`
	Text           string `json:"text"`
	Standards      string `json:"standards"`
	Recommendation string `json:"recommendation"`
}

// Suggester proposes a recommendation for a worksheet row.
type Suggester interface {
	Suggest(row Row) Suggestion
}

// Fixed texts of the historical-similarity template.
const (
	StaticSuggestionText = "Historical insight detected: scenario 92% similar to one that occurred at " +
		"'Planta Cartagena (2022)'. Suggestion: evaluate electric heat tracing on impulse lines " +
		"to prevent freezing/plugging."
	StaticStandards      = "Cross-checked standards: NFPA 59A, ASME B31.8 checked."
	StaticRecommendation = "Evaluate electric heat tracing on impulse lines to prevent freezing/plugging."
)

// StaticSuggester returns the same historical-similarity template for every
// row. It does not look at the row content.
type StaticSuggester struct{}

// Suggest implements Suggester.
func (StaticSuggester) Suggest(row Row) Suggestion {
	return Suggestion{
		RowID:          row.ID,
		Text:           StaticSuggestionText,
		Standards:      StaticStandards,
		Recommendation: StaticRecommendation,
	}
}
