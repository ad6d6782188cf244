package matching

import "strings"

// Methodology is a recommended study type with the reason for choosing it.
type Methodology struct {
	Name      string `json:"name"`
	Rationale string `json:"rationale"`
}

// Methodology names.
const (
	WhatIfChecklist        = "What-if + checklist"
	FullHAZOP              = "Full HAZOP"
	FocusedRevalidation    = "Focused HAZOP/PHA revalidation"
	FocusedReviewWhatIf    = "Focused HAZOP review + targeted What-if"
	IncidentInvestigation  = "Incident investigation + HAZOP/PHA update"
	ReviewExistingAndScope = "Review existing studies and define scope"
	DefaultWorksheetMethod = "HAZOP"
)

var (
	methodWhatIf = Methodology{
		Name: WhatIfChecklist,
		Rationale: "In the conceptual phase a broad **What-if** helps explore scenarios " +
			"without going to the level of detail of a full HAZOP.",
	}
	methodFullHAZOP = Methodology{
		Name: FullHAZOP,
		Rationale: "For projects past the conceptual phase a full **HAZOP** is the standard " +
			"way to identify deviations systematically.",
	}
	methodRevalidation = Methodology{
		Name: FocusedRevalidation,
		Rationale: "For a change it is more efficient to **revalidate the existing HAZOP/PHA** " +
			"on the impacted nodes than to start a study from scratch.",
	}
	methodFocusedReview = Methodology{
		Name: FocusedReviewWhatIf,
		Rationale: "A recurring problem is usually tied to one or a few scenarios; review the " +
			"previous HAZOP and complement it with a targeted **What-if**.",
	}
	methodIncident = Methodology{
		Name: IncidentInvestigation,
		Rationale: "An incident needs a **formal investigation**, followed by an update of the " +
			"risk studies to capture causes and safeguards.",
	}
	methodReview = Methodology{
		Name: ReviewExistingAndScope,
		Rationale: "First review which historical studies exist and what they cover before " +
			"defining a new methodology.",
	}
)

// SelectMethodology applies the situation/phase decision table. Unknown
// situations fall through to the review-and-scope branch.
func SelectMethodology(situation Situation, phase Phase) Methodology {
	switch situation {
	case NewProject:
		if strings.Contains(strings.ToLower(string(phase)), "conceptual") {
			return methodWhatIf
		}
		return methodFullHAZOP
	case ChangeMOC:
		return methodRevalidation
	case RecurringProblem:
		return methodFocusedReview
	case Incident:
		return methodIncident
	default:
		return methodReview
	}
}
