// Package matching recommends a hazard-study methodology for a problem and
// ranks the historical studies and process nodes related to it.
package matching

import "strings"

// Situation classifies why a study is being requested.
type Situation string

const (
	NewProject       Situation = "NEW_PROJECT"
	ChangeMOC        Situation = "CHANGE_MOC"
	RecurringProblem Situation = "RECURRING_PROBLEM"
	Incident         Situation = "INCIDENT"
	Other            Situation = "OTHER"
)

// Phase is the lifecycle phase of the installation or project.
type Phase string

const (
	Conceptual      Phase = "CONCEPTUAL"
	BasicFEED       Phase = "BASIC_FEED"
	Detail          Phase = "DETAIL"
	Operation       Phase = "OPERATION"
	Decommissioning Phase = "DECOMMISSIONING"
)

// Situations lists the known situations in display order.
var Situations = []Situation{NewProject, ChangeMOC, RecurringProblem, Incident, Other}

// Phases lists the known phases in lifecycle order.
var Phases = []Phase{Conceptual, BasicFEED, Detail, Operation, Decommissioning}

// Context is the problem description a recommendation is computed for.
type Context struct {
	Installation string    `json:"installation"`
	Unit         string    `json:"unit"`
	Equipment    string    `json:"equipment"`
	Description  string    `json:"description"`
	Situation    Situation `json:"situation"`
	Phase        Phase     `json:"phase"`
}

// DefaultContext is the context a new study starts with.
func DefaultContext(installation string) Context {
	return Context{
		Installation: installation,
		Situation:    RecurringProblem,
		Phase:        Operation,
	}
}

// ParseSituation normalises user input ("change moc", "new-project") to a
// Situation. Unknown values map to Other.
func ParseSituation(s string) Situation {
	norm := normalize(s)
	switch norm {
	case "MOC", "CHANGE":
		return ChangeMOC
	case "NEW", "PROJECT":
		return NewProject
	case "RECURRING":
		return RecurringProblem
	}
	for _, known := range Situations {
		if string(known) == norm {
			return known
		}
	}
	return Other
}

// ParsePhase normalises user input to a Phase. Unknown values are kept
// verbatim (upper-cased) so that the "conceptual" check still sees them.
func ParsePhase(s string) Phase {
	norm := normalize(s)
	switch norm {
	case "FEED", "BASIC":
		return BasicFEED
	}
	return Phase(norm)
}

func normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_", "/", "_").Replace(s)
}
