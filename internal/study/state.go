// Package study holds the hazard-study session aggregate and its lifecycle.
package study

import (
	"fmt"
	"strings"
)

// State is the workflow step a study is in.
type State string

const (
	Recommended State = "RECOMMENDED"
	Preparation State = "PREPARATION"
	Prefab      State = "PREFAB"
	Curation    State = "CURATION"
	Complete    State = "COMPLETAR"
	Approved    State = "APROBADO"
	Assigned    State = "ASIGNADO"
)

// Order lists the states from first to last.
var Order = []State{Recommended, Preparation, Prefab, Curation, Complete, Approved, Assigned}

// ValidTransitions maps each state to the states a study normally moves to
// next. Skipping ahead is allowed with a warning; "any → RECOMMENDED" is the
// reset and is handled by Session.Reset.
var ValidTransitions = map[State][]State{
	Recommended: {Preparation},
	Preparation: {Prefab},
	Prefab:      {Curation},
	Curation:    {Complete},
	Complete:    {Approved},
	Approved:    {Assigned},
	Assigned:    {},
}

// Index is the position of the state in Order, or -1 when unknown.
func (s State) Index() int {
	for i, o := range Order {
		if o == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the seven workflow states.
func (s State) Valid() bool {
	return s.Index() >= 0
}

// ParseState matches a state name case-insensitively.
func ParseState(s string) (State, error) {
	norm := State(strings.ToUpper(strings.TrimSpace(s)))
	if !norm.Valid() {
		return "", fmt.Errorf("study: unknown state %q", s)
	}
	return norm, nil
}

// Outcome is the result of a workflow operation. Preconditions are advisory:
// an operation never fails because upstream data is missing, it reports
// warnings instead.
type Outcome struct {
	From     State    `json:"from"`
	To       State    `json:"to"`
	Advanced bool     `json:"advanced"`
	Warnings []string `json:"warnings,omitempty"`
}

func (o *Outcome) warn(format string, args ...any) {
	o.Warnings = append(o.Warnings, fmt.Sprintf(format, args...))
}

// merge folds a later outcome into o, keeping the earliest From.
func (o *Outcome) merge(later Outcome) {
	o.To = later.To
	o.Advanced = o.Advanced || later.Advanced
	o.Warnings = append(o.Warnings, later.Warnings...)
}

func isNextTransition(from, to State) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
