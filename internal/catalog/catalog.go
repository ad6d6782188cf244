// Package catalog provides read-only access to installations, historical
// studies and process nodes.
package catalog

import (
	"strings"

	"github.com/zulandar/hazstudy/internal/models"
)

// AllInstallations selects every installation. The empty string does too.
const AllInstallations = "All"

// Store exposes the reference data consumed by the matching engine and by
// session initialisation. Empty results are returned as empty slices, never
// as errors; an error means the backing store itself failed.
type Store interface {
	ListInstallations() ([]models.Installation, error)
	Studies(installation string) ([]models.HistoricalStudy, error)
	Nodes(installation string) ([]models.ProcessNode, error)
}

// IsAll reports whether installation selects the whole catalog.
func IsAll(installation string) bool {
	installation = strings.TrimSpace(installation)
	return installation == "" || strings.EqualFold(installation, AllInstallations)
}

// ParseRefs splits a pipe-delimited reference list such as
// "D-001 | A-003 | Req-3687-9" into typed references. Blank entries are
// dropped; unrecognised prefixes are kept with kind RefUnknown.
func ParseRefs(nodeID, raw string) []models.NodeRef {
	var refs []models.NodeRef
	for _, part := range strings.Split(raw, "|") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		refs = append(refs, models.NodeRef{
			NodeID:   nodeID,
			Position: len(refs),
			Kind:     refKind(id),
			RefID:    id,
		})
	}
	return refs
}

// FormatRefs is the inverse of ParseRefs.
func FormatRefs(refs []models.NodeRef) string {
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.RefID
	}
	return strings.Join(ids, " | ")
}

func refKind(id string) string {
	upper := strings.ToUpper(id)
	switch {
	case strings.HasPrefix(upper, "REQ"):
		return models.RefRequirement
	case strings.HasPrefix(upper, "D-"):
		return models.RefDiagnostic
	case strings.HasPrefix(upper, "A-"):
		return models.RefAction
	default:
		return models.RefUnknown
	}
}
