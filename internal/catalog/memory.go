package catalog

import "github.com/zulandar/hazstudy/internal/models"

// Memory is an in-process Store loaded once from a Seed.
type Memory struct {
	installations []models.Installation
	studies       []models.HistoricalStudy
	nodes         []models.ProcessNode
}

// NewMemory builds a Memory store. A nil seed yields an empty catalog.
func NewMemory(seed *Seed) *Memory {
	if seed == nil {
		return &Memory{}
	}
	installations, studies, nodes := seed.Models()
	return &Memory{installations: installations, studies: studies, nodes: nodes}
}

// ListInstallations returns every installation in seed order.
func (m *Memory) ListInstallations() ([]models.Installation, error) {
	out := make([]models.Installation, len(m.installations))
	copy(out, m.installations)
	return out, nil
}

// Studies returns the historical studies of an installation in seed order.
func (m *Memory) Studies(installation string) ([]models.HistoricalStudy, error) {
	out := make([]models.HistoricalStudy, 0, len(m.studies))
	for _, s := range m.studies {
		if IsAll(installation) || s.Installation == installation {
			out = append(out, s)
		}
	}
	return out, nil
}

// Nodes returns the process nodes of an installation in seed order.
func (m *Memory) Nodes(installation string) ([]models.ProcessNode, error) {
	out := make([]models.ProcessNode, 0, len(m.nodes))
	for _, n := range m.nodes {
		if IsAll(installation) || n.Installation == installation {
			n.Refs = append([]models.NodeRef(nil), n.Refs...)
			out = append(out, n)
		}
	}
	return out, nil
}
