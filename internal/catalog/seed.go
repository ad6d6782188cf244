package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/zulandar/hazstudy/internal/models"
	"gopkg.in/yaml.v3"
)

// Seed is the on-disk form of the catalog (catalog.yaml).
type Seed struct {
	Installations []InstallationSeed `yaml:"installations"`
	Studies       []StudySeed        `yaml:"studies"`
	Nodes         []NodeSeed         `yaml:"nodes"`
}

// InstallationSeed describes one installation.
type InstallationSeed struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Risk      string  `yaml:"risk"`
	Maturity  int     `yaml:"maturity"`
}

// StudySeed describes one historical study.
type StudySeed struct {
	ID              string `yaml:"id"`
	Type            string `yaml:"type"`
	Year            int    `yaml:"year"`
	Installation    string `yaml:"installation"`
	Unit            string `yaml:"unit"`
	Equipment       string `yaml:"equipment"`
	Coverage        string `yaml:"coverage"`
	Status          string `yaml:"status"`
	SuggestedAction string `yaml:"suggested_action"`
	Comment         string `yaml:"comment"`
}

// NodeSeed describes one process node. Related holds the pipe-delimited
// reference list.
type NodeSeed struct {
	ID           string `yaml:"id"`
	Kind         string `yaml:"kind"`
	Installation string `yaml:"installation"`
	Unit         string `yaml:"unit"`
	Equipment    string `yaml:"equipment"`
	Description  string `yaml:"description"`
	Risk         string `yaml:"risk"`
	Pillar       string `yaml:"pillar"`
	Related      string `yaml:"related"`
}

// LoadSeed reads a catalog YAML file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return ParseSeed(data)
}

// ParseSeed unmarshals and validates catalog YAML.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// validate checks identifiers; installation references on studies and nodes
// are not checked.
func (s *Seed) validate() error {
	var errs []string
	seen := make(map[string]bool)
	check := func(kind string, i int, id string) {
		if id == "" {
			errs = append(errs, fmt.Sprintf("%s[%d].id is required", kind, i))
			return
		}
		key := kind + ":" + id
		if seen[key] {
			errs = append(errs, fmt.Sprintf("%s[%d].id %q is duplicated", kind, i, id))
		}
		seen[key] = true
	}
	for i, in := range s.Installations {
		check("installations", i, in.ID)
		if in.Name == "" {
			errs = append(errs, fmt.Sprintf("installations[%d].name is required", i))
		}
	}
	for i, st := range s.Studies {
		check("studies", i, st.ID)
	}
	for i, n := range s.Nodes {
		check("nodes", i, n.ID)
	}
	if len(errs) > 0 {
		return fmt.Errorf("catalog: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Models converts the seed into model rows.
func (s *Seed) Models() ([]models.Installation, []models.HistoricalStudy, []models.ProcessNode) {
	installations := make([]models.Installation, len(s.Installations))
	for i, in := range s.Installations {
		installations[i] = models.Installation{
			ID:        in.ID,
			Name:      in.Name,
			Latitude:  in.Latitude,
			Longitude: in.Longitude,
			Risk:      strings.ToUpper(in.Risk),
			Maturity:  in.Maturity,
			Position:  i,
		}
	}
	studies := make([]models.HistoricalStudy, len(s.Studies))
	for i, st := range s.Studies {
		status := strings.ToUpper(st.Status)
		if status == "" {
			status = models.StudyCurrent
		}
		studies[i] = models.HistoricalStudy{
			ID:              st.ID,
			Type:            st.Type,
			Year:            st.Year,
			Installation:    st.Installation,
			Unit:            st.Unit,
			Equipment:       st.Equipment,
			Coverage:        strings.ToUpper(st.Coverage),
			Status:          status,
			SuggestedAction: st.SuggestedAction,
			Comment:         st.Comment,
			Position:        i,
		}
	}
	nodes := make([]models.ProcessNode, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = models.ProcessNode{
			ID:           n.ID,
			Kind:         n.Kind,
			Installation: n.Installation,
			Unit:         n.Unit,
			Equipment:    n.Equipment,
			Description:  n.Description,
			Risk:         strings.ToUpper(n.Risk),
			Pillar:       n.Pillar,
			Refs:         ParseRefs(n.ID, n.Related),
			Position:     i,
		}
	}
	return installations, studies, nodes
}
