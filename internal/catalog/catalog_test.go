package catalog

import (
	"strings"
	"testing"

	"github.com/zulandar/hazstudy/internal/models"
)

func TestIsAll(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"  ", true},
		{"All", true},
		{"all", true},
		{"North Blending Plant", false},
	}
	for _, tt := range tests {
		if got := IsAll(tt.in); got != tt.want {
			t.Errorf("IsAll(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRefs(t *testing.T) {
	refs := ParseRefs("N-001", "D-001 | A-003 | Req-3687-9 | X-9 | ")
	if len(refs) != 4 {
		t.Fatalf("len(refs) = %d, want 4", len(refs))
	}
	wantKinds := []string{models.RefDiagnostic, models.RefAction, models.RefRequirement, models.RefUnknown}
	for i, r := range refs {
		if r.Kind != wantKinds[i] {
			t.Errorf("refs[%d].Kind = %q, want %q", i, r.Kind, wantKinds[i])
		}
		if r.Position != i {
			t.Errorf("refs[%d].Position = %d, want %d", i, r.Position, i)
		}
		if r.NodeID != "N-001" {
			t.Errorf("refs[%d].NodeID = %q, want N-001", i, r.NodeID)
		}
	}
	if refs[2].RefID != "Req-3687-9" {
		t.Errorf("refs[2].RefID = %q, want Req-3687-9", refs[2].RefID)
	}
}

func TestParseRefs_Empty(t *testing.T) {
	if refs := ParseRefs("N-1", ""); len(refs) != 0 {
		t.Errorf("ParseRefs(\"\") = %v, want empty", refs)
	}
}

func TestFormatRefs_RoundTrip(t *testing.T) {
	raw := "D-011 | A-010"
	if got := FormatRefs(ParseRefs("N-002", raw)); got != raw {
		t.Errorf("FormatRefs = %q, want %q", got, raw)
	}
}

func TestMemory_Filters(t *testing.T) {
	m := NewMemory(DemoSeed())

	installations, err := m.ListInstallations()
	if err != nil {
		t.Fatalf("ListInstallations: %v", err)
	}
	if len(installations) != 3 {
		t.Errorf("installations = %d, want 3", len(installations))
	}

	all, _ := m.Studies(AllInstallations)
	if len(all) != 4 {
		t.Errorf("Studies(All) = %d, want 4", len(all))
	}
	north, _ := m.Studies("North Blending Plant")
	if len(north) != 2 {
		t.Errorf("Studies(North) = %d, want 2", len(north))
	}
	none, _ := m.Studies("Unknown Plant")
	if none == nil || len(none) != 0 {
		t.Errorf("Studies(Unknown) = %v, want empty non-nil slice", none)
	}

	nodes, _ := m.Nodes("East Reactor Plant")
	if len(nodes) != 1 || nodes[0].ID != "N-003" {
		t.Errorf("Nodes(East) = %v, want [N-003]", nodes)
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory(DemoSeed())
	nodes, _ := m.Nodes("")
	nodes[0].Description = "mutated"
	nodes[0].Refs[0].RefID = "mutated"

	again, _ := m.Nodes("")
	if again[0].Description == "mutated" || again[0].Refs[0].RefID == "mutated" {
		t.Error("Memory.Nodes leaked internal state")
	}
}

func TestMemory_NilSeed(t *testing.T) {
	m := NewMemory(nil)
	nodes, err := m.Nodes("")
	if err != nil || len(nodes) != 0 {
		t.Errorf("Nodes() = %v, %v; want empty, nil", nodes, err)
	}
}

const seedYAML = `
installations:
  - id: P-A
    name: Plant A
    risk: high
    maturity: 60
studies:
  - id: S-1
    type: HAZOP
    year: 2022
    installation: Plant A
    unit: Reactor 1
    equipment: R-101
    coverage: high
nodes:
  - id: NA-1
    kind: Process node
    installation: Plant A
    unit: Reactor 1
    equipment: R-101
    description: Overpressure in R-101.
    related: "D-001 | Req-1"
`

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed([]byte(seedYAML))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	installations, studies, nodes := seed.Models()
	if installations[0].Risk != models.RiskHigh {
		t.Errorf("Risk = %q, want normalised %q", installations[0].Risk, models.RiskHigh)
	}
	if studies[0].Status != models.StudyCurrent {
		t.Errorf("Status = %q, want default %q", studies[0].Status, models.StudyCurrent)
	}
	if studies[0].Coverage != models.CoverageHigh {
		t.Errorf("Coverage = %q, want %q", studies[0].Coverage, models.CoverageHigh)
	}
	if len(nodes[0].Refs) != 2 {
		t.Errorf("node refs = %d, want 2", len(nodes[0].Refs))
	}
}

func TestParseSeed_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing installation name", "installations:\n  - id: X\n", "installations[0].name is required"},
		{"missing node id", "nodes:\n  - kind: x\n", "nodes[0].id is required"},
		{"duplicate study", "studies:\n  - id: S\n  - id: S\n", "studies[1].id \"S\" is duplicated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDemoSeed_Valid(t *testing.T) {
	if err := DemoSeed().validate(); err != nil {
		t.Fatalf("DemoSeed invalid: %v", err)
	}
}
