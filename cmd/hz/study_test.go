package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCatalogCmds(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRun(t, "db", "init", "-c", cfg)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"catalog", "studies", "-c", cfg}, "E-004"},
		{[]string{"catalog", "studies", "-c", cfg, "-i", "South Storage Terminal"}, "E-003"},
		{[]string{"catalog", "nodes", "-c", cfg, "-i", "North Blending Plant"}, "N-001"},
		{[]string{"catalog", "nodes", "-c", cfg, "-i", "Nowhere"}, "No nodes found."},
	}
	for _, tt := range tests {
		out := mustRun(t, tt.args...)
		if !strings.Contains(out, tt.want) {
			t.Errorf("hz %s: expected %q in:\n%s", strings.Join(tt.args, " "), tt.want, out)
		}
	}
}

func TestRecommendCmd(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRun(t, "db", "init", "-c", cfg)

	out := mustRun(t, "recommend", "-c", cfg,
		"-i", "North Blending Plant", "--situation", "moc", "--phase", "operation")
	if !strings.Contains(out, "Focused HAZOP/PHA revalidation") {
		t.Errorf("expected revalidation methodology:\n%s", out)
	}
}

func TestStudyWorkflowCmds(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRun(t, "db", "init", "-c", cfg)

	out := mustRun(t, "study", "create", "-c", cfg, "-i", "North Blending Plant", "-t", "R-101 PSV trips")
	if !strings.Contains(out, "Created study ST-2025-0001") {
		t.Fatalf("create:\n%s", out)
	}
	id := "ST-2025-0001"

	out = mustRun(t, "study", "recommend", id, "-c", cfg,
		"-i", "North Blending Plant", "--equipment", "R-101",
		"-d", "Frequent PSV trips on R-101 near maximum flow",
		"--situation", "recurring", "--phase", "operation")
	if !strings.Contains(out, "RECOMMENDED -> PREPARATION") {
		t.Errorf("recommend:\n%s", out)
	}

	out = mustRun(t, "study", "prepare", id, "-c", cfg,
		"-f", "PID-R101.pdf", "--disciplines", "Process,Operations", "--participants", "Ana", "--done")
	if !strings.Contains(out, "PREPARATION -> PREFAB") {
		t.Errorf("prepare:\n%s", out)
	}

	out = mustRun(t, "study", "generate", id, "-c", cfg)
	if !strings.Contains(out, "PREFAB -> CURATION") || !strings.Contains(out, "N-001-R-002") {
		t.Errorf("generate:\n%s", out)
	}

	out = mustRun(t, "study", "suggest", id, "N-001-R-001", "-c", cfg)
	if !strings.Contains(out, "Proposed recommendation") {
		t.Errorf("suggest:\n%s", out)
	}
	mustRun(t, "study", "suggest", id, "N-001-R-001", "-c", cfg, "--accept")
	mustRun(t, "study", "curate", id, "-c", cfg, "--row", "N-001-R-002", "--recommendation", "Add level alarm")

	out = mustRun(t, "study", "curate", id, "-c", cfg, "--add-row", "N-001")
	if !strings.Contains(out, "Added row N-001-R-003") {
		t.Errorf("add row:\n%s", out)
	}
	mustRun(t, "study", "curate", id, "-c", cfg, "--remove-row", "N-001-R-003")

	out = mustRun(t, "study", "finish", id, "-c", cfg)
	if !strings.Contains(out, "2 rows, 0 without recommendation") || !strings.Contains(out, "CURATION -> COMPLETAR") {
		t.Errorf("finish:\n%s", out)
	}

	out = mustRun(t, "study", "approve", id, "-c", cfg, "--approver", "QA", "--date", "2025-03-20", "--approved")
	if !strings.Contains(out, "-> ASIGNADO") {
		t.Errorf("approve:\n%s", out)
	}

	for _, row := range []string{"N-001-R-001", "N-001-R-002"} {
		mustRun(t, "study", "assign", id, "-c", cfg, "--row", row, "--responsible", "Ana", "--due", "2025-04-30")
	}
	mustRun(t, "study", "assign", id, "-c", cfg, "--save")

	out = mustRun(t, "study", "send", id, "-c", cfg)
	if !strings.Contains(out, "Sent 2 recommendation(s)") || strings.Contains(out, "warning:") {
		t.Errorf("send:\n%s", out)
	}

	out = mustRun(t, "study", "show", id, "-c", cfg, "--log")
	for _, want := range []string{"State:        ASIGNADO", "Ana", "Recommendations sent to responsibles (2)."} {
		if !strings.Contains(out, want) {
			t.Errorf("show: expected %q in:\n%s", want, out)
		}
	}

	xlsx := filepath.Join(t.TempDir(), "out.xlsx")
	mustRun(t, "study", "export", id, "-c", cfg, "-o", xlsx)
	if fi, err := os.Stat(xlsx); err != nil || fi.Size() == 0 {
		t.Errorf("export: %v", err)
	}

	out = mustRun(t, "study", "reset", id, "-c", cfg)
	if !strings.Contains(out, "RECOMMENDED") {
		t.Errorf("reset:\n%s", out)
	}
}

func TestStudyShow_Unknown(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRun(t, "db", "init", "-c", cfg)
	if _, err := run(t, "study", "show", "ST-2025-0999", "-c", cfg); err == nil {
		t.Error("expected error for unknown study")
	}
}

func TestDigestCmd(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRun(t, "db", "init", "-c", cfg)
	out := mustRun(t, "digest", "-c", cfg)
	if !strings.Contains(out, "Overdue recommendations: 0") {
		t.Errorf("digest:\n%s", out)
	}
}
