package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleSolution() *Solution {
	return &Solution{
		Model:         "double_integrator",
		Transcription: "transcription",
		ExitCondition: "converged",
		Cost:          0.5,
		Iterations:    7,
		Steps:         2,
		StateNames:    []string{"pos", "vel"},
		Times:         []float64{0, 0.1, 0.2},
		States:        [][]float64{{0, 0}, {0.005, 0.1}, {0.02, 0.2}},
		Inputs:        [][]float64{{1}, {1}},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sol.json")

	if err := JSON(path, sampleSolution()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var loaded Solution
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if loaded.Model != "double_integrator" {
		t.Errorf("expected double_integrator, got %s", loaded.Model)
	}
	if loaded.ExitCondition != "converged" {
		t.Errorf("expected converged, got %s", loaded.ExitCondition)
	}
	if len(loaded.States) != 3 || len(loaded.Inputs) != 2 {
		t.Errorf("trajectory did not round-trip: %d states, %d inputs",
			len(loaded.States), len(loaded.Inputs))
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sampleSolution()); err != nil {
		t.Fatalf("csv failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "time,pos,vel,u0" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	// the final sample has no input
	if !strings.HasSuffix(lines[3], ",") {
		t.Errorf("expected empty input on last row: %s", lines[3])
	}
}

func TestCSV_UnnamedStates(t *testing.T) {
	sol := sampleSolution()
	sol.StateNames = nil

	var buf bytes.Buffer
	if err := CSV(&buf, sol); err != nil {
		t.Fatalf("csv failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "time,x0,x1,u0") {
		t.Errorf("expected generated column names, got %s",
			strings.SplitN(buf.String(), "\n", 2)[0])
	}
}

func TestCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, &Solution{}); err == nil {
		t.Error("expected error for empty solution")
	}
}

func TestTrajectorySVG(t *testing.T) {
	svg, err := TrajectorySVG(sampleSolution(), 0, 1, 640, 480, "#00ff00")
	if err != nil {
		t.Fatalf("svg failed: %v", err)
	}
	if !strings.Contains(svg, "<path") || !strings.Contains(svg, "</svg>") {
		t.Error("svg output missing path or closing tag")
	}

	if _, err := TrajectorySVG(sampleSolution(), 0, 5, 640, 480, "#00ff00"); err == nil {
		t.Error("expected error for out-of-range state index")
	}
}
