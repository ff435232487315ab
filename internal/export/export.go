// Package export writes solved trajectories to JSON and CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Solution is a solved trajectory together with the solve metadata worth
// keeping around for later analysis.
type Solution struct {
	Model         string      `json:"model"`
	Transcription string      `json:"transcription"`
	ExitCondition string      `json:"exit_condition"`
	Cost          float64     `json:"cost"`
	Iterations    int         `json:"iterations"`
	SolveMs       float64     `json:"solve_ms"`
	Steps         int         `json:"steps"`
	StateNames    []string    `json:"state_names,omitempty"`
	Times         []float64   `json:"times"`
	States        [][]float64 `json:"states"`
	Inputs        [][]float64 `json:"inputs"`
}

func JSON(path string, sol *Solution) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sol)
}

func JSONStdout(sol *Solution) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sol)
}

// CSV writes one row per trajectory sample. Input columns are empty on the
// final row since the horizon has one fewer input than state samples.
func CSV(w io.Writer, sol *Solution) error {
	if len(sol.States) == 0 {
		return fmt.Errorf("export: no data to export")
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"time"}
	for i := range sol.States[0] {
		if i < len(sol.StateNames) {
			header = append(header, sol.StateNames[i])
		} else {
			header = append(header, fmt.Sprintf("x%d", i))
		}
	}
	if len(sol.Inputs) > 0 {
		for i := range sol.Inputs[0] {
			header = append(header, fmt.Sprintf("u%d", i))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := range sol.States {
		row := []string{strconv.FormatFloat(sol.Times[i], 'f', 6, 64)}
		for _, val := range sol.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if len(sol.Inputs) > 0 {
			for j := range sol.Inputs[0] {
				if i < len(sol.Inputs) {
					row = append(row, strconv.FormatFloat(sol.Inputs[i][j], 'f', 6, 64))
				} else {
					row = append(row, "")
				}
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	return cw.Error()
}

func CSVFile(path string, sol *Solution) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return CSV(file, sol)
}
