// Package report renders solved trajectories for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/trajopt/internal/export"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	graphStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("49"))
)

// Summary renders the solve outcome as a styled key/value block.
func Summary(sol *export.Solution) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%s)", sol.Model, sol.Transcription)))
	b.WriteString("\n")

	exit := okStyle
	if sol.ExitCondition != "converged" {
		exit = failStyle
	}
	row(&b, "exit", exit.Render(sol.ExitCondition))
	row(&b, "cost", valueStyle.Render(fmt.Sprintf("%.6g", sol.Cost)))
	row(&b, "iterations", valueStyle.Render(fmt.Sprintf("%d", sol.Iterations)))
	row(&b, "solve time", valueStyle.Render(fmt.Sprintf("%.1f ms", sol.SolveMs)))
	row(&b, "steps", valueStyle.Render(fmt.Sprintf("%d", sol.Steps)))
	if n := len(sol.Times); n > 0 {
		row(&b, "duration", valueStyle.Render(fmt.Sprintf("%.3f s", sol.Times[n-1])))
	}

	return b.String()
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

// Plots renders one chart per state component followed by one per input.
func Plots(sol *export.Solution) string {
	if len(sol.States) == 0 {
		return ""
	}

	var b strings.Builder

	for i := range sol.States[0] {
		data := column(sol.States, i)
		caption := fmt.Sprintf("x%d", i)
		if i < len(sol.StateNames) {
			caption = sol.StateNames[i]
		}
		b.WriteString(plot(data, caption))
		b.WriteString("\n\n")
	}

	if len(sol.Inputs) > 0 {
		for i := range sol.Inputs[0] {
			data := column(sol.Inputs, i)
			b.WriteString(plot(data, fmt.Sprintf("u%d", i)))
			b.WriteString("\n\n")
		}
	}

	return b.String()
}

// ConvergencePlot charts per-iteration values from the solver, typically
// cost or constraint violation.
func ConvergencePlot(history []float64, caption string) string {
	if len(history) < 2 {
		return ""
	}
	return plot(history, caption)
}

func plot(data []float64, caption string) string {
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	return graphStyle.Render(graph)
}

func column(rows [][]float64, i int) []float64 {
	out := make([]float64, len(rows))
	for k, r := range rows {
		out[k] = r[i]
	}
	return out
}
