// Package tui shows solver progress live while a trajectory optimization
// runs in the background.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/trajopt/internal/optimize"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(2)
)

type IterationMsg optimize.IterationInfo

// DoneMsg carries the final solve outcome.
type DoneMsg struct {
	Exit string
	Cost float64
}

// Model displays iterations streamed from a running solve.
type Model struct {
	problemName string
	iterations  <-chan optimize.IterationInfo
	done        <-chan DoneMsg

	latest           optimize.IterationInfo
	costHistory      []float64
	violationHistory []float64
	finished         bool
	exit             string
	finalCost        float64
}

// NewModel wires the display to the channels the solve goroutine feeds.
func NewModel(problemName string, iterations <-chan optimize.IterationInfo, done <-chan DoneMsg) Model {
	return Model{
		problemName:      problemName,
		iterations:       iterations,
		done:             done,
		costHistory:      make([]float64, 0, historyCapacity),
		violationHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForProgress()
}

func (m Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		select {
		case info, ok := <-m.iterations:
			if ok {
				return IterationMsg(info)
			}
			return DoneMsg(<-m.done)
		case result := <-m.done:
			return DoneMsg(result)
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case IterationMsg:
		m.latest = optimize.IterationInfo(msg)
		m.costHistory = append(m.costHistory, m.latest.Cost)
		if len(m.costHistory) > historyCapacity {
			m.costHistory = m.costHistory[1:]
		}
		m.violationHistory = append(m.violationHistory, m.latest.Infeasibility)
		if len(m.violationHistory) > historyCapacity {
			m.violationHistory = m.violationHistory[1:]
		}
		return m, m.waitForProgress()
	case DoneMsg:
		m.finished = true
		m.exit = msg.Exit
		m.finalCost = msg.Cost
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render(strings.ToUpper(m.problemName)) + "\n")

	if m.finished {
		style := doneStyle
		if m.exit != "converged" {
			style = failStyle
		}
		s.WriteString(style.Render(strings.ToUpper(m.exit)) + "\n\n")
	} else {
		s.WriteString("SOLVING\n\n")
	}

	if len(m.costHistory) > 1 {
		chart := asciigraph.Plot(m.costHistory,
			asciigraph.Height(6), asciigraph.Width(60), asciigraph.Caption("cost"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	if len(m.violationHistory) > 1 {
		chart := asciigraph.Plot(m.violationHistory,
			asciigraph.Height(6), asciigraph.Width(60), asciigraph.Caption("constraint violation"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(labelStyle.Render("Iteration") + valueStyle.Render(fmt.Sprintf("%d", m.latest.Iteration)) + "\n")
	cost := m.latest.Cost
	if m.finished {
		cost = m.finalCost
	}
	s.WriteString(labelStyle.Render("Cost") + valueStyle.Render(fmt.Sprintf("%.6g", cost)) + "\n")
	s.WriteString(labelStyle.Render("Violation") + valueStyle.Render(fmt.Sprintf("%.3e", m.latest.Infeasibility)) + "\n")
	s.WriteString(labelStyle.Render("KKT error") + valueStyle.Render(fmt.Sprintf("%.3e", m.latest.KKTError)) + "\n")
	s.WriteString(labelStyle.Render("Barrier") + valueStyle.Render(fmt.Sprintf("%.3e", m.latest.Barrier)) + "\n")
	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%.3e", m.latest.StepSize)) + "\n")

	s.WriteString(helpStyle.Render("Q:Quit"))

	return s.String()
}
