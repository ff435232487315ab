package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/trajopt/internal/autodiff"
	"github.com/san-kum/trajopt/internal/config"
	"github.com/san-kum/trajopt/internal/dynamics"
	"github.com/san-kum/trajopt/internal/export"
	"github.com/san-kum/trajopt/internal/integrate"
	"github.com/san-kum/trajopt/internal/ocp"
	"github.com/san-kum/trajopt/internal/optimize"
	"github.com/san-kum/trajopt/internal/report"
	"github.com/san-kum/trajopt/internal/tui"
	"github.com/spf13/cobra"
)

var (
	dt            float64
	steps         int
	x0Str         string
	xfStr         string
	uMin          float64
	uMax          float64
	transcription string
	timestep      string
	costFn        string
	tolerance     float64
	maxIterations int
	timeoutSec    float64
	diagnostics   bool
	showPlots     bool
	verify        bool
	live          bool
	csvPath       string
	jsonPath      string
	svgPath       string
	// Phase plot axes for SVG export
	xAxis int
	yAxis int
	// Config file
	configFile string
	// Preset name
	preset string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trajopt",
		Short: "trajectory optimization for dynamical systems",
	}

	solveCmd := &cobra.Command{
		Use:   "solve [model]",
		Short: "solve a trajectory optimization problem",
		Args:  cobra.ExactArgs(1),
		RunE:  solveTrajectory,
	}
	solveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "nominal timestep")
	solveCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	solveCmd.Flags().StringVar(&x0Str, "x0", "", "initial state (comma-separated)")
	solveCmd.Flags().StringVar(&xfStr, "xf", "", "final state (comma-separated)")
	solveCmd.Flags().Float64Var(&uMin, "u-min", math.Inf(-1), "input lower bound")
	solveCmd.Flags().Float64Var(&uMax, "u-max", math.Inf(1), "input upper bound")
	solveCmd.Flags().StringVar(&transcription, "transcription", "transcription", "transcription method (transcription|collocation)")
	solveCmd.Flags().StringVar(&timestep, "timestep", "fixed", "timestep method (fixed|single|per_step)")
	solveCmd.Flags().StringVar(&costFn, "cost", "min_effort", "cost function (min_effort|min_time)")
	solveCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "convergence tolerance")
	solveCmd.Flags().IntVar(&maxIterations, "max-iter", config.DefaultMaxIterations, "iteration limit")
	solveCmd.Flags().Float64Var(&timeoutSec, "timeout", 0, "wall-clock limit in seconds (0 = none)")
	solveCmd.Flags().BoolVar(&diagnostics, "diag", false, "print per-iteration diagnostics")
	solveCmd.Flags().BoolVar(&showPlots, "plot", false, "plot the solved trajectory")
	solveCmd.Flags().BoolVar(&verify, "verify", false, "re-integrate the solved inputs and report the defect")
	solveCmd.Flags().BoolVar(&live, "live", false, "watch solver progress live")
	solveCmd.Flags().StringVar(&csvPath, "csv", "", "write the trajectory to a CSV file")
	solveCmd.Flags().StringVar(&jsonPath, "json", "", "write the solution to a JSON file (- for stdout)")
	solveCmd.Flags().StringVar(&svgPath, "svg", "", "write a phase plot to an SVG file")
	solveCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for the SVG x-axis")
	solveCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for the SVG y-axis")
	solveCmd.Flags().StringVar(&configFile, "config", "", "problem file path (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use preset problem")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list available dynamics models",
		RunE:  listModels,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, modelsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func solveTrajectory(cmd *cobra.Command, args []string) error {
	model := args[0]

	cfg, err := resolveConfig(cmd, model)
	if err != nil {
		return err
	}

	sys, err := dynamics.Get(cfg.Model)
	if err != nil {
		return err
	}
	if err := cfg.Validate(sys.StateDim()); err != nil {
		return err
	}

	prob, err := buildProblem(cfg, sys)
	if err != nil {
		return err
	}
	defer prob.Close()

	opts := optimize.Options{
		Tolerance:     cfg.Solver.Tolerance,
		MaxIterations: cfg.Solver.MaxIterations,
		Diagnostics:   cfg.Solver.Diagnostics,
	}
	if cfg.Solver.TimeoutSec > 0 {
		opts.Timeout = time.Duration(cfg.Solver.TimeoutSec * float64(time.Second))
	}

	var st optimize.Status
	var violationHistory []float64
	if live {
		st = solveLive(prob, opts, cfg.Model)
	} else {
		if showPlots {
			prob.Callback(func(info optimize.IterationInfo) bool {
				violationHistory = append(violationHistory, info.Infeasibility)
				return false
			})
		}
		st = prob.Solve(opts)
	}

	sol := collectSolution(prob, sys, cfg, st)

	fmt.Println(report.Summary(sol))
	if showPlots {
		fmt.Println(report.Plots(sol))
		if chart := report.ConvergencePlot(violationHistory, "constraint violation by iteration"); chart != "" {
			fmt.Println(chart)
		}
	}

	if verify {
		defect := integrationDefect(sys, sol)
		fmt.Printf("integration check: max final-state defect %.3e\n", defect)
	}

	if csvPath != "" {
		if err := export.CSVFile(csvPath, sol); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", csvPath)
	}
	if jsonPath == "-" {
		if err := export.JSONStdout(sol); err != nil {
			return err
		}
	} else if jsonPath != "" {
		if err := export.JSON(jsonPath, sol); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", jsonPath)
	}
	if svgPath != "" {
		if err := export.SVGFile(svgPath, sol, xAxis, yAxis); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}

	return nil
}

// resolveConfig layers the problem description: defaults, then preset, then
// config file, then explicit CLI flags.
func resolveConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = model
	cfg.InitialState = nil
	cfg.FinalState = nil

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		*cfg = *loaded
		cfg.Model = model
	}

	// CLI flags override preset and config values
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("x0") {
		vals, err := parseVector(x0Str)
		if err != nil {
			return nil, fmt.Errorf("bad --x0: %w", err)
		}
		cfg.InitialState = vals
	}
	if cmd.Flags().Changed("xf") {
		vals, err := parseVector(xfStr)
		if err != nil {
			return nil, fmt.Errorf("bad --xf: %w", err)
		}
		cfg.FinalState = vals
	}
	if cmd.Flags().Changed("u-min") {
		cfg.MinInput = uMin
	}
	if cmd.Flags().Changed("u-max") {
		cfg.MaxInput = uMax
	}
	if cmd.Flags().Changed("transcription") {
		cfg.Transcription = transcription
	}
	if cmd.Flags().Changed("timestep") {
		cfg.Timestep = timestep
	}
	if cmd.Flags().Changed("cost") {
		cfg.Cost = costFn
	}
	if cmd.Flags().Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}
	if cmd.Flags().Changed("max-iter") {
		cfg.Solver.MaxIterations = maxIterations
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Solver.TimeoutSec = timeoutSec
	}
	if cmd.Flags().Changed("diag") {
		cfg.Solver.Diagnostics = diagnostics
	}

	return cfg, nil
}

func buildProblem(cfg *config.Config, sys dynamics.ExpressionSystem) (*ocp.Problem, error) {
	dynFn := func(t autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) autodiff.VariableMatrix {
		return sys.DeriveExpr(t, x, u)
	}

	var method ocp.TranscriptionMethod
	switch cfg.Transcription {
	case "collocation":
		method = ocp.DirectCollocation
	default:
		method = ocp.DirectTranscription
	}

	var tsMethod ocp.TimestepMethod
	switch cfg.Timestep {
	case "single":
		tsMethod = ocp.TimestepVariableSingle
	case "per_step":
		tsMethod = ocp.TimestepVariablePerStep
	default:
		tsMethod = ocp.TimestepFixed
	}

	prob := ocp.NewProblem(sys.StateDim(), sys.ControlDim(), cfg.Steps, cfg.Dt,
		dynFn, ocp.ExplicitODE, method, tsMethod)

	if len(cfg.InitialState) > 0 {
		prob.ConstrainInitialState(cfg.InitialState)
	}
	if len(cfg.FinalState) > 0 {
		prob.ConstrainFinalState(cfg.FinalState)
	}
	seedTrajectory(prob, cfg, sys.StateDim())

	if !math.IsInf(cfg.MinInput, -1) {
		prob.SetLowerInputBound(cfg.MinInput)
	}
	if !math.IsInf(cfg.MaxInput, 1) {
		prob.SetUpperInputBound(cfg.MaxInput)
	}
	for _, b := range cfg.StateBounds {
		row := prob.X().Row(b.Index)
		if !math.IsInf(b.Min, -1) {
			prob.SubjectTo(row.AtLeast(b.Min))
		}
		if !math.IsInf(b.Max, 1) {
			prob.SubjectTo(row.AtMost(b.Max))
		}
	}

	switch cfg.Cost {
	case "min_time":
		total := prob.Constant(0)
		for k := 0; k < cfg.Steps; k++ {
			total = total.Add(prob.DT().At(0, k))
		}
		prob.Minimize(total)
	default:
		effort := prob.Constant(0)
		prob.ForEachStep(func(t autodiff.Variable, x, u autodiff.VariableMatrix, dt autodiff.Variable) {
			for i := 0; i < u.Rows(); i++ {
				effort = effort.Add(u.AtVec(i).Square())
			}
		})
		prob.Minimize(effort)
	}

	return prob, nil
}

// seedTrajectory interpolates the state guess linearly between the boundary
// states so the solver does not start from an all-zero trajectory.
func seedTrajectory(prob *ocp.Problem, cfg *config.Config, stateDim int) {
	if len(cfg.InitialState) == 0 || len(cfg.FinalState) == 0 {
		return
	}
	for k := 1; k < cfg.Steps; k++ {
		alpha := float64(k) / float64(cfg.Steps)
		for i := 0; i < stateDim; i++ {
			v := (1-alpha)*cfg.InitialState[i] + alpha*cfg.FinalState[i]
			prob.X().SetValue(i, k, v)
		}
	}
}

// solveLive runs the solve in the background while a TUI streams its
// progress. Iterations the display cannot keep up with are dropped.
func solveLive(prob *ocp.Problem, opts optimize.Options, name string) optimize.Status {
	iterations := make(chan optimize.IterationInfo, 64)
	done := make(chan tui.DoneMsg, 1)
	finished := make(chan optimize.Status, 1)

	prob.Callback(func(info optimize.IterationInfo) bool {
		select {
		case iterations <- info:
		default:
		}
		return false
	})

	go func() {
		st := prob.Solve(opts)
		close(iterations)
		done <- tui.DoneMsg{Exit: st.ExitCondition.String(), Cost: st.Cost}
		finished <- st
	}()

	p := tea.NewProgram(tui.NewModel(name, iterations, done))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
	}
	return <-finished
}

func collectSolution(prob *ocp.Problem, sys dynamics.ExpressionSystem, cfg *config.Config, st optimize.Status) *export.Solution {
	sol := &export.Solution{
		Model:         cfg.Model,
		Transcription: cfg.Transcription,
		ExitCondition: st.ExitCondition.String(),
		Cost:          st.Cost,
		Iterations:    st.Iterations,
		SolveMs:       float64(st.Elapsed.Microseconds()) / 1000.0,
		Steps:         cfg.Steps,
	}
	if namer, ok := sys.(dynamics.StateNamer); ok {
		sol.StateNames = namer.StateNames()
	}

	t := 0.0
	sol.Times = append(sol.Times, t)
	for k := 0; k < cfg.Steps; k++ {
		t += prob.DT().Value(0, k)
		sol.Times = append(sol.Times, t)
	}

	for k := 0; k <= cfg.Steps; k++ {
		col := make([]float64, sys.StateDim())
		for i := range col {
			col[i] = prob.X().Value(i, k)
		}
		sol.States = append(sol.States, col)
	}
	for k := 0; k < cfg.Steps; k++ {
		col := make([]float64, sys.ControlDim())
		for i := range col {
			col[i] = prob.U().Value(i, k)
		}
		sol.Inputs = append(sol.Inputs, col)
	}

	return sol
}

// integrationDefect re-integrates the solved input sequence with RK4 and
// reports how far the simulated endpoint drifts from the transcribed one.
func integrationDefect(sys dynamics.System, sol *export.Solution) float64 {
	dts := make([]float64, len(sol.Inputs))
	for k := range dts {
		dts[k] = sol.Times[k+1] - sol.Times[k]
	}
	states, _ := integrate.Rollout(sys, sol.States[0], sol.Inputs, dts)

	maxErr := 0.0
	last := len(states) - 1
	for i, v := range states[last] {
		if e := math.Abs(v - sol.States[last][i]); e > maxErr {
			maxErr = e
		}
	}
	return maxErr
}

func listModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tSTATES\tINPUTS\tSTATE NAMES")
	for _, name := range dynamics.Models() {
		sys, err := dynamics.Get(name)
		if err != nil {
			return err
		}
		names := ""
		if namer, ok := sys.(dynamics.StateNamer); ok {
			names = strings.Join(namer.StateNames(), ", ")
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", name, sys.StateDim(), sys.ControlDim(), names)
	}
	return w.Flush()
}

func parseVector(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}
