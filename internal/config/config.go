// Package config describes trajectory-optimization problems and solver
// settings in a form that round-trips through YAML.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt            = 0.05
	DefaultSteps         = 100
	DefaultTolerance     = 1e-8
	DefaultMaxIterations = 1000
)

type Config struct {
	Model         string       `yaml:"model"`
	Transcription string       `yaml:"transcription"` // transcription | collocation
	Timestep      string       `yaml:"timestep"`      // fixed | single | per_step
	Dt            float64      `yaml:"dt"`
	Steps         int          `yaml:"steps"`
	InitialState  []float64    `yaml:"initial_state"`
	FinalState    []float64    `yaml:"final_state"`
	Cost          string       `yaml:"cost"` // min_effort | min_time
	MinInput      float64      `yaml:"min_input"`
	MaxInput      float64      `yaml:"max_input"`
	StateBounds   []StateBound `yaml:"state_bounds"`
	Solver        SolverConfig `yaml:"solver"`
}

// StateBound limits one state component over the whole trajectory.
type StateBound struct {
	Index int     `yaml:"index"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	TimeoutSec    float64 `yaml:"timeout_sec"`
	Diagnostics   bool    `yaml:"diagnostics"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:         "double_integrator",
		Transcription: "transcription",
		Timestep:      "fixed",
		Dt:            DefaultDt,
		Steps:         DefaultSteps,
		InitialState:  []float64{0, 0},
		FinalState:    []float64{1, 0},
		Cost:          "min_effort",
		MinInput:      math.Inf(-1),
		MaxInput:      math.Inf(1),
		Solver: SolverConfig{
			Tolerance:     DefaultTolerance,
			MaxIterations: DefaultMaxIterations,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that would otherwise surface as confusing
// failures deep inside transcription.
func (c *Config) Validate(stateDim int) error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Steps < 1 {
		return fmt.Errorf("config: steps must be at least 1, got %d", c.Steps)
	}
	switch c.Transcription {
	case "transcription", "collocation":
	default:
		return fmt.Errorf("config: unknown transcription: %s", c.Transcription)
	}
	switch c.Timestep {
	case "fixed", "single", "per_step":
	default:
		return fmt.Errorf("config: unknown timestep method: %s", c.Timestep)
	}
	switch c.Cost {
	case "min_effort", "min_time":
	default:
		return fmt.Errorf("config: unknown cost: %s", c.Cost)
	}
	if c.Cost == "min_time" && c.Timestep == "fixed" {
		return fmt.Errorf("config: min_time cost needs a variable timestep")
	}
	if len(c.InitialState) > 0 && len(c.InitialState) != stateDim {
		return fmt.Errorf("config: initial_state has %d values, model has %d states",
			len(c.InitialState), stateDim)
	}
	if len(c.FinalState) > 0 && len(c.FinalState) != stateDim {
		return fmt.Errorf("config: final_state has %d values, model has %d states",
			len(c.FinalState), stateDim)
	}
	for _, b := range c.StateBounds {
		if b.Index < 0 || b.Index >= stateDim {
			return fmt.Errorf("config: state bound index %d out of range", b.Index)
		}
		if b.Min > b.Max {
			return fmt.Errorf("config: state bound %d has min > max", b.Index)
		}
	}
	return nil
}
