package config

import "math"

var Presets = map[string]map[string]*Config{
	"cartpole": {
		"swingup": {
			Model: "cartpole", Transcription: "transcription", Timestep: "fixed",
			Dt: 0.05, Steps: 100, Cost: "min_effort",
			InitialState: []float64{0, 0, 0, 0},
			FinalState:   []float64{1, 0, math.Pi, 0},
			MinInput:     -20, MaxInput: 20,
			StateBounds: []StateBound{{Index: 0, Min: -2, Max: 2}},
		},
		"nudge": {
			Model: "cartpole", Transcription: "transcription", Timestep: "fixed",
			Dt: 0.05, Steps: 60, Cost: "min_effort",
			InitialState: []float64{0, 0, 0, 0},
			FinalState:   []float64{0.5, 0, 0, 0},
			MinInput:     -10, MaxInput: 10,
			StateBounds: []StateBound{{Index: 0, Min: -2, Max: 2}},
		},
	},
	"pendulum": {
		"swingup": {
			Model: "pendulum", Transcription: "collocation", Timestep: "fixed",
			Dt: 0.05, Steps: 100, Cost: "min_effort",
			InitialState: []float64{0, 0},
			FinalState:   []float64{math.Pi, 0},
			MinInput:     -2.5, MaxInput: 2.5,
		},
		"damped": {
			Model: "pendulum", Transcription: "transcription", Timestep: "fixed",
			Dt: 0.05, Steps: 80, Cost: "min_effort",
			InitialState: []float64{2.5, 0},
			FinalState:   []float64{0, 0},
			MinInput:     -5, MaxInput: 5,
		},
	},
	"double_integrator": {
		"rest_to_rest": {
			Model: "double_integrator", Transcription: "transcription", Timestep: "fixed",
			Dt: 0.05, Steps: 50, Cost: "min_effort",
			InitialState: []float64{0, 0},
			FinalState:   []float64{1, 0},
			MinInput:     -1, MaxInput: 1,
		},
		"min_time": {
			Model: "double_integrator", Transcription: "transcription", Timestep: "single",
			Dt: 0.05, Steps: 50, Cost: "min_time",
			InitialState: []float64{0, 0},
			FinalState:   []float64{1, 0},
			MinInput:     -1, MaxInput: 1,
		},
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
