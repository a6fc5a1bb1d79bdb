package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/GrappleRobotics/jms/internal/model"
)

// DefaultHookTimeoutMs is used for any hook whose YAML entry omits a
// timeout.
const DefaultHookTimeoutMs = 10_000

// HookTuning is one entry in the "hooks" section of the tuning file: the
// default timeout a known hook component should be installed with if the
// owner process doesn't specify its own.
type HookTuning struct {
	ComponentId string `yaml:"component_id"`
	TimeoutMs   int64  `yaml:"timeout_ms"`
}

// Tuning holds the game-configurable values spec §4.2.3 calls out as
// "game-configurable but default to...": phase durations and hook
// timeouts. Loaded from YAML the same way the teacher loaded per-sport
// risk limits.
type Tuning struct {
	Phases model.PhaseDurations `yaml:"phases"`
	Hooks  []HookTuning         `yaml:"hooks"`
}

// LoadTuning reads path and merges it over DefaultPhaseDurations; a
// missing file is not an error — the defaults apply untouched, matching
// the spec's framing that these are defaults a deployment may override.
func LoadTuning(path string) (Tuning, error) {
	tuning := Tuning{Phases: model.DefaultPhaseDurations()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return tuning, nil
	}
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}

	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file: %w", err)
	}
	return tuning, nil
}

// TimeoutFor returns the configured timeout for componentId, or
// DefaultHookTimeoutMs if none is configured.
func (t Tuning) TimeoutFor(componentId string) int64 {
	for _, h := range t.Hooks {
		if h.ComponentId == componentId && h.TimeoutMs > 0 {
			return h.TimeoutMs
		}
	}
	return DefaultHookTimeoutMs
}
