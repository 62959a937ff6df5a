package orchestrator

import (
	"fmt"
	"os"
	"time"

	"sigs.k8s.io/yaml"
)

// Config holds the recognized options of spec §6, loaded from a plain
// YAML file the way the teacher (de)serializes its Kubernetes types with
// sigs.k8s.io/yaml — not a generic configuration-loading framework, which
// the spec explicitly places out of scope as a feature. Time quantities
// are expressed in seconds (float64) matching the spec's own units
// ("tick_period (s, default 0.05)") rather than Go duration strings.
type Config struct {
	TickPeriodSeconds    float64 `json:"tickPeriodSeconds"`
	MaxSubSteps          int     `json:"maxSubSteps"`
	WorkerTimeoutSeconds float64 `json:"workerTimeoutSeconds"`
	DeadlineMultiplier   float64 `json:"deadlineMultiplier"`
	PoolSize             int     `json:"poolSize"`
	CommandQueueCapacity int     `json:"commandQueueCapacity"`

	ForceGrid struct {
		Spacing float64 `json:"spacing"`
	} `json:"forceGrid"`

	SleepThresholds struct {
		VLinear  float64 `json:"vLinear"`
		VAngular float64 `json:"vAngular"`
		NTicks   int     `json:"nTicks"`
	} `json:"sleepThresholds"`

	QuaternionRenormEps float64 `json:"quaternionRenormEps"`
	CommandRetries      int     `json:"commandRetries"`

	// Endpoint addresses (spec §6): worker broker, state store, command
	// intake, change feed.
	Endpoints struct {
		WorkerBroker  string `json:"workerBroker"`
		StateStore    string `json:"stateStore"`
		CommandIntake string `json:"commandIntake"`
		ChangeFeed    string `json:"changeFeed"`
	} `json:"endpoints"`
}

// DefaultConfig returns the documented defaults from spec §6.
func DefaultConfig() Config {
	var c Config
	c.TickPeriodSeconds = 0.05
	c.MaxSubSteps = 10
	c.WorkerTimeoutSeconds = 1.0
	c.DeadlineMultiplier = 3
	c.PoolSize = 4
	c.CommandQueueCapacity = 1024
	c.ForceGrid.Spacing = 1.0
	c.SleepThresholds.VLinear = 0.01
	c.SleepThresholds.VAngular = 0.01
	c.SleepThresholds.NTicks = 30
	c.QuaternionRenormEps = 1e-6
	c.CommandRetries = 3
	return c
}

func (c Config) TickPeriod() time.Duration {
	return time.Duration(c.TickPeriodSeconds * float64(time.Second))
}

func (c Config) WorkerTimeout() time.Duration {
	return time.Duration(c.WorkerTimeoutSeconds * float64(time.Second))
}

// TickDeadline is T_deadline = T_tick * D, the global deadline for Phase E
// (spec §4.5), distinct from the per-request WorkerTimeout.
func (c Config) TickDeadline() time.Duration {
	return time.Duration(c.TickPeriodSeconds * c.DeadlineMultiplier * float64(time.Second))
}

// LoadConfig reads a YAML file at path, applying it over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("orchestrator: read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("orchestrator: parse config %q: %w", path, err)
	}
	return cfg, nil
}
