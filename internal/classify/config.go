package classify

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"beacon/internal/freshservice"
)

// Config holds the SLA thresholds the classifier runs with.
type Config struct {
	// First-response deadline proximity at which the ticket turns
	// critical/warning on the board.
	FRCritical time.Duration
	FRWarning  time.Duration

	// UpdateAllowance is the maximum silence since a ticket's last update,
	// per priority id. Tickets past their allowance are flagged as update
	// overdue. Higher priorities must have tighter allowances.
	UpdateAllowance map[int]time.Duration
}

// DefaultConfig returns the thresholds the dashboard ships with.
func DefaultConfig() Config {
	return Config{
		FRCritical: 4 * time.Hour,
		FRWarning:  12 * time.Hour,
		UpdateAllowance: map[int]time.Duration{
			freshservice.PriorityUrgent: 30 * time.Minute,
			freshservice.PriorityHigh:   48 * time.Hour,
			freshservice.PriorityMedium: 72 * time.Hour,
			freshservice.PriorityLow:    96 * time.Hour,
		},
	}
}

type fileConfig struct {
	FirstResponse struct {
		Critical string `yaml:"critical"`
		Warning  string `yaml:"warning"`
	} `yaml:"first_response"`
	UpdateSLA struct {
		Urgent string `yaml:"urgent"`
		High   string `yaml:"high"`
		Medium string `yaml:"medium"`
		Low    string `yaml:"low"`
	} `yaml:"update_sla"`
}

// LoadConfig reads threshold overrides from a YAML file. A missing file or
// empty path yields DefaultConfig; a file that parses but violates the
// threshold ordering is an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("classify: reading %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("classify: parsing %s: %w", path, err)
	}

	var parseErr error
	parse := func(raw, field string, fallback time.Duration) time.Duration {
		if raw == "" || parseErr != nil {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			parseErr = fmt.Errorf("classify: %s: bad duration %q: %w", field, raw, err)
			return fallback
		}
		return d
	}

	cfg.FRCritical = parse(fc.FirstResponse.Critical, "first_response.critical", cfg.FRCritical)
	cfg.FRWarning = parse(fc.FirstResponse.Warning, "first_response.warning", cfg.FRWarning)
	ua := cfg.UpdateAllowance
	ua[freshservice.PriorityUrgent] = parse(fc.UpdateSLA.Urgent, "update_sla.urgent", ua[freshservice.PriorityUrgent])
	ua[freshservice.PriorityHigh] = parse(fc.UpdateSLA.High, "update_sla.high", ua[freshservice.PriorityHigh])
	ua[freshservice.PriorityMedium] = parse(fc.UpdateSLA.Medium, "update_sla.medium", ua[freshservice.PriorityMedium])
	ua[freshservice.PriorityLow] = parse(fc.UpdateSLA.Low, "update_sla.low", ua[freshservice.PriorityLow])
	if parseErr != nil {
		return Config{}, parseErr
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.FRCritical > c.FRWarning {
		return fmt.Errorf("classify: first_response.critical (%s) exceeds warning (%s)", c.FRCritical, c.FRWarning)
	}
	order := []int{
		freshservice.PriorityUrgent,
		freshservice.PriorityHigh,
		freshservice.PriorityMedium,
		freshservice.PriorityLow,
	}
	for i := 1; i < len(order); i++ {
		hi, lo := c.UpdateAllowance[order[i-1]], c.UpdateAllowance[order[i]]
		if hi > lo {
			return fmt.Errorf("classify: update allowance for %s (%s) looser than %s (%s)",
				freshservice.PriorityText(order[i-1]), hi,
				freshservice.PriorityText(order[i]), lo)
		}
	}
	return nil
}
