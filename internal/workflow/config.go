package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// Step configurations are tagged by the step's type: each variant carries
// only the fields that type understands, so a delay step cannot smuggle in
// field mappings.

// ParseConfig configures a parse or document_type step.
type ParseConfig struct {
	// Provider overrides the configured classifier chain for this step.
	Provider string `json:"provider,omitempty"`
}

// Condition is a single predicate against a dotted context field.
type Condition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value,omitempty"`
}

// ConditionConfig configures a condition step.
type ConditionConfig struct {
	Conditions []Condition `json:"conditions"`
	// Logic combines the predicate results: "AND" (default) or "OR".
	Logic string `json:"logic,omitempty"`
}

// Mapping copies one context field to the transformed_data namespace.
type Mapping struct {
	Source    string `json:"source"`
	Output    string `json:"output"`
	Transform string `json:"transform,omitempty"`
}

// TransformConfig configures a transform step.
type TransformConfig struct {
	Mappings []Mapping `json:"mappings"`
}

// APIActionConfig configures an outbound HTTP call. URL, header values, and
// body may contain {{dot.path}} placeholders resolved against the live
// execution context.
type APIActionConfig struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
	// MaxRetries is the number of transport-level retries after the first
	// attempt. Zero means a single attempt.
	MaxRetries int `json:"max_retries,omitempty"`
}

// DelayConfig configures a blocking wait.
type DelayConfig struct {
	Duration int    `json:"duration"`
	Unit     string `json:"unit"`
}

// AsDuration converts the configured duration and unit to a time.Duration.
func (d DelayConfig) AsDuration() (time.Duration, error) {
	if d.Duration < 0 {
		return 0, fmt.Errorf("%w: negative delay duration", domain.ErrInvalidStepConfig)
	}
	base := time.Duration(d.Duration)
	switch d.Unit {
	case "", "seconds":
		return base * time.Second, nil
	case "minutes":
		return base * time.Minute, nil
	case "hours":
		return base * time.Hour, nil
	case "days":
		return base * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: unknown delay unit %q", domain.ErrInvalidStepConfig, d.Unit)
	}
}

func decodeConfig[T any](step *domain.WorkflowStep) (*T, error) {
	var cfg T
	if len(step.Config) == 0 {
		return &cfg, nil
	}
	if err := json.Unmarshal(step.Config, &cfg); err != nil {
		return nil, fmt.Errorf("%w: step %s (%s): %v", domain.ErrInvalidStepConfig, step.ID, step.Type, err)
	}
	return &cfg, nil
}
