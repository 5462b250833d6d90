package workflow

import (
	"fmt"
	"strings"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// TransformedDataKey is the context namespace transform steps write into.
// parsed_data is never mutated; downstream steps read transformed values here.
const TransformedDataKey = "transformed_data"

// ApplyMappings runs every mapping of a transform step against the context.
// A source field missing from the context maps to the empty string rather
// than failing the step.
func ApplyMappings(cfg *TransformConfig, ctx *Context) error {
	for _, m := range cfg.Mappings {
		if m.Source == "" || m.Output == "" {
			return fmt.Errorf("%w: mapping requires source and output", domain.ErrInvalidStepConfig)
		}
		src, _ := ctx.Lookup(m.Source)
		out, err := ApplyTransform(m.Transform, src.Text())
		if err != nil {
			return err
		}
		ctx.Set(TransformedDataKey+"."+m.Output, StringValue(out))
	}
	return nil
}

// ApplyTransform applies a named string transformation. An empty name passes
// the input through unchanged.
func ApplyTransform(name, input string) (string, error) {
	switch name {
	case "":
		return input, nil
	case "uppercase":
		return strings.ToUpper(input), nil
	case "lowercase":
		return strings.ToLower(input), nil
	case "trim":
		return strings.TrimSpace(input), nil
	case "format_phone":
		return FormatPhone(input), nil
	default:
		return "", fmt.Errorf("%w: unknown transform %q", domain.ErrInvalidStepConfig, name)
	}
}

// FormatPhone strips every non-digit character from a phone number.
func FormatPhone(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
