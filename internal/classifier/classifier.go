package classifier

import (
	"encoding/json"
	"fmt"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

const (
	// MaxFileBytes is the hard size ceiling for classifier input. Oversized
	// files fail fast without ever reaching a model provider.
	MaxFileBytes = 20 << 20

	// LowConfidenceThreshold marks extracted fields that need operator review.
	LowConfidenceThreshold = 0.7
)

// PreparedInput is classifier input after validation and PDF-to-text conversion.
// Exactly one of Text or ImageBytes is set.
type PreparedInput struct {
	Text        string
	ImageBytes  []byte
	ContentType string
}

// PrepareInput validates size and content type, and converts PDF input into
// a bounded text context. It performs no network I/O, so every provider can
// call it before building a request.
func PrepareInput(input port.ClassifyInput) (*PreparedInput, error) {
	if len(input.FileBytes) == 0 {
		return nil, fmt.Errorf("empty file: %w", domain.ErrUnsupportedFileType)
	}
	if len(input.FileBytes) > MaxFileBytes {
		return nil, domain.ErrFileTooLarge
	}
	if !domain.AllowedContentTypes[input.ContentType] {
		return nil, fmt.Errorf("content type %q: %w", input.ContentType, domain.ErrUnsupportedFileType)
	}

	if input.ContentType == "application/pdf" {
		text, err := ExtractPDFText(input.FileBytes)
		if err != nil {
			return nil, fmt.Errorf("extracting pdf text: %w", err)
		}
		return &PreparedInput{Text: text, ContentType: input.ContentType}, nil
	}
	return &PreparedInput{ImageBytes: input.FileBytes, ContentType: input.ContentType}, nil
}

// modelOutput is the JSON shape the prompt instructs the model to return.
type modelOutput struct {
	Classification string          `json:"classification"`
	Confidence     float64         `json:"confidence"`
	Fields         json.RawMessage `json:"fields"`
	FieldConf      json.RawMessage `json:"field_confidence"`
}

// DecodeModelOutput turns raw model text into a ClassifyOutput, defensively
// extracting the JSON object and rejecting classifications outside the
// permitted set. All failures are OutputErrors: retrying will not fix them.
func DecodeModelOutput(provider, text, model string) (*port.ClassifyOutput, error) {
	raw := ExtractJSONObject(text)
	if raw == "" {
		return nil, NewOutputError(provider, "no JSON object in response", text)
	}

	var out modelOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, NewOutputError(provider, fmt.Sprintf("unmarshaling model JSON: %v", err), raw)
	}

	docType := domain.UtilityDocType(out.Classification)
	if !domain.ValidDocTypes[docType] {
		return nil, NewOutputError(provider, fmt.Sprintf("classification %q not permitted", out.Classification), raw)
	}

	fields := out.Fields
	if len(fields) == 0 {
		fields = json.RawMessage("{}")
	}
	fieldConf := out.FieldConf
	if len(fieldConf) == 0 {
		fieldConf = json.RawMessage("{}")
	}

	return &port.ClassifyOutput{
		Classification:      docType,
		Confidence:          out.Confidence,
		Fields:              fields,
		FieldConfidence:     fieldConf,
		LowConfidenceFields: LowConfidenceFields(fieldConf, LowConfidenceThreshold),
		ModelUsed:           model,
	}, nil
}

// LowConfidenceFields flattens a nested confidence map into dotted field
// names whose score falls below the threshold.
func LowConfidenceFields(fieldConf json.RawMessage, threshold float64) []string {
	var tree map[string]interface{}
	if err := json.Unmarshal(fieldConf, &tree); err != nil {
		return nil
	}
	var low []string
	collectLowConfidence("", tree, threshold, &low)
	return low
}

func collectLowConfidence(prefix string, tree map[string]interface{}, threshold float64, low *[]string) {
	for key, val := range tree {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch v := val.(type) {
		case float64:
			if v < threshold {
				*low = append(*low, path)
			}
		case map[string]interface{}:
			collectLowConfidence(path, v, threshold, low)
		}
	}
}
