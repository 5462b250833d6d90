package port

import (
	"context"
	"encoding/json"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
)

// ClassifyInput carries the data needed for document classification.
type ClassifyInput struct {
	FileBytes    []byte
	FileName     string
	ContentType  string
	BusinessName string
}

// ClassifyOutput contains the structured result from a vision-model classifier.
type ClassifyOutput struct {
	Classification      domain.UtilityDocType
	Confidence          float64
	Fields              json.RawMessage
	FieldConfidence     json.RawMessage
	LowConfidenceFields []string
	ModelUsed           string
}

// DocumentClassifier abstracts vision-model document classification and extraction.
type DocumentClassifier interface {
	Classify(ctx context.Context, input ClassifyInput) (*ClassifyOutput, error)
}
