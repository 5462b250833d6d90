package utility

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Onebillie/onebillconvo-sub004/internal/config"
	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

type gateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGateway creates the HTTP client for the downstream utility integration.
func NewGateway(cfg *config.IntegrationConfig) port.UtilityGateway {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &gateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// submissionRequest is the wire shape the integration accepts. Identifier
// fields absent for the document type are omitted.
type submissionRequest struct {
	DocumentType    string          `json:"document_type"`
	Phone           string          `json:"phone"`
	MPRN            string          `json:"mprn,omitempty"`
	GPRN            string          `json:"gprn,omitempty"`
	MeterConfigCode string          `json:"meter_config_code,omitempty"`
	DemandGroupCode string          `json:"demand_group_code,omitempty"`
	ReadingValue    string          `json:"reading_value,omitempty"`
	ReadingUnit     string          `json:"reading_unit,omitempty"`
	SourceFileURL   string          `json:"source_file_url,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

func (g *gateway) Submit(ctx context.Context, sub *domain.Submission, endpointOverride string) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	endpoint := g.baseURL
	if endpointOverride != "" {
		endpoint = endpointOverride
	}
	if endpoint == "" {
		return fmt.Errorf("no gateway endpoint configured")
	}

	body, err := json.Marshal(submissionRequest{
		DocumentType:    string(sub.DocumentType),
		Phone:           sub.Phone,
		MPRN:            sub.MPRN,
		GPRN:            sub.GPRN,
		MeterConfigCode: sub.MeterConfigCode,
		DemandGroupCode: sub.DemandGroupCode,
		ReadingValue:    sub.ReadingValue,
		ReadingUnit:     sub.ReadingUnit,
		SourceFileURL:   sub.SourceFileURL,
		Payload:         sub.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshaling submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling utility gateway: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("utility gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
