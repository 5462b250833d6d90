package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Onebillie/onebillconvo-sub004/internal/port"
)

type emitter struct {
	endpoints port.WebhookEndpointRepository
	client    *http.Client
}

// NewEmitter creates a WebhookEmitter that posts signed event payloads to
// every active endpoint of a business. Delivery is fire and forget: a dead
// receiver must never fail the pipeline operation that emitted the event.
func NewEmitter(endpoints port.WebhookEndpointRepository, timeout time.Duration) port.WebhookEmitter {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &emitter{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
	}
}

type eventPayload struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func (e *emitter) Emit(ctx context.Context, businessID uuid.UUID, event string, data interface{}) {
	eps, err := e.endpoints.ListActiveByBusiness(ctx, businessID)
	if err != nil {
		log.Printf("webhook.Emitter: listing endpoints for business %s: %v", businessID, err)
		return
	}
	if len(eps) == 0 {
		return
	}

	body, err := json.Marshal(eventPayload{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		log.Printf("webhook.Emitter: marshaling %s payload: %v", event, err)
		return
	}

	for _, ep := range eps {
		if err := e.deliver(ctx, ep.URL, ep.Secret, body); err != nil {
			log.Printf("webhook.Emitter: delivering %s to %s: %v", event, ep.URL, err)
		}
	}
}

func (e *emitter) deliver(ctx context.Context, url, secret string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(secret, body))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("receiver returned status %d", resp.StatusCode)
	}
	return nil
}
