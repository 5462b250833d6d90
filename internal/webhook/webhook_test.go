package webhook_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Onebillie/onebillconvo-sub004/internal/domain"
	"github.com/Onebillie/onebillconvo-sub004/internal/webhook"
	"github.com/Onebillie/onebillconvo-sub004/mocks"
)

func TestSignIsDeterministic(t *testing.T) {
	payload := []byte(`{"event":"parse.completed"}`)

	a := webhook.Sign("secret-1", payload)
	b := webhook.Sign("secret-1", payload)
	c := webhook.Sign("secret-2", payload)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"submission.created"}`)
	sig := webhook.Sign("hush", payload)

	assert.True(t, webhook.VerifySignature("hush", payload, sig))
	assert.False(t, webhook.VerifySignature("wrong", payload, sig))
	assert.False(t, webhook.VerifySignature("hush", []byte("tampered"), sig))
	assert.False(t, webhook.VerifySignature("hush", payload, ""))
}

func TestEmitDeliversSignedPayloadToAllEndpoints(t *testing.T) {
	type received struct {
		body []byte
		sig  string
	}
	got := make(chan received, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{body: body, sig: r.Header.Get("X-Webhook-Signature")}
	}))
	defer server.Close()

	businessID := uuid.New()
	endpoints := new(mocks.MockWebhookEndpointRepo)
	endpoints.On("ListActiveByBusiness", mock.Anything, businessID).Return([]domain.WebhookEndpoint{
		{ID: uuid.New(), BusinessID: businessID, URL: server.URL, Secret: "s1"},
		{ID: uuid.New(), BusinessID: businessID, URL: server.URL, Secret: "s2"},
	}, nil)

	emitter := webhook.NewEmitter(endpoints, 5*time.Second)
	emitter.Emit(context.Background(), businessID, "parse.completed", map[string]string{"attachment_id": "att-1"})

	secrets := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case r := <-got:
			var payload map[string]interface{}
			assert.NoError(t, json.Unmarshal(r.body, &payload))
			assert.Equal(t, "parse.completed", payload["event"])
			data := payload["data"].(map[string]interface{})
			assert.Equal(t, "att-1", data["attachment_id"])

			switch {
			case webhook.VerifySignature("s1", r.body, r.sig):
				secrets["s1"] = true
			case webhook.VerifySignature("s2", r.body, r.sig):
				secrets["s2"] = true
			default:
				t.Fatalf("delivery signed with unknown secret: %s", r.sig)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected two deliveries")
		}
	}
	assert.Len(t, secrets, 2)
	endpoints.AssertExpectations(t)
}

func TestEmitSkipsSignatureWithoutSecret(t *testing.T) {
	var sigHeader string
	var hasHeader bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sigHeader = r.Header.Get("X-Webhook-Signature")
		_, hasHeader = r.Header["X-Webhook-Signature"]
	}))
	defer server.Close()

	businessID := uuid.New()
	endpoints := new(mocks.MockWebhookEndpointRepo)
	endpoints.On("ListActiveByBusiness", mock.Anything, businessID).Return([]domain.WebhookEndpoint{
		{ID: uuid.New(), BusinessID: businessID, URL: server.URL},
	}, nil)

	emitter := webhook.NewEmitter(endpoints, 5*time.Second)
	emitter.Emit(context.Background(), businessID, "submission.created", nil)

	assert.False(t, hasHeader)
	assert.Empty(t, sigHeader)
}

func TestEmitWithNoEndpointsIsNoOp(t *testing.T) {
	businessID := uuid.New()
	endpoints := new(mocks.MockWebhookEndpointRepo)
	endpoints.On("ListActiveByBusiness", mock.Anything, businessID).Return([]domain.WebhookEndpoint{}, nil)

	emitter := webhook.NewEmitter(endpoints, time.Second)
	emitter.Emit(context.Background(), businessID, "parse.completed", nil)

	endpoints.AssertExpectations(t)
}

func TestEmitSurvivesDeadReceiver(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	businessID := uuid.New()
	endpoints := new(mocks.MockWebhookEndpointRepo)
	endpoints.On("ListActiveByBusiness", mock.Anything, businessID).Return([]domain.WebhookEndpoint{
		{ID: uuid.New(), BusinessID: businessID, URL: server.URL, Secret: "s1"},
	}, nil)

	emitter := webhook.NewEmitter(endpoints, time.Second)

	// Must not panic or propagate the failure.
	emitter.Emit(context.Background(), businessID, "parse.failed", nil)
}
