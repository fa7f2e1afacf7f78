package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/viptagger/internal/classify/domain"
	"github.com/smallbiznis/viptagger/internal/config"
	"github.com/smallbiznis/viptagger/internal/observability"
	"github.com/smallbiznis/viptagger/internal/shopify"
	"github.com/smallbiznis/viptagger/internal/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEngine struct {
	mu sync.Mutex
	ch chan int64
}

func newStubEngine() *stubEngine {
	return &stubEngine{ch: make(chan int64, 16)}
}

func (s *stubEngine) ClassifyByID(ctx context.Context, customerID int64) domain.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ch <- customerID
	return domain.Result{CustomerID: customerID, Outcome: domain.OutcomeNewlyTagged}
}

func (s *stubEngine) ClassifyCustomer(ctx context.Context, customer shopify.Customer) domain.Result {
	return s.ClassifyByID(ctx, customer.ID)
}

func newTestServer(t *testing.T, secret string) (*Server, *stubEngine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{AppName: "viptagger", WebhookSecret: secret}

	policies, err := config.NewPolicyHolder()
	require.NoError(t, err)

	engine := newStubEngine()
	executor := webhook.NewExecutor(zap.NewNop())
	t.Cleanup(func() { executor.Stop(context.Background()) })

	dispatcher := webhook.NewDispatcher(webhook.DispatcherParams{
		Log:      zap.NewNop(),
		Policies: policies,
		Engine:   engine,
		Executor: executor,
	})

	srv := NewServer(ServerParams{
		Gin:        NewEngine(observability.Config{}),
		Cfg:        cfg,
		Log:        zap.NewNop(),
		Policies:   policies,
		Verifier:   webhook.NewVerifier(cfg, zap.NewNop()),
		Dispatcher: dispatcher,
	})
	registerRoutes(srv)
	return srv, engine
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookAcceptsSignedOrder(t *testing.T) {
	srv, engine := newTestServer(t, "shhh")

	body := []byte(`{"id":9001,"customer":{"id":42},"financial_status":"paid","total_price":"12000.00"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/paid", bytes.NewReader(body))
	req.Header.Set("X-Shopify-Hmac-Sha256", signBody("shhh", body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	select {
	case id := <-engine.ch:
		assert.Equal(t, int64(42), id)
	case <-time.After(2 * time.Second):
		t.Fatal("classification never ran")
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	srv, engine := newTestServer(t, "shhh")

	body := []byte(`{"id":9001,"customer":{"id":42},"financial_status":"paid"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/paid", bytes.NewReader(body))
	req.Header.Set("X-Shopify-Hmac-Sha256", signBody("wrong-secret", body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unauthorized", resp.Error.Type)

	select {
	case <-engine.ch:
		t.Fatal("rejected delivery must not classify")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	srv, _ := newTestServer(t, "shhh")

	body := []byte(`{"id":9001,"customer":{"id":42},"financial_status":"paid"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/create", bytes.NewReader(body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookMalformedPayloadStillAcknowledged(t *testing.T) {
	srv, engine := newTestServer(t, "shhh")

	// Once the signature checks out the delivery is acknowledged no matter
	// what the body holds; a 4xx would make the platform retry a payload
	// that will never parse.
	body := []byte(`{not json`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/paid", bytes.NewReader(body))
	req.Header.Set("X-Shopify-Hmac-Sha256", signBody("shhh", body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	select {
	case <-engine.ch:
		t.Fatal("malformed payload must not classify")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWebhookOrderWithoutCustomerStillOK(t *testing.T) {
	srv, engine := newTestServer(t, "shhh")

	body := []byte(`{"id":9001,"financial_status":"paid","total_price":"12000.00"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/orders/paid", bytes.NewReader(body))
	req.Header.Set("X-Shopify-Hmac-Sha256", signBody("shhh", body))

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case <-engine.ch:
		t.Fatal("order without customer must not classify")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHomeReportsPolicy(t *testing.T) {
	srv, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "viptagger", resp["service"])
	assert.Equal(t, "running", resp["status"])
	assert.Equal(t, "VIP-Customer", resp["vip_tag"])
	assert.Equal(t, "₹11000.00", resp["vip_threshold"])
}
