package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meostore/internal/metrics"
	"meostore/internal/notify"
	"meostore/internal/repository"
	"meostore/internal/service"
)

const testSecret = "casso-secret"

type testApp struct {
	gate    *repository.Gate
	hub     *notify.Hub
	handler http.Handler
}

func newTestApp(t *testing.T, attach bool) *testApp {
	t.Helper()
	m := metrics.New()
	qr, err := service.NewQRBuilder(service.BankAccount{
		Bin:         "970448",
		AccountNo:   "0014100027536007",
		AccountName: "DONG THI THU HA",
	}, "https://img.vietqr.io/image/", "compact2")
	require.NoError(t, err)

	gate := repository.NewGate()
	if attach {
		gate.Attach(repository.NewMemoryOrderRepository())
	}
	hub := notify.NewHub(m)

	return &testApp{
		gate: gate,
		hub:  hub,
		handler: NewRouter(RouterDeps{
			Orders:         service.NewOrderService(gate, qr, m),
			Webhooks:       service.NewWebhookService(gate, service.NewSignatureVerifier(testSecret), hub, m),
			Hub:            hub,
			Storage:        gate,
			Metrics:        m.Handler(),
			AllowedOrigins: []string{"*"},
		}),
	}
}

func (a *testApp) do(t *testing.T, method, target string, body []byte, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got), rec.Body.String())
	return got
}

func signedWebhook(t *testing.T, txID int, desc string) ([]byte, http.Header) {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"error": 0,
		"data": map[string]any{
			"id":          txID,
			"description": desc,
			"amount":      100000,
		},
	})
	require.NoError(t, err)
	ts := "1700000000"
	h := http.Header{}
	h.Set(service.SignatureHeader, "t="+ts+",v1="+service.ComputeSignature([]byte(testSecret), ts, body))
	return body, h
}

func createOrder(t *testing.T, app *testApp) map[string]any {
	t.Helper()
	rec := app.do(t, http.MethodPost, "/create-order", []byte(`{"uid":"42","amount":100000}`), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody(t, rec)
}

func TestCreateOrder(t *testing.T) {
	app := newTestApp(t, true)

	got := createOrder(t, app)
	code, _ := got["orderCode"].(string)

	assert.Equal(t, true, got["success"])
	assert.Regexp(t, `^MEOSTORE-\d{6}$`, code)
	assert.Equal(t, code+" - Deposit for UID 42", got["transferDesc"])
	assert.Equal(t, float64(100000), got["amount"])
	assert.Contains(t, got["qrUrl"], "https://img.vietqr.io/image/970448-0014100027536007-compact2.png?")
}

func TestCreateOrderBadRequest(t *testing.T) {
	app := newTestApp(t, true)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"uid":`},
		{"missing uid", `{"amount":1000}`},
		{"missing amount", `{"uid":"42"}`},
		{"zero amount", `{"uid":"42","amount":0}`},
		{"negative amount", `{"uid":"42","amount":-5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/create-order", []byte(tt.body), nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestGetOrder(t *testing.T) {
	app := newTestApp(t, true)
	code := createOrder(t, app)["orderCode"].(string)

	rec := app.do(t, http.MethodGet, "/order/"+code, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody(t, rec)
	assert.Equal(t, code, got["orderCode"])
	assert.Equal(t, "42", got["uid"])
	assert.Equal(t, "pending", got["status"])
	assert.NotContains(t, got, "paidAt")
}

func TestGetOrderNotFound(t *testing.T) {
	app := newTestApp(t, true)

	rec := app.do(t, http.MethodGet, "/order/UNKNOWN-1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Order not found"}`, rec.Body.String())
}

func TestStorageNotReady(t *testing.T) {
	app := newTestApp(t, false)

	rec := app.do(t, http.MethodPost, "/create-order", []byte(`{"uid":"42","amount":1000}`), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = app.do(t, http.MethodGet, "/order/MEOSTORE-123456", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = app.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	app.gate.Attach(repository.NewMemoryOrderRepository())
	rec = app.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWebhookPaysOrder(t *testing.T) {
	app := newTestApp(t, true)
	code := createOrder(t, app)["orderCode"].(string)

	body, h := signedWebhook(t, 777, code+" - Deposit for UID 42")
	rec := app.do(t, http.MethodPost, "/casso-webhook", body, h)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	got := decodeBody(t, app.do(t, http.MethodGet, "/order/"+code, nil, nil))
	assert.Equal(t, "paid", got["status"])
	assert.Equal(t, "777", got["txId"])
	assert.NotEmpty(t, got["paidAt"])
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	app := newTestApp(t, true)
	code := createOrder(t, app)["orderCode"].(string)

	body, _ := signedWebhook(t, 1, code)
	bad := http.Header{}
	bad.Set(service.SignatureHeader, "t=1700000000,v1=00")

	unattributed, h := signedWebhook(t, 2, "tien an trua")

	tests := []struct {
		name   string
		body   []byte
		header http.Header
	}{
		{"invalid signature", body, bad},
		{"missing signature", body, nil},
		{"unattributed", unattributed, h},
		{"garbage", []byte("not json"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/casso-webhook", tt.body, tt.header)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"success":true}`, rec.Body.String())
		})
	}

	got := decodeBody(t, app.do(t, http.MethodGet, "/order/"+code, nil, nil))
	assert.Equal(t, "pending", got["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, true)
	createOrder(t, app)

	rec := app.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orders_created_total 1")
}

func TestEventsStreamPaymentSuccess(t *testing.T) {
	app := newTestApp(t, true)
	srv := httptest.NewServer(app.handler)
	defer srv.Close()

	code := createOrder(t, app)["orderCode"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewReader(resp.Body)
	readLine := func() string {
		line, err := lines.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimRight(line, "\n")
	}
	require.Equal(t, ": connected", readLine())
	require.Equal(t, "", readLine())

	body, h := signedWebhook(t, 99, code)
	whReq, err := http.NewRequest(http.MethodPost, srv.URL+"/casso-webhook", bytes.NewReader(body))
	require.NoError(t, err)
	whReq.Header = h
	whResp, err := srv.Client().Do(whReq)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, whResp.Body)
	whResp.Body.Close()

	assert.True(t, strings.HasPrefix(readLine(), "id: "))
	assert.Equal(t, "event: payment_success", readLine())
	data := strings.TrimPrefix(readLine(), "data: ")

	var ev map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.Equal(t, code, ev["orderCode"])
	assert.Equal(t, "99", ev["txId"])
	assert.Equal(t, float64(100000), ev["amount"])
}
