package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ykjam/mmpay-sdk/pkg"
)

const testSecretKey = "sk_test_4eC39HqLyjWDarjtT1zdp7dc"

// newTestContext wires a HandlerContext to a stub gateway that completes
// every handshake and create call.
func newTestContext(t *testing.T) HandlerContext {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/payments/handshake", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"token":"btok-1"}`)
	})
	mux.HandleFunc("/payments/sandbox-handshake", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"token":"btok-sbx"}`)
	})
	mux.HandleFunc("/payments/create", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"paymentId":"pay-1","paymentUrl":"https://pay.mmpay.test/pay-1"}`)
	})
	mux.HandleFunc("/payments/sandbox-create", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"paymentId":"pay-sbx"}`)
	})
	gateway := httptest.NewServer(mux)
	t.Cleanup(gateway.Close)

	svc, err := pkg.NewService(pkg.Config{
		AppId:          "app-1",
		PublishableKey: "pk_test_5WyZ3uC2",
		SecretKey:      testSecretKey,
		ApiBaseUrl:     gateway.URL,
	})
	require.NoError(t, err)
	return NewHandlerContext(svc)
}

func postForm(path string, form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestHandleUtilityEpoch(t *testing.T) {
	hc := newTestContext(t)
	w := httptest.NewRecorder()
	hc.HandleUtilityEpoch(w, httptest.NewRequest(http.MethodGet, "/api/epoch", nil))
	require.Equal(t, http.StatusOK, w.Code)
	epoch, err := strconv.ParseInt(strings.TrimSpace(w.Body.String()), 10, 64)
	require.NoError(t, err)
	require.InDelta(t, time.Now().Unix(), epoch, 5)
}

func TestHandleUtilityIP(t *testing.T) {
	hc := newTestContext(t)
	r := httptest.NewRequest(http.MethodGet, "/api/ip", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	w := httptest.NewRecorder()
	hc.HandleUtilityIP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "203.0.113.7", strings.TrimSpace(w.Body.String()))
}

func TestHandleHandshake(t *testing.T) {
	hc := newTestContext(t)

	w := httptest.NewRecorder()
	hc.HandleHandshake(w, postForm("/api/v1/handshake", url.Values{
		"order-id": {"ord-1"},
		"nonce":    {"1724592000123"},
	}))
	require.Equal(t, http.StatusOK, w.Code)
	var resp pkg.HandshakeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, pkg.CallStatusOk, resp.Status)
	require.Equal(t, "btok-1", resp.Token)
}

func TestHandleHandshakeGeneratesNonce(t *testing.T) {
	hc := newTestContext(t)
	w := httptest.NewRecorder()
	hc.HandleHandshake(w, postForm("/api/v1/handshake", url.Values{
		"order-id": {"ord-1"},
	}))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleHandshakeRejectsBadInput(t *testing.T) {
	hc := newTestContext(t)

	w := httptest.NewRecorder()
	hc.HandleHandshake(w, postForm("/api/v1/handshake", url.Values{
		"order-id": {"not a valid order id!"},
	}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	hc.HandleHandshake(w, postForm("/api/v1/handshake", url.Values{
		"order-id": {"ord-1"},
		"nonce":    {"not-a-number"},
	}))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	hc.HandleHandshake(w, httptest.NewRequest(http.MethodGet, "/api/v1/handshake", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleSandboxHandshake(t *testing.T) {
	hc := newTestContext(t)
	w := httptest.NewRecorder()
	hc.HandleSandboxHandshake(w, postForm("/api/v1/sandbox-handshake", url.Values{
		"order-id": {"ord-1"},
	}))
	require.Equal(t, http.StatusOK, w.Code)
	var resp pkg.HandshakeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "btok-sbx", resp.Token)
}

func TestHandleCreatePayment(t *testing.T) {
	hc := newTestContext(t)

	body := `{"orderId":"ord-1","amount":10,"items":[{"name":"A","amount":10,"quantity":1}]}`
	r := httptest.NewRequest(http.MethodPost, "/api/v1/pay", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	hc.HandleCreatePayment(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	var resp pkg.PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, pkg.CallStatusOk, resp.Status)
	require.Equal(t, "pay-1", resp.PaymentId)
	require.Equal(t, "https://pay.mmpay.test/pay-1", resp.PaymentUrl)
}

func TestHandleCreatePaymentRejectsBadInput(t *testing.T) {
	hc := newTestContext(t)
	cases := []struct {
		name string
		body string
	}{
		{"broken json", `{"orderId":`},
		{"zero amount", `{"orderId":"ord-1","amount":0,"items":[]}`},
		{"negative amount", `{"orderId":"ord-1","amount":-5,"items":[]}`},
		{"bad order id", `{"orderId":"###","amount":10,"items":[]}`},
		{"bad currency", `{"orderId":"ord-1","amount":10,"items":[],"currency":"DOLLARS"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/pay", strings.NewReader(tc.body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			hc.HandleCreatePayment(w, r)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w := httptest.NewRecorder()
	hc.HandleCreatePayment(w, httptest.NewRequest(http.MethodGet, "/api/v1/pay", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleSandboxCreatePayment(t *testing.T) {
	hc := newTestContext(t)
	body := `{"orderId":"ord-1","amount":10,"items":[{"name":"A","amount":10,"quantity":1}]}`
	r := httptest.NewRequest(http.MethodPost, "/api/v1/sandbox-pay", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	hc.HandleSandboxCreatePayment(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	var resp pkg.PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "pay-sbx", resp.PaymentId)
}

func TestHandleCallback(t *testing.T) {
	hc := newTestContext(t)
	payload := `{"orderId":"ord-1","status":"paid"}`
	nonce := "1724592000123"
	signature := pkg.Sign(testSecretKey, nonce, []byte(payload))

	newCallback := func(nonce, signature, body string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/callback/mmpay", strings.NewReader(body))
		if nonce != "" {
			r.Header.Set(pkg.HeaderNonce, nonce)
		}
		if signature != "" {
			r.Header.Set(pkg.HeaderSignature, signature)
		}
		return r
	}

	w := httptest.NewRecorder()
	hc.HandleCallback(w, newCallback(nonce, signature, payload))
	require.Equal(t, http.StatusOK, w.Code)
	var ack CallbackAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	require.Equal(t, "accepted", ack.Status)

	w = httptest.NewRecorder()
	hc.HandleCallback(w, newCallback(nonce, signature, payload+"tampered"))
	require.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	hc.HandleCallback(w, newCallback("", signature, payload))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	hc.HandleCallback(w, newCallback(nonce, "", payload))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	hc.HandleCallback(w, httptest.NewRequest(http.MethodGet, "/callback/mmpay", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
