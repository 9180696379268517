package response

import (
	"encoding/json"
	"testing"
)

func TestHandshakeHasToken(t *testing.T) {
	var h Handshake
	if err := json.Unmarshal([]byte(`{"token":"btok-1","sessionTtl":300}`), &h); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !h.HasToken() {
		t.Error("expected a token")
	}
	if h.Token != "btok-1" {
		t.Errorf("token = %q, want btok-1", h.Token)
	}

	h = Handshake{}
	if err := json.Unmarshal([]byte(`{"sessionTtl":300}`), &h); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if h.HasToken() {
		t.Error("expected no token")
	}
}

func TestCreatePaymentHasPaymentUrl(t *testing.T) {
	var c CreatePayment
	raw := `{"paymentId":"pay-1","paymentUrl":"https://pay.mmpay.test/pay-1","status":"created","extra":"ignored"}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !c.HasPaymentUrl() {
		t.Error("expected a payment url")
	}
	if c.PaymentId != "pay-1" || c.Status != "created" {
		t.Errorf("unexpected fields: %+v", c)
	}

	c = CreatePayment{}
	if err := json.Unmarshal([]byte(`{}`), &c); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if c.HasPaymentUrl() {
		t.Error("expected no payment url")
	}
}
