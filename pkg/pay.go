package pkg

import "fmt"

type Item struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	Quantity int     `json:"quantity"`
}

type PaymentRequest struct {
	// merchant unique order identifier
	OrderId string  `json:"orderId"`
	Amount  float64 `json:"amount"`
	Items   []Item  `json:"items"`
	// optional; when empty the key is left out of the signed body
	Currency string `json:"currency,omitempty"`
	// optional; when empty the key is left out of the signed body
	CallbackUrl string `json:"callbackUrl,omitempty"`
}

// xPaymentRequest is the payload as the gateway signs and receives it.
// Field order is part of the wire contract: the serialized bytes are hashed
// into the signature, so reordering fields breaks verification server side.
type xPaymentRequest struct {
	AppId       string  `json:"appId"`
	Nonce       string  `json:"nonce"`
	Amount      float64 `json:"amount"`
	OrderId     string  `json:"orderId"`
	Items       []Item  `json:"items"`
	CallbackUrl string  `json:"callbackUrl,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

type PaymentResponse struct {
	Status     CallStatus `json:"status"`
	PaymentId  string     `json:"paymentId,omitempty"`
	PaymentUrl string     `json:"paymentUrl,omitempty"`
	// full decoded response body as received
	Fields  map[string]interface{} `json:"fields,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Details string                 `json:"details,omitempty"`
}

func (r PaymentResponse) String() string {
	return fmt.Sprintf("PaymentResponse {status: %v, paymentId: %v, paymentUrl: %v, error: %v}",
		r.Status, r.PaymentId, r.PaymentUrl, r.Error)
}
