package pkg

import "fmt"

type HandshakeRequest struct {
	// merchant side order identifier the session is opened for
	OrderId string `json:"orderId"`
	// nonce carried inside the signed body; during pay this is the payment's
	// own nonce so the gateway can match the two calls
	Nonce string `json:"nonce"`
}

type HandshakeResponse struct {
	Status CallStatus `json:"status"`
	// session token ("btoken") issued by the gateway, empty when the
	// response carried none
	Token string `json:"token,omitempty"`
	// full decoded response body as received
	Fields  map[string]interface{} `json:"fields,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Details string                 `json:"details,omitempty"`
}

func (r HandshakeResponse) String() string {
	return fmt.Sprintf("HandshakeResponse {status: %v, token-present: %v, error: %v}",
		r.Status, r.Token != "", r.Error)
}
