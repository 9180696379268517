package response

// CreatePayment holds the fields the create endpoints are known to return.
// The body is open ended on the gateway side; anything not listed here stays
// reachable through the raw Fields map of the call result.
type CreatePayment struct {
	PaymentId  string `json:"paymentId,omitempty"`
	PaymentUrl string `json:"paymentUrl,omitempty"`
	Status     string `json:"status,omitempty"`
}

func (c *CreatePayment) HasPaymentUrl() bool {
	return c.PaymentUrl != ""
}
