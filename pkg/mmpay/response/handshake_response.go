package response

type Handshake struct {
	// session token for the follow up create call; the gateway is allowed to
	// answer without one, in that case create is attempted tokenless
	Token string `json:"token,omitempty"`
}

func (h *Handshake) HasToken() bool {
	return h.Token != ""
}
