package pkg

type CallStatus string

const (
	CallStatusOk           CallStatus = "ok"
	CallStatusNetworkError CallStatus = "network-error"
	// gateway answered with a non-2xx status, raw body kept in Details
	CallStatusRejected CallStatus = "rejected"
	// gateway answered 2xx but the body was not valid JSON
	CallStatusBadResponse CallStatus = "bad-response"
	CallStatusOtherError  CallStatus = "other-error"
)
