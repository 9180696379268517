package pkg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"ykjam/mmpay-sdk/pkg/mmpay/response"
)

// Service drives the MMPay merchant API. Implementations hold credentials
// only: the session token returned by a handshake is handed back to the
// caller and threaded through the pay flow as a local value, never stored,
// so one Service is safe for concurrent use.
type Service interface {
	Handshake(ctx context.Context, req HandshakeRequest) (HandshakeResponse, error)
	SandboxHandshake(ctx context.Context, req HandshakeRequest) (HandshakeResponse, error)
	Pay(ctx context.Context, req PaymentRequest) (PaymentResponse, error)
	SandboxPay(ctx context.Context, req PaymentRequest) (PaymentResponse, error)
	// VerifyCallback recomputes the signature over "{nonce}.{payload}" and
	// compares in constant time. A mismatch is a plain false, not an error;
	// an error means the caller passed an empty input.
	VerifyCallback(payload, nonce, signature string) (bool, error)
}

type service struct {
	appId          string
	publishableKey string
	secretKey      string
	apiBaseUrl     string
	timeout        time.Duration
}

const (
	HeaderNonce     = "X-Mmpay-Nonce"
	HeaderSignature = "X-Mmpay-Signature"
	HeaderBtoken    = "X-Mmpay-Btoken"
)

const DefaultTimeout = 30 * time.Second

func (s *service) generateClient() *http.Client {
	return &http.Client{
		Timeout: s.timeout,
	}
}

func (s *service) getHandshakeUrl(sandbox bool) string {
	if sandbox {
		return fmt.Sprintf("%s/payments/sandbox-handshake", s.apiBaseUrl)
	}
	return fmt.Sprintf("%s/payments/handshake", s.apiBaseUrl)
}

func (s *service) getCreateUrl(sandbox bool) string {
	if sandbox {
		return fmt.Sprintf("%s/payments/sandbox-create", s.apiBaseUrl)
	}
	return fmt.Sprintf("%s/payments/create", s.apiBaseUrl)
}

func (s *service) Handshake(ctx context.Context, req HandshakeRequest) (HandshakeResponse, error) {
	return s.handshake(ctx, req, false)
}

func (s *service) SandboxHandshake(ctx context.Context, req HandshakeRequest) (HandshakeResponse, error) {
	return s.handshake(ctx, req, true)
}

func (s *service) handshake(ctx context.Context, req HandshakeRequest, sandbox bool) (resp HandshakeResponse, err error) {
	clog := log.WithFields(log.Fields{
		"operation": "handshake",
		"order-id":  req.OrderId,
		"sandbox":   sandbox,
	})
	clog.Info("Processing")
	resp.Status = CallStatusOtherError

	// serialized exactly once, the same bytes are signed and transmitted
	var body []byte
	body, err = json.Marshal(req)
	if err != nil {
		eMsg := "error serializing handshake body"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Error = err.Error()
		return
	}
	nonce := NewNonce()
	signature := Sign(s.secretKey, nonce, body)

	var res *http.Response
	var r *http.Request
	var data []byte

	r, err = http.NewRequestWithContext(ctx, http.MethodPost, s.getHandshakeUrl(sandbox), bytes.NewReader(body))
	if err != nil {
		eMsg := "error creating http request"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Error = err.Error()
		return
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+s.publishableKey)
	r.Header.Set(HeaderNonce, nonce)
	r.Header.Set(HeaderSignature, signature)

	client := s.generateClient()
	res, err = client.Do(r)
	if err != nil {
		eMsg := "error making http request"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Status = CallStatusNetworkError
		resp.Error = err.Error()
		return
	}
	defer res.Body.Close()

	data, err = io.ReadAll(res.Body)
	if err != nil {
		eMsg := "error reading http response"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Status = CallStatusNetworkError
		resp.Error = err.Error()
		return
	}
	rawResponse := string(data)
	clog.WithField("raw", rawResponse).Debug("Response received")

	if res.StatusCode/100 != 2 {
		eMsg := fmt.Sprintf("invalid http status code: %d", res.StatusCode)
		clog.Error(eMsg)
		err = errors.New(eMsg)
		resp.Status = CallStatusRejected
		resp.Error = eMsg
		resp.Details = rawResponse
		return
	}

	var fields map[string]interface{}
	err = json.Unmarshal(data, &fields)
	if err != nil {
		eMsg := "error parsing json response"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Status = CallStatusBadResponse
		resp.Error = err.Error()
		resp.Details = rawResponse
		return
	}
	var hs response.Handshake
	_ = json.Unmarshal(data, &hs)
	if !hs.HasToken() {
		clog.Warn("handshake response carried no token")
	}

	resp.Status = CallStatusOk
	resp.Token = hs.Token
	resp.Fields = fields
	return
}

func (s *service) Pay(ctx context.Context, req PaymentRequest) (PaymentResponse, error) {
	return s.pay(ctx, req, false)
}

func (s *service) SandboxPay(ctx context.Context, req PaymentRequest) (PaymentResponse, error) {
	return s.pay(ctx, req, true)
}

func (s *service) pay(ctx context.Context, params PaymentRequest, sandbox bool) (resp PaymentResponse, err error) {
	clog := log.WithFields(log.Fields{
		"operation": "pay",
		"order-id":  params.OrderId,
		"sandbox":   sandbox,
	})
	clog.Info("Processing")
	resp.Status = CallStatusOtherError

	nonce := NewNonce()
	xp := xPaymentRequest{
		AppId:       s.appId,
		Nonce:       nonce,
		Amount:      params.Amount,
		OrderId:     params.OrderId,
		Items:       params.Items,
		CallbackUrl: params.CallbackUrl,
		Currency:    params.Currency,
	}
	// serialized exactly once, the same bytes are signed and transmitted
	var body []byte
	body, err = json.Marshal(xp)
	if err != nil {
		eMsg := "error serializing payment body"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Error = err.Error()
		return
	}
	signature := Sign(s.secretKey, nonce, body)

	// the create endpoint only honors a session opened by a handshake
	// carrying this same nonce, so handshake first
	var hs HandshakeResponse
	hs, err = s.handshake(ctx, HandshakeRequest{OrderId: params.OrderId, Nonce: nonce}, sandbox)
	if err != nil {
		eMsg := "handshake before create failed"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Status = hs.Status
		resp.Error = hs.Error
		resp.Details = hs.Details
		return
	}

	var res *http.Response
	var r *http.Request
	var data []byte

	r, err = http.NewRequestWithContext(ctx, http.MethodPost, s.getCreateUrl(sandbox), bytes.NewReader(body))
	if err != nil {
		eMsg := "error creating http request"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Error = err.Error()
		return
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer "+s.publishableKey)
	r.Header.Set(HeaderNonce, nonce)
	r.Header.Set(HeaderSignature, signature)
	if hs.Token != "" {
		r.Header.Set(HeaderBtoken, hs.Token)
	}

	client := s.generateClient()
	res, err = client.Do(r)
	if err != nil {
		eMsg := "error making http request"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Status = CallStatusNetworkError
		resp.Error = err.Error()
		return
	}
	defer res.Body.Close()

	data, err = io.ReadAll(res.Body)
	if err != nil {
		eMsg := "error reading http response"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Status = CallStatusNetworkError
		resp.Error = err.Error()
		return
	}
	rawResponse := string(data)
	clog.WithField("raw", rawResponse).Debug("Response received")

	if res.StatusCode/100 != 2 {
		eMsg := fmt.Sprintf("invalid http status code: %d", res.StatusCode)
		clog.Error(eMsg)
		err = errors.New(eMsg)
		resp.Status = CallStatusRejected
		resp.Error = eMsg
		resp.Details = rawResponse
		return
	}

	var fields map[string]interface{}
	err = json.Unmarshal(data, &fields)
	if err != nil {
		eMsg := "error parsing json response"
		clog.WithError(err).Error(eMsg)
		err = errors.Wrap(err, eMsg)
		resp.Status = CallStatusBadResponse
		resp.Error = err.Error()
		resp.Details = rawResponse
		return
	}
	var cp response.CreatePayment
	_ = json.Unmarshal(data, &cp)

	resp.Status = CallStatusOk
	resp.PaymentId = cp.PaymentId
	resp.PaymentUrl = cp.PaymentUrl
	resp.Fields = fields
	clog.WithField("payment-id", cp.PaymentId).Info("Payment created")
	return
}

func (s *service) VerifyCallback(payload, nonce, signature string) (ok bool, err error) {
	if payload == "" || nonce == "" || signature == "" {
		eMsg := "callback verification failed: missing payload, nonce or signature"
		log.Error(eMsg)
		err = errors.New(eMsg)
		return
	}
	if !VerifySignature(s.secretKey, nonce, []byte(payload), signature) {
		log.WithFields(log.Fields{
			"computed": Sign(s.secretKey, nonce, []byte(payload)),
			"received": signature,
		}).Warn("Callback signature mismatch")
		return false, nil
	}
	return true, nil
}

// Config carries the merchant credentials issued by MMPay. All four string
// fields are required; Timeout falls back to DefaultTimeout when zero.
type Config struct {
	AppId          string
	PublishableKey string
	SecretKey      string
	ApiBaseUrl     string
	Timeout        time.Duration
}

func NewService(c Config) (Service, error) {
	if c.AppId == "" {
		return nil, errors.New("appId is required")
	}
	if c.PublishableKey == "" {
		return nil, errors.New("publishableKey is required")
	}
	if c.SecretKey == "" {
		return nil, errors.New("secretKey is required")
	}
	if c.ApiBaseUrl == "" {
		return nil, errors.New("apiBaseUrl is required")
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &service{
		appId:          c.AppId,
		publishableKey: c.PublishableKey,
		secretKey:      c.SecretKey,
		apiBaseUrl:     strings.TrimRight(c.ApiBaseUrl, "/"),
		timeout:        timeout,
	}, nil
}
