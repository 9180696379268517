package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ykjam/mmpay-sdk/pkg"
)

type HandlerContext interface {
	HandleUtilityEpoch(w http.ResponseWriter, r *http.Request)
	HandleUtilityIP(w http.ResponseWriter, r *http.Request)
	HandleHandshake(w http.ResponseWriter, r *http.Request)
	HandleSandboxHandshake(w http.ResponseWriter, r *http.Request)
	HandleCreatePayment(w http.ResponseWriter, r *http.Request)
	HandleSandboxCreatePayment(w http.ResponseWriter, r *http.Request)
	HandleCallback(w http.ResponseWriter, r *http.Request)
}

type handlerContext struct {
	service   pkg.Service
	rOrderId  *regexp.Regexp
	rNonce    *regexp.Regexp
	rCurrency *regexp.Regexp
}

// CallbackAck is the body returned to the gateway once a callback passed
// signature verification.
type CallbackAck struct {
	Status string `json:"status"`
}

type httpPostWithLog func(w http.ResponseWriter, r *http.Request, ctx context.Context, clog *log.Entry)

func GetRemoteAddress(r *http.Request) string {
	if val := r.Header.Get("X-Forwarded-For"); val != "" {
		return val
	} else if val := r.Header.Get("X-Real-IP"); val != "" {
		return val
	} else {
		return r.RemoteAddr
	}
}

func errorHandler(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
	if status == http.StatusNotFound {
		_, _ = fmt.Fprint(w, "Page not found")

	} else {
		_, _ = fmt.Fprintf(w, "HTTP %d error", status)
	}
}

func responseWithCodeAndMessage(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, message)
}

func jsonResponse(clog *log.Entry, w http.ResponseWriter, response interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		clog.WithError(err).Error("error in json.Encode")
	}
}

func (c *handlerContext) handleHttpPostWithLog(handleName string, w http.ResponseWriter, r *http.Request, f httpPostWithLog) {
	ctx := r.Context()
	clog := log.WithFields(log.Fields{
		"remote-addr": GetRemoteAddress(r),
		"uri":         r.RequestURI,
		"method":      r.Method,
		"handle":      handleName,
		"request-id":  uuid.NewString(),
	}).WithContext(ctx)
	if r.Method == http.MethodPost {
		f(w, r, ctx, clog)
	} else {
		clog.Error("invalid request, method not allowed")
		errorHandler(w, http.StatusMethodNotAllowed)
	}
}

func (c *handlerContext) isOrderIdValid(orderId string) bool {
	return c.rOrderId.MatchString(orderId)
}

func (c *handlerContext) isPaymentValid(clog *log.Entry, req pkg.PaymentRequest) bool {
	if !c.isOrderIdValid(req.OrderId) {
		clog.WithField("order-id", req.OrderId).Error("order id validation failed")
		return false
	} else if req.Amount <= 0 {
		clog.WithField("amount", req.Amount).Error("amount validation failed")
		return false
	} else if req.Currency != "" && !c.rCurrency.MatchString(req.Currency) {
		clog.WithField("currency", req.Currency).Error("currency validation failed")
		return false
	}
	return true
}

func (c *handlerContext) handleHandshake(sandbox bool) httpPostWithLog {
	return func(w http.ResponseWriter, r *http.Request, ctx context.Context, clog *log.Entry) {
		// request parameters
		orderId := r.FormValue("order-id")
		nonce := r.FormValue("nonce")
		// validate inputs
		if !c.isOrderIdValid(orderId) {
			clog.Warn("not valid order id, ignoring request")
			errorHandler(w, http.StatusBadRequest)
			return
		}
		if nonce == "" {
			nonce = pkg.NewNonce()
		} else if !c.rNonce.MatchString(nonce) {
			clog.Warn("not valid nonce, ignoring request")
			errorHandler(w, http.StatusBadRequest)
			return
		}
		clog.WithFields(log.Fields{
			"order-id": orderId,
			"sandbox":  sandbox,
		}).Debug("request received")
		req := pkg.HandshakeRequest{
			OrderId: orderId,
			Nonce:   nonce,
		}
		var resp pkg.HandshakeResponse
		var err error
		if sandbox {
			resp, err = c.service.SandboxHandshake(ctx, req)
		} else {
			resp, err = c.service.Handshake(ctx, req)
		}
		if err != nil {
			// failure detail is already carried by the response body
			clog.WithError(err).Warn("handshake failed")
		}
		jsonResponse(clog, w, resp)
	}
}

func (c *handlerContext) HandleHandshake(w http.ResponseWriter, r *http.Request) {
	h := "handleHandshake"
	c.handleHttpPostWithLog(h, w, r, c.handleHandshake(false))
}

func (c *handlerContext) HandleSandboxHandshake(w http.ResponseWriter, r *http.Request) {
	h := "handleSandboxHandshake"
	c.handleHttpPostWithLog(h, w, r, c.handleHandshake(true))
}

func (c *handlerContext) handleCreatePayment(sandbox bool) httpPostWithLog {
	return func(w http.ResponseWriter, r *http.Request, ctx context.Context, clog *log.Entry) {
		// request body
		var req pkg.PaymentRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			clog.WithError(err).Warn("not valid payment body, ignoring request")
			errorHandler(w, http.StatusBadRequest)
			return
		}
		// validate inputs
		if !c.isPaymentValid(clog, req) {
			clog.Warn("not valid payment details, ignoring request")
			errorHandler(w, http.StatusBadRequest)
			return
		}
		clog.WithFields(log.Fields{
			"order-id": req.OrderId,
			"amount":   req.Amount,
			"sandbox":  sandbox,
		}).Debug("request received")
		var resp pkg.PaymentResponse
		if sandbox {
			resp, err = c.service.SandboxPay(ctx, req)
		} else {
			resp, err = c.service.Pay(ctx, req)
		}
		if err != nil {
			// failure detail is already carried by the response body
			clog.WithError(err).Warn("create payment failed")
		}
		jsonResponse(clog, w, resp)
	}
}

func (c *handlerContext) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	h := "handleCreatePayment"
	c.handleHttpPostWithLog(h, w, r, c.handleCreatePayment(false))
}

func (c *handlerContext) HandleSandboxCreatePayment(w http.ResponseWriter, r *http.Request) {
	h := "handleSandboxCreatePayment"
	c.handleHttpPostWithLog(h, w, r, c.handleCreatePayment(true))
}

func (c *handlerContext) HandleCallback(w http.ResponseWriter, r *http.Request) {
	h := "handleCallback"
	c.handleHttpPostWithLog(h, w, r, func(w http.ResponseWriter, r *http.Request, ctx context.Context, clog *log.Entry) {
		nonce := r.Header.Get(pkg.HeaderNonce)
		signature := r.Header.Get(pkg.HeaderSignature)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			clog.WithError(err).Error("error reading callback body")
			errorHandler(w, http.StatusBadRequest)
			return
		}
		ok, err := c.service.VerifyCallback(string(data), nonce, signature)
		if err != nil {
			clog.WithError(err).Warn("callback missing payload, nonce or signature")
			errorHandler(w, http.StatusBadRequest)
			return
		}
		if !ok {
			clog.Warn("callback signature mismatch, rejecting")
			errorHandler(w, http.StatusForbidden)
			return
		}
		var note map[string]interface{}
		if err = json.Unmarshal(data, &note); err == nil {
			clog.WithFields(log.Fields{
				"order-id": note["orderId"],
				"status":   note["status"],
			}).Info("Callback verified")
		} else {
			clog.WithField("payload", string(data)).Info("Callback verified")
		}
		jsonResponse(clog, w, CallbackAck{Status: "accepted"})
	})
}

func (c *handlerContext) HandleUtilityEpoch(w http.ResponseWriter, _ *http.Request) {
	epoch := time.Now().Unix()
	responseWithCodeAndMessage(w, http.StatusOK, fmt.Sprintf("%d", epoch))
}

func (c *handlerContext) HandleUtilityIP(w http.ResponseWriter, r *http.Request) {
	remoteIp := GetRemoteAddress(r)
	responseWithCodeAndMessage(w, http.StatusOK, remoteIp)
}

func NewHandlerContext(service pkg.Service) HandlerContext {
	return &handlerContext{
		service:   service,
		rOrderId:  regexp.MustCompile(`(?i)^[a-z0-9._-]{1,64}$`),
		rNonce:    regexp.MustCompile(`^[0-9]{1,20}$`),
		rCurrency: regexp.MustCompile(`(?i)^[a-z]{3}$`),
	}
}
