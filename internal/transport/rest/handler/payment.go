package handler

import (
	"errors"
	"io"
	"net/http"

	"survive/internal/service"

	"github.com/gorilla/mux"
)

const maxWebhookBody = 64 << 10

// PaymentHandler handles boost checkout and the provider webhook
type PaymentHandler struct {
	paymentSvc *service.PaymentService
	playerSvc  *service.PlayerService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentSvc *service.PaymentService, playerSvc *service.PlayerService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc, playerSvc: playerSvc}
}

// Checkout handles POST /v1/rooms/{id}/checkout
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	name, ok := currentSeat(w, r, h.playerSvc, id)
	if !ok {
		return
	}

	session, err := h.paymentSvc.CreateCheckout(r.Context(), id, name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"checkoutId": session.ID,
		"url":        session.URL,
	})
}

// Webhook handles POST /v1/payments/webhook
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	res, err := h.paymentSvc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if res == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"received": true,
		"applied":  res.Applied,
		"points":   res.Points,
	})
}
