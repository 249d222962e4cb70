package server

import (
	"encoding/json"
	"net/http"

	"github.com/DiegoxdGarcia2/smart-condominium/payments"
)

// PaymentConfirmation is the JSON body of the success route.
type PaymentConfirmation struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	SessionID     string `json:"session_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Attempts      int    `json:"attempts"`
	PaymentsRoute string `json:"payments_route,omitempty"`
}

// PaymentSuccessHandler polls for the payment named by ?session_id= until it
// is confirmed or the poll deadline passes. The poll is bound to the request:
// a client that disconnects stops it.
func (s *Server) PaymentSuccessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")

		result := s.poller.PollForCompletion(r.Context(), sessionID, "")
		if result.Status == payments.Checking && r.Context().Err() != nil {
			s.logger.Debug().Str("session_id", sessionID).Msg("client left before the payment was confirmed")
			return
		}

		body := PaymentConfirmation{
			Status:    result.Status.String(),
			Message:   result.Message(),
			SessionID: sessionID,
			Attempts:  result.Attempts,
		}
		if result.Payment != nil {
			body.TransactionID = result.Payment.TransactionID
		}

		status := http.StatusOK
		switch result.Status {
		case payments.TimedOut:
			body.PaymentsRoute = RoutePaymentsList
			status = http.StatusAccepted
		case payments.Failed:
			status = http.StatusBadRequest
		}
		if result.Err != nil {
			s.logger.Info().Err(result.Err).Str("session_id", sessionID).Str("status", body.Status).Msg("payment not confirmed")
		}
		writeJSON(w, status, body)
	}
}

func (s *Server) PaymentCancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":         "Cancelled",
			"message":        "The payment was cancelled. No charge was made.",
			"payments_route": RoutePaymentsList,
		})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "app": s.appName})
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
