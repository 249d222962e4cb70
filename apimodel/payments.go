package apimodel

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/DiegoxdGarcia2/smart-condominium/internal/utils"
)

// Payment statuses as reported by the backend.
const (
	PaymentStatusCompleted  = "Completado"
	PaymentStatusPending    = "Pendiente"
	PaymentStatusProcessing = "Procesando"
)

// GatewayResponse is the raw checkout session data the backend stored for a payment.
type GatewayResponse struct {
	StripeSessionID string `json:"stripe_session_id,omitempty"`
	SessionID       string `json:"session_id,omitempty"`
	PaymentURL      string `json:"payment_url,omitempty"`
}

// Payment is one record of /administration/payments/.
type Payment struct {
	ID              int              `json:"id,omitempty"`
	TransactionID   string           `json:"transaction_id"`
	Status          string           `json:"status"`
	Amount          string           `json:"amount,omitempty"`
	PaymentURL      string           `json:"payment_url,omitempty"`
	GatewayResponse *GatewayResponse `json:"gateway_response,omitempty"`
	FinancialFee    json.RawMessage  `json:"financial_fee,omitempty"`
	Fee             json.RawMessage  `json:"fee,omitempty"`
	FeeID           json.RawMessage  `json:"fee_id,omitempty"`
	Resident        *int             `json:"resident,omitempty"`
	ResidentID      *int             `json:"resident_id,omitempty"`
}

// MatchesSession reports whether the payment belongs to the gateway session id,
// either through its transaction id or the stored gateway session.
func (p Payment) MatchesSession(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	if p.TransactionID == sessionID {
		return true
	}
	if p.GatewayResponse == nil {
		return false
	}
	return p.GatewayResponse.StripeSessionID == sessionID || p.GatewayResponse.SessionID == sessionID
}

// IsCompleted reports the terminal completed status.
func (p Payment) IsCompleted() bool {
	return strings.EqualFold(p.Status, PaymentStatusCompleted) || strings.EqualFold(p.Status, "completed")
}

// IsPending reports a payment still waiting at the gateway.
func (p Payment) IsPending() bool {
	status := strings.ToLower(p.Status)
	return strings.Contains(status, "pendiente") || strings.Contains(status, "proces")
}

// GatewaySessionID returns the checkout session id, falling back to the transaction id.
func (p Payment) GatewaySessionID() string {
	if p.GatewayResponse == nil {
		return p.TransactionID
	}
	return utils.FirstNonEmpty(p.GatewayResponse.StripeSessionID, p.GatewayResponse.SessionID, p.TransactionID)
}

// CheckoutURL returns the stored checkout page, if any.
func (p Payment) CheckoutURL() string {
	if p.GatewayResponse == nil {
		return p.PaymentURL
	}
	return utils.FirstNonEmpty(p.PaymentURL, p.GatewayResponse.PaymentURL)
}

// FinancialFeeID resolves the fee reference, which the backend serialises as
// a bare id, a string id or a nested fee object under one of three keys.
func (p Payment) FinancialFeeID() string {
	for _, raw := range []json.RawMessage{p.FinancialFee, p.Fee, p.FeeID} {
		if id := refID(raw); id != "" {
			return id
		}
	}
	return ""
}

// BelongsToResident checks the resident reference on the payment or its nested fee.
func (p Payment) BelongsToResident(residentID int) bool {
	if utils.Equal(p.Resident, residentID) || utils.Equal(p.ResidentID, residentID) {
		return true
	}
	var nested struct {
		Resident   *int `json:"resident"`
		ResidentID *int `json:"resident_id"`
	}
	if raw := bytes.TrimSpace(p.FinancialFee); len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &nested); err == nil {
			return utils.Equal(nested.Resident, residentID) || utils.Equal(nested.ResidentID, residentID)
		}
	}
	return false
}

func refID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	switch raw[0] {
	case '{':
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ""
		}
		return refID(obj.ID)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		return n.String()
	}
}

// InitiatePaymentRequest is posted to /administration/payments/initiate_payment/.
type InitiatePaymentRequest struct {
	FinancialFeeID int `json:"financial_fee_id"`
}

// InitiatePaymentResponse is returned with 200 (existing session reused) or 201.
type InitiatePaymentResponse struct {
	PaymentURL    string `json:"payment_url"`
	TransactionID string `json:"transaction_id"`
	Existing      bool   `json:"existing,omitempty"`
}

// FeeIDString formats a numeric fee id the way refID does.
func FeeIDString(id int) string {
	return strconv.Itoa(id)
}
