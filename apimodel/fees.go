package apimodel

import "strings"

// Financial fee statuses.
const (
	FeeStatusPending = "Pendiente"
	FeeStatusPaid    = "Pagado"
	FeeStatusOverdue = "Vencido"
)

// FinancialFee is one record of /administration/financial-fees/.
type FinancialFee struct {
	ID          int    `json:"id"`
	Unit        int    `json:"unit"`
	UnitNumber  string `json:"unit_number"`
	UnitOwner   string `json:"unit_owner"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func (f FinancialFee) IsPending() bool {
	return strings.EqualFold(strings.TrimSpace(f.Status), FeeStatusPending)
}

// ResidentialUnit is one record of /administration/units/.
type ResidentialUnit struct {
	ID         int    `json:"id"`
	UnitNumber string `json:"unit_number"`
	Type       string `json:"type,omitempty"`
	Floor      int    `json:"floor,omitempty"`
	Owner      int    `json:"owner,omitempty"`
	OwnerName  string `json:"owner_name,omitempty"`
	OwnerEmail string `json:"owner_email,omitempty"`
}
