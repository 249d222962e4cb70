package users

import (
	"strings"

	"github.com/DiegoxdGarcia2/smart-condominium/internal/utils"
)

// RoleType is the condominium role name the backend reports in role_name.
type RoleType string

const (
	RoleAdministrator RoleType = "Administrador" // Manages units, fees, users and feedback
	RoleResident      RoleType = "Residente"     // Owns or rents a unit, pays fees
	RoleGuard         RoleType = "Guardia"       // Keeps the visitor log
)

// Profile is the current user as returned by /administration/users/me/.
type Profile struct {
	ID          int      `json:"id"`
	Email       string   `json:"email,omitempty"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	DisplayName string   `json:"displayName,omitempty"`
	PhotoURL    string   `json:"photoURL,omitempty"`
	RoleName    RoleType `json:"role_name,omitempty"`
	IsActive    bool     `json:"is_active,omitempty"`
}

// Clone returns a copy that callers may keep.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// FullName joins first and last name the way fee owners are recorded.
func (p *Profile) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Name returns the best label for display.
func (p *Profile) Name() string {
	if p == nil {
		return ""
	}
	return utils.FirstNonEmpty(p.DisplayName, p.FullName(), p.Email)
}

// Role normalises role_name, accepting the English aliases some accounts carry.
func (p *Profile) Role() RoleType {
	if p == nil {
		return ""
	}
	switch strings.ToLower(strings.TrimSpace(string(p.RoleName))) {
	case "administrador", "administrator", "admin":
		return RoleAdministrator
	case "residente", "resident":
		return RoleResident
	case "guardia", "guard":
		return RoleGuard
	}
	return p.RoleName
}

func (p *Profile) IsAdmin() bool {
	return p.Role() == RoleAdministrator
}

func (p *Profile) IsResident() bool {
	return p.Role() == RoleResident
}

func (p *Profile) IsGuard() bool {
	return p.Role() == RoleGuard
}
