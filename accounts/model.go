package accounts

import (
	"time"
)

// Role defines a public type used by the authcore APIs.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role string

const (
	// RoleShopper is an exported constant or variable used by the access-control engine.
	RoleShopper Role = "shopper"
	// RoleSeller is an exported constant or variable used by the access-control engine.
	RoleSeller Role = "seller"
	// RoleSellerAssistant is an exported constant or variable used by the access-control engine.
	RoleSellerAssistant Role = "seller_assistant"
	// RoleSubAdministrator is an exported constant or variable used by the access-control engine.
	RoleSubAdministrator Role = "sub_administrator"
	// RoleAdministrator is an exported constant or variable used by the access-control engine.
	RoleAdministrator Role = "administrator"
)

// Valid describes the valid operation and its observable behavior.
//
// Valid does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r Role) Valid() bool {
	switch r {
	case RoleShopper, RoleSeller, RoleSellerAssistant, RoleSubAdministrator, RoleAdministrator:
		return true
	}
	return false
}

// AdminLike describes the adminlike operation and its observable behavior.
//
// AdminLike does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r Role) AdminLike() bool {
	return r == RoleAdministrator || r == RoleSubAdministrator
}

// Status defines a public type used by the authcore APIs.
//
// Status instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Status string

const (
	// StatusActive is an exported constant or variable used by the access-control engine.
	StatusActive Status = "active"
	// StatusBlocked is an exported constant or variable used by the access-control engine.
	StatusBlocked Status = "blocked"
)

// Account defines a public type used by the authcore APIs.
//
// Account instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Account struct {
	ID             string     `gorm:"primaryKey;size:36"            json:"id"`
	Email          string     `gorm:"uniqueIndex;not null"          json:"email"`
	PasswordHash   string     `gorm:"not null"                      json:"-"`
	Role           Role       `gorm:"not null;index"                json:"role"`
	Permissions    []string   `gorm:"serializer:json"               json:"permissions"`
	AssistantOf    *string    `gorm:"size:36;index"                 json:"assistant_of,omitempty"`
	Approved       bool       `gorm:"default:false"                 json:"approved"`
	TokenVersion   uint32     `gorm:"not null;default:0"            json:"-"`
	MFAEnabled     bool       `gorm:"default:false"                 json:"mfa_enabled"`
	MFASecret      []byte     `json:"-"`
	MFAEnrolledAt  *time.Time `json:"-"`
	MFALastCounter uint64     `gorm:"not null;default:0"            json:"-"`
	Status         Status     `gorm:"not null;default:active;index" json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Active describes the active operation and its observable behavior.
//
// Active does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (a *Account) Active() bool {
	return a.Status == StatusActive
}

// PasswordResetToken defines a public type used by the authcore APIs.
//
// PasswordResetToken instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordResetToken struct {
	ID         string     `gorm:"primaryKey;size:36"   json:"id"`
	AccountID  string     `gorm:"size:36;index;not null" json:"account_id"`
	SecretHash string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null"             json:"expires_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
