package ledger

import "time"

// Session defines a public type used by the authcore APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	ID          string     `gorm:"primaryKey;size:36"     json:"id"`
	AccountID   string     `gorm:"size:36;index;not null" json:"account_id"`
	FamilyID    string     `gorm:"size:36;index;not null" json:"family_id"`
	SecretHash  string     `gorm:"uniqueIndex;not null"   json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `gorm:"not null;index"         json:"expires_at"`
	SuccessorID *string    `gorm:"size:36"                json:"successor_id,omitempty"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	IP          string     `json:"ip,omitempty"`
	UserAgent   string     `json:"user_agent,omitempty"`
	MFAVerified bool       `gorm:"default:false"          json:"mfa_verified"`
}

// Live describes the live operation and its observable behavior.
//
// Live does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Session) Live(now time.Time) bool {
	return s.SuccessorID == nil && s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// Metadata defines a public type used by the authcore APIs.
//
// Metadata instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metadata struct {
	IP          string
	UserAgent   string
	MFAVerified bool
}
