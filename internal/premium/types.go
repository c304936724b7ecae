package premium

import (
	"fmt"
	"time"
)

// Status is where a premium payment stands.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// UnmarshalText rejects statuses outside the known set.
func (s *Status) UnmarshalText(b []byte) error {
	switch v := Status(b); v {
	case StatusPending, StatusApproved, StatusRejected, StatusExpired:
		*s = v
		return nil
	default:
		return fmt.Errorf("unknown premium status %q", string(b))
	}
}

// StatusResponse is the body returned by the premium status endpoint.
type StatusResponse struct {
	IsPremium     bool       `json:"isPremium"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	Status        Status     `json:"status"`
	PaymentMethod string     `json:"paymentMethod"`
}

// Active reports whether the response grants premium at now.
func (r StatusResponse) Active(now time.Time) bool {
	switch r.Status {
	case StatusApproved:
		return r.IsPremium && (r.ExpiresAt == nil || r.ExpiresAt.After(now))
	case StatusPending, StatusRejected, StatusExpired:
		return false
	default:
		return false
	}
}
