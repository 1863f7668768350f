package auth

import (
	"time"
)

// RefreshTokenRecord is one link in a rotation chain. Records are never
// deleted: a revoked record is the evidence that makes replay detection
// possible.
//
// Lifecycle: active (revoked_at null, not expired), then exactly one of
//   - expired:  revoked_at null, now past expires_at
//   - rotated:  revoked_at set, replaced_by_value points at the successor
//   - revoked:  revoked_at set, replaced_by_value null (logout)
//
// revoked_at and replaced_by_value are each written at most once.
type RefreshTokenRecord struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"user_id"`
	// Value is the opaque secret handed to the client: 32 random bytes,
	// base64url. Unique across all records, ever.
	Value           string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	IssuedAt        time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt       time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt       *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	ReplacedByValue *string    `gorm:"size:64" json:"-"`
}

func (RefreshTokenRecord) TableName() string { return "refresh_token_records" }

func (r *RefreshTokenRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

func (r *RefreshTokenRecord) Revoked() bool {
	return r.RevokedAt != nil
}

// Rotated reports whether the record was consumed by a rotation, as opposed
// to a terminal logout.
func (r *RefreshTokenRecord) Rotated() bool {
	return r.RevokedAt != nil && r.ReplacedByValue != nil
}
