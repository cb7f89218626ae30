package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a stored credential for API access. The raw key ("ps_" plus 32
// hex characters) is returned exactly once at creation; afterwards only the
// bcrypt hash and the 8-character lookup prefix survive. A non-nil
// DeletedAt marks the key revoked.
type APIKey struct {
	ID         uuid.UUID  `db:"id"           json:"id"`
	Name       string     `db:"name"         json:"name"`
	KeyHash    string     `db:"key_hash"     json:"-"`
	KeyPrefix  string     `db:"key_prefix"   json:"key_prefix"`
	Scopes     []string   `db:"scopes"       json:"scopes"`
	LastUsedAt *time.Time `db:"last_used_at" json:"last_used_at,omitempty"`
	DeletedAt  *time.Time `db:"deleted_at"   json:"-"`
	CreatedAt  time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"   json:"updated_at"`
}
