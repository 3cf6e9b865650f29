package models

import (
	"time"

	"github.com/google/uuid"
)

type AdminRole string

const (
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "super_admin"
)

// AdminAccount is a back-office operator. Secrets and recovery code
// hashes never leave the server; the temp fields hold a pending
// enrollment until it is confirmed with a valid code.
type AdminAccount struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Role         AdminRole `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`

	TwoFactorEnabled           bool       `json:"twoFactorEnabled" db:"two_factor_enabled"`
	TwoFactorSecret            *string    `json:"-" db:"two_factor_secret"`
	TwoFactorRecoveryCodes     []string   `json:"-" db:"two_factor_recovery_codes"`
	TwoFactorTempSecret        *string    `json:"-" db:"two_factor_temp_secret"`
	TwoFactorTempRecoveryCodes []string   `json:"-" db:"two_factor_temp_recovery_codes"`
	TwoFactorConfirmedAt       *time.Time `json:"-" db:"two_factor_confirmed_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type TwoFactorMode int

const (
	TwoFactorDisabled TwoFactorMode = iota
	TwoFactorPending
	TwoFactorActive
)

// TwoFactorState is a tagged view over the account's 2FA columns. The
// secret is the stored (encrypted) form; RecoveryHashes are bcrypt
// hashes of the unconsumed codes.
type TwoFactorState struct {
	Mode           TwoFactorMode
	Secret         string
	RecoveryHashes []string
}

// TwoFactor returns the confirmed state: TwoFactorActive only when the
// enabled flag and a secret are both present, TwoFactorDisabled
// otherwise. A pending re-enrollment does not affect the result.
func (a *AdminAccount) TwoFactor() TwoFactorState {
	if a.TwoFactorEnabled && a.TwoFactorSecret != nil && *a.TwoFactorSecret != "" {
		return TwoFactorState{
			Mode:           TwoFactorActive,
			Secret:         *a.TwoFactorSecret,
			RecoveryHashes: a.TwoFactorRecoveryCodes,
		}
	}
	return TwoFactorState{Mode: TwoFactorDisabled}
}

// PendingTwoFactor returns the unconfirmed enrollment, if one exists.
func (a *AdminAccount) PendingTwoFactor() (TwoFactorState, bool) {
	if a.TwoFactorTempSecret == nil || *a.TwoFactorTempSecret == "" {
		return TwoFactorState{}, false
	}
	return TwoFactorState{
		Mode:           TwoFactorPending,
		Secret:         *a.TwoFactorTempSecret,
		RecoveryHashes: a.TwoFactorTempRecoveryCodes,
	}, true
}

// AdminIdentity is the sanitized account for API responses: never the
// password hash, never any secret material.
type AdminIdentity struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             AdminRole `json:"role"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
}

func (a *AdminAccount) Identity() *AdminIdentity {
	return &AdminIdentity{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		Role:             a.Role,
		TwoFactorEnabled: a.TwoFactorEnabled,
	}
}

// LoginChallenge binds an account to a pending second-factor check. A
// challenge is verifiable iff consumed_at is null and expires_at is in
// the future; once consumed it can never be reused.
type LoginChallenge struct {
	Token      string     `json:"token" db:"token"`
	AdminID    uuid.UUID  `json:"adminId" db:"admin_id"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	ExpiresAt  time.Time  `json:"expiresAt" db:"expires_at"`
	ConsumedAt *time.Time `json:"-" db:"consumed_at"`
}

// Valid reports whether the challenge can still be verified at now.
func (c *LoginChallenge) Valid(now time.Time) bool {
	return c.ConsumedAt == nil && now.Before(c.ExpiresAt)
}
