package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuthAuditEntry struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	ActorID   *uuid.UUID      `json:"actorId,omitempty" db:"actor_id"`
	Email     string          `json:"email,omitempty" db:"email"`
	Action    string          `json:"action" db:"action"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// Audit action types
const (
	AuditActionLoginSuccess    = "admin.login.success"
	AuditActionLoginFailed     = "admin.login.failed"
	AuditActionLoginChallenged = "admin.login.challenged"
	AuditActionVerifySuccess   = "admin.2fa.verify.success"
	AuditActionVerifyFailed    = "admin.2fa.verify.failed"
	AuditActionEnrollStarted   = "admin.2fa.enroll.started"
	AuditActionEnrollConfirmed = "admin.2fa.enroll.confirmed"
	AuditActionDisabled        = "admin.2fa.disabled"
	AuditActionStatusLookup    = "admin.status.lookup"
)
