package adminauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veloria/admin-api/internal/models"
)

// ErrNotFound is returned for rows that do not exist. Callers decide
// what (if anything) to reveal about why.
var ErrNotFound = errors.New("not found")

// Store is the persistence surface the orchestrator needs. The
// consume-style methods must be atomic conditional updates: two racing
// callers may both attempt, but at most one may win.
type Store interface {
	AccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error)
	AccountByID(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error)

	// SetPendingTwoFactor overwrites the temp enrollment fields; the
	// active fields are untouched until promotion.
	SetPendingTwoFactor(ctx context.Context, id uuid.UUID, encryptedSecret string, recoveryHashes []string) error
	// PromoteTwoFactor moves temp to active in a single write and
	// clears the temp fields. Returns false when no enrollment was
	// pending.
	PromoteTwoFactor(ctx context.Context, id uuid.UUID, confirmedAt time.Time) (bool, error)
	// ClearTwoFactor resets every 2FA column, active and temp.
	ClearTwoFactor(ctx context.Context, id uuid.UUID) error
	// RemoveRecoveryCode deletes one hash from the active list iff it
	// is still present. Returns false when another consumer won.
	RemoveRecoveryCode(ctx context.Context, id uuid.UUID, hash string) (bool, error)

	CreateChallenge(ctx context.Context, ch *models.LoginChallenge) error
	// ValidChallenge returns the challenge only while unconsumed and
	// unexpired; everything else is ErrNotFound so callers cannot tell
	// "never existed" from "expired or used".
	ValidChallenge(ctx context.Context, token string, now time.Time) (*models.LoginChallenge, error)
	// ConsumeChallenge marks the challenge used iff it is still valid
	// at now. Returns false when another verifier won or it expired.
	ConsumeChallenge(ctx context.Context, token string, now time.Time) (bool, error)
	DeleteExpiredChallenges(ctx context.Context, now time.Time) (int64, error)

	// IsAdmin is the narrow internal lookup used by the payment
	// webhook service. It reveals existence only, never account data.
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)

	RecordAudit(ctx context.Context, entry *models.AuthAuditEntry) error
}

const accountColumns = `id, email, name, role, password_hash,
	two_factor_enabled, two_factor_secret, two_factor_recovery_codes,
	two_factor_temp_secret, two_factor_temp_recovery_codes, two_factor_confirmed_at,
	created_at, updated_at`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	return s.scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM admin_accounts WHERE lower(email) = lower($1)`,
		email,
	))
}

func (s *PostgresStore) AccountByID(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	return s.scanAccount(s.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM admin_accounts WHERE id = $1`,
		id,
	))
}

func (s *PostgresStore) scanAccount(row pgx.Row) (*models.AdminAccount, error) {
	acct := &models.AdminAccount{}
	err := row.Scan(
		&acct.ID, &acct.Email, &acct.Name, &acct.Role, &acct.PasswordHash,
		&acct.TwoFactorEnabled, &acct.TwoFactorSecret, &acct.TwoFactorRecoveryCodes,
		&acct.TwoFactorTempSecret, &acct.TwoFactorTempRecoveryCodes, &acct.TwoFactorConfirmedAt,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return acct, nil
}

func (s *PostgresStore) SetPendingTwoFactor(ctx context.Context, id uuid.UUID, encryptedSecret string, recoveryHashes []string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE admin_accounts
		SET two_factor_temp_secret = $2, two_factor_temp_recovery_codes = $3, updated_at = NOW()
		WHERE id = $1`,
		id, encryptedSecret, recoveryHashes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) PromoteTwoFactor(ctx context.Context, id uuid.UUID, confirmedAt time.Time) (bool, error) {
	// One statement so a partially promoted account is never
	// observable.
	tag, err := s.db.Exec(ctx,
		`UPDATE admin_accounts
		SET two_factor_secret = two_factor_temp_secret,
			two_factor_recovery_codes = two_factor_temp_recovery_codes,
			two_factor_enabled = TRUE,
			two_factor_confirmed_at = $2,
			two_factor_temp_secret = NULL,
			two_factor_temp_recovery_codes = '{}',
			updated_at = NOW()
		WHERE id = $1 AND two_factor_temp_secret IS NOT NULL`,
		id, confirmedAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ClearTwoFactor(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE admin_accounts
		SET two_factor_enabled = FALSE,
			two_factor_secret = NULL,
			two_factor_recovery_codes = '{}',
			two_factor_temp_secret = NULL,
			two_factor_temp_recovery_codes = '{}',
			two_factor_confirmed_at = NULL,
			updated_at = NOW()
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RemoveRecoveryCode(ctx context.Context, id uuid.UUID, hash string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE admin_accounts
		SET two_factor_recovery_codes = array_remove(two_factor_recovery_codes, $2), updated_at = NOW()
		WHERE id = $1 AND $2 = ANY(two_factor_recovery_codes)`,
		id, hash,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) CreateChallenge(ctx context.Context, ch *models.LoginChallenge) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO admin_login_challenges (token, admin_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)`,
		ch.Token, ch.AdminID, ch.CreatedAt, ch.ExpiresAt,
	)
	return err
}

func (s *PostgresStore) ValidChallenge(ctx context.Context, token string, now time.Time) (*models.LoginChallenge, error) {
	ch := &models.LoginChallenge{}
	err := s.db.QueryRow(ctx,
		`SELECT token, admin_id, created_at, expires_at, consumed_at
		FROM admin_login_challenges
		WHERE token = $1 AND consumed_at IS NULL AND expires_at > $2`,
		token, now,
	).Scan(&ch.Token, &ch.AdminID, &ch.CreatedAt, &ch.ExpiresAt, &ch.ConsumedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ch, nil
}

func (s *PostgresStore) ConsumeChallenge(ctx context.Context, token string, now time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE admin_login_challenges
		SET consumed_at = $2
		WHERE token = $1 AND consumed_at IS NULL AND expires_at > $2`,
		token, now,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) DeleteExpiredChallenges(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM admin_login_challenges WHERE expires_at <= $1 OR consumed_at IS NOT NULL`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM admin_accounts WHERE id = $1)`,
		id,
	).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) RecordAudit(ctx context.Context, entry *models.AuthAuditEntry) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO auth_audit_log (id, actor_id, email, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.ActorID, entry.Email, entry.Action, entry.Details, entry.CreatedAt,
	)
	return err
}
