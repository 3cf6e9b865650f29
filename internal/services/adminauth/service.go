package adminauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/veloria/admin-api/internal/models"
	"github.com/veloria/admin-api/pkg/auth"
	"github.com/veloria/admin-api/pkg/encryption"
	"github.com/veloria/admin-api/pkg/otp"
)

var (
	// ErrInvalidCredentials covers both "no such email" and "wrong
	// password" so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrChallengeInvalid covers unknown, expired, and already-consumed
	// challenges alike.
	ErrChallengeInvalid = errors.New("challenge expired or invalid")
	// ErrCodeInvalid means the code matched neither a TOTP window nor
	// any recovery code.
	ErrCodeInvalid     = errors.New("invalid authentication code")
	ErrSetupNotPending = errors.New("no pending setup found")
	ErrNotEnabled      = errors.New("two-factor authentication is not enabled")
)

const (
	// DefaultChallengeTTL bounds how long a password-verified login may
	// wait for its second factor.
	DefaultChallengeTTL = 5 * time.Minute

	// replayTTL covers the full drift span a validated code could
	// still be accepted in.
	replayTTL = time.Duration((2*otp.DefaultDriftSteps+1)*otp.Period) * time.Second
)

// Config wires the orchestrator's collaborators. Rand and Now exist so
// tests can supply a deterministic RNG and clock; zero values fall back
// to crypto/rand and the system clock.
type Config struct {
	Store            Store
	Replay           ReplayGuard
	Cipher           *encryption.Cipher
	Issuer           string
	ChallengeTTL     time.Duration
	RecoveryCodeCost int
	Rand             io.Reader
	Now              func() time.Time
}

// Service sequences password verification, challenge issuance, and
// second-factor checks for admin accounts, and manages 2FA enrollment
// and disablement. It is stateless between calls; all shared state
// lives in the Store.
type Service struct {
	store        Store
	replay       ReplayGuard
	cipher       *encryption.Cipher
	totp         *otp.Engine
	issuer       string
	challengeTTL time.Duration
	recoveryCost int
	rand         io.Reader
	now          func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.Replay == nil {
		cfg.Replay = NewNopReplayGuard()
	}
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = DefaultChallengeTTL
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "Veloria Admin"
	}
	return &Service{
		store:        cfg.Store,
		replay:       cfg.Replay,
		cipher:       cfg.Cipher,
		totp:         otp.NewEngineWithClock(cfg.Now),
		issuer:       cfg.Issuer,
		challengeTTL: cfg.ChallengeTTL,
		recoveryCost: cfg.RecoveryCodeCost,
		rand:         cfg.Rand,
		now:          cfg.Now,
	}
}

// LoginResult is either an authenticated identity or a challenge that
// must be answered with a second factor.
type LoginResult struct {
	Account     *models.AdminIdentity
	RequiresOTP bool
	ChallengeID string
}

// Login verifies the password and either authenticates directly or,
// for 2FA-enabled accounts, mints a login challenge.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)

	acct, err := s.store.AccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.audit(ctx, nil, email, models.AuditActionLoginFailed, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(password, acct.PasswordHash) {
		s.audit(ctx, &acct.ID, email, models.AuditActionLoginFailed, nil)
		return nil, ErrInvalidCredentials
	}

	if tf := acct.TwoFactor(); tf.Mode == models.TwoFactorActive {
		token, err := auth.GenerateSecureToken(auth.ChallengeTokenBytes)
		if err != nil {
			return nil, err
		}

		now := s.now()
		ch := &models.LoginChallenge{
			Token:     token,
			AdminID:   acct.ID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.challengeTTL),
		}
		if err := s.store.CreateChallenge(ctx, ch); err != nil {
			return nil, err
		}

		s.audit(ctx, &acct.ID, email, models.AuditActionLoginChallenged, nil)
		return &LoginResult{RequiresOTP: true, ChallengeID: token}, nil
	}

	s.audit(ctx, &acct.ID, email, models.AuditActionLoginSuccess, nil)
	return &LoginResult{Account: acct.Identity()}, nil
}

// VerifyTwoFactor completes a challenged login with a TOTP code or a
// recovery code. The challenge stays retryable until it expires; only
// a successful verification consumes it.
func (s *Service) VerifyTwoFactor(ctx context.Context, challengeID, code string) (*models.AdminIdentity, error) {
	ch, err := s.store.ValidChallenge(ctx, challengeID, s.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrChallengeInvalid
		}
		return nil, err
	}

	acct, err := s.store.AccountByID(ctx, ch.AdminID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrChallengeInvalid
		}
		return nil, err
	}

	tf := acct.TwoFactor()
	if tf.Mode != models.TwoFactorActive {
		// 2FA was switched off after the challenge was issued. The
		// password check already passed, so finish the login rather
		// than stranding the operator mid-flow.
		return s.completeChallenge(ctx, acct, challengeID)
	}

	matched, err := s.matchSecondFactor(ctx, acct.ID, tf, code)
	if err != nil {
		return nil, err
	}
	if !matched {
		s.audit(ctx, &acct.ID, acct.Email, models.AuditActionVerifyFailed, nil)
		return nil, ErrCodeInvalid
	}

	return s.completeChallenge(ctx, acct, challengeID)
}

func (s *Service) completeChallenge(ctx context.Context, acct *models.AdminAccount, challengeID string) (*models.AdminIdentity, error) {
	consumed, err := s.store.ConsumeChallenge(ctx, challengeID, s.now())
	if err != nil {
		return nil, err
	}
	if !consumed {
		// A concurrent verification won, or the TTL lapsed between
		// fetch and consume.
		return nil, ErrChallengeInvalid
	}

	s.audit(ctx, &acct.ID, acct.Email, models.AuditActionVerifySuccess, nil)
	return acct.Identity(), nil
}

// matchSecondFactor tries the TOTP windows first, then the recovery
// codes. A recovery match consumes the code atomically.
func (s *Service) matchSecondFactor(ctx context.Context, accountID uuid.UUID, tf models.TwoFactorState, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, nil
	}

	secret, err := s.cipher.DecryptString(tf.Secret)
	if err != nil {
		// A secret we cannot decrypt is an operational fault, not a
		// bad code from the user.
		return false, err
	}

	if s.totp.IsValid(secret, code, otp.DefaultDriftSteps) {
		fresh, err := s.replay.MarkUsed(ctx, accountID, code, replayTTL)
		if err != nil {
			// Guard unavailable: accept the code rather than lock
			// every 2FA account out.
			log.Warn().Err(err).Msg("Replay guard unavailable, accepting code")
			return true, nil
		}
		return fresh, nil
	}

	idx, ok := otp.MatchRecoveryCode(tf.RecoveryHashes, code)
	if !ok {
		return false, nil
	}
	return s.store.RemoveRecoveryCode(ctx, accountID, tf.RecoveryHashes[idx])
}

// Enrollment is the one-time plaintext material shown to the operator
// when 2FA setup starts. None of it is persisted in this form.
type Enrollment struct {
	Secret        string   `json:"secret"`
	OTPAuthURI    string   `json:"otpauthUri"`
	QRCode        string   `json:"qrCode"`
	RecoveryCodes []string `json:"recoveryCodes"`
}

// StartEnrollment generates a fresh secret and recovery batch into the
// account's pending fields. The password is re-verified so a hijacked
// session cannot alter 2FA configuration on its own. Calling again
// replaces the previous pending enrollment.
func (s *Service) StartEnrollment(ctx context.Context, email, password string) (*Enrollment, error) {
	acct, err := s.verifyAccountPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}

	secret, err := otp.GenerateSecret(s.rand)
	if err != nil {
		return nil, err
	}

	codes, err := otp.GenerateRecoveryCodes(s.rand, otp.RecoveryCodeCount, s.recoveryCost)
	if err != nil {
		return nil, err
	}

	hashes := make([]string, len(codes))
	plaintexts := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = c.Hash
		plaintexts[i] = c.Plaintext
	}

	encrypted, err := s.cipher.EncryptString(secret)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetPendingTwoFactor(ctx, acct.ID, encrypted, hashes); err != nil {
		return nil, err
	}

	uri := otp.ProvisioningURI(secret, acct.Email, s.issuer)
	png, err := otp.QRCodePNG(uri, 256)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, &acct.ID, acct.Email, models.AuditActionEnrollStarted, nil)
	return &Enrollment{
		Secret:        secret,
		OTPAuthURI:    uri,
		QRCode:        "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		RecoveryCodes: plaintexts,
	}, nil
}

// ConfirmEnrollment promotes the pending secret to active once the
// operator proves their authenticator produces valid codes for it. The
// promotion is a single atomic write.
func (s *Service) ConfirmEnrollment(ctx context.Context, email, password, code string) error {
	acct, err := s.verifyAccountPassword(ctx, email, password)
	if err != nil {
		return err
	}

	pending, ok := acct.PendingTwoFactor()
	if !ok {
		return ErrSetupNotPending
	}

	secret, err := s.cipher.DecryptString(pending.Secret)
	if err != nil {
		return err
	}

	if !s.totp.IsValid(secret, code, otp.DefaultDriftSteps) {
		return ErrCodeInvalid
	}

	promoted, err := s.store.PromoteTwoFactor(ctx, acct.ID, s.now())
	if err != nil {
		return err
	}
	if !promoted {
		return ErrSetupNotPending
	}

	s.audit(ctx, &acct.ID, acct.Email, models.AuditActionEnrollConfirmed, nil)
	return nil
}

// DisableTwoFactor clears all 2FA state, active and pending. It
// demands the password plus either a current TOTP code or a recovery
// code (which it consumes).
func (s *Service) DisableTwoFactor(ctx context.Context, email, password, code string) error {
	acct, err := s.verifyAccountPassword(ctx, email, password)
	if err != nil {
		return err
	}

	tf := acct.TwoFactor()
	if tf.Mode != models.TwoFactorActive {
		return ErrNotEnabled
	}

	matched, err := s.matchSecondFactor(ctx, acct.ID, tf, code)
	if err != nil {
		return err
	}
	if !matched {
		return ErrCodeInvalid
	}

	if err := s.store.ClearTwoFactor(ctx, acct.ID); err != nil {
		return err
	}

	s.audit(ctx, &acct.ID, acct.Email, models.AuditActionDisabled, nil)
	return nil
}

// IsAdminAccount answers the payment webhook's admin-status lookup. It
// exposes existence only and leaves an audit trail of every call.
func (s *Service) IsAdminAccount(ctx context.Context, id uuid.UUID) (bool, error) {
	exists, err := s.store.IsAdmin(ctx, id)
	if err != nil {
		return false, err
	}

	s.audit(ctx, nil, "", models.AuditActionStatusLookup, map[string]any{"accountId": id.String(), "exists": exists})
	return exists, nil
}

func (s *Service) verifyAccountPassword(ctx context.Context, email, password string) (*models.AdminAccount, error) {
	acct, err := s.store.AccountByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(password, acct.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

// ReapExpiredChallenges removes challenges that can no longer be
// verified. Expiry itself is enforced by timestamp comparison; this
// only bounds table growth.
func (s *Service) ReapExpiredChallenges(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredChallenges(ctx, s.now())
}

// RunChallengeReaper reaps on an interval until ctx is cancelled.
func (s *Service) RunChallengeReaper(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.ReapExpiredChallenges(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Failed to reap expired challenges")
				continue
			}
			if removed > 0 {
				log.Debug().Int64("removed", removed).Msg("Reaped expired login challenges")
			}
		}
	}
}

// audit records an auth event. Failures are logged, never surfaced;
// auditing must not break a login.
func (s *Service) audit(ctx context.Context, actorID *uuid.UUID, email, action string, details map[string]any) {
	entry := &models.AuthAuditEntry{
		ID:        uuid.New(),
		ActorID:   actorID,
		Email:     email,
		Action:    action,
		CreatedAt: s.now(),
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = raw
		}
	}

	if err := s.store.RecordAudit(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("Failed to record audit entry")
	}
}
