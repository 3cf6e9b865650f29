package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veloria/admin-api/config"
	"github.com/veloria/admin-api/pkg/database"
)

// Schema for the admin auth service. Applied idempotently; schema
// migration tooling is deliberately out of scope for this service.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS admin_accounts (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'admin',
		password_hash TEXT NOT NULL,
		two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		two_factor_secret TEXT,
		two_factor_recovery_codes TEXT[] NOT NULL DEFAULT '{}',
		two_factor_temp_secret TEXT,
		two_factor_temp_recovery_codes TEXT[] NOT NULL DEFAULT '{}',
		two_factor_confirmed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS admin_accounts_email_idx
		ON admin_accounts (lower(email))`,
	`CREATE TABLE IF NOT EXISTS admin_login_challenges (
		token TEXT PRIMARY KEY,
		admin_id UUID NOT NULL REFERENCES admin_accounts(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		consumed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS admin_login_challenges_expires_idx
		ON admin_login_challenges (expires_at)`,
	`CREATE TABLE IF NOT EXISTS auth_audit_log (
		id UUID PRIMARY KEY,
		actor_id UUID,
		email TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		details JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS auth_audit_log_created_idx
		ON auth_audit_log (created_at)`,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.NewPostgresPool(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema statement")
		}
	}

	log.Info().Msg("Schema is up to date")
}
