package main

import (
	"context"
	"flag"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/veloria/admin-api/config"
	"github.com/veloria/admin-api/internal/models"
	"github.com/veloria/admin-api/pkg/auth"
	"github.com/veloria/admin-api/pkg/database"
)

// createadmin provisions an operator account. Accounts are never
// created through the API; 2FA enrollment happens afterwards through
// the service itself.
func main() {
	email := flag.String("email", "", "account email (required)")
	name := flag.String("name", "", "display name")
	password := flag.String("password", "", "initial password (required)")
	role := flag.String("role", string(models.RoleAdmin), "role: admin or super_admin")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal().Msg("-email and -password are required")
	}
	if *role != string(models.RoleAdmin) && *role != string(models.RoleSuperAdmin) {
		log.Fatal().Str("role", *role).Msg("Unknown role")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.NewPostgresPool(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer db.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id := uuid.New()
	_, err = db.Exec(ctx,
		`INSERT INTO admin_accounts (id, email, name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)`,
		id, *email, *name, *role, hash,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create admin account")
	}

	log.Info().Str("id", id.String()).Str("email", *email).Msg("Admin account created")
}
