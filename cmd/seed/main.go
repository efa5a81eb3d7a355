// seed ensures the role rows exist and optionally registers an initial admin.
// Idempotent: an existing admin username is left untouched.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"catalog/internal/auth/hasher"
	"catalog/internal/auth/models"
	authservice "catalog/internal/auth/service"
	"catalog/internal/auth/store/role"
	"catalog/internal/auth/store/user"
	jwttoken "catalog/internal/jwt_token"
	"catalog/internal/platform/config"
	"catalog/internal/platform/logger"
	"catalog/internal/platform/postgres"
	"catalog/pkg/domain"
	dErrors "catalog/pkg/domain-errors"
	audit "catalog/pkg/platform/audit"
	auditpg "catalog/pkg/platform/audit/store/postgres"
)

func main() {
	username := flag.String("admin-username", "", "Username of the initial admin (optional)")
	password := flag.String("admin-password", os.Getenv("SEED_ADMIN_PASSWORD"), "Password of the initial admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env or set DATABASE_URL")
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	slogger := logger.New(level)

	ctx := context.Background()
	if err := postgres.Migrate(cfg.DatabaseURL, "up"); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	recorder := audit.NewRecorder(auditpg.New(db), slogger)
	tokens := jwttoken.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	auth, err := authservice.New(user.NewPostgres(db), role.NewPostgres(db), hasher.New(cfg.BcryptCost), tokens, recorder, slogger)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	if err := auth.EnsureRoles(ctx); err != nil {
		log.Fatalf("roles: %v", err)
	}
	log.Printf("roles ensured: %v", domain.AllRoles())

	if *username == "" {
		return
	}
	if *password == "" {
		log.Fatal("-admin-password (or SEED_ADMIN_PASSWORD) is required with -admin-username")
	}
	admin, err := auth.Register(ctx, models.RegisterRequest{
		Username: *username,
		Password: *password,
		RoleName: string(domain.RoleAdmin),
	})
	switch {
	case dErrors.HasCode(err, dErrors.CodeConflict):
		log.Printf("admin %q already exists; skipping", *username)
	case err != nil:
		log.Fatalf("create admin: %v", err)
	default:
		log.Printf("created admin %q (id %d)", admin.Username, admin.ID)
	}
}
