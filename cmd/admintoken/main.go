// Command admintoken issues a bearer token for the feed administration API.
// Accounts live outside this service, so operators mint tokens here.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/eshop/backend/internal/domain/identity"
	"github.com/eshop/backend/internal/infrastructure/auth"
	"github.com/eshop/backend/internal/infrastructure/config"
	"github.com/eshop/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)
	flag.StringVar(&userID, "user", "", "User ID carried by the token (default: random)")
	flag.StringVar(&email, "email", "", "Email claim")
	flag.StringVar(&role, "role", string(identity.RoleAdmin), "Role claim (ADMIN, CUSTOMER)")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: jwt.access_token_expiration)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	token, expiresAt, err := mint(cfg.JWT, userID, email, role, ttl)
	if err != nil {
		log.Fatal("Failed to issue token", zap.Error(err))
	}
	log.Info("Token issued", zap.String("role", role), zap.Time("expires_at", expiresAt))
	fmt.Println(token)
}

func mint(cfg config.JWTConfig, userID, email, role string, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		userID = uuid.NewString()
	}
	principal, err := identity.NewPrincipal(userID, email, role)
	if err != nil {
		return "", time.Time{}, err
	}
	if ttl > 0 {
		cfg.AccessTokenExpiration = ttl
	}
	return auth.NewJWTService(cfg).GenerateAccessToken(principal)
}
