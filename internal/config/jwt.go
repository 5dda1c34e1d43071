package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrNoJWTSecret is returned by NewJWTConfig when JWT_SECRET is unset. Callers
// treat it as "operator authentication disabled".
var ErrNoJWTSecret = errors.New("JWT_SECRET is not set")

// JWTConfig holds configuration for operator token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
	Issuer          string
}

// NewJWTConfig creates a JWT configuration from environment variables.
// It reads JWT_SECRET, JWT_EXPIRATION_HOURS (default: 24) and JWT_ISSUER
// (default: screening-desk).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrNoJWTSecret
	}

	expirationStr := os.Getenv("JWT_EXPIRATION_HOURS")
	if expirationStr == "" {
		expirationStr = "24"
	}

	expirationHours, err := strconv.Atoi(expirationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "screening-desk"
	}

	config := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
		Issuer:          issuer,
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

// Expiration returns the default token lifetime.
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET cannot be empty")
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
