package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// TokenSigner issues a bearer token for the given role.
type TokenSigner func(role string, ttl time.Duration) (string, error)

// AdminService guards the destructive manual-sync trigger. A single admin
// password (stored as a bcrypt hash in config) is exchanged for a token.
type AdminService struct {
	passwordHash []byte
	signToken    TokenSigner
	tokenTTL     time.Duration
}

func NewAdminService(passwordHash string, signer TokenSigner) *AdminService {
	return &AdminService{
		passwordHash: []byte(strings.TrimSpace(passwordHash)),
		signToken:    signer,
		tokenTTL:     12 * time.Hour,
	}
}

// Login verifies the admin password and returns a signed token.
func (s *AdminService) Login(password string) (string, error) {
	if len(s.passwordHash) == 0 {
		return "", NewInvalidError("admin login not configured")
	}
	if strings.TrimSpace(password) == "" {
		return "", NewInvalidError("password required")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return "", NewInvalidError("token signer not configured")
	}
	return s.signToken("admin", s.tokenTTL)
}

// TokenTTL reports how long issued tokens stay valid.
func (s *AdminService) TokenTTL() time.Duration {
	return s.tokenTTL
}
