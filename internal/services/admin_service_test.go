package services

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testSigner(role string, ttl time.Duration) (string, error) {
	return "token-for-" + role, nil
}

func TestAdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	svc := NewAdminService(string(hash), testSigner)

	token, err := svc.Login("hunter2")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token != "token-for-admin" {
		t.Fatalf("token = %q", token)
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	svc := NewAdminService(string(hash), testSigner)

	_, err := svc.Login("letmein")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestAdminLoginNotConfigured(t *testing.T) {
	svc := NewAdminService("", testSigner)
	_, err := svc.Login("anything")
	se, ok := AsServiceError(err)
	if !ok || se.Code != ErrorInvalid {
		t.Fatalf("expected invalid error, got %v", err)
	}
}
