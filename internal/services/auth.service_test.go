package services

import (
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	InitAuthService("unit-test-secret-0123456789abcdef", time.Hour)

	token, err := GenerateToken("aa:bb:cc:dd:ee:ff", "laptop")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error: %v", err)
	}
	if claims.DeviceMAC != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("device mac = %q", claims.DeviceMAC)
	}
	if claims.DeviceName != "laptop" {
		t.Errorf("device name = %q", claims.DeviceName)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	InitAuthService("unit-test-secret-0123456789abcdef", time.Hour)

	token, err := GenerateToken("aa:bb:cc:dd:ee:ff", "laptop")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateToken(tampered); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	InitAuthService("unit-test-secret-0123456789abcdef", time.Hour)
	token, err := GenerateToken("aa:bb:cc:dd:ee:ff", "laptop")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	InitAuthService("another-secret-entirely-0123456789", time.Hour)
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected token signed with old secret to be rejected")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	InitAuthService("unit-test-secret-0123456789abcdef", -time.Hour)

	token, err := GenerateToken("aa:bb:cc:dd:ee:ff", "laptop")
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	if _, err := ValidateToken(token); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}
}
