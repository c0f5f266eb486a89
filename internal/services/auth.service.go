package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService manages JWT token generation and validation for agents and
// WebSocket consumers
type AuthService struct {
	secretKey   string
	tokenExpiry time.Duration
}

// AgentClaims is the JWT claims structure carried by agent tokens
type AgentClaims struct {
	DeviceMAC  string `json:"device_mac"`
	DeviceName string `json:"device_name"`
	jwt.RegisteredClaims
}

var authService *AuthService

// InitAuthService initializes the authentication service. An empty secret
// loads or generates one persisted under the user's home directory, so
// tokens survive server restarts.
func InitAuthService(secretKey string, tokenExpiry time.Duration) *AuthService {
	if secretKey == "" {
		homeDir, _ := os.UserHomeDir()
		keyFile := filepath.Join(homeDir, ".netsentry-secret-key")
		if homeDir == "" {
			keyFile = filepath.Join(os.TempDir(), ".netsentry-secret-key")
		}

		if data, err := os.ReadFile(keyFile); err == nil && len(data) > 0 {
			secretKey = strings.TrimSpace(string(data))
			log.Printf("[AUTH] loaded persisted secret key from %s", keyFile)
		} else {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "netsentry"
			}
			randomBytes := make([]byte, 16)
			if _, err := rand.Read(randomBytes); err != nil {
				secretKey = fmt.Sprintf("netsentry-%s-%d-backup", hostname, time.Now().UnixNano())
				log.Printf("[AUTH] warning: random generation failed, using fallback key")
			} else {
				secretKey = fmt.Sprintf("netsentry-%s-%s", hostname, hex.EncodeToString(randomBytes))
			}

			if err := os.WriteFile(keyFile, []byte(secretKey), 0600); err != nil {
				log.Printf("[AUTH] warning: could not persist secret key to %s: %v", keyFile, err)
			} else {
				log.Printf("[AUTH] generated and persisted secret key to %s", keyFile)
			}
		}
	}

	secretKey = strings.TrimSpace(secretKey)

	// HMAC-SHA256 wants at least 32 bytes of key material
	if len(secretKey) < 32 {
		needed := 32 - len(secretKey)
		paddingBytes := make([]byte, needed)
		_, _ = rand.Read(paddingBytes)
		secretKey = secretKey + hex.EncodeToString(paddingBytes)
	}

	if tokenExpiry == 0 {
		tokenExpiry = 90 * 24 * time.Hour
	}

	authService = &AuthService{
		secretKey:   secretKey,
		tokenExpiry: tokenExpiry,
	}
	return authService
}

// GenerateToken creates a JWT for an agent identified by its device MAC
func GenerateToken(deviceMAC, deviceName string) (string, error) {
	if authService == nil {
		return "", fmt.Errorf("auth service not initialized")
	}

	now := time.Now()
	claims := AgentClaims{
		DeviceMAC:  deviceMAC,
		DeviceName: deviceName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(authService.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "netsentry-server",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(authService.secretKey))
}

// ValidateToken verifies and parses a JWT token
func ValidateToken(tokenString string) (*AgentClaims, error) {
	if authService == nil {
		return nil, fmt.Errorf("auth service not initialized")
	}

	claims := &AgentClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(authService.secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
