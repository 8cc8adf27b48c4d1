package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"ENV":                   "local",
		"DB_SERVER":             "127.0.0.1:3306",
		"DB_NAME":               "oshxona",
		"DB_USER":               "oshxona",
		"DB_PASSWORD":           "secret",
		"JWT_SIGNING_KEY":       "jwt-key",
		"CANDIDATE_SIGNING_KEY": "candidate-key",
		"GOOGLE_CLIENT_ID":      "client-id",
		"GOOGLE_CLIENT_SECRET":  "client-secret",
		"GOOGLE_REDIRECT_URL":   "http://localhost:8080/api/v1/auth/google/callback",
		"SMTP_HOST":             "smtp.example.com",
		"SMTP_PORT":             "587",
		"SMTP_FROM":             "noreply@example.com",
		"SMTP_PASS":             "pass",
		"REDIS_TYPE":            "redis",
		"REDIS_ADDR":            "127.0.0.1:6379",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HttpServer.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.Verification.CodeTTL)
	assert.Equal(t, 5, cfg.Auth.Verification.MaxAttempts)
	assert.Zero(t, cfg.Auth.Verification.ResendCooldown)
	assert.Equal(t, 15*time.Minute, cfg.Auth.Candidate.ChallengeTTL)
	assert.Equal(t, "https://accounts.google.com", cfg.Google.IssuerURL)
	assert.Equal(t, "verification_email.html", cfg.Email.Templates.Verification)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HttpServer.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTH_VERIFICATION_MAX_ATTEMPTS", "3")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://oshxona.uz,https://admin.oshxona.uz")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Auth.Verification.MaxAttempts)
	assert.Equal(t, []string{"https://oshxona.uz", "https://admin.oshxona.uz"}, cfg.HttpServer.AllowedOrigins)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	require.NoError(t, os.Unsetenv("CANDIDATE_SIGNING_KEY"))

	_, err := Load()
	assert.Error(t, err)
}
