//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-dataset-registry/internal/audit"
	"go-dataset-registry/internal/config"
	"go-dataset-registry/internal/dataset"
	"go-dataset-registry/internal/handler"
	"go-dataset-registry/internal/middleware"
	"go-dataset-registry/internal/router"
	"go-dataset-registry/internal/service"
	"go-dataset-registry/internal/storage"
)

func TestSecurityHeadersOnResponses(t *testing.T) {
	t.Parallel()

	server, accessToken, _ := newServer(t)

	resp := doAuthRequest(t, http.MethodGet, server.URL+"/api/v1/datasets", accessToken)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
}

func TestAuthRateLimitReturns429(t *testing.T) {
	t.Parallel()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	usersFile := filepath.Join(t.TempDir(), "users.json")
	auditLogPath := filepath.Join(t.TempDir(), "audit.log")

	lineSink, err := audit.NewLineSink(auditLogPath)
	require.NoError(t, err)

	authService, err := service.NewAuthService(usersFile, "test-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	sessions := service.NewSessionLog(100)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService, sessions)
	datasetHandler := handler.NewDatasetHandler(service.NewDatasetService(dataset.Builtin(), store, lineSink), sessions, 10*1024*1024)
	auditHandler := handler.NewAuditHandler(service.NewAuditService(lineSink, nil), sessions)
	docsHandler := handler.NewDocsHandler("test")

	cfg := &config.Config{
		ServerPort:         "8080",
		ServerReadTimeout:  15 * time.Second,
		ServerWriteTimeout: 30 * time.Second,
		ServerIdleTimeout:  120 * time.Second,
		RequestTimeout:     30 * time.Second,
		DataDir:            store.RootAbs(),
		AuditLogPath:       auditLogPath,
		UsersFile:          usersFile,
		JWTSecret:          "test-secret",
		JWTAccessTTL:       15 * time.Minute,
		JWTRefreshTTL:      24 * time.Hour,
		MaxUploadSize:      10 * 1024 * 1024,
		RateLimitRPM:       100,
		AuthRateLimitRPM:   2,
		CORSOrigins:        []string{"*"},
		SessionLogSize:     100,
	}

	server := httptest.NewServer(router.New(cfg, authMiddleware, authHandler, datasetHandler, auditHandler, docsHandler))
	t.Cleanup(server.Close)

	loginPayload, err := json.Marshal(map[string]string{"username": "admin", "password": "admin123"})
	require.NoError(t, err)

	for attempt := 0; attempt < 2; attempt++ {
		resp, reqErr := http.Post(server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginPayload))
		require.NoError(t, reqErr)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Post(server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginPayload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}
