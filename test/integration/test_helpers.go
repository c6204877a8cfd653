//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
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

// newServer boots the full HTTP stack on temporary storage and logs in the
// seeded admin. Returns the server plus the admin's access and refresh
// tokens.
func newServer(t *testing.T) (*httptest.Server, string, string) {
	t.Helper()

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	usersFile := filepath.Join(t.TempDir(), "users.json")
	auditLogPath := filepath.Join(t.TempDir(), "audit.log")

	lineSink, err := audit.NewLineSink(auditLogPath)
	require.NoError(t, err)

	authService, err := service.NewAuthService(usersFile, "test-secret", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	sessions := service.NewSessionLog(100)
	datasetService := service.NewDatasetService(dataset.Builtin(), store, lineSink)
	auditService := service.NewAuditService(lineSink, nil)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService, sessions)
	datasetHandler := handler.NewDatasetHandler(datasetService, sessions, 10*1024*1024)
	auditHandler := handler.NewAuditHandler(auditService, sessions)
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
		RateLimitRPM:       1000,
		AuthRateLimitRPM:   1000,
		CORSOrigins:        []string{"*"},
		SessionLogSize:     100,
	}

	server := httptest.NewServer(router.New(cfg, authMiddleware, authHandler, datasetHandler, auditHandler, docsHandler))
	t.Cleanup(server.Close)

	access, refresh := login(t, server, "admin", "admin123")
	return server, access, refresh
}

func login(t *testing.T, server *httptest.Server, username string, password string) (string, string) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		Success bool `json:"success"`
		Data    struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.True(t, parsed.Success)
	require.NotEmpty(t, parsed.Data.AccessToken)

	return parsed.Data.AccessToken, parsed.Data.RefreshToken
}

// registerUser creates an account through the admin-only endpoint and
// returns an access token for it.
func registerUser(t *testing.T, server *httptest.Server, adminToken string, username string, password string, role string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{"username": username, "password": password, "role": role})
	require.NoError(t, err)

	resp := doAuthJSONRequest(t, http.MethodPost, server.URL+"/api/v1/auth/register", body, adminToken)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	access, _ := login(t, server, username, password)
	return access
}

func newAuthRequest(t *testing.T, method string, url string, body []byte, accessToken string) *http.Request {
	t.Helper()

	var payloadReader *bytes.Reader
	if body == nil {
		payloadReader = bytes.NewReader([]byte{})
	} else {
		payloadReader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, payloadReader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func doAuthJSONRequest(t *testing.T, method string, url string, body []byte, accessToken string) *http.Response {
	t.Helper()

	return doRequest(t, newAuthRequest(t, method, url, body, accessToken))
}

func doAuthRequest(t *testing.T, method string, url string, accessToken string) *http.Response {
	t.Helper()

	return doRequest(t, newAuthRequest(t, method, url, nil, accessToken))
}

// uploadCSV sends contents as the multipart "file" field.
func uploadCSV(t *testing.T, method string, url string, accessToken string, contents string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "upload.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, contents)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return doRequest(t, req)
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"total_pages"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) apiEnvelope {
	t.Helper()
	defer resp.Body.Close()

	var env apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}
