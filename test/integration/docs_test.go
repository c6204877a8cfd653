//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIDocsIndex(t *testing.T) {
	t.Parallel()

	server, _, _ := newServer(t)

	resp, err := http.Get(server.URL + "/api/v1/docs")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	env := decodeEnvelope(t, resp)
	require.True(t, env.Success)

	var index struct {
		Service   string `json:"service"`
		Version   string `json:"version"`
		Endpoints []struct {
			Method string `json:"method"`
			Path   string `json:"path"`
			Role   string `json:"role"`
		} `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &index))
	require.Equal(t, "dataset-registry", index.Service)
	require.Equal(t, "test", index.Version)

	paths := make(map[string]string, len(index.Endpoints))
	for _, ep := range index.Endpoints {
		paths[ep.Method+" "+ep.Path] = ep.Role
	}
	require.Contains(t, paths, "POST /api/v1/datasets/{type}/merge")
	require.Contains(t, paths, "GET /api/v1/audit")
	require.Contains(t, paths, "DELETE /api/v1/datasets/{type}")
	require.Equal(t, "admin", paths["GET /api/v1/audit"])
	require.Equal(t, "editor", paths["POST /api/v1/datasets/{type}/merge"])
	require.Equal(t, "admin", paths["DELETE /api/v1/datasets/{type}"])
	require.Equal(t, "admin", paths["GET /api/v1/datasets/{type}/backups/{name}"])
}

func TestHealthProbeIsPublic(t *testing.T) {
	t.Parallel()

	server, _, _ := newServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", readBody(t, resp))
}
