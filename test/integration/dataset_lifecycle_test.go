//go:build integration

package integration

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mentorHeader = "Academic_Manager_Name,Program,Cohort,Term,Q1_Improvement_observed,Q2_Students_motivated,Q3_Effectiveness,Q4_Key_observations"

func mentorURL(server string, suffix string) string {
	return server + "/api/v1/datasets/" + url.PathEscape("AI Mentor") + suffix
}

func TestDatasetLifecycle(t *testing.T) {
	t.Parallel()

	server, admin, _ := newServer(t)

	t.Run("list registered types", func(t *testing.T) {
		resp := doAuthRequest(t, http.MethodGet, server.URL+"/api/v1/datasets", admin)
		env := decodeEnvelope(t, resp)
		require.True(t, env.Success)

		var data struct {
			Items []struct {
				Name string `json:"name"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Items, 5)
		assert.Equal(t, "AI Tutor", data.Items[0].Name)
		assert.Equal(t, "Unit Performance", data.Items[4].Name)
	})

	t.Run("template download", func(t *testing.T) {
		resp := doAuthRequest(t, http.MethodGet, mentorURL(server.URL, "/template"), admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "ai_mentor_template.csv")
		assert.Equal(t, mentorHeader+"\n", readBody(t, resp))
	})

	t.Run("validate upload", func(t *testing.T) {
		resp := uploadCSV(t, http.MethodPost, mentorURL(server.URL, "/validate"), admin,
			mentorHeader+"\nPriya,MBA,C1,T1,Yes,Yes,4,Strong uptake\n")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.Equal(t, "Valid data structure", env.Message)
	})

	t.Run("merge and dedup", func(t *testing.T) {
		resp := uploadCSV(t, http.MethodPost, mentorURL(server.URL, "/merge"), admin,
			mentorHeader+"\nPriya,MBA,C1,T1,Yes,Yes,4,Strong uptake\nRahul,MCA,C2,T2,No,Yes,3,Mixed results\n")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		require.True(t, env.Success)
		assert.Equal(t, "Data merged successfully", env.Message)

		var merged struct {
			Added int `json:"added"`
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &merged))
		assert.Equal(t, 2, merged.Added)
		assert.Equal(t, 2, merged.Total)

		// One repeated row, one new: dedup keeps the stored total at 3.
		resp = uploadCSV(t, http.MethodPost, mentorURL(server.URL, "/merge"), admin,
			mentorHeader+"\nRahul,MCA,C2,T2,No,Yes,3,Mixed results\nMeera,BBA,C3,T1,Yes,No,5,Excellent\n")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		env = decodeEnvelope(t, resp)
		require.NoError(t, json.Unmarshal(env.Data, &merged))
		assert.Equal(t, 2, merged.Added)
		assert.Equal(t, 3, merged.Total)
	})

	t.Run("merge rejects schema mismatch", func(t *testing.T) {
		resp := uploadCSV(t, http.MethodPost, mentorURL(server.URL, "/merge"), admin,
			"Academic_Manager_Name,Program\nGhost,MBA\n")
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		require.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_FAILURE", env.Error.Code)
		assert.True(t, strings.HasPrefix(env.Error.Message, "Missing columns: "), env.Error.Message)
	})

	t.Run("data download", func(t *testing.T) {
		resp := doAuthRequest(t, http.MethodGet, mentorURL(server.URL, "/data"), admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := readBody(t, resp)
		lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, mentorHeader, lines[0])
	})

	t.Run("summary", func(t *testing.T) {
		resp := doAuthRequest(t, http.MethodGet, server.URL+"/api/v1/datasets/summary", admin)
		env := decodeEnvelope(t, resp)
		require.True(t, env.Success)

		var summary map[string]struct {
			Records *int   `json:"records"`
			Status  string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &summary))
		require.Contains(t, summary, "AI Mentor")
		require.NotNil(t, summary["AI Mentor"].Records)
		assert.Equal(t, 3, *summary["AI Mentor"].Records)

		// The untouched types report an absent file, not an error.
		require.Contains(t, summary, "JPT Data")
		assert.Equal(t, "File not found", summary["JPT Data"].Status)
	})

	t.Run("replace", func(t *testing.T) {
		resp := uploadCSV(t, http.MethodPut, mentorURL(server.URL, "/replace"), admin,
			mentorHeader+"\nPriya,MBA,C1,T1,Yes,Yes,4,Strong uptake\n")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.Equal(t, "Data replaced successfully", env.Message)

		var replaced struct {
			Records int `json:"records"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &replaced))
		assert.Equal(t, 1, replaced.Records)
	})

	t.Run("delete with backup", func(t *testing.T) {
		resp := doAuthRequest(t, http.MethodDelete, mentorURL(server.URL, ""), admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		require.True(t, env.Success)
		assert.True(t, strings.HasPrefix(env.Message, "Data deleted successfully. Backup created: ai_mentor_mock_data.csv.backup_"), env.Message)

		var deleted struct {
			Backup string `json:"backup"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &deleted))
		require.NotEmpty(t, deleted.Backup)

		// Live file is the bare template again.
		resp = doAuthRequest(t, http.MethodGet, mentorURL(server.URL, "/data"), admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, mentorHeader+"\n", readBody(t, resp))

		// The backup holds the pre-delete records.
		resp = doAuthRequest(t, http.MethodGet, mentorURL(server.URL, "/backups/"+url.PathEscape(deleted.Backup)), admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "Priya,MBA,C1,T1")
	})

	t.Run("audit trail records the mutations", func(t *testing.T) {
		resp := doAuthRequest(t, http.MethodGet, server.URL+"/api/v1/audit?data_type=AI+Mentor", admin)
		env := decodeEnvelope(t, resp)
		require.True(t, env.Success)
		require.NotNil(t, env.Meta)
		assert.Equal(t, 4, env.Meta.Total)

		var data struct {
			Items []struct {
				Operation string `json:"operation"`
				User      string `json:"user"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Items, 4)
		assert.Equal(t, "DELETE", data.Items[0].Operation)
		assert.Equal(t, "admin", data.Items[0].User)
	})

	t.Run("session operations", func(t *testing.T) {
		resp := doAuthRequest(t, http.MethodGet, server.URL+"/api/v1/audit/session", admin)
		env := decodeEnvelope(t, resp)
		require.True(t, env.Success)

		var data struct {
			Items []struct {
				Operation string `json:"operation"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Items, 4)
		assert.Equal(t, "DELETE", data.Items[0].Operation)
	})
}

func TestTemplatesArchive(t *testing.T) {
	t.Parallel()

	server, admin, _ := newServer(t)

	resp := doAuthRequest(t, http.MethodGet, server.URL+"/api/v1/datasets/templates", admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"ai_tutor_template.csv",
		"ai_mentor_template.csv",
		"ai_impact_template.csv",
		"jpt_template.csv",
		"unit_performance_template.csv",
	}, names)
}
