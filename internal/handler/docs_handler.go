package handler

import (
	"net/http"

	"go-dataset-registry/internal/model"
)

type endpointDoc struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Role   string `json:"role"`
	Usage  string `json:"usage"`
}

type apiIndex struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Endpoints []endpointDoc `json:"endpoints"`
}

// DocsHandler serves a machine-readable index of the API surface. The index
// is assembled in code so it cannot drift from the routes the way an external
// spec file can.
type DocsHandler struct {
	version string
}

func NewDocsHandler(version string) *DocsHandler {
	return &DocsHandler{version: version}
}

func (h *DocsHandler) Index(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, apiIndex{
		Service: "dataset-registry",
		Version: h.version,
		Endpoints: []endpointDoc{
			{Method: "POST", Path: "/api/v1/auth/login", Role: "public", Usage: "exchange username/password for a token pair"},
			{Method: "POST", Path: "/api/v1/auth/refresh", Role: "public", Usage: "rotate a refresh token"},
			{Method: "POST", Path: "/api/v1/auth/logout", Role: "authenticated", Usage: "revoke a refresh token and the session operations window"},
			{Method: "POST", Path: "/api/v1/auth/register", Role: model.RoleAdmin, Usage: "create a user account"},
			{Method: "GET", Path: "/api/v1/auth/me", Role: "authenticated", Usage: "current account details"},
			{Method: "GET", Path: "/api/v1/datasets", Role: model.RoleViewer, Usage: "registered dataset types and schemas"},
			{Method: "GET", Path: "/api/v1/datasets/summary", Role: model.RoleViewer, Usage: "record count, last modified and size per type"},
			{Method: "GET", Path: "/api/v1/datasets/templates", Role: model.RoleViewer, Usage: "zip archive of every template CSV"},
			{Method: "GET", Path: "/api/v1/datasets/{type}/template", Role: model.RoleViewer, Usage: "empty template CSV for one type"},
			{Method: "GET", Path: "/api/v1/datasets/{type}/data", Role: model.RoleViewer, Usage: "current records as CSV"},
			{Method: "POST", Path: "/api/v1/datasets/{type}/validate", Role: model.RoleEditor, Usage: "check an upload against the schema without saving"},
			{Method: "POST", Path: "/api/v1/datasets/{type}/merge", Role: model.RoleEditor, Usage: "append uploaded rows, dropping exact duplicates"},
			{Method: "PUT", Path: "/api/v1/datasets/{type}/replace", Role: model.RoleEditor, Usage: "replace all records with the upload"},
			{Method: "DELETE", Path: "/api/v1/datasets/{type}", Role: model.RoleAdmin, Usage: "back up current records and reset to the template"},
			{Method: "GET", Path: "/api/v1/datasets/{type}/backups", Role: model.RoleViewer, Usage: "list backups for one type"},
			{Method: "GET", Path: "/api/v1/datasets/{type}/backups/{name}", Role: model.RoleAdmin, Usage: "download one backup CSV"},
			{Method: "GET", Path: "/api/v1/audit", Role: model.RoleAdmin, Usage: "filtered, paginated audit trail"},
			{Method: "GET", Path: "/api/v1/audit/session", Role: "authenticated", Usage: "caller's own operations this session"},
			{Method: "GET", Path: "/health", Role: "public", Usage: "liveness probe"},
		},
	}, nil)
}
