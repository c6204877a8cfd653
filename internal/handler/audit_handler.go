package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go-dataset-registry/internal/model"
	"go-dataset-registry/internal/service"
)

type AuditHandler struct {
	service  *service.AuditService
	sessions *service.SessionLog
}

func NewAuditHandler(service *service.AuditService, sessions *service.SessionLog) *AuditHandler {
	return &AuditHandler{service: service, sessions: sessions}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	items, meta, err := h.service.Query(r.Context(), model.AuditQuery{
		Operation: strings.TrimSpace(query.Get("operation")),
		DataType:  strings.TrimSpace(query.Get("data_type")),
		User:      strings.TrimSpace(query.Get("user")),
		From:      strings.TrimSpace(query.Get("from")),
		To:        strings.TrimSpace(query.Get("to")),
		Page:      parseIntOrDefault(query.Get("page"), 1),
		Limit:     parseIntOrDefault(query.Get("limit"), 50),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}

// SessionOperations returns the caller's own recent operations, newest first.
// Unlike List it reads the in-memory per-user log, so it needs no admin role
// and survives audit sink outages.
func (h *AuditHandler) SessionOperations(w http.ResponseWriter, r *http.Request) {
	ops := h.sessions.Operations(usernameFromRequest(r))
	writeSuccess(w, http.StatusOK, model.AuditListData{Items: ops}, nil)
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}
