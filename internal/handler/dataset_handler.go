package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-dataset-registry/internal/dataset"
	"go-dataset-registry/internal/model"
	"go-dataset-registry/internal/service"
	"go-dataset-registry/pkg/apierror"
)

type DatasetHandler struct {
	datasets      *service.DatasetService
	sessions      *service.SessionLog
	maxUploadSize int64
}

func NewDatasetHandler(datasets *service.DatasetService, sessions *service.SessionLog, maxUploadSize int64) *DatasetHandler {
	return &DatasetHandler{datasets: datasets, sessions: sessions, maxUploadSize: maxUploadSize}
}

func (h *DatasetHandler) List(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, model.DatasetListData{Items: h.datasets.Describe()}, nil)
}

func (h *DatasetHandler) Summary(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.datasets.Summary(), nil)
}

func (h *DatasetHandler) Template(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.datasets.TemplateCSV(dataTypeFromURL(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeCSVDownload(w, name, data)
}

func (h *DatasetHandler) TemplatesArchive(w http.ResponseWriter, _ *http.Request) {
	archive, err := h.datasets.AllTemplatesArchive()
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "dataset_templates.zip"}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (h *DatasetHandler) Data(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.datasets.DataCSV(dataTypeFromURL(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeCSVDownload(w, name, data)
}

// Validate checks an uploaded CSV against the type's schema without touching
// stored data. Both outcomes are HTTP 200; the result carries the ok flag.
func (h *DatasetHandler) Validate(w http.ResponseWriter, r *http.Request) {
	uploaded, err := h.parseUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	v, err := h.datasets.Validate(uploaded, dataTypeFromURL(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, v.Message, v)
}

// Merge appends an uploaded CSV to the type's stored records, dropping exact
// duplicates, then persists the result.
func (h *DatasetHandler) Merge(w http.ResponseWriter, r *http.Request) {
	dataType := dataTypeFromURL(r)
	user := usernameFromRequest(r)

	uploaded, err := h.parseUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	v, err := h.datasets.Validate(uploaded, dataType)
	if err != nil {
		writeError(w, err)
		return
	}
	if !v.OK {
		writeError(w, apierror.Wrap(model.ErrValidationFailure, "VALIDATION_FAILURE",
			v.Message, strings.Join(v.Missing, ", "), http.StatusUnprocessableEntity))
		return
	}

	warnings := make([]string, 0, 2)
	if v.Warning != "" {
		warnings = append(warnings, v.Warning)
	}

	existing, loadWarning := h.datasets.LoadExisting(dataType)
	if loadWarning != "" {
		warnings = append(warnings, loadWarning)
	}

	merged, entry, err := h.datasets.Merge(existing, uploaded, dataType, user)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.datasets.Save(merged, dataType); err != nil {
		writeError(w, err)
		return
	}

	h.sessions.Append(user, entry)
	writeMessage(w, http.StatusOK, service.MsgMergeSuccess, model.MergeResponse{
		DataType: dataType,
		Added:    uploaded.RowCount(),
		Total:    merged.RowCount(),
		Warnings: warnings,
		Entry:    &entry,
	})
}

// Replace swaps the type's stored records for the uploaded CSV wholesale.
func (h *DatasetHandler) Replace(w http.ResponseWriter, r *http.Request) {
	dataType := dataTypeFromURL(r)
	user := usernameFromRequest(r)

	uploaded, err := h.parseUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	v, err := h.datasets.Validate(uploaded, dataType)
	if err != nil {
		writeError(w, err)
		return
	}
	if !v.OK {
		writeError(w, apierror.Wrap(model.ErrValidationFailure, "VALIDATION_FAILURE",
			v.Message, strings.Join(v.Missing, ", "), http.StatusUnprocessableEntity))
		return
	}

	warnings := make([]string, 0, 1)
	if v.Warning != "" {
		warnings = append(warnings, v.Warning)
	}

	replaced, entry, err := h.datasets.Replace(uploaded, dataType, user)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.datasets.Save(replaced, dataType); err != nil {
		writeError(w, err)
		return
	}

	h.sessions.Append(user, entry)
	writeMessage(w, http.StatusOK, service.MsgReplaceSuccess, model.ReplaceResponse{
		DataType: dataType,
		Records:  replaced.RowCount(),
		Warnings: warnings,
		Entry:    &entry,
	})
}

// Delete backs up the type's current records and resets the file to its
// empty template.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dataType := dataTypeFromURL(r)
	user := usernameFromRequest(r)

	backup, entry, err := h.datasets.Delete(dataType, user)
	if err != nil {
		writeError(w, err)
		return
	}

	h.sessions.Append(user, entry)
	writeMessage(w, http.StatusOK, fmt.Sprintf(service.MsgDeleteSuccess, backup), model.DeleteResponse{
		DataType: dataType,
		Backup:   backup,
		Entry:    &entry,
	})
}

func (h *DatasetHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	dataType := dataTypeFromURL(r)

	items, err := h.datasets.ListBackups(dataType)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.BackupListData{DataType: dataType, Items: items}, nil)
}

func (h *DatasetHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))

	file, info, err := h.datasets.OpenBackup(dataTypeFromURL(r), name)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), file)
}

// parseUpload reads the single multipart CSV upload, bounded by the
// configured request size cap.
func (h *DatasetHandler) parseUpload(w http.ResponseWriter, r *http.Request) (dataset.Table, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		if isPayloadTooLarge(err) {
			return dataset.Table{}, apierror.New("PAYLOAD_TOO_LARGE",
				"request body exceeds MAX_UPLOAD_SIZE", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge)
		}
		return dataset.Table{}, apierror.New("BAD_REQUEST",
			"multipart field 'file' with a CSV upload is required", "file", http.StatusBadRequest)
	}
	defer file.Close()

	tbl, err := dataset.ReadCSV(file)
	if err != nil {
		return dataset.Table{}, apierror.Wrap(err, "BAD_REQUEST",
			fmt.Sprintf("Could not parse uploaded CSV: %v", err), header.Filename, http.StatusBadRequest)
	}
	if len(tbl.Columns) == 0 {
		return dataset.Table{}, apierror.New("BAD_REQUEST",
			"uploaded file has no header row", header.Filename, http.StatusBadRequest)
	}

	return tbl, nil
}

func dataTypeFromURL(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "type"))
}

func writeCSVDownload(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func isPayloadTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}
