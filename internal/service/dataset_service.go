package service

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go-dataset-registry/internal/audit"
	"go-dataset-registry/internal/dataset"
	"go-dataset-registry/internal/model"
	"go-dataset-registry/internal/storage"
	"go-dataset-registry/internal/util"
	"go-dataset-registry/pkg/apierror"
)

// Canonical caller-facing status messages. Clients must branch on the
// success flag, never on these strings.
const (
	MsgInvalidDataType  = "Invalid data type"
	MsgValidStructure   = "Valid data structure"
	MsgMergeSuccess     = "Data merged successfully"
	MsgReplaceSuccess   = "Data replaced successfully"
	MsgSaveSuccess      = "Data saved successfully"
	MsgDataFileNotFound = "Data file not found"

	// MsgDeleteSuccess is a format string taking the backup filename.
	MsgDeleteSuccess = "Data deleted successfully. Backup created: %s"
)

const backupTimeLayout = "20060102_150405"

// DatasetService is the dataset registry and lifecycle manager. It owns the
// type->schema and type->file bindings, validates and reshapes uploads,
// merges or replaces records with exact-duplicate removal, writes a backup
// before destructive deletes, and appends an audit entry for every mutating
// operation. Operations are synchronous and assume a single active writer
// per dataset type; concurrent writers on one type are out of contract.
type DatasetService struct {
	registry *dataset.Registry
	store    storage.Store
	sink     audit.Sink
}

func NewDatasetService(registry *dataset.Registry, store storage.Store, sink audit.Sink) *DatasetService {
	return &DatasetService{registry: registry, store: store, sink: sink}
}

// Describe lists the registered dataset types with their schemas.
func (s *DatasetService) Describe() []model.DatasetInfo {
	defs := s.registry.Definitions()
	out := make([]model.DatasetInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, model.DatasetInfo{
			Name:         def.Name,
			DataFile:     def.DataFile,
			TemplateFile: def.TemplateFile,
			Columns:      def.Columns,
		})
	}
	return out
}

// CreateTemplate returns an empty table with exactly the schema of dataType.
func (s *DatasetService) CreateTemplate(dataType string) (dataset.Table, error) {
	tmpl, err := s.registry.Template(dataType)
	if err != nil {
		return dataset.Table{}, s.unknownType(err, dataType)
	}
	return tmpl, nil
}

// TemplateCSV serializes the template for dataType; output is byte-for-byte
// deterministic for a given schema.
func (s *DatasetService) TemplateCSV(dataType string) ([]byte, string, error) {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return nil, "", s.unknownType(err, dataType)
	}

	data, err := dataset.NewTable(def.Columns).CSVBytes()
	if err != nil {
		return nil, "", s.ioFailure(err, fmt.Sprintf("Error generating template: %v", err), dataType)
	}
	return data, def.TemplateFile, nil
}

// AllTemplatesArchive builds one zip holding every type's template CSV,
// entry names fixed by the registry, in declaration order.
func (s *DatasetService) AllTemplatesArchive() ([]byte, error) {
	defs := s.registry.Definitions()
	entries := make([]util.ZipEntry, 0, len(defs))
	for _, def := range defs {
		data, err := dataset.NewTable(def.Columns).CSVBytes()
		if err != nil {
			return nil, s.ioFailure(err, fmt.Sprintf("Error generating template archive: %v", err), def.Name)
		}
		entries = append(entries, util.ZipEntry{Name: def.TemplateFile, Data: data})
	}

	archive, err := util.ZipBytes(entries)
	if err != nil {
		return nil, s.ioFailure(err, fmt.Sprintf("Error generating template archive: %v", err), "")
	}
	return archive, nil
}

// Validate checks uploaded's column set against dataType's schema. Missing
// schema columns flip OK and are all named in the message; extra columns
// only produce the non-fatal warning.
func (s *DatasetService) Validate(uploaded dataset.Table, dataType string) (model.Validation, error) {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return model.Validation{}, s.unknownType(err, dataType)
	}

	v := model.Validation{
		Missing: uploaded.MissingColumns(def.Columns),
		Extra:   uploaded.ExtraColumns(def.Columns),
	}
	if len(v.Extra) > 0 {
		v.Warning = fmt.Sprintf("Extra columns found (will be ignored): %s", strings.Join(v.Extra, ", "))
	}

	if len(v.Missing) > 0 {
		v.Message = fmt.Sprintf("Missing columns: %s", strings.Join(v.Missing, ", "))
		return v, nil
	}

	v.OK = true
	v.Message = MsgValidStructure
	return v, nil
}

// LoadExisting reads the current table for dataType. It never fails the
// caller: an unknown type or absent file yields an empty table, and a
// read/parse problem yields an empty table plus a warning describing it.
// Well-formed files are reconciled onto the schema's column order here, so
// later stages can treat rows positionally.
func (s *DatasetService) LoadExisting(dataType string) (dataset.Table, string) {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return dataset.Table{}, ""
	}

	exists, err := s.store.Exists(def.DataFile)
	if err != nil {
		return dataset.Table{}, fmt.Sprintf("Error loading existing data: %v", err)
	}
	if !exists {
		return dataset.Table{}, ""
	}

	raw, err := s.store.ReadFile(def.DataFile)
	if err != nil {
		return dataset.Table{}, fmt.Sprintf("Error loading existing data: %v", err)
	}

	tbl, err := dataset.ParseCSV(raw)
	if err != nil {
		return dataset.Table{}, fmt.Sprintf("Error loading existing data: %v", err)
	}

	if reconciled, projErr := tbl.Project(def.Columns); projErr == nil {
		return reconciled, ""
	}
	// A legacy file that no longer matches the schema is handed back as
	// parsed; merge and save will enforce the schema from here.
	return tbl, ""
}

// Merge projects incoming onto dataType's schema and appends it to existing,
// dropping exact duplicate rows (first occurrence wins) across the whole
// result. On failure the caller's existing table is returned unchanged and
// no audit entry is written.
func (s *DatasetService) Merge(existing dataset.Table, incoming dataset.Table, dataType string, user string) (dataset.Table, model.AuditEntry, error) {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return existing, model.AuditEntry{}, s.unknownType(err, dataType)
	}

	projected, err := incoming.Project(def.Columns)
	if err != nil {
		return existing, model.AuditEntry{}, apierror.Wrap(err, "SCHEMA_MISMATCH",
			fmt.Sprintf("Error merging data: %v", err), dataType, http.StatusUnprocessableEntity)
	}

	merged := projected
	if !existing.Empty() {
		merged = existing.Concat(projected)
	}
	merged = merged.Dedup()

	entry := s.record(model.OpMerge, dataType, user,
		fmt.Sprintf("Added %d records, Total: %d", projected.RowCount(), merged.RowCount()))
	return merged, entry, nil
}

// Replace projects incoming onto dataType's schema; the result supersedes
// whatever the caller had. On failure an empty table is returned and no
// audit entry is written.
func (s *DatasetService) Replace(incoming dataset.Table, dataType string, user string) (dataset.Table, model.AuditEntry, error) {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return dataset.Table{}, model.AuditEntry{}, s.unknownType(err, dataType)
	}

	projected, err := incoming.Project(def.Columns)
	if err != nil {
		return dataset.Table{}, model.AuditEntry{}, apierror.Wrap(err, "SCHEMA_MISMATCH",
			fmt.Sprintf("Error replacing data: %v", err), dataType, http.StatusUnprocessableEntity)
	}

	entry := s.record(model.OpReplace, dataType, user,
		fmt.Sprintf("Replaced all data with %d new records", projected.RowCount()))
	return projected, entry, nil
}

// Save persists tbl as dataType's backing file, fully replacing the prior
// contents in one atomic step. The table is projected onto the schema first:
// extra columns are stripped and missing ones refuse the save, so nothing
// off-schema ever reaches disk.
func (s *DatasetService) Save(tbl dataset.Table, dataType string) error {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return s.unknownType(err, dataType)
	}

	persistable, err := tbl.Project(def.Columns)
	if err != nil {
		return apierror.Wrap(err, "SCHEMA_MISMATCH",
			fmt.Sprintf("Error saving data: %v", err), dataType, http.StatusUnprocessableEntity)
	}

	data, err := persistable.CSVBytes()
	if err != nil {
		return s.ioFailure(err, fmt.Sprintf("Error saving data: %v", err), dataType)
	}

	if err := s.store.WriteFileAtomic(def.DataFile, data, 0o644); err != nil {
		return s.ioFailure(err, fmt.Sprintf("Error saving data: %v", err), dataType)
	}
	return nil
}

// Delete backs up the current contents of dataType's backing file and then
// resets the file to its schema-only template. The backup is durably written
// before the live file is touched; if the backup cannot be written the
// delete fails and the live data stays exactly as it was. Failed attempts on
// an existing file are audited too.
func (s *DatasetService) Delete(dataType string, user string) (string, model.AuditEntry, error) {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return "", model.AuditEntry{}, s.unknownType(err, dataType)
	}

	exists, err := s.store.Exists(def.DataFile)
	if err != nil {
		return "", model.AuditEntry{}, s.ioFailure(err, fmt.Sprintf("Error deleting data: %v", err), dataType)
	}
	if !exists {
		return "", model.AuditEntry{}, apierror.Wrap(model.ErrDataFileNotFound, "DATA_FILE_NOT_FOUND",
			MsgDataFileNotFound, def.DataFile, http.StatusNotFound)
	}

	current, err := s.store.ReadFile(def.DataFile)
	if err != nil {
		return "", s.deleteFailed(dataType, user, err), s.ioFailure(err, fmt.Sprintf("Error deleting data: %v", err), dataType)
	}

	backupName, err := s.nextBackupName(def.DataFile)
	if err != nil {
		return "", s.deleteFailed(dataType, user, err), s.ioFailure(err, fmt.Sprintf("Error deleting data: %v", err), dataType)
	}

	if err := s.store.WriteFileAtomic(backupName, current, 0o644); err != nil {
		return "", s.deleteFailed(dataType, user, err), s.ioFailure(err, fmt.Sprintf("Error deleting data: %v", err), dataType)
	}

	template, err := dataset.NewTable(def.Columns).CSVBytes()
	if err != nil {
		return "", s.deleteFailed(dataType, user, err), s.ioFailure(err, fmt.Sprintf("Error deleting data: %v", err), dataType)
	}
	if err := s.store.WriteFileAtomic(def.DataFile, template, 0o644); err != nil {
		return "", s.deleteFailed(dataType, user, err), s.ioFailure(err, fmt.Sprintf("Error deleting data: %v", err), dataType)
	}

	entry := s.record(model.OpDelete, dataType, user,
		fmt.Sprintf("All data deleted, backup created: %s", backupName))
	return backupName, entry, nil
}

// Summary reports per-type record counts, modification times, and file
// sizes. Failures are isolated per type; the operation itself never fails.
func (s *DatasetService) Summary() map[string]model.DatasetSummary {
	defs := s.registry.Definitions()
	out := make(map[string]model.DatasetSummary, len(defs))
	for _, def := range defs {
		out[def.Name] = s.summarize(def)
	}
	return out
}

// DataCSV returns the current backing file's raw bytes and download name.
func (s *DatasetService) DataCSV(dataType string) ([]byte, string, error) {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return nil, "", s.unknownType(err, dataType)
	}

	exists, err := s.store.Exists(def.DataFile)
	if err != nil {
		return nil, "", s.ioFailure(err, fmt.Sprintf("Error reading data: %v", err), dataType)
	}
	if !exists {
		return nil, "", apierror.Wrap(model.ErrDataFileNotFound, "DATA_FILE_NOT_FOUND",
			MsgDataFileNotFound, def.DataFile, http.StatusNotFound)
	}

	data, err := s.store.ReadFile(def.DataFile)
	if err != nil {
		return nil, "", s.ioFailure(err, fmt.Sprintf("Error reading data: %v", err), dataType)
	}
	return data, def.DataFile, nil
}

// ListBackups lists dataType's backup snapshots, oldest first.
func (s *DatasetService) ListBackups(dataType string) ([]model.BackupInfo, error) {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return nil, s.unknownType(err, dataType)
	}

	names, err := s.store.List(def.DataFile + ".backup_")
	if err != nil {
		return nil, s.ioFailure(err, fmt.Sprintf("Error listing backups: %v", err), dataType)
	}

	out := make([]model.BackupInfo, 0, len(names))
	for _, name := range names {
		info, statErr := s.store.Stat(name)
		if statErr != nil {
			continue
		}
		out = append(out, model.BackupInfo{
			Name:       name,
			Size:       info.Size(),
			SizeHuman:  humanizeSize(info.Size()),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	return out, nil
}

// OpenBackup opens one backup snapshot of dataType for download. The name
// must be one of the snapshots ListBackups reports.
func (s *DatasetService) OpenBackup(dataType string, name string) (*os.File, fs.FileInfo, error) {
	def, err := s.registry.Definition(dataType)
	if err != nil {
		return nil, nil, s.unknownType(err, dataType)
	}

	if !strings.HasPrefix(name, def.DataFile+".backup_") {
		return nil, nil, apierror.Wrap(model.ErrBackupNotFound, "BACKUP_NOT_FOUND",
			"Backup not found", name, http.StatusNotFound)
	}

	info, err := s.store.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apierror.Wrap(model.ErrBackupNotFound, "BACKUP_NOT_FOUND",
				"Backup not found", name, http.StatusNotFound)
		}
		return nil, nil, s.ioFailure(err, fmt.Sprintf("Error reading backup: %v", err), name)
	}

	f, err := s.store.OpenForRead(name)
	if err != nil {
		return nil, nil, s.ioFailure(err, fmt.Sprintf("Error reading backup: %v", err), name)
	}
	return f, info, nil
}

func (s *DatasetService) summarize(def dataset.Definition) model.DatasetSummary {
	exists, err := s.store.Exists(def.DataFile)
	if err != nil {
		return model.DatasetSummary{Error: err.Error()}
	}
	if !exists {
		zero := 0
		return model.DatasetSummary{Records: &zero, Status: "File not found"}
	}

	info, err := s.store.Stat(def.DataFile)
	if err != nil {
		return model.DatasetSummary{Error: err.Error()}
	}

	raw, err := s.store.ReadFile(def.DataFile)
	if err != nil {
		return model.DatasetSummary{Error: err.Error()}
	}

	tbl, err := dataset.ParseCSV(raw)
	if err != nil {
		return model.DatasetSummary{Error: err.Error()}
	}

	records := tbl.RowCount()
	return model.DatasetSummary{
		Records:      &records,
		LastModified: info.ModTime().Format("2006-01-02 15:04:05"),
		FileSize:     fmt.Sprintf("%.1f KB", float64(info.Size())/1024),
	}
}

// nextBackupName derives the timestamped backup filename, suffixing a
// counter in the unlikely case of a second delete within the same second;
// existing backups are never overwritten.
func (s *DatasetService) nextBackupName(dataFile string) (string, error) {
	base := fmt.Sprintf("%s.backup_%s", dataFile, time.Now().Format(backupTimeLayout))

	candidate := base
	for i := 2; ; i++ {
		exists, err := s.store.Exists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
}

// record writes the audit entry for a completed operation and returns it to
// the caller for session display. A sink outage is logged but does not fail
// the operation that already completed.
func (s *DatasetService) record(operation string, dataType string, user string, details string) model.AuditEntry {
	entry := model.AuditEntry{
		Timestamp: time.Now(),
		Operation: operation,
		DataType:  dataType,
		User:      user,
		Details:   details,
	}

	if err := s.sink.Append(entry); err != nil {
		slog.Warn("audit sink append failed",
			"operation", operation, "data_type", dataType, "error", err.Error())
	}
	return entry
}

func (s *DatasetService) deleteFailed(dataType string, user string, cause error) model.AuditEntry {
	return s.record(model.OpDelete, dataType, user,
		fmt.Sprintf("Delete failed, live data untouched: %v", cause))
}

func (s *DatasetService) unknownType(cause error, dataType string) error {
	return apierror.Wrap(cause, "DATASET_NOT_FOUND", MsgInvalidDataType, dataType, http.StatusNotFound)
}

func (s *DatasetService) ioFailure(cause error, message string, details string) error {
	return apierror.Wrap(fmt.Errorf("%w: %w", model.ErrIOFailure, cause), "IO_FAILURE",
		message, details, http.StatusInternalServerError)
}

func humanizeSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"KB", "MB", "GB", "TB"}
	value := float64(size)
	for _, unit := range units {
		value = value / 1024
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
	}

	return fmt.Sprintf("%.1f PB", value/1024)
}
