package storage

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"go-dataset-registry/pkg/apierror"
)

// NameValidator vets the bare filenames used as storage keys and resolves
// them against the root. Keys never contain directory components; anything
// that smells like traversal is rejected before touching the filesystem.
type NameValidator struct {
	rootAbs string
}

func NewNameValidator(root string) (*NameValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	return &NameValidator{rootAbs: rootAbs}, nil
}

func (v *NameValidator) RootAbs() string {
	return v.rootAbs
}

// ResolveName validates name as a storage key and returns its absolute path
// under the root.
func (v *NameValidator) ResolveName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", apierror.New("INVALID_FILENAME", "filename cannot be empty", name, http.StatusBadRequest)
	}

	if strings.ContainsAny(trimmed, `/\`) {
		return "", apierror.New("PATH_TRAVERSAL", "filename must not contain path separators", name, http.StatusForbidden)
	}
	if trimmed == "." || trimmed == ".." {
		return "", apierror.New("PATH_TRAVERSAL", "filename must not be a directory reference", name, http.StatusForbidden)
	}
	if strings.HasPrefix(trimmed, ".") {
		return "", apierror.New("INVALID_FILENAME", "filenames starting with a dot are reserved", name, http.StatusBadRequest)
	}
	if hasControlCharacters(trimmed) {
		return "", apierror.New("INVALID_FILENAME", "filename contains invalid characters", name, http.StatusBadRequest)
	}
	if len(trimmed) > 255 {
		return "", apierror.New("INVALID_FILENAME", "filename exceeds 255 bytes", name, http.StatusBadRequest)
	}

	return filepath.Join(v.rootAbs, trimmed), nil
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}
