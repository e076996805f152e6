package supply

import (
	"errors"
	"strings"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
)

// ErrLoadFailed wraps any failure to read a workbook: unreadable, corrupt
// or unsupported files, and unexpected panics while loading.
var ErrLoadFailed = errors.New("workbook could not be loaded")

// SchemaError reports the required column groups a table is missing.
type SchemaError struct {
	Missing []string
	Notices []domain.Notice
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, "; ")
}

// IsSchemaError reports whether err is (or wraps) a *SchemaError.
func IsSchemaError(err error) (*SchemaError, bool) {
	var se *SchemaError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
