package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/vdpulizie/internal/errs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// ErrCode returns the Code of err, classifying driver errors on the way.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	if converted := Convert(err); converted != nil {
		return converted.Code
	}
	return Other
}

// Convert classifies a pgx or sqlite3 error. It returns nil for errors
// that did not come from a database driver.
func Convert(err error) *Error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr)
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr)
	}

	return nil
}

func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

func ConvertSQLiteError(src sqlite3.Error) *Error {
	code := Other

	switch src.ExtendedCode {
	case sqlite3.ErrConstraintNotNull:
		code = NotNullViolation
	case sqlite3.ErrConstraintForeignKey:
		code = ForeignKeyViolation
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		code = UniqueViolation
	case sqlite3.ErrConstraintCheck:
		code = CheckViolation
	default:
		switch src.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			code = Busy
		case sqlite3.ErrCantOpen:
			code = ConnectionFailure
		}
	}

	return &Error{
		Code:         code,
		Severity:     SeverityError,
		DatabaseCode: fmt.Sprintf("%d", int(src.ExtendedCode)),
		Message:      src.Error(),
		driverErr:    src,
	}
}

// errorCode builds the client-facing code, e.g. LEAD_ALREADY_EXISTS.
func errorCode(entity string, code Code) string {
	if entity == "" {
		entity = "record"
	}

	domain := strings.ToUpper(entity)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch code {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	case ConnectionFailure, Busy:
		action = "UNAVAILABLE"
	case Timeout:
		action = "TIMEOUT"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

// HandleError turns a store failure on the given collection into a 500
// HTTPError. The message is the store's error text, unchanged.
//
// HTTPErrors pass through untouched.
func HandleError(err error, collection string) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	code := ErrCode(err)
	if code == Other {
		if errors.Is(err, context.DeadlineExceeded) {
			code = Timeout
		}
	}

	return errs.NewPersistenceError(err, errorCode(collection, code))
}
