package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinels the HTTP layer maps onto status codes.
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalid    = errors.New("invalid input")
	ErrDuplicate  = errors.New("duplicate")
	ErrForeignKey = errors.New("foreign key violation")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"camp"`
	Message string `json:"error"`
}

// InputError carries per-field validation failures.
type InputError struct {
	Kind   error
	Fields []FieldError
}

func (e *InputError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%v: %s", e.Kind, strings.Join(parts, "; "))
}

func (e *InputError) Unwrap() error { return e.Kind }

func invalid(field, msg string) *InputError {
	return &InputError{Kind: ErrInvalid, Fields: []FieldError{{Field: field, Message: msg}}}
}

// classifyDB maps driver constraint errors onto ErrDuplicate or ErrForeignKey.
// Other errors are returned unchanged.
func classifyDB(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Detail)
		case "23503":
			return fmt.Errorf("%w: %s", ErrForeignKey, pgErr.Detail)
		}
		return err
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		case 2627, 2601:
			return fmt.Errorf("%w: %s", ErrDuplicate, msErr.Message)
		case 547:
			return fmt.Errorf("%w: %s", ErrForeignKey, msErr.Message)
		}
		return err
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", ErrForeignKey, err)
		}
	}
	return err
}

// isDriverError reports whether err came from one of the database drivers.
func isDriverError(err error) bool {
	var (
		pgErr   *pgconn.PgError
		msErr   mssql.Error
		liteErr *sqlite.Error
	)
	return errors.As(err, &pgErr) || errors.As(err, &msErr) || errors.As(err, &liteErr)
}
