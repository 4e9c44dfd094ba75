package schema

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSchema = errors.New("schema: unknown schema")
	ErrUnknownField  = errors.New("schema: unknown field")
	ErrInvalidValue  = errors.New("schema: invalid value")
	ErrTrailingBytes = errors.New("schema: trailing bytes after record")
	ErrNoSchemaFiles = errors.New("schema: no schema files")
)

// Error reports a problem in a schema or globals file.
type Error struct {
	File string
	Msg  string
}

func (e *Error) Error() string {
	if e.File == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

func errorf(file, format string, args ...any) *Error {
	return &Error{File: file, Msg: fmt.Sprintf(format, args...)}
}

func invalidValue(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidValue, field, fmt.Sprintf(format, args...))
}
