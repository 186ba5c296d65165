package schema

import "fmt"

// SchemaError is the compile-time SCHEMA_INVALID kind of SPEC_FULL.md
// section 7: a structural problem with the schema itself, not with any
// particular input stream.
type SchemaError struct {
	Pos     int
	Message string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: invalid schema at position %d: %s", e.Pos, e.Message)
}

// Errorf constructs a SchemaError.
func Errorf(pos int, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
