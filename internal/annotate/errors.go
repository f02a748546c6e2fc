package annotate

import (
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

var _ error = (*SchemaError)(nil)

// SchemaError reports a name in the query document that the schema doesn't define.
// The document is invalid against the schema; the library was used correctly.
type SchemaError struct {
	Err *gqlerror.Error
}

func (err *SchemaError) Error() string {
	return err.Err.Error()
}

func (err *SchemaError) Unwrap() error {
	return err.Err
}

func schemaErrorf(pos *ast.Position, format string, args ...interface{}) error {
	if pos == nil || pos.Src == nil {
		return &SchemaError{Err: gqlerror.Errorf(format, args...)}
	}
	return &SchemaError{Err: gqlerror.ErrorPosf(pos, format, args...)}
}
