package errs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

var _ error = (*MultiError)(nil)
var _ error = (*InvariantError)(nil)

// InvariantError reports that this library was misused or that an upstream
// validation step was skipped. It is never caused by query input alone.
type InvariantError struct {
	Message string
}

func Invariantf(format string, args ...interface{}) *InvariantError {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

func (err *InvariantError) Error() string {
	return "invariant violation: " + err.Message
}

// MultiError holds more than one validation error, in the order they were reported.
type MultiError struct {
	errors gqlerror.List
}

func (err *MultiError) Error() string {
	var buf strings.Builder
	buf.WriteString("Multiple Errors:")
	for _, e := range err.errors {
		buf.WriteString("\n")
		buf.WriteString(e.Error())
	}
	return buf.String()
}

func (err *MultiError) Len() int {
	return len(err.errors)
}

func (err *MultiError) At(index int) *gqlerror.Error {
	return err.errors[index]
}

// Errors returns a copy of the held errors.
func (err *MultiError) Errors() gqlerror.List {
	result := make(gqlerror.List, len(err.errors))
	copy(result, err.errors)
	return result
}

func (err *MultiError) Unwrap() []error {
	result := make([]error, 0, len(err.errors))
	for _, e := range err.errors {
		result = append(result, e)
	}
	return result
}

// FromList turns the result of a validation pass into a single error.
// One error is returned as is, more than one are merged into *MultiError.
// An empty list is a caller bug.
func FromList(list gqlerror.List) error {
	switch len(list) {
	case 0:
		panic(Invariantf("FromList called without errors"))
	case 1:
		return list[0]
	default:
		copied := make(gqlerror.List, len(list))
		copy(copied, list)
		return &MultiError{errors: copied}
	}
}

// First returns the error that owns the earliest source location.
// Errors without any location are only returned when no error has one.
func First(list gqlerror.List) *gqlerror.Error {
	var found *gqlerror.Error
	var foundLoc gqlerror.Location
	for _, e := range list {
		for _, loc := range e.Locations {
			if found == nil || locationLess(loc, foundLoc) {
				found = e
				foundLoc = loc
			}
		}
	}
	if found == nil && len(list) != 0 {
		return list[0]
	}
	return found
}

// SortByLocation orders list in place by each error's earliest location.
// The sort is stable so errors at the same location keep their reported order.
func SortByLocation(list gqlerror.List) {
	sort.SliceStable(list, func(i, j int) bool {
		a, okA := earliest(list[i])
		b, okB := earliest(list[j])
		if !okA || !okB {
			return okA && !okB
		}
		return locationLess(a, b)
	})
}

func earliest(err *gqlerror.Error) (gqlerror.Location, bool) {
	var result gqlerror.Location
	found := false
	for _, loc := range err.Locations {
		if !found || locationLess(loc, result) {
			result = loc
			found = true
		}
	}
	return result, found
}

func locationLess(a, b gqlerror.Location) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}
