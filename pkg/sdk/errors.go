package sdk

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"connectrpc.com/connect"
)

// Gateway error taxonomy. Every error returned by Client matches exactly one
// of these with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnavailable  = errors.New("unavailable")
)

// InvalidFieldsHeader carries the comma separated names of rejected fields
// on InvalidArgument responses.
const InvalidFieldsHeader = "Agency-Invalid-Fields"

// FieldError reports per-field constraint violations. It matches ErrInvalidInput.
type FieldError struct {
	// Fields maps a field name to a human readable problem.
	Fields map[string]string
}

func (e *FieldError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Field returns the problem recorded for name, if any.
func (e *FieldError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// classify maps a transport error onto the gateway taxonomy. The original
// error stays in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	switch connectErr.Code() {
	case connect.CodeUnauthenticated, connect.CodePermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, connectErr.Message())
	case connect.CodeNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, connectErr.Message())
	case connect.CodeInvalidArgument:
		if fields := connectErr.Meta().Get(InvalidFieldsHeader); fields != "" {
			fe := &FieldError{Fields: map[string]string{}}
			for _, name := range strings.Split(fields, ",") {
				if name = strings.TrimSpace(name); name != "" {
					fe.Fields[name] = "required"
				}
			}
			return fe
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, connectErr.Message())
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}
