package server

import (
	"errors"
	"sort"
	"strings"

	"connectrpc.com/connect"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/auth"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/services/agency"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
)

// mapServiceError converts service errors to connect codes. Field violations
// also list the offending field names in the Agency-Invalid-Fields header.
func mapServiceError(err error) error {
	var fe *sdk.FieldError
	switch {
	case errors.As(err, &fe):
		names := make([]string, 0, len(fe.Fields))
		for name := range fe.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		cerr := connect.NewError(connect.CodeInvalidArgument, err)
		cerr.Meta().Set(sdk.InvalidFieldsHeader, strings.Join(names, ","))
		return cerr
	case errors.Is(err, sdk.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, agency.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, agency.ErrForbidden):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, agency.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, agency.ErrLoginDisabled):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
