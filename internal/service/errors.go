package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/godutch/internal/auth"
	"github.com/mmynk/godutch/internal/calculator"
	"github.com/mmynk/godutch/internal/storage"
)

var (
	ErrPhoneRequired     = errors.New("phone number is required")
	ErrNameRequired      = errors.New("name is required")
	ErrNotRegistered     = errors.New("phone number is not registered")
	ErrAlreadyVerified   = errors.New("phone number is already verified")
	ErrGroupIDRequired   = errors.New("group id is required")
	ErrKeyRequired       = errors.New("join key is required")
	ErrNoItems           = errors.New("at least one item is required")
	ErrInvalidItem       = errors.New("invalid item")
	ErrInvalidMember     = errors.New("invalid member")
	ErrDuplicateMember   = errors.New("member listed more than once")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrNotGroupMember    = errors.New("you are not a member of this group")
	ErrCannotJoin        = errors.New("you cannot join this group")
	ErrGroupDisabled     = errors.New("group is disabled")
	ErrNotGroupCreator   = errors.New("only the group creator can do this")
)

// toConnectError translates domain errors into Connect errors.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, ErrNotRegistered):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict), errors.Is(err, auth.ErrPhoneExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, ErrNotGroupMember), errors.Is(err, ErrCannotJoin), errors.Is(err, ErrNotGroupCreator):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, calculator.ErrNotAMember),
		errors.Is(err, calculator.ErrDegenerateGroup),
		errors.Is(err, ErrGroupDisabled),
		errors.Is(err, ErrAlreadyVerified),
		errors.Is(err, auth.ErrNotVerified),
		errors.Is(err, auth.ErrCodeExpired):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, calculator.ErrInvalidItemReference),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, auth.ErrInvalidCode),
		errors.Is(err, ErrPhoneRequired),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrGroupIDRequired),
		errors.Is(err, ErrKeyRequired),
		errors.Is(err, ErrNoItems),
		errors.Is(err, ErrInvalidItem),
		errors.Is(err, ErrInvalidMember),
		errors.Is(err, ErrDuplicateMember),
		errors.Is(err, ErrAmountNotPositive):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrTooManyAttempts):
		return connect.NewError(connect.CodeResourceExhausted, err)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return connect.NewError(connect.CodeUnauthenticated, err)
	default:
		// Includes ledger.ErrDuplicateGroup, which means the store is corrupt.
		return connect.NewError(connect.CodeInternal, err)
	}
}
