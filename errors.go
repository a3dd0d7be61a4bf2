package sharingd

import (
	"github.com/sharingd/sharingd/kit/platform/errors"
)

// Shared coded errors of the store and policy contracts. Backends return
// these (or errors carrying the same codes) so that handlers can map them to
// protocol responses without knowing the backend.
var (
	// ErrResourceNotFound is returned when no resource matches a reference.
	ErrResourceNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "resource not found",
	}

	// ErrResourceAlreadyExists is returned on a (label, name) collision
	// during create.
	ErrResourceAlreadyExists = &errors.Error{
		Code: errors.EConflict,
		Msg:  "resource with the same name already exists",
	}

	// ErrAssociationNotFound is returned when the referenced edge does not
	// exist.
	ErrAssociationNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "association not found",
	}

	// ErrAssociationAlreadyExists is returned when the edge with the same
	// label already connects the two resources.
	ErrAssociationAlreadyExists = &errors.Error{
		Code: errors.EConflict,
		Msg:  "association already exists",
	}

	// ErrNotAllowed is returned when the policy denies the required
	// permission.
	ErrNotAllowed = &errors.Error{
		Code: errors.EUnauthorized,
		Msg:  "not allowed",
	}

	// ErrUndefinedRef is returned when an undefined reference is used where
	// a concrete one is required.
	ErrUndefinedRef = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "undefined resource reference cannot be resolved",
	}

	// ErrInvalidAssociationLabel is returned for labels outside the closed
	// set.
	ErrInvalidAssociationLabel = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "invalid association label",
	}

	// ErrInvalidPageToken is returned for tokens this backend did not mint.
	ErrInvalidPageToken = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "invalid pagination token",
	}
)
