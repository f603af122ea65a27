package service

import (
	"errors"
	"fmt"

	"github.com/ammiranda/department_service/nestedset"
	"github.com/ammiranda/department_service/repository"
)

// Errors returned by DepartmentService. Failures raised by the nested-set
// engine are wrapped with ErrDataIntegrity, so errors.Is matches both the
// service sentinel and nestedset.ErrCycle or nestedset.ErrInvariant.
var (
	ErrDepartmentNotFound       = errors.New("department not found")
	ErrParentDepartmentNotFound = errors.New("parent department not found")
	ErrValidation               = errors.New("validation failed")
	ErrDataIntegrity            = errors.New("data integrity violation")
)

// translateNotFound maps a storage miss on id to the given service sentinel
func translateNotFound(err error, sentinel error, id int64) error {
	if errors.Is(err, repository.ErrNodeNotFound) {
		return fmt.Errorf("%w: %d", sentinel, id)
	}
	return err
}

// integrity wraps an engine failure as a data integrity violation
func integrity(err error) error {
	if errors.Is(err, nestedset.ErrCycle) || errors.Is(err, nestedset.ErrInvariant) {
		return fmt.Errorf("%w: %w", ErrDataIntegrity, err)
	}
	return err
}

// outcome labels an operation result for metrics
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDepartmentNotFound), errors.Is(err, ErrParentDepartmentNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrDataIntegrity):
		return "integrity"
	default:
		return "error"
	}
}
