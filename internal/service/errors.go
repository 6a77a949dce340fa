package service

import (
	"errors"
	"fmt"

	"erp/internal/model"
	"erp/internal/repository"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
	// ErrRecomputeFailure is logged and counted by the dispatcher; it never
	// reaches the caller of a ledger or variation write.
	ErrRecomputeFailure = errors.New("snapshot recompute failed")
)

// TransitionError reports a status change the workflow does not allow.
type TransitionError struct {
	From model.VariationStatus
	To   model.VariationStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move variation from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// repoErr lifts repository sentinels into the service taxonomy.
func repoErr(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
