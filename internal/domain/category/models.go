package category

import (
	"fmt"
	"strings"
	"time"

	"fintrax/internal/domain/transaction"
	"fintrax/internal/shared/apperr"
)

// Domain errors
var (
	ErrCategoryNotFound = apperr.NotFound("category not found")
	ErrOwnerRequired    = apperr.Validation("owner is required")
	ErrNameRequired     = apperr.Validation("category name is required")
	ErrDuplicateName    = apperr.Validation("a category with this name already exists")
	ErrSystemCategory   = apperr.Forbidden("system categories cannot be modified")
	ErrCategoryInUse    = apperr.Conflict("category is still referenced by transactions")
)

// InUseError reports a category that still has transactions attached.
type InUseError struct {
	Count int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("category is used by %d transactions", e.Count)
}

// Unwrap lets InUseError match apperr.ErrValidation.
func (e *InUseError) Unwrap() error { return apperr.ErrValidation }

// Category groups transactions of one kind. System categories have no owner
// and are visible to everyone.
type Category struct {
	ID        int64            `json:"id"`
	Owner     *string          `json:"owner"`
	Name      string           `json:"name"`
	Kind      transaction.Kind `json:"kind"`
	IsSystem  bool             `json:"is_system"`
	CreatedAt time.Time        `json:"created_at"`
}

// CreateParams contains parameters for creating a user category
type CreateParams struct {
	Owner string
	Name  string
	Kind  transaction.Kind
}

// Validate validates the create parameters
func (p CreateParams) Validate() error {
	if strings.TrimSpace(p.Owner) == "" {
		return ErrOwnerRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if !p.Kind.Valid() {
		return transaction.ErrInvalidKind
	}
	return nil
}
