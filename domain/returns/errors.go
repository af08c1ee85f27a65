package returns

import "github.com/pkg/errors"

var (
	ErrOrderNotReturnable = errors.New("only delivered orders can be returned")
	ErrNoItemsSelected    = errors.New("select at least one item to return")
	ErrReasonRequired     = errors.New("choose a reason for the return")
	ErrUnknownItem        = errors.New("item does not belong to this order")
	ErrItemNotReturnable  = errors.New("item is not eligible for return")
	ErrNoEligibleItems    = errors.New("no item of this order can be returned")
	ErrInvalidTransition  = errors.New("action not available on the current step")
	ErrSubmissionInFlight = errors.New("a return request is already being submitted")
)

var validationErrors = []error{
	ErrOrderNotReturnable,
	ErrNoItemsSelected,
	ErrReasonRequired,
	ErrUnknownItem,
	ErrItemNotReturnable,
	ErrNoEligibleItems,
	ErrInvalidTransition,
	ErrSubmissionInFlight,
}

// IsValidationError reports whether err was raised before any network call
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
