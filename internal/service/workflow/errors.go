package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not available in the current view.
	ErrInvalidTransition = errors.New("action not available in current view")
	// ErrInvalidRole is returned for roles other than applicator and customer.
	ErrInvalidRole = errors.New("invalid role")
	// ErrEmptyCart is returned when submitting a cart without items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMissingMember is returned when the member name or ID is blank.
	ErrMissingMember = errors.New("member name and member id are required")
	// ErrSubmissionFailed wraps identity and write failures during submission.
	ErrSubmissionFailed = errors.New("submission failed")
	// ErrFeedUnavailable is returned when the admin feed cannot be opened.
	ErrFeedUnavailable = errors.New("records feed unavailable")
	// ErrSessionClosed is returned for any action on a closed session.
	ErrSessionClosed = errors.New("session closed")
)

// IsInputError reports whether err was caused by the user's form or cart.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrMissingMember) || errors.Is(err, ErrInvalidRole)
}

// IsConnectivityError reports whether err came from the identity provider or the record store.
func IsConnectivityError(err error) bool {
	return errors.Is(err, ErrSubmissionFailed) || errors.Is(err, ErrFeedUnavailable)
}
