package checkout

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrUnauthenticated    = errors.New("an authenticated session is required")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress")
	ErrNotificationFailed = errors.New("seller could not be notified")
)
