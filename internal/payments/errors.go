package payments

import "errors"

var (
	// ErrEventNotFound means the purchase referenced an unknown event.
	ErrEventNotFound = errors.New("payments: event not found")

	// ErrUserNotFound means the purchase referenced an unknown user.
	ErrUserNotFound = errors.New("payments: user not found")

	// ErrGatewayRejected means the gateway declined the push request
	// immediately; the wrapped error carries the gateway's description.
	ErrGatewayRejected = errors.New("payments: gateway rejected the payment request")

	// ErrGatewayUnavailable covers transport and authentication failures
	// talking to the gateway.
	ErrGatewayUnavailable = errors.New("payments: gateway unavailable")
)
