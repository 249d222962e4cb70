package server

// Route path constants
const (
	// Checkout return routes, configured as the gateway's success and cancel URLs
	RoutePaymentSuccess = "/payment/success"
	RoutePaymentCancel  = "/payment/cancel"

	RouteHealth = "/healthz"

	// RoutePaymentsList is the console section users are sent to when a
	// payment cannot be confirmed yet.
	RoutePaymentsList = "/finances"
)
