package apiclient

// Navigator sends the application to a route. The client calls it with the
// sign-in route after an unrecoverable refresh failure.
type Navigator interface {
	Navigate(route string)
}

type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) {
	f(route)
}

// logNavigator is used when no navigator is configured.
type logNavigator struct {
	client *Client
}

func (n logNavigator) Navigate(route string) {
	n.client.logger.Warn().Str("route", route).Msg("session expired, sign in again")
}
