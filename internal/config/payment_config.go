package config

import "time"

type PaymentConfig interface {
	GetPollInterval() time.Duration
	GetPollDeadline() time.Duration
	GetCheckoutBaseURL() string
}

type Payment struct{}

var _ PaymentConfig = Payment{}

func (Payment) GetPollInterval() time.Duration {
	return 2 * time.Second
}

func (Payment) GetPollDeadline() time.Duration {
	return 60 * time.Second
}

// GetCheckoutBaseURL is where a bare gateway session id is turned into a checkout page.
func (Payment) GetCheckoutBaseURL() string {
	return "https://checkout.stripe.com/c/pay/"
}
