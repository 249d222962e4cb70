package config

import (
	"strings"
	"time"
)

type HTTPConfig interface {
	GetHTTPTimeout() time.Duration
	GetAllowedCheckoutHosts() AllowedHosts
}

type HTTP struct{}

var _ HTTPConfig = HTTP{}

type AllowedHosts map[string]struct{}
type nullValue = struct{}

func (a AllowedHosts) IsAllowedHost(host string) bool {
	_, ok := a[strings.ToLower(host)]
	return ok
}

func (a AllowedHosts) String() string {
	var hosts []string
	for k := range a {
		hosts = append(hosts, k)
	}
	return strings.Join(hosts, ", ")
}

func (HTTP) GetHTTPTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv("HTTP_TIMEOUT", "15s"))
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetAllowedCheckoutHosts lists the payment gateway hosts a checkout URL may point at.
// CHECKOUT_HOSTS is a comma separated override.
func (HTTP) GetAllowedCheckoutHosts() AllowedHosts {
	hosts := AllowedHosts{}
	for _, h := range strings.Split(GetEnv("CHECKOUT_HOSTS", "checkout.stripe.com"), ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts[strings.ToLower(h)] = nullValue{}
		}
	}
	return hosts
}
