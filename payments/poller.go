// Package payments initiates fee payments at the checkout gateway and confirms
// them when the user comes back.
package payments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DiegoxdGarcia2/smart-condominium/apiclient"
	"github.com/DiegoxdGarcia2/smart-condominium/apimodel"
	"github.com/DiegoxdGarcia2/smart-condominium/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollDeadline = 60 * time.Second
)

// Status of one confirmation poll.
type Status int

const (
	Checking Status = iota
	Confirmed
	TimedOut
	Failed
)

func (s Status) String() string {
	switch s {
	case Checking:
		return "Checking"
	case Confirmed:
		return "Confirmed"
	case TimedOut:
		return "TimedOut"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Result is the outcome of PollForCompletion. Payment is the last matching
// record seen, if any. Err is nil only when Status is Confirmed.
type Result struct {
	Status   Status
	Payment  *apimodel.Payment
	Attempts int
	Err      error
}

// Message is the user facing text for the result.
func (r Result) Message() string {
	switch r.Status {
	case Confirmed:
		return "Payment confirmed. Thank you!"
	case TimedOut:
		return "The payment is not confirmed yet. Check again in a moment or open your payments list."
	case Failed:
		if errors.Is(r.Err, errors.ErrMissingSession) {
			return "The return link has no session_id."
		}
		return "Could not verify the payment."
	default:
		return "Checking payment..."
	}
}

// Poller confirms a checkout by polling the payments list until a record for
// the gateway session reports completed, or the deadline passes.
type Poller struct {
	client   *apiclient.Client
	interval time.Duration
	deadline time.Duration
	query    url.Values
	nowTime  func() time.Time
	breaker  *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

type PollerOption func(*Poller)

func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = interval
	}
}

func WithDeadline(deadline time.Duration) PollerOption {
	return func(p *Poller) {
		p.deadline = deadline
	}
}

// WithResident narrows the payments query to one resident.
func WithResident(residentID int) PollerOption {
	return func(p *Poller) {
		p.query = url.Values{"resident": []string{strconv.Itoa(residentID)}}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) PollerOption {
	return func(p *Poller) {
		p.nowTime = nowFunc
	}
}

func WithPollerLogger(logger zerolog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

func NewPoller(client *apiclient.Client, opts ...PollerOption) (*Poller, error) {
	if client == nil {
		return nil, fmt.Errorf("[payments.NewPoller] api client is required")
	}

	p := &Poller{
		client:   client,
		interval: DefaultPollInterval,
		deadline: DefaultPollDeadline,
		nowTime:  time.Now,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.interval <= 0 || p.deadline <= 0 {
		return nil, fmt.Errorf("[payments.NewPoller] interval and deadline must be positive")
	}

	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payments-poll",
		MaxRequests: 1,
		Timeout:     3 * p.interval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			status := errors.StatusCode(err)
			return err == nil || (status >= http.StatusBadRequest && status < http.StatusInternalServerError)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Debug().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("payments poll breaker")
		},
	})
	return p, nil
}

// PollForCompletion polls until the payment for sessionID is completed, the
// deadline passes, or ctx is cancelled. Fetch errors count as "not yet"; only
// the deadline ends the poll. The deadline is a wall-clock bound: a request
// still in flight when it passes is abandoned. On cancellation the result stays
// Checking with ctx.Err() and no further request is made. accessToken, when
// set, is sent instead of the stored token.
func (p *Poller) PollForCompletion(ctx context.Context, sessionID, accessToken string) Result {
	if sessionID == "" {
		return Result{Status: Failed, Err: errors.ErrMissingSession}
	}

	pollCtx, cancel := context.WithTimeout(ctx, p.deadline)
	defer cancel()

	deadline := p.nowTime().Add(p.deadline)
	result := Result{Status: Checking}
	var lastErr error

	// stop classifies why pollCtx ended: the caller left, or time ran out.
	stop := func() Result {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}
		result.Status = TimedOut
		result.Err = timeoutError(result.Payment, lastErr)
		return result
	}

	for {
		if pollCtx.Err() != nil {
			return stop()
		}

		result.Attempts++
		payment, err := p.check(pollCtx, sessionID, accessToken)
		if ctx.Err() != nil {
			return stop()
		}
		if payment != nil {
			result.Payment = payment
		}
		if err == nil && payment != nil && payment.IsCompleted() {
			result.Status = Confirmed
			result.Err = nil
			return result
		}
		if pollCtx.Err() != nil {
			return stop()
		}
		if err != nil {
			lastErr = err
			p.logger.Debug().Err(err).Int("attempt", result.Attempts).Msg("payment status check failed")
		}

		if !p.nowTime().Before(deadline) {
			cancel()
			return stop()
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-pollCtx.Done():
			timer.Stop()
			return stop()
		case <-timer.C:
		}
		if !p.nowTime().Before(deadline) {
			cancel()
			return stop()
		}
	}
}

func timeoutError(matched *apimodel.Payment, lastErr error) error {
	err := errors.ErrPaymentTimeout
	if matched == nil {
		err = fmt.Errorf("%w: %w", errors.ErrPaymentTimeout, errors.ErrPaymentNotFound)
	}
	if lastErr != nil {
		return fmt.Errorf("%w (last error: %w)", err, lastErr)
	}
	return err
}

// check fetches the payments list once and returns the record for sessionID.
func (p *Poller) check(ctx context.Context, sessionID, accessToken string) (*apimodel.Payment, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		var list apimodel.List[apimodel.Payment]
		_, err := p.client.Do(ctx, apiclient.Request{
			Method: http.MethodGet,
			Path:   apiclient.PaymentsPath,
			Query:  p.query,
			Bearer: accessToken,
		}, &list)
		return list.Results, err
	})
	if err != nil {
		return nil, err
	}

	for _, payment := range out.([]apimodel.Payment) {
		if payment.MatchesSession(sessionID) {
			return &payment, nil
		}
	}
	return nil, nil
}
