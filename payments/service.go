package payments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DiegoxdGarcia2/smart-condominium/apiclient"
	"github.com/DiegoxdGarcia2/smart-condominium/apimodel"
	"github.com/DiegoxdGarcia2/smart-condominium/internal/config"
	"github.com/DiegoxdGarcia2/smart-condominium/internal/errors"
	"github.com/DiegoxdGarcia2/smart-condominium/internal/utils"
	"github.com/DiegoxdGarcia2/smart-condominium/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxFeePages bounds how far PendingFees follows pagination.
const maxFeePages = 50

// ServiceConfig is the part of the configuration the payment service reads.
type ServiceConfig interface {
	GetAllowedCheckoutHosts() config.AllowedHosts
	GetCheckoutBaseURL() string
}

// Checkout is where the user must go to pay a fee.
type Checkout struct {
	URL           string
	TransactionID string
	Existing      bool // the backend reused a pending checkout session
	FromPending   bool // recovered from the payments list after a "pending" rejection
}

type Service struct {
	client          *apiclient.Client
	allowedHosts    config.AllowedHosts
	checkoutBaseURL string
	logger          zerolog.Logger
}

type ServiceOption func(*Service)

func WithServiceLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(client *apiclient.Client, cfg ServiceConfig, opts ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("[payments.NewService] api client is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("[payments.NewService] config is required")
	}

	s := &Service{
		client:          client,
		allowedHosts:    cfg.GetAllowedCheckoutHosts(),
		checkoutBaseURL: cfg.GetCheckoutBaseURL(),
		logger:          log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initiate starts a checkout for the fee. When the backend refuses because a
// payment for the fee is already pending, the pending payment's checkout is
// returned instead.
func (s *Service) Initiate(ctx context.Context, feeID int, profile *users.Profile) (*Checkout, error) {
	if feeID <= 0 {
		return nil, fmt.Errorf("%w: fee id must be positive", errors.ErrInvalidRequest)
	}

	var resp apimodel.InitiatePaymentResponse
	_, err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   apiclient.InitiatePayPath,
		Body:   apimodel.InitiatePaymentRequest{FinancialFeeID: feeID},
	}, &resp)
	if err != nil {
		var httpErr *errors.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusBadRequest {
			message := httpErr.Message()
			if strings.Contains(strings.ToLower(message), "pendiente") {
				s.logger.Info().Int("fee", feeID).Str("reason", message).Msg("payment already pending, looking it up")
				return s.FindPendingCheckout(ctx, feeID, profile)
			}
			return nil, fmt.Errorf("%w: %s", errors.ErrPaymentRejected, message)
		}
		return nil, err
	}

	if resp.PaymentURL == "" {
		return nil, fmt.Errorf("%w: response has no payment_url", errors.ErrPaymentRejected)
	}
	if err := s.checkCheckoutURL(resp.PaymentURL); err != nil {
		return nil, err
	}
	return &Checkout{
		URL:           resp.PaymentURL,
		TransactionID: resp.TransactionID,
		Existing:      resp.Existing,
	}, nil
}

// FindPendingCheckout looks up a pending or processing payment for the fee and
// returns its checkout page, built from the gateway session id when the record
// has no stored URL.
func (s *Service) FindPendingCheckout(ctx context.Context, feeID int, profile *users.Profile) (*Checkout, error) {
	var query url.Values
	resident := profile.IsResident() && profile.ID != 0
	if resident {
		query = url.Values{"resident": []string{strconv.Itoa(profile.ID)}}
	}

	var list apimodel.List[apimodel.Payment]
	if err := s.client.Get(ctx, apiclient.PaymentsPath, query, &list); err != nil {
		return nil, errors.Wrapf(err, "list payments for fee %d", feeID)
	}

	want := apimodel.FeeIDString(feeID)
	for _, payment := range list.Results {
		if payment.FinancialFeeID() != want || !payment.IsPending() {
			continue
		}
		if resident && !payment.BelongsToResident(profile.ID) {
			continue
		}

		checkoutURL := payment.CheckoutURL()
		if checkoutURL == "" {
			sessionID := payment.GatewaySessionID()
			if sessionID == "" {
				return nil, fmt.Errorf("%w: pending payment %d has no checkout session", errors.ErrNoPendingPayment, payment.ID)
			}
			checkoutURL = s.checkoutBaseURL + sessionID
		}
		if err := s.checkCheckoutURL(checkoutURL); err != nil {
			return nil, err
		}
		return &Checkout{
			URL:           checkoutURL,
			TransactionID: payment.TransactionID,
			Existing:      true,
			FromPending:   true,
		}, nil
	}
	return nil, fmt.Errorf("%w %d", errors.ErrNoPendingPayment, feeID)
}

// PendingFees lists fees with status Pendiente. Residents only see fees of
// their own units, or fees whose unit owner carries their full name.
func (s *Service) PendingFees(ctx context.Context, profile *users.Profile) ([]apimodel.FinancialFee, error) {
	resident := profile.IsResident()

	var unitIDs map[int]struct{}
	if resident {
		units, err := s.residentUnits(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		unitIDs = make(map[int]struct{}, len(units))
		for _, unit := range units {
			unitIDs[unit.ID] = struct{}{}
		}
	}

	fees, err := s.allFees(ctx)
	if err != nil {
		return nil, err
	}

	fullName := profile.FullName()
	pending := make([]apimodel.FinancialFee, 0, len(fees))
	for _, fee := range fees {
		if !fee.IsPending() {
			continue
		}
		if resident {
			_, ownUnit := unitIDs[fee.Unit]
			if !ownUnit && (fullName == "" || fee.UnitOwner != fullName) {
				continue
			}
		}
		pending = append(pending, fee)
	}
	return pending, nil
}

func (s *Service) residentUnits(ctx context.Context, residentID int) ([]apimodel.ResidentialUnit, error) {
	var list apimodel.List[apimodel.ResidentialUnit]
	query := url.Values{"resident": []string{strconv.Itoa(residentID)}}
	if err := s.client.Get(ctx, apiclient.UnitsPath, query, &list); err != nil {
		return nil, errors.Wrapf(err, "list units of resident %d", residentID)
	}
	return list.Results, nil
}

func (s *Service) allFees(ctx context.Context) ([]apimodel.FinancialFee, error) {
	var fees []apimodel.FinancialFee
	for page := 1; page <= maxFeePages; page++ {
		var list apimodel.List[apimodel.FinancialFee]
		query := url.Values{"page": []string{strconv.Itoa(page)}}
		if err := s.client.Get(ctx, apiclient.FinancialFeesPath, query, &list); err != nil {
			return nil, errors.Wrapf(err, "list financial fees page %d", page)
		}
		fees = append(fees, list.Results...)
		if utils.Value(list.Next) == "" {
			break
		}
	}
	return fees, nil
}

// checkCheckoutURL only lets https URLs on an allowed gateway host through.
func (s *Service) checkCheckoutURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrCheckoutURL, err)
	}
	if u.Scheme != "https" || !s.allowedHosts.IsAllowedHost(u.Hostname()) {
		return fmt.Errorf("%w: %s", errors.ErrCheckoutURL, u.Redacted())
	}
	return nil
}
