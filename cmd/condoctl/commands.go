package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/DiegoxdGarcia2/smart-condominium/internal/config"
	"github.com/DiegoxdGarcia2/smart-condominium/payments"
	"github.com/DiegoxdGarcia2/smart-condominium/server"
	"github.com/DiegoxdGarcia2/smart-condominium/session"
	"github.com/DiegoxdGarcia2/smart-condominium/token/jwt"
	"github.com/DiegoxdGarcia2/smart-condominium/users"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newRootCommand(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "condoctl",
		Short:         "Smart Condominium console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(
		newLoginCommand(cfg),
		newLogoutCommand(cfg),
		newWhoamiCommand(cfg),
		newStatusCommand(cfg),
		newFeesCommand(cfg),
		newPayCommand(cfg),
		newPollCommand(cfg),
		newServeCommand(cfg),
	)
	return cmd
}

// withApp builds the app for one command run and closes it afterwards.
func withApp(cfg config.Config, fn func(ctx context.Context, cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a)
	}
}

func newLoginCommand(cfg config.Config) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		RunE: withApp(cfg, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			if password == "" {
				password = os.Getenv("CONDO_PASSWORD")
			}
			if _, err := a.session.Initialize(ctx); err != nil {
				log.Debug().Err(err).Msg("previous session discarded")
			}
			profile, err := a.session.Login(ctx, session.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s). Dashboard: %s\n", profile.Name(), profile.Role(), users.Dashboard(profile))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (default $CONDO_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: withApp(cfg, func(_ context.Context, cmd *cobra.Command, a *app) error {
			a.session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

func newWhoamiCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user and the sections they can open",
		RunE: withApp(cfg, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			if err := a.authenticated(ctx); err != nil {
				return err
			}
			user := a.session.CurrentUser()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", user.Name(), user.Email)
			fmt.Fprintf(out, "Role:      %s\n", user.Role())
			fmt.Fprintf(out, "Dashboard: %s\n", users.Dashboard(user))
			sections := make([]string, 0)
			for _, s := range users.Sections(user) {
				sections = append(sections, string(s))
			}
			fmt.Fprintf(out, "Sections:  %s\n", strings.Join(sections, ", "))
			return nil
		}),
	}
}

func newStatusCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session status and access token expiry",
		RunE: withApp(cfg, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			status, err := a.session.Initialize(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:  %s\n", status)
			if err != nil {
				fmt.Fprintf(out, "Reason:   %v\n", err)
			}
			if user := a.session.CurrentUser(); user != nil {
				fmt.Fprintf(out, "User:     %s (%s)\n", user.Name(), user.Role())
			}

			tok := a.session.Token()
			if tok == nil {
				return nil
			}
			claims, err := jwt.Inspect(tok.AccessToken)
			if err != nil {
				fmt.Fprintln(out, "Token:    opaque")
				return nil
			}
			if claims.ExpiresAt.IsZero() {
				fmt.Fprintln(out, "Token:    no expiry")
			} else if claims.Expired() {
				fmt.Fprintf(out, "Token:    expired at %s\n", claims.ExpiresAt.Local().Format(time.RFC3339))
			} else {
				fmt.Fprintf(out, "Token:    expires in %s\n", claims.ExpiresIn().Round(time.Second))
			}
			fmt.Fprintf(out, "Refresh:  %t\n", tok.RefreshToken != "")
			return nil
		}),
	}
}

func newFeesCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "fees",
		Short: "List pending financial fees",
		RunE: withApp(cfg, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			if err := a.authenticated(ctx); err != nil {
				return err
			}
			user := a.session.CurrentUser()
			if !users.CanAccess(user, users.SectionFinances) {
				return fmt.Errorf("%s cannot open %s", user.Role(), users.SectionFinances)
			}

			fees, err := a.payments.PendingFees(ctx, user)
			if err != nil {
				return err
			}
			if len(fees) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No pending fees.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUNIT\tDESCRIPTION\tAMOUNT\tDUE")
			for _, f := range fees {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", f.ID, f.UnitNumber, f.Description, f.Amount, f.DueDate)
			}
			return w.Flush()
		}),
	}
}

func newPayCommand(cfg config.Config) *cobra.Command {
	var feeID int

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Start a checkout for a fee and print the payment page",
		RunE: withApp(cfg, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			if err := a.authenticated(ctx); err != nil {
				return err
			}
			checkout, err := a.payments.Initiate(ctx, feeID, a.session.CurrentUser())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if checkout.Existing {
				fmt.Fprintln(out, "Reusing the pending checkout session.")
			}
			fmt.Fprintf(out, "Open this page to pay:\n%s\n", checkout.URL)
			return nil
		}),
	}

	cmd.Flags().IntVarP(&feeID, "fee", "f", 0, "financial fee id")
	_ = cmd.MarkFlagRequired("fee")
	return cmd
}

func newPollCommand(cfg config.Config) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Wait for a checkout session to be confirmed",
		RunE: withApp(cfg, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			if err := a.authenticated(ctx); err != nil {
				return err
			}
			poller, err := a.newPoller()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Checking payment...")
			result := poller.PollForCompletion(ctx, sessionID, "")
			fmt.Fprintln(cmd.OutOrStdout(), result.Message())
			if result.Status == payments.Confirmed {
				return nil
			}
			if result.Err != nil {
				return result.Err
			}
			return fmt.Errorf("payment %s", result.Status)
		}),
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "checkout session id (session_id in the return URL)")
	return cmd
}

func newServeCommand(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Listen for the checkout gateway's return redirects",
		RunE: withApp(cfg, func(ctx context.Context, cmd *cobra.Command, a *app) error {
			if err := a.authenticated(ctx); err != nil {
				return err
			}
			displayAppname(cfg.GetAppName())

			poller, err := a.newPoller()
			if err != nil {
				return err
			}
			handler, err := server.New(cfg, poller, server.WithLogger(log.Logger))
			if err != nil {
				return err
			}

			srv := &http.Server{Addr: cfg.GetListenAddr(), Handler: handler}
			serveErr := make(chan error, 1)
			go func() { serveErr <- listenAndServe(srv) }()

			select {
			case err := <-serveErr:
				return err
			case <-ctx.Done():
			}
			return shutdown(srv)
		}),
	}
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
