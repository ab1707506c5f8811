package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gatehouse/internal/flows"
	"gatehouse/internal/session"
	"gatehouse/pkg/models"
)

// withSession signs in, runs fn, and signs out again whatever fn returns.
func (r *root) withSession(cmd *cobra.Command, creds *credentials, fn func(ctx context.Context, app *App, s *session.Session) error) error {
	email, password, err := creds.resolve()
	if err != nil {
		return err
	}
	app := r.app(cmd)
	defer app.Close()

	ctx := cmd.Context()
	s, err := app.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	defer signOut(ctx, app)
	return fn(ctx, app, s)
}

// signOut runs the logout flow even when ctx has been cancelled.
func signOut(ctx context.Context, app *App) {
	if err := app.Auth.Logout(context.WithoutCancel(ctx)); err != nil {
		app.logger.WarnContext(ctx, "sign out failed", "error", err)
	}
}

func (r *root) registerCommand() *cobra.Command {
	var creds credentials
	var name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account behind the bot-defense check",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, password, err := creds.resolve()
			if err != nil {
				return err
			}
			app := r.app(cmd)
			defer app.Close()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, app.Auth.AdmissionStatus())
			res, err := app.Auth.Register(cmd.Context(), flows.RegisterInput{
				Email:       email,
				Password:    password,
				DisplayName: name,
			})
			if err != nil {
				return err
			}
			defer signOut(cmd.Context(), app)

			fmt.Fprintf(out, "Account created for %s (uid %s)\n", res.Session.Email, res.Session.UID)
			if res.ProfileErr != nil {
				fmt.Fprintf(out, "Display name was not saved: %v\n", res.ProfileErr)
			}
			return nil
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func (r *root) loginCommand() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check credentials by signing in and out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withSession(cmd, &creds, func(_ context.Context, _ *App, s *session.Session) error {
				return printJSON(cmd.OutOrStdout(), s)
			})
		},
	}
	creds.bind(cmd)
	return cmd
}

func (r *root) resetPasswordCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Send a password reset email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := r.app(cmd)
			defer app.Close()
			if err := app.Auth.ResetPassword(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password reset email sent to %s\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// DashboardView is what the dashboard command prints.
type DashboardView struct {
	Hello     models.Hello     `json:"hello"`
	Profile   models.Profile   `json:"profile"`
	Protected models.Protected `json:"protected"`
}

func (r *root) dashboardCommand() *cobra.Command {
	var creds credentials
	var payload string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Call hello and profile concurrently, then the protected endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := protectedPayload(payload)
			if err != nil {
				return err
			}

			return r.withSession(cmd, &creds, func(ctx context.Context, app *App, _ *session.Session) error {
				var view DashboardView
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					var err error
					view.Hello, err = app.Dashboard.Hello(gctx)
					return err
				})
				g.Go(func() error {
					var err error
					view.Profile, err = app.Dashboard.Profile(gctx)
					return err
				})
				if err := g.Wait(); err != nil {
					return err
				}

				var err error
				if view.Protected, err = app.Dashboard.Protected(ctx, data); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), view)
			})
		},
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&payload, "payload", "", "JSON object posted to /auth/protected")
	return cmd
}

// protectedPayload parses --payload, defaulting to a timestamped greeting.
// JSON null is refused along with every other non-object value.
func protectedPayload(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{
			"message":   "Test from gatehouse CLI",
			"timestamp": time.Now().UnixMilli(),
		}, nil
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("--payload must be a JSON object: %w", err)
	}
	if data == nil {
		return nil, errors.New("--payload must be a JSON object, got null")
	}
	return data, nil
}

func (r *root) profileCommand() *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the profile the backend derives from the ID token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.withSession(cmd, &creds, func(ctx context.Context, app *App, _ *session.Session) error {
				p, err := app.Dashboard.Profile(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	creds.bind(cmd)
	return cmd
}
