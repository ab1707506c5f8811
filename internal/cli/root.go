package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gatehouse/internal/platform/config"
	"gatehouse/internal/platform/logger"
)

const envPassword = "GATEHOUSE_PASSWORD"

type root struct {
	cfg     config.Client
	appOpts []AppOption
}

// NewRootCommand builds the gatehouse command tree. Flag defaults come from
// the environment; opts are applied to every App the commands build.
func NewRootCommand(opts ...AppOption) *cobra.Command {
	r := &root{cfg: config.ClientFromEnv(), appOpts: opts}

	cmd := &cobra.Command{
		Use:   "gatehouse",
		Short: "Authenticated client for the gatehouse backend",
		Long: `gatehouse signs in with the identity provider, mints a fresh ID token for
every backend call, and prints what the backend returns.

Sessions live only for the duration of one command. Commands that call the
backend take --email and --password (or GATEHOUSE_PASSWORD) and sign out
before they exit.`,
		SilenceUsage: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&r.cfg.APIURL, "api-url", r.cfg.APIURL, "backend base URL")
	f.StringVar(&r.cfg.FirebaseAPIKey, "api-key", r.cfg.FirebaseAPIKey, "identity provider web API key")
	f.StringVar(&r.cfg.ToolkitURL, "toolkit-url", r.cfg.ToolkitURL, "identity toolkit base URL override")
	f.StringVar(&r.cfg.SecureTokenURL, "secure-token-url", r.cfg.SecureTokenURL, "secure token endpoint override")
	f.StringVar(&r.cfg.RecaptchaToken, "recaptcha-token", r.cfg.RecaptchaToken, "bot-defense action token")
	f.DurationVar(&r.cfg.AuthReadyTimeout, "ready-timeout", r.cfg.AuthReadyTimeout, "how long to wait for a session before minting")
	f.StringVar(&r.cfg.LogLevel, "log-level", r.cfg.LogLevel, "log level (debug, info, warn, error)")
	f.StringVar(&r.cfg.LogFormat, "log-format", r.cfg.LogFormat, "log format (text, json)")

	cmd.AddCommand(
		r.registerCommand(),
		r.loginCommand(),
		r.resetPasswordCommand(),
		r.dashboardCommand(),
		r.profileCommand(),
	)
	return cmd
}

func (r *root) app(cmd *cobra.Command) *App {
	log := logger.NewWithWriter(cmd.ErrOrStderr(), r.cfg.LogLevel, r.cfg.LogFormat)
	for _, w := range r.cfg.Validate() {
		log.Warn(w)
	}
	return NewApp(r.cfg, log, r.appOpts...)
}

type credentials struct {
	email    string
	password string
}

func (c *credentials) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.email, "email", "", "account email")
	cmd.Flags().StringVar(&c.password, "password", "", "account password (default $"+envPassword+")")
	_ = cmd.MarkFlagRequired("email")
}

func (c *credentials) resolve() (string, string, error) {
	password := c.password
	if password == "" {
		password = os.Getenv(envPassword)
	}
	if password == "" {
		return "", "", fmt.Errorf("--password or %s is required", envPassword)
	}
	return c.email, password, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
