package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/cmd/auth"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/cmd/inquiry"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/cmd/profile"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/cmd/role"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/client"
	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/config"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "agencyctl",
	Short: "AgencyDesk CLI - inquiries, profiles and roles",
	Long: `agencyctl is the command-line client for AgencyDesk. Visitors submit
project inquiries; administrators review inquiries, manage user profiles and
assign roles. Admin commands re-verify your role with the server every time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level, _ := config.ParseLevel(cfg.Log.Level)
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		provider := client.NewProvider(client.Options{
			ServerURL:      cfg.Server,
			AuthMode:       sdk.AuthMode(cfg.Auth.Mode),
			Issuer:         cfg.Auth.Issuer,
			ClientID:       cfg.Auth.ClientID,
			Timeout:        cfg.Timeout,
			NonInteractive: cfg.NonInteractive,
			Logger:         logger,
			Out:            cmd.OutOrStdout(),
		})
		cmd.SetContext(config.InjectConfig(cmd.Context(), &config.GlobalConfig{
			Config:         cfg,
			Logger:         logger,
			ClientProvider: provider,
		}))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cfg, ok := config.FromContext(cmd.Context()); ok {
			cfg.ClientProvider.Close()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/agencyctl/config.yaml)")
	flags.String("server", "http://localhost:8080", "AgencyDesk API server URL (env: AGENCYCTL_SERVER)")
	flags.String("auth-mode", string(sdk.AuthModeOIDC), "identity provider: oidc or password (env: AGENCYCTL_AUTH_MODE)")
	flags.String("issuer", "", "OIDC issuer URL (env: AGENCYCTL_AUTH_ISSUER)")
	flags.String("log-level", "warn", "log level: debug, info, warn, error (env: AGENCYCTL_LOG_LEVEL)")
	flags.Duration("timeout", 0, "per-request timeout (env: AGENCYCTL_TIMEOUT)")
	flags.Bool("non-interactive", false, "disable interactive prompts (env: AGENCYCTL_NON_INTERACTIVE)")

	_ = v.BindPFlag("server", flags.Lookup("server"))
	_ = v.BindPFlag("auth.mode", flags.Lookup("auth-mode"))
	_ = v.BindPFlag("auth.issuer", flags.Lookup("issuer"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("non_interactive", flags.Lookup("non-interactive"))
	_ = v.BindPFlag("timeout", flags.Lookup("timeout"))

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(inquiry.InquiryCmd)
	rootCmd.AddCommand(profile.ProfileCmd)
	rootCmd.AddCommand(role.RoleCmd)
	rootCmd.AddCommand(dashboardCmd)
}
