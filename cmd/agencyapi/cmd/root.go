package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caffeinepub/agencydesk/cmd/agencyapi/cmd/users"
	"github.com/caffeinepub/agencydesk/cmd/agencyapi/internal/config"
)

var (
	cfgFile string
	v       = viper.New()

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "agencyapi",
	Short: "AgencyDesk API server",
	Long: `agencyapi stores project inquiries, user profiles and role assignments
for AgencyDesk and serves them over Connect RPC.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level := slog.LevelInfo
		if cfg.Debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		cmd.SetContext(config.NewContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("db-url", "", "Database connection URL (env: AGENCYAPI_DATABASE_URL)")
	flags.String("server-addr", "", "Server bind address (env: AGENCYAPI_SERVER_ADDR)")
	flags.Bool("debug", false, "Enable debug logging (env: AGENCYAPI_DEBUG)")

	_ = v.BindPFlag("database_url", flags.Lookup("db-url"))
	_ = v.BindPFlag("server_addr", flags.Lookup("server-addr"))
	_ = v.BindPFlag("debug", flags.Lookup("debug"))

	rootCmd.AddCommand(users.UsersCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
