package cli

import (
	"context"
	"fmt"
	"strings"

	"CryptoInsight/internal/di"
	"CryptoInsight/pkg/config"
	"CryptoInsight/pkg/server"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "cryptoinsight",
		Short: "CryptoInsight - live market data with AI synthesis",
		Long: `CryptoInsight gathers live price, sentiment and positioning data for a crypto asset
and asks a language model to turn it into a dashboard record, reports and chat answers.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is normal in production.
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newAnalyzeCmd(&configPath))
	rootCmd.AddCommand(newReportCmd(&configPath))
	rootCmd.AddCommand(newIntentCmd(&configPath))

	return rootCmd
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func newAnalyzeCmd(configPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze [ASSET]",
		Short: "Build the dashboard record for an asset",
		Long: `Resolve an asset, fetch its live market data and synthesize the dashboard record.
Example: cryptoinsight analyze solana`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(ctx context.Context, app *server.App) error {
				rec, err := app.Insight().AnalyzeAsset(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), rec)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRecord(rec))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw record as JSON")
	return cmd
}

func newReportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report [ASSET]",
		Short: "Write a deep-dive market report for an asset",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(ctx context.Context, app *server.App) error {
				rec, err := app.Insight().AnalyzeAsset(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				report := app.Insight().GenerateReport(ctx, rec)
				fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(report))
				return nil
			})
		},
	}
}

func newIntentCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "intent [TEXT]",
		Short: "Classify what a user message asks for",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(ctx context.Context, app *server.App) error {
				intent := app.Insight().ClassifyIntent(ctx, strings.Join(args, " "))
				fmt.Fprintln(cmd.OutOrStdout(), renderIntent(intent))
				return nil
			})
		},
	}
}

func loadApp(configPath string) (*server.App, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	app, err := di.InitializeApp(cfg)
	if err != nil {
		return nil, fmt.Errorf("app initialization failed: %w", err)
	}
	return app, nil
}

func runServe(configPath string) error {
	app, err := loadApp(configPath)
	if err != nil {
		return err
	}
	// Run application (blocks until signal)
	return app.Run()
}

// withApp builds the application for a one-shot command and releases its
// background loops afterwards.
func withApp(configPath string, fn func(ctx context.Context, app *server.App) error) error {
	app, err := loadApp(configPath)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(context.Background(), app)
}
