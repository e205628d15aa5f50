package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"marketpulse/internal/di"
	"marketpulse/internal/domain/models"
	"marketpulse/internal/render"
	"marketpulse/pkg/config"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "marketpulse",
		Short:         "Marketplace operations report aggregator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")

	root.AddCommand(serveCmd(), reportCmd(), marketplaceCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP report server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			return app.Run()
		},
	}
}

func reportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report <marketplace>",
		Short: "Build the consolidated report for one marketplace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tk, err := di.InitializeToolkit(cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}

			ctx := cmd.Context()
			mp, err := tk.Registry.Find(ctx, args[0])
			if err != nil {
				return err
			}

			report, err := tk.Builder.BuildReport(ctx, mp)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			render.Report(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func marketplaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marketplace",
		Short: "Manage the marketplace registry",
	}
	cmd.AddCommand(marketplaceListCmd(), marketplaceAddCmd())
	return cmd
}

func marketplaceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered marketplaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tk, err := di.InitializeToolkit(cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}

			marketplaces, err := tk.Registry.List(cmd.Context())
			if err != nil {
				return err
			}
			render.Marketplaces(cmd.OutOrStdout(), marketplaces)
			return nil
		},
	}
}

func marketplaceAddCmd() *cobra.Command {
	var (
		id       int
		guid     string
		name     string
		elkName  string
		env      string
		regions  []string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new marketplace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tk, err := di.InitializeToolkit(cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}

			parsedEnv, err := models.ParseEnv(env)
			if err != nil {
				return err
			}
			if guid == "" {
				guid = uuid.NewString()
			}

			mp := models.Marketplace{
				Active:  !inactive,
				ID:      id,
				GUID:    guid,
				Name:    name,
				ELKName: elkName,
				Env:     parsedEnv,
			}
			for _, code := range regions {
				region, ok := models.RegionByCode(code)
				if !ok {
					return fmt.Errorf("unknown region %q (known: %v)", code, models.RegionCodes())
				}
				mp.Regions = append(mp.Regions, region)
			}

			if err := tk.Registry.Append(cmd.Context(), mp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (guid %s)\n", mp.Name, mp.GUID)
			return nil
		},
	}

	cmd.Flags().IntVar(&id, "id", 0, "marketplace id in the platform database")
	cmd.Flags().StringVar(&guid, "guid", "", "marketplace guid (generated when empty)")
	cmd.Flags().StringVar(&name, "name", "", "marketplace name, must match the database name")
	cmd.Flags().StringVar(&elkName, "elk-name", "", "log-search account name")
	cmd.Flags().StringVar(&env, "env", "LTS", "environment: LTS, LATEST or POLZA")
	cmd.Flags().StringSliceVar(&regions, "regions", nil, "region codes, e.g. MSK,SPB")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("elk-name")
	_ = cmd.MarkFlagRequired("regions")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "register as inactive")

	return cmd
}
