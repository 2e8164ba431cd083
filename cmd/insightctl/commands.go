package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corporate-insurance/insights/internal/assistant"
	"github.com/corporate-insurance/insights/internal/auth"
	"github.com/corporate-insurance/insights/internal/config"
	"github.com/corporate-insurance/insights/internal/jsonx"
	"github.com/corporate-insurance/insights/internal/llm"
	"github.com/corporate-insurance/insights/internal/policy"
	"github.com/corporate-insurance/insights/internal/store"
)

type globalOptions struct {
	verbose bool
	noLLM   bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "insightctl",
		Short:         "Query and operate the admin analytics assistant",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")
	root.PersistentFlags().BoolVar(&opts.noLLM, "no-llm", false, "classify with keyword rules only")

	root.AddCommand(
		newClassifyCmd(opts),
		newAskCmd(opts),
		newMigrateCmd(opts),
		newTokenCmd(),
	)
	return root
}

func (o *globalOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func planner(cfg *config.Config, logger *zap.Logger) *assistant.Planner {
	if !cfg.LLMEnabled() {
		return nil
	}
	client := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	return assistant.NewPlanner(client, cfg.LLM.Timeout, logger, assistant.WithRedactor(policy.NewPromptFilter(logger)))
}

func (o *globalOptions) useLLM() *bool {
	if o.noLLM {
		off := false
		return &off
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := jsonx.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type classifyOutput struct {
	Plan   assistant.Plan   `json:"plan"`
	Source assistant.Source `json:"source"`
}

func newClassifyCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <prompt>",
		Short: "Print the plan a prompt resolves to without touching the datastore",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := opts.logger()
			defer logger.Sync()

			r := assistant.NewResolver(planner(cfg, logger), logger)
			plan, source := r.Resolve(cmd.Context(), strings.Join(args, " "), opts.useLLM(), time.Now().UTC())
			return printJSON(cmd.OutOrStdout(), classifyOutput{Plan: plan, Source: source})
		},
	}
}

func newAskCmd(opts *globalOptions) *cobra.Command {
	var (
		tenant     string
		dateFrom   string
		dateTo     string
		windowDays int
	)
	cmd := &cobra.Command{
		Use:   "ask --tenant <id> <prompt>",
		Short: "Answer a question for a tenant and print the response JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := opts.logger()
			defer logger.Sync()

			ctx := cmd.Context()
			db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			req := assistant.Request{
				Prompt:  strings.Join(args, " "),
				Filters: assistant.Filters{DateFrom: dateFrom, DateTo: dateTo},
				UseLLM:  opts.useLLM(),
			}
			if cmd.Flags().Changed("window-days") {
				req.Filters.WindowDays = &windowDays
			}

			svc := assistant.NewService(store.New(db, logger), planner(cfg, logger), logger)
			resp, err := svc.Ask(ctx, tenant, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id to scope every query to")
	cmd.Flags().StringVar(&dateFrom, "from", "", "explicit range start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dateTo, "to", "", "explicit range end (YYYY-MM-DD)")
	cmd.Flags().IntVar(&windowDays, "window-days", 0, "explicit look-ahead window in days")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the read projection schema in a development database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := opts.logger()
			defer logger.Sync()

			ctx := cmd.Context()
			db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(ctx, db); err != nil {
				return err
			}
			logger.Info("Schema is up to date", zap.String("driver", cfg.Database.Driver))
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		tenant string
		user   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token --tenant <id>",
		Short: "Mint an admin JWT for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tok, err := auth.GenerateToken(cfg.Auth.JWTSecret, auth.Principal{
				UserID:   user,
				Role:     auth.RoleAdmin,
				TenantID: tenant,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id claim")
	cmd.Flags().StringVar(&user, "user", "local-admin", "subject claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

