package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stockwatch/internal/app"
	"stockwatch/internal/config"
	"stockwatch/internal/models"
	"stockwatch/internal/quota"
	"stockwatch/internal/worker"
	"stockwatch/internal/worker/processors"
)

func setup() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.NewLogger(cfg))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.DB.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date")
			return nil
		},
	}
}

func enforceQuotaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enforce-quota [shop-domain]",
		Short: "Re-apply plan product limits",
		Long: `Re-apply each store's plan limit to its tracked products.

With no argument every installed store is checked. Runs are idempotent, so
this is safe to schedule.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			var stores []models.StoreAccount
			if len(args) == 1 {
				store, err := a.Repo.GetStoreByDomain(ctx, args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				stores = append(stores, *store)
			} else if stores, err = a.Repo.ListStores(ctx); err != nil {
				return err
			}

			results := make([]*quota.Result, 0, len(stores))
			for _, s := range stores {
				result, err := a.Enforcer.Enforce(ctx, s.ID, s.Plan)
				if err != nil {
					return fmt.Errorf("%s: %w", s.ShopDomain, err)
				}
				results = append(results, result)
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
	return cmd
}

func syncCmd() *cobra.Command {
	var pageSize int

	cmd := &cobra.Command{
		Use:   "sync <shop-domain>",
		Short: "Walk a store's catalog and refresh every tracked product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.Repo.GetStoreByDomain(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			result, err := a.Service.SyncStore(cmd.Context(), store, pageSize)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 250, "products per catalog page")
	return cmd
}

func planCmd() *cobra.Command {
	var publish bool

	cmd := &cobra.Command{
		Use:   "plan <shop-domain> <free|basic|pro|enterprise>",
		Short: "Change a store's plan",
		Long: `Change a store's plan and enforce its product limit.

With --publish the change is put on the plan topic for the worker instead
of being applied here.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := models.Plan(args[1])
			if !quota.Valid(plan) {
				return fmt.Errorf("unknown plan %q", args[1])
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if publish {
				p := worker.NewPublisher(worker.NewWriter(cfg))
				defer p.Close()
				event := processors.Event{Type: processors.EventPlanChanged, ShopDomain: args[0], Plan: plan}
				if err := p.Publish(cmd.Context(), event); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Published %s for %s\n", plan, args[0])
				return nil
			}

			a, err := app.New(cfg, app.NewLogger(cfg))
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := a.Repo.GetStoreByDomain(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			result, err := a.Enforcer.Enforce(cmd.Context(), store.ID, plan)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().BoolVar(&publish, "publish", false, "publish a plan.changed event instead of applying directly")
	return cmd
}
