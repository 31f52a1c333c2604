package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"smartspend/internal/core"
	"smartspend/internal/export"
	"smartspend/internal/seed"
	"smartspend/internal/services"
	"smartspend/internal/store"
)

// withStore opens the store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st store.Store) error) error {
	logger := newLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("close store", "error", err)
		}
	}()
	return fn(ctx, res.Store)
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample data for a user",
	}

	demo := &cobra.Command{
		Use:   "demo",
		Short: "Load the demo account (expenses, budgets, goals, settings)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			file, _ := cmd.Flags().GetString("file")
			ds, err := loadDataset(file)
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				res, err := seed.Load(ctx, st, user, ds, time.Now())
				if err != nil {
					return err
				}
				logger := newLogger()
				if res.Skipped {
					logger.Warn("user already has expenses, nothing loaded", "user", user)
					return nil
				}
				logger.Info("demo data loaded", "user", user,
					"expenses", res.Expenses, "budgets", res.Budgets, "goals", res.Goals)
				return nil
			})
		},
	}
	demo.Flags().String("file", "", "YAML dataset to load instead of the built-in demo")

	random := &cobra.Command{
		Use:   "random",
		Short: "Generate a random expense history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			var opts seed.RandomOptions
			opts.Months, _ = cmd.Flags().GetInt("months")
			opts.PerMonth, _ = cmd.Flags().GetInt("per-month")
			opts.Salary, _ = cmd.Flags().GetFloat64("salary")
			opts.Seed, _ = cmd.Flags().GetInt64("seed")

			expenses := seed.Random(user, time.Now(), opts)
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				for _, e := range expenses {
					if _, err := st.CreateExpense(ctx, e); err != nil {
						return fmt.Errorf("create expense %q: %w", e.Description, err)
					}
				}
				newLogger().Info("random history generated", "user", user, "expenses", len(expenses))
				return nil
			})
		},
	}
	random.Flags().Int("months", 6, "Trailing months to cover")
	random.Flags().Int("per-month", 15, "Outflows per month")
	random.Flags().Float64("salary", 3500, "Income on the 1st of each month")
	random.Flags().Int64("seed", 0, "Generator seed (0 picks one)")

	cmd.AddCommand(demo, random)
	return cmd
}

func loadDataset(path string) (seed.Dataset, error) {
	if path == "" {
		return seed.Demo()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return seed.Dataset{}, err
	}
	return seed.Parse(b)
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the user's totals and budget progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				summary, err := services.SummaryFor(ctx, st, user)
				if err != nil {
					return err
				}
				progress, err := services.BudgetProgressFor(ctx, st, user)
				if err != nil {
					return err
				}
				return printSummary(cmd.OutOrStdout(), summary, progress)
			})
		},
	}
}

func printSummary(w io.Writer, s core.DashboardSummary, progress []core.BudgetProgress) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", s.MonthlyIncome)
	fmt.Fprintf(tw, "Expenses\t%s\n", s.MonthlyExpenses)
	fmt.Fprintf(tw, "Balance\t%s\n", s.TotalBalance)
	fmt.Fprintf(tw, "Savings rate\t%.2f%%\n", s.SavingsRate)
	if len(progress) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Budget\tSpent\tLimit\tPeriod")
		for _, p := range progress {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Category.Label(), p.Spent, p.Amount, p.Period)
		}
	}
	return tw.Flush()
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the user's expenses as xlsx, csv or json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := requireUser()
			if err != nil {
				return err
			}
			name, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(name)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = format.FileName(time.Now())
			}

			return withStore(cmd, func(ctx context.Context, st store.Store) error {
				expenses, err := st.ListExpenses(ctx, user)
				if err != nil {
					return err
				}
				var w io.Writer = cmd.OutOrStdout()
				if out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				if err := export.Write(w, format, expenses); err != nil {
					return err
				}
				if out != "-" {
					newLogger().Info("export written", "file", out, "expenses", len(expenses))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringP("format", "f", "xlsx", "Output format: xlsx, csv, json")
	cmd.Flags().StringP("out", "o", "", "Output file, - for stdout (default smartspend-expenses-<date>.<ext>)")
	return cmd
}
