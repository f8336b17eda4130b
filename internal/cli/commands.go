package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"visaHedgeBot/internal/app"
	"visaHedgeBot/internal/cache"
	"visaHedgeBot/internal/config"
	"visaHedgeBot/internal/finance"
	"visaHedgeBot/internal/storage"
)

// NewRootCmd builds the hedge command tree.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hedge",
		Short: "Visa hedge portfolio advisor",
		Long: `hedge asks two advisors for an ETF portfolio that covers upcoming
immigration costs and projects both plans to the visa expiration date.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("verbose"); !v {
				log.SetOutput(io.Discard)
			}
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show component logs")

	rootCmd.AddCommand(newRecommendCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newVersionCmd(version))
	return rootCmd
}

func newRecommendCmd() *cobra.Command {
	var (
		a         Answers
		raw       bool
		asJSON    bool
		noSave    bool
		chartPath string
		noPrompt  bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend two hedge portfolios",
		Example: `  hedge recommend --visa H-1B --expires 2027-06-30 --apps EB-2,I-485 --costs 5000 --cash 10000 --monthly 500
  hedge recommend --chart plan.png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noPrompt {
				if err := PromptMissing(&a); err != nil {
					return err
				}
			}
			in, err := a.Input()
			if err != nil {
				return err
			}
			return runRecommend(cmd.Context(), in, recommendOutput{raw: raw, json: asJSON, save: !noSave, chart: chartPath})
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.Visa, "visa", "", "Current visa type, e.g. H-1B")
	f.StringVar(&a.Expiration, "expires", "", "Visa expiration date (YYYY-MM-DD)")
	f.StringVar(&a.Applications, "apps", "", "Pending applications, comma-separated or - for none")
	f.StringVar(&a.Costs, "costs", "", "Expected immigration costs in USD")
	f.StringVar(&a.Cash, "cash", "", "Investable cash in USD")
	f.StringVar(&a.Monthly, "monthly", "", "Monthly contribution in USD")
	f.BoolVar(&raw, "raw", false, "Also print both advisors' full answers")
	f.BoolVar(&asJSON, "json", false, "Print the result as JSON")
	f.BoolVar(&noSave, "no-save", false, "Do not record the request in the database")
	f.BoolVar(&noPrompt, "no-prompt", false, "Fail instead of prompting for missing values")
	f.StringVar(&chartPath, "chart", "", "Write the projection chart to this PNG file")
	return cmd
}

type recommendOutput struct {
	raw   bool
	json  bool
	save  bool
	chart string
}

func runRecommend(ctx context.Context, in finance.InputRecord, out recommendOutput) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()

	if out.save {
		if err := saveRequest(ctx, cfg.DBPath, in); err != nil {
			log.Printf("cli: request not saved: %v", err)
		}
	}

	store := cache.Open(ctx, cfg.RedisAddr)
	svc, err := app.NewService(cfg, store, nil)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, labelStyle.Render("asking the advisors..."))
	res, err := svc.Recommend(ctx, in)
	if err != nil {
		return err
	}

	if out.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		fmt.Print(RenderResult(res))
	}
	if out.raw {
		fmt.Print(RenderAdvisorText("Plan A advisor", res.PlanA.AdvisorText, 100))
		fmt.Print(RenderAdvisorText("Plan B advisor", res.PlanB.AdvisorText, 100))
	}

	if out.chart != "" {
		img, err := finance.MakeProjectionChart("Projected balance • "+in.CurrentVisa, res.Series())
		if err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		if err := os.WriteFile(out.chart, img, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		fmt.Fprintln(os.Stderr, labelStyle.Render("chart written to "+out.chart))
	}
	return nil
}

func saveRequest(ctx context.Context, path string, in finance.InputRecord) error {
	db, err := storage.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.InitSchema(ctx, db); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return storage.NewStore(db).SaveRequest(ctx, in)
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently saved hedge requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := storage.OpenSQLite(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := storage.InitSchema(ctx, db); err != nil {
				return err
			}
			reqs, err := storage.NewStore(db).RecentRequests(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Print(RenderHistory(reqs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of requests to show")
	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hedge %s\n", version)
		},
	}
}
