package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"articleforge/internal/app"
	"articleforge/internal/config"
	"articleforge/internal/domain"
	"articleforge/internal/infrastructure/export"
	"articleforge/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var application *app.Application

	root := &cobra.Command{
		Use:           "articleforge",
		Short:         "Crawl reference sites, analyze them and generate SEO column articles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			cfg := config.Load()
			logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			application = a
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if application == nil {
				return nil
			}
			return application.Close()
		},
	}

	root.AddCommand(
		newCrawlCmd(&application),
		newAnalyzeCmd(&application),
		newOutlineCmd(&application),
		newGenerateCmd(&application),
		newGenerateAllCmd(&application),
		newExportCmd(&application),
		newLogsCmd(&application),
		newPublishCmd(&application),
	)

	return root
}

func newCrawlCmd(application **app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <base-url>",
		Short: "Discover page URLs under a base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			urls, total, err := (*application).Pipeline.CrawlURLs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, u := range urls {
				cmd.Println(u)
			}
			cmd.Printf("found %d urls\n", total)
			return nil
		},
	}
}

func newAnalyzeCmd(application **app.Application) *cobra.Command {
	var model, base string

	cmd := &cobra.Command{
		Use:   "analyze [url ...]",
		Short: "Analyze pages and store the consolidated site analysis",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if base != "" {
				crawled, _, err := (*application).Pipeline.CrawlURLs(cmd.Context(), base)
				if err != nil {
					return err
				}
				urls = crawled
			}
			if len(urls) == 0 {
				return fmt.Errorf("pass urls as arguments or set --base")
			}

			result, err := (*application).Pipeline.Analyze(cmd.Context(), urls, model)
			if err != nil {
				return err
			}
			cmd.Printf("site %d analyzed\n\n%s\n", result.SiteID, result.Analysis)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "gpt-4o", "model key (gpt-4o, claude-4-sonnet, gemini-2.0-flash)")
	cmd.Flags().StringVar(&base, "base", "", "crawl this base URL first and analyze the discovered pages")
	return cmd
}

func newOutlineCmd(application **app.Application) *cobra.Command {
	var (
		siteID int64
		model  string
		add    int
	)

	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Create article stubs from the stored site analysis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := (*application).Pipeline

			var (
				inserted []domain.Article
				err      error
			)
			if add > 0 {
				inserted, err = p.AddOutline(cmd.Context(), siteID, model, add)
			} else {
				inserted, err = p.CreateOutline(cmd.Context(), siteID, model)
			}
			if err != nil {
				return err
			}

			for _, a := range inserted {
				cmd.Printf("%d\t%s\n", a.ID, a.Title)
			}
			cmd.Printf("inserted %d article stubs\n", len(inserted))
			return nil
		},
	}
	cmd.Flags().Int64Var(&siteID, "site", 0, "site id")
	cmd.Flags().StringVar(&model, "model", "gpt-4o", "model key")
	cmd.Flags().IntVar(&add, "add", 0, "request this many additional stubs instead of a full batch")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func newGenerateCmd(application **app.Application) *cobra.Command {
	var (
		articleID int64
		model     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the body of one article stub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			article, err := (*application).Pipeline.GenerateArticle(cmd.Context(), articleID, model)
			if err != nil {
				return err
			}
			cmd.Printf("article %d generated (%d chars)\n", article.ID, len([]rune(article.Content)))
			return nil
		},
	}
	cmd.Flags().Int64Var(&articleID, "article", 0, "article id")
	cmd.Flags().StringVar(&model, "model", "", "model key; defaults to the model stored on the stub")
	_ = cmd.MarkFlagRequired("article")
	return cmd
}

func newGenerateAllCmd(application **app.Application) *cobra.Command {
	var (
		siteID int64
		model  string
	)

	cmd := &cobra.Command{
		Use:   "generate-all",
		Short: "Generate every remaining draft of a site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := (*application).Pipeline.GenerateAllArticles(cmd.Context(), siteID, model)
			cmd.Printf("generated %d, failed %d\n", result.Generated, result.Failed)
			if len(result.FailedIDs) > 0 {
				cmd.Printf("failed article ids: %v\n", result.FailedIDs)
			}
			return err
		},
	}
	cmd.Flags().Int64Var(&siteID, "site", 0, "site id")
	cmd.Flags().StringVar(&model, "model", "", "model key; defaults to each stub's stored model")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func newExportCmd(application **app.Application) *cobra.Command {
	var (
		siteID int64
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the generated articles of a site as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			articles, err := (*application).Articles.GeneratedBySite(cmd.Context(), siteID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			return export.WriteCSV(w, articles)
		},
	}
	cmd.Flags().Int64Var(&siteID, "site", 0, "site id")
	cmd.Flags().StringVar(&out, "out", "", "output file (stdout when empty)")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func newLogsCmd(application **app.Application) *cobra.Command {
	var (
		siteID int64
		limit  int
		offset int
		stats  bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List AI usage logs or aggregate statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var siteFilter *int64
			if siteID > 0 {
				siteFilter = &siteID
			}

			if stats {
				rows, err := (*application).UsageLogs.Stats(cmd.Context(), siteFilter)
				if err != nil {
					return err
				}
				for _, s := range rows {
					cmd.Printf("%s\t%s\tcalls=%d\ttokens=%d\tavg=%s\n",
						s.Model, s.Kind, s.Calls, s.TotalTokens, s.AvgElapsed)
				}
				return nil
			}

			entries, err := (*application).UsageLogs.List(cmd.Context(), siteFilter, limit, offset)
			if err != nil {
				return err
			}
			for _, e := range entries {
				cmd.Printf("%d\t%s\t%s\t%s\ttokens~%d\t%s\n",
					e.ID, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Model, e.Kind,
					e.TokensEstimated, e.Elapsed)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&siteID, "site", 0, "filter by site id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	cmd.Flags().BoolVar(&stats, "stats", false, "print per-model aggregates instead of entries")
	return cmd
}

func newPublishCmd(application **app.Application) *cobra.Command {
	var (
		articleID int64
		date      string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Set the planned publish date of an article",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
			}
			if err := (*application).Articles.UpdatePublishDate(cmd.Context(), articleID, date); err != nil {
				return err
			}
			cmd.Printf("article %d scheduled for %s\n", articleID, date)
			return nil
		},
	}
	cmd.Flags().Int64Var(&articleID, "article", 0, "article id")
	cmd.Flags().StringVar(&date, "date", "", "publish date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("article")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
