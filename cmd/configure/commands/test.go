package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benvon/newsfeed/internal/config"
	"github.com/benvon/newsfeed/internal/database"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/benvon/newsfeed/internal/services/ai"
	"github.com/benvon/newsfeed/internal/services/authentik"
	"github.com/benvon/newsfeed/internal/services/news"
	"github.com/spf13/cobra"
)

// probe is one connectivity check run by the test command.
type probe struct {
	name string
	run  func(ctx context.Context) error
}

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var (
		timeout  time.Duration
		skipNews bool
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test external service configuration",
		Long:  "Check that the database, Authentik flows, NewsAPI and the summarizer are reachable with the current environment.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()

			flows := authentik.NewFlowDriver(authentik.Config{
				BaseURL:        cfg.AuthentikURL,
				ClientID:       cfg.AuthentikClientID,
				AuthFlow:       cfg.AuthentikAuthFlow,
				EnrollmentFlow: cfg.AuthentikEnrollmentFlow,
			}, nil, nil)

			probes := append([]probe{{name: "database", run: func(ctx context.Context) error {
				db, err := database.New(cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer func() { _ = db.Close() }()
				return db.HealthCheck(ctx)
			}}}, authentikProbes(flows)...)

			if !skipNews {
				client := news.NewClient(news.Config{APIKey: cfg.NewsAPIKey, BaseURL: cfg.NewsAPIBaseURL}, nil, nil)
				probes = append(probes, newsProbe(client))
			}

			fmt.Fprintf(out, "Authentik: %s\n", cfg.AuthentikURL)
			if cfg.UsesClientIDSigning() {
				fmt.Fprintln(out, "! Session tokens are signed with the client id; set TOKEN_SIGNING_SECRET")
			}
			fmt.Fprintln(out)

			failErr := runProbes(cmd.Context(), out, timeout, probes)

			summarizer := ai.NewSummarizer(ai.Config{APIKey: cfg.OpenAIKey, BaseURL: cfg.AIBaseURL, Model: cfg.AIModel}, nil, nil)
			printSummaryStatus(out, summarizer.Status())

			return failErr
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for each check")
	cmd.Flags().BoolVar(&skipNews, "skip-news", false, "Skip the NewsAPI search (it counts against the API quota)")

	return cmd
}

func authentikProbes(flows *authentik.FlowDriver) []probe {
	authFlow, enrollmentFlow := flows.FlowSlugs()
	return []probe{
		{name: "authentication flow " + authFlow, run: func(ctx context.Context) error {
			return flows.ProbeFlow(ctx, authFlow)
		}},
		{name: "enrollment flow " + enrollmentFlow, run: func(ctx context.Context) error {
			return flows.ProbeFlow(ctx, enrollmentFlow)
		}},
		{name: "userinfo endpoint", run: flows.ProbeUserInfo},
	}
}

func newsProbe(client *news.Client) probe {
	return probe{name: "NewsAPI", run: func(ctx context.Context) error {
		_, err := client.Search(ctx, models.ArticleQuery{Keywords: []string{"news"}, PageSize: 1})
		return err
	}}
}

// runProbes runs every probe in order and reports an error if any failed.
func runProbes(ctx context.Context, out io.Writer, timeout time.Duration, probes []probe) error {
	failed := 0
	for _, p := range probes {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err := p.run(pctx)
		cancel()
		if err != nil {
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", p.name, err)
			continue
		}
		fmt.Fprintf(out, "✓ %s\n", p.name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(probes))
	}
	return nil
}

func printSummaryStatus(out io.Writer, status models.SummaryStatus) {
	if status.Enabled {
		fmt.Fprintln(out, "✓ summarization enabled")
		return
	}
	msg := "disabled"
	if status.Message != nil {
		msg = *status.Message
	}
	fmt.Fprintf(out, "- summarization: %s\n", msg)
}
