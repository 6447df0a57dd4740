package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benvon/newsfeed/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "newsfeed-configure",
		Short:        "Operations tool for the NewsFeed API",
		Long:         "Apply schema migrations, maintain user keywords and check external service configuration.",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		commands.NewMigrateCmd(),
		commands.NewKeywordsCmd(),
		commands.NewTestCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
