package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benvon/newsfeed/internal/config"
	"github.com/benvon/newsfeed/internal/database"
	"github.com/benvon/newsfeed/internal/models"
	"github.com/spf13/cobra"
)

// NewKeywordsCmd creates the keywords command for inspecting and editing a
// user's keywords directly in the database.
func NewKeywordsCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage user keywords",
		Long:  "List, add or delete the keywords stored for a user (identified by their subject).",
	}
	cmd.PersistentFlags().StringVar(&userID, "user", "", "User subject (required)")
	_ = cmd.MarkPersistentFlagRequired("user")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List a user's keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeywordStore(func(store database.KeywordStore) error {
				return listKeywords(cmd.Context(), cmd.OutOrStdout(), store, userID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <keyword>",
		Short: "Add a keyword for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeywordStore(func(store database.KeywordStore) error {
				return addKeyword(cmd.Context(), cmd.OutOrStdout(), store, userID, args[0])
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <keyword>",
		Short: "Delete a keyword for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withKeywordStore(func(store database.KeywordStore) error {
				return deleteKeyword(cmd.Context(), cmd.OutOrStdout(), store, userID, args[0])
			})
		},
	})

	return cmd
}

func withKeywordStore(fn func(database.KeywordStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()
	return fn(database.NewKeywordRepository(db))
}

func listKeywords(ctx context.Context, out io.Writer, store database.KeywordStore, userID string) error {
	keywords, err := store.List(ctx, userID)
	if err != nil {
		return err
	}
	if len(keywords) == 0 {
		fmt.Fprintf(out, "No keywords for user %s\n", userID)
		return nil
	}
	fmt.Fprintf(out, "Keywords for user %s (%d):\n", userID, len(keywords))
	for _, k := range keywords {
		fmt.Fprintf(out, "  - %s (added %s)\n", k.Keyword, k.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	return nil
}

func addKeyword(ctx context.Context, out io.Writer, store database.KeywordStore, userID, raw string) error {
	keyword := models.NormalizeKeyword(raw)
	if keyword == "" {
		return errors.New("keyword must not be empty")
	}
	if len([]rune(keyword)) > models.MaxKeywordLength {
		return fmt.Errorf("keyword must be at most %d characters", models.MaxKeywordLength)
	}
	if _, err := store.Create(ctx, userID, keyword); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("keyword '%s' already exists", keyword)
		}
		return err
	}
	fmt.Fprintf(out, "✓ Added keyword '%s'\n", keyword)
	return nil
}

func deleteKeyword(ctx context.Context, out io.Writer, store database.KeywordStore, userID, raw string) error {
	keyword := models.NormalizeKeyword(raw)
	if err := store.Delete(ctx, userID, keyword); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("keyword '%s' not found", raw)
		}
		return err
	}
	fmt.Fprintf(out, "✓ Deleted keyword '%s'\n", keyword)
	return nil
}
