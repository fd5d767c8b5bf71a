package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reci/internal/api"
	"reci/internal/model"
	"reci/internal/store"
	"reci/internal/util"
)

// pageLister is the part of api.Client the list command needs.
type pageLister interface {
	ListRecipes(ctx context.Context, cursor string) (model.Page, error)
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the recipe catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.API.ListURL == "" {
				return cfg.RequireEndpoints()
			}
			logger, closeLog, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("failed to open log: %w", err)
			}
			defer closeLog()

			client := api.NewClient(cfg.API.ListURL, cfg.API.CreateURL, cfg.Timeout())
			st, err := collectRecipes(cmd.Context(), client, all)
			if err != nil {
				logger.Warn("list failed", "error", err)
				return fmt.Errorf("list recipes: %s", api.UserMessage(err))
			}
			logger.Debug("list finished", "recipes", st.Len(), "more", st.HasMore())

			out := cmd.OutOrStdout()
			if st.Len() == 0 {
				fmt.Fprintln(out, "No recipes yet.")
				return nil
			}
			fmt.Fprintln(out, renderRecipeTable(st.Recipes()))
			if st.HasMore() {
				fmt.Fprintln(out, "More recipes are available; pass --all to fetch every page.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Follow the cursor until the catalog is exhausted")
	return cmd
}

// collectRecipes fetches the first page, or every page when all is set,
// into a fresh store.
func collectRecipes(ctx context.Context, lister pageLister, all bool) (*store.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st := store.New()
	for {
		cursor, _ := st.Cursor()
		page, err := lister.ListRecipes(ctx, cursor)
		if err != nil {
			return nil, err
		}
		added := st.MergeFetchedPage(page.Recipes, page.LastKey)
		if !all || !st.HasMore() {
			return st, nil
		}
		// A repeated cursor would loop forever.
		if next, _ := st.Cursor(); next == cursor || added == 0 {
			return st, nil
		}
	}
}

func renderRecipeTable(recipes []model.Recipe) string {
	headers := []string{"ID", "Title", "Steps", "Image", "Description"}
	rows := make([][]string, 0, len(recipes))
	for _, r := range recipes {
		image := "—"
		if r.ImageURL != "" {
			image = strings.TrimPrefix(string(r.MimeType), "image/")
		}
		rows = append(rows, []string{
			string(r.ID),
			util.TruncateString(util.SingleLine(r.Title), 40),
			strconv.Itoa(len(r.Steps)),
			image,
			util.TruncateString(util.SingleLine(r.Description), 50),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
}
