package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reci/internal/api"
	"reci/internal/draft"
	"reci/internal/intake"
	"reci/internal/model"
	"reci/internal/submit"
	"reci/internal/util"
)

type recipeSubmitter interface {
	Submit(ctx context.Context, r model.Recipe, images model.RecipeImages) (submit.Result, error)
}

type imageLoader interface {
	Load(path string) (model.RecipeImages, model.MimeType, error)
}

type addOptions struct {
	title       string
	description string
	steps       []string
	imagePath   string
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var opts addOptions

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a recipe without the interactive form",
		Example: `  reci add --title "Tea" --description "A cup of tea" \
    --step "Boil water" --step "Steep the leaves" --step "Pour" --image tea.jpg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireEndpoints(); err != nil {
				return err
			}
			logger, closeLog, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("failed to open log: %w", err)
			}
			defer closeLog()

			client := api.NewClient(cfg.API.ListURL, cfg.API.CreateURL, cfg.Timeout())
			res, err := runAdd(cmd.Context(), opts, submit.New(client, logger), intake.New(cfg.Images.MaxSourceBytes, logger))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %q as %s (%s", res.Recipe.Title, res.Recipe.ID, util.FormatCount(len(res.Recipe.Steps), "step"))
			if res.Uploaded > 0 {
				fmt.Fprintf(out, ", %s uploaded", util.FormatCount(res.Uploaded, "image"))
			}
			fmt.Fprintln(out, ")")
			if w := res.UploadWarning(); w != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning: "+w)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Recipe title")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Recipe description")
	cmd.Flags().StringArrayVarP(&opts.steps, "step", "s", nil, "Instruction step (repeat for each step, in order)")
	cmd.Flags().StringVarP(&opts.imagePath, "image", "i", "", "Image file to attach (.jpg, .png, .webp)")
	return cmd
}

// runAdd builds a draft from opts and sends it through the submission
// pipeline. Validation happens before any network call.
func runAdd(ctx context.Context, opts addOptions, s recipeSubmitter, loader imageLoader) (submit.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r := model.BlankRecipe()
	r.Title = opts.title
	r.Description = opts.description
	for _, step := range opts.steps {
		r.Steps = append(r.Steps, strings.TrimSpace(step))
	}

	if w, ok := draft.Validate(r); !ok {
		return submit.Result{}, errors.New(string(w))
	}

	var images model.RecipeImages
	if path := strings.TrimSpace(opts.imagePath); path != "" {
		var mt model.MimeType
		var err error
		images, mt, err = loader.Load(path)
		if err != nil {
			return submit.Result{}, fmt.Errorf("image rejected: %w", err)
		}
		r.MimeType = mt
	}

	res, err := s.Submit(ctx, r, images)
	if err != nil {
		if errors.Is(err, submit.ErrInvalidDraft) {
			return submit.Result{}, err
		}
		if msg := api.UserMessage(err); msg == api.UnreachableMessage {
			return submit.Result{}, fmt.Errorf("submit recipe: %s: %w", msg, err)
		}
		return submit.Result{}, fmt.Errorf("submit recipe: %w", err)
	}
	return res, nil
}
