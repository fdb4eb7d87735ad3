package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yildizm/BlogView/internal/logger"
	"github.com/yildizm/BlogView/internal/templates"
)

// newTemplatesCommand creates the templates command with subcommands
func newTemplatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect the blog's mustache views",
		Long: `Inspect the mustache views the reader renders with.

Views are named by path, e.g. posts/show or posts/_post. Leading-underscore
views are partials and are inlined before substitution.`,
	}
	cmd.AddCommand(newTemplatesPathCommand())
	cmd.AddCommand(newTemplatesRenderCommand())
	return cmd
}

func newTemplatesPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "path <view>...",
		Short:   "Show where views are fetched from",
		Example: `  blogview templates path posts/show posts/_post`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			source, err := templateSource(cfg)
			if err != nil {
				return err
			}
			for _, view := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", view, source.Location(templates.ResourcePath(view)))
			}
			return nil
		},
	}
}

func newTemplatesRenderCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "render <view>",
		Short: "Render a view with JSON data",
		Example: `  blogview templates render posts/_post --data '{"id": 1, "title": "Hello"}'

  # Read the data from a file
  blogview templates render posts/show --data @post.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			values, err := parseViewData(data)
			if err != nil {
				return err
			}
			log, closer, err := newLogger(cfg, true)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}
			cache, err := newCache(cfg, log, nil)
			if err != nil {
				return err
			}

			out, err := cache.Render(cmd.Context(), args[0], values)
			if err != nil {
				log.ErrorWithFields("render failed", []logger.Field{logger.View(args[0]), logger.Error(err)})
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "{}", "JSON object to render with, or @file")
	return cmd
}

func parseViewData(data string) (map[string]any, error) {
	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		var err error
		if raw, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
	}
	values := map[string]any{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("invalid view data: %w", err)
	}
	return values, nil
}
