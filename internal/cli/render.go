package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/BlogView/internal/app"
	"github.com/yildizm/BlogView/internal/formatter"
	"github.com/yildizm/BlogView/internal/pager"
)

type renderOptions struct {
	pages   int
	settle  time.Duration
	session bool
	timeout time.Duration
}

func newRenderCommand() *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render [path]",
		Short: "Render a blog route once and print it",
		Long: `Render a route headlessly through the same runtime the terminal view uses
and print the result as text, JSON, Markdown or CSV.

Requests complete before output is written. Notification timers run on a
virtual clock that --settle advances.`,
		Example: `  # Print the first page of posts
  blogview render

  # Print three pages as JSON
  blogview render --pages 3 -o json

  # Print a post with session counters
  blogview render posts/3 --session -o markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runRender(cmd, path, opts)
		},
	}

	cmd.Flags().IntVar(&opts.pages, "pages", 1, "number of list pages to materialize")
	cmd.Flags().DurationVar(&opts.settle, "settle", 0, "advance notification timers by this much before printing")
	cmd.Flags().BoolVar(&opts.session, "session", false, "include session counters")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}

func runRender(cmd *cobra.Command, path string, opts renderOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out, err := formatter.New(getOutputFormat(cfg.Output.Format), isColorEnabled())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	sched := app.NewSyncScheduler()
	b, err := openBlog(ctx, cfg, sched, true)
	if err != nil {
		return err
	}
	defer b.Close()

	rt := b.runtime
	if err := rt.Start(path); err != nil {
		return err
	}
	// A scroll event at the very bottom always falls within the margin.
	for i := 1; i < opts.pages; i++ {
		rt.Scroll(pager.Position{})
	}
	sched.Advance(opts.settle)

	page := formatter.Capture(rt)
	if opts.session {
		snap := rt.Session().Snapshot()
		page.Session = &snap
	}
	data, err := out.Format(page)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
