package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yildizm/BlogView/internal/logger"
	"github.com/yildizm/BlogView/internal/ui"
)

func newReadCommand() *cobra.Command {
	var noMouse bool

	cmd := &cobra.Command{
		Use:   "read [path]",
		Short: "Read the blog in an interactive terminal view",
		Long: `Open the blog in a full-screen terminal view.

The optional path is a route under the router root: empty for the post list,
posts/<id> for a single post. Scroll to load more posts, select links with
tab, and press c on a post to write a comment.`,
		Example: `  # Open the post list
  blogview read

  # Open a single post
  blogview read posts/3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, args, noMouse)
		},
	}

	cmd.Flags().BoolVar(&noMouse, "no-mouse", false, "disable mouse tracking")
	return cmd
}

func runRead(cmd *cobra.Command, args []string, noMouse bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !ui.SetThemeByName(cfg.Output.Theme) {
		return fmt.Errorf("unknown theme: %s", cfg.Output.Theme)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	sched := ui.NewScheduler()
	b, err := openBlog(ctx, cfg, sched, false)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Templates.Watch {
		if err := watchTemplates(ctx, b); err != nil {
			return err
		}
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	err = ui.Run(b.runtime, sched, ui.Options{
		Title:     "BlogView",
		StartPath: path,
		Mouse:     cfg.Output.Mouse && !noMouse,
	})

	if isVerbose() {
		fmt.Fprint(os.Stderr, b.session.Snapshot().Summary())
	}
	return err
}

// watchTemplates drops cached views as their files change on disk
func watchTemplates(ctx context.Context, b *blog) error {
	invalidated, err := b.cache.Watch(ctx, b.cfg.Templates.Dir)
	if err != nil {
		return err
	}
	go func() {
		for view := range invalidated {
			b.log.DebugWithFields("view reloads on next render", []logger.Field{logger.View(view)})
		}
	}()
	return nil
}
