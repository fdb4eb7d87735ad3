package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/yildizm/BlogView/internal/app"
	"github.com/yildizm/BlogView/internal/notify"
)

func newCommentCommand() *cobra.Command {
	var (
		author  string
		content string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "comment <post-id>",
		Short: "Post a comment on a blog post",
		Long: `Open a post, fill in its comment form and submit it.

The form comes from the post's view, so the same validation and
notifications apply as in the interactive reader.`,
		Example: `  blogview comment 3 --author Ada --content "Nice post"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid post id: %s", args[0])
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runComment(ctx, cmd, id, author, content)
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "comment author name")
	cmd.Flags().StringVar(&content, "content", "", "comment text")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}

func runComment(ctx context.Context, cmd *cobra.Command, id int, author, content string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sched := app.NewSyncScheduler()
	b, err := openBlog(ctx, cfg, sched, true)
	if err != nil {
		return err
	}
	defer b.Close()

	rt := b.runtime
	if err := rt.Start(fmt.Sprintf("posts/%d", id)); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if post := rt.Detail().Model(); post == nil || post.ID != id || rt.Detail().Form() == nil {
		printNotifications(cmd, rt.Queue().Items())
		return fmt.Errorf("post %d has no comment form", id)
	}

	rt.Detail().SetField("author_name", author)
	rt.Detail().SetField("content", content)
	submitErr := rt.Submit()

	items := rt.Queue().Items()
	printNotifications(cmd, items)
	if submitErr != nil {
		return submitErr
	}
	for _, it := range items {
		if it.Kind == notify.KindError {
			return errors.New(it.Message)
		}
	}
	fmt.Fprintf(out, "%s %d comments on post %d\n", GetEmoji("comment"), len(rt.Detail().Model().Comments), id)
	return nil
}

func printNotifications(cmd *cobra.Command, items []notify.Item) {
	for _, it := range items {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", GetStatusEmoji(it.Kind != notify.KindError), it.Message)
	}
}
