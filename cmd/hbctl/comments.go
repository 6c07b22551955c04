package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newCommentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"c"},
		Short:   "Read and write comments",
	}

	var pages int
	list := &cobra.Command{
		Use:   "list <article-id>",
		Short: "List the comments on an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			thread := a.commentThread()
			if err := thread.FetchComments(ctx, args[0]); err != nil {
				return err
			}
			if err := loadPages(ctx, pages, thread.HasMore, thread.LoadMore); err != nil {
				return err
			}
			printComments(a.out, thread.Comments(), thread.HasMore(), time.Now())
			return nil
		},
	}
	list.Flags().IntVar(&pages, "pages", 1, "number of pages to fetch")

	mine := &cobra.Command{
		Use:   "mine",
		Short: "List the signed-in member's comments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			if _, err := a.requireSignIn(); err != nil {
				return err
			}
			thread := a.commentThread()
			if err := thread.FetchUserComments(ctx); err != nil {
				return err
			}
			printComments(a.out, thread.Comments(), thread.HasMore(), time.Now())
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <article-id> <text...>",
		Short: "Comment on an article",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			id, err := a.commentThread().CreateComment(ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Posted comment %s.\n", id)
			return nil
		},
	}

	edit := &cobra.Command{
		Use:   "edit <comment-id> <text...>",
		Short: "Replace the text of one of your comments",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			if err := a.commentThread().UpdateComment(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated comment %s.\n", args[0])
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			if err := a.commentThread().DeleteComment(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted comment %s.\n", args[0])
			return nil
		},
	}

	like := &cobra.Command{
		Use:   "like <comment-id>",
		Short: "Like a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			if err := a.commentThread().LikeComment(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Liked comment %s.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, mine, add, edit, del, like)
	return cmd
}
