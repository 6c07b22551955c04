package main

import (
	"context"
	"fmt"
	"time"

	"heartbridge/internal/feed"
	"heartbridge/internal/models"

	"github.com/spf13/cobra"
)

// loadPages keeps calling loadMore until pages pages are loaded or none remain.
func loadPages(ctx context.Context, pages int, hasMore func() bool, loadMore func(context.Context) error) error {
	for i := 1; i < pages && hasMore(); i++ {
		if err := loadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}

func newArticlesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "articles",
		Aliases: []string{"a"},
		Short:   "Browse and write articles",
	}

	var role string
	var pages int
	list := &cobra.Command{
		Use:   "list",
		Short: "List articles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if role != "" && !models.Role(role).Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if err := a.start(ctx, false); err != nil {
				return err
			}
			f := a.articleFeed()
			if err := f.FetchArticles(ctx, feed.Filters{Role: models.Role(role)}); err != nil {
				return err
			}
			if err := loadPages(ctx, pages, f.HasMore, f.LoadMore); err != nil {
				return err
			}
			printArticles(a.out, f.Articles(), f.HasMore(), time.Now())
			return nil
		},
	}
	list.Flags().StringVar(&role, "role", "", "only articles by parents or teens")
	list.Flags().IntVar(&pages, "pages", 1, "number of pages to fetch")

	var minePages int
	mine := &cobra.Command{
		Use:   "mine",
		Short: "List the signed-in member's articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			if _, err := a.requireSignIn(); err != nil {
				return err
			}
			f := a.articleFeed()
			if err := f.FetchUserArticles(ctx); err != nil {
				return err
			}
			if err := loadPages(ctx, minePages, f.HasMore, f.LoadMore); err != nil {
				return err
			}
			printArticles(a.out, f.Articles(), f.HasMore(), time.Now())
			return nil
		},
	}
	mine.Flags().IntVar(&minePages, "pages", 1, "number of pages to fetch")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an article and its first comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			article, err := a.articleFeed().Article(ctx, args[0])
			if err != nil {
				return err
			}
			now := time.Now()
			printArticle(a.out, article, now)

			thread := a.commentThread()
			if err := thread.FetchComments(ctx, article.ID); err != nil {
				return err
			}
			fmt.Fprintln(a.out)
			printComments(a.out, thread.Comments(), thread.HasMore(), now)
			return nil
		},
	}

	var in models.ArticleInput
	create := &cobra.Command{
		Use:   "new",
		Short: "Publish an article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			id, err := a.articleFeed().CreateArticle(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Published article %s.\n", id)
			return nil
		},
	}
	create.Flags().StringVar(&in.Title, "title", "", "article title")
	create.Flags().StringVar(&in.Content, "content", "", "article body")
	create.Flags().StringSliceVar(&in.Tags, "tags", nil, "comma separated tags")
	_ = create.MarkFlagRequired("title")
	_ = create.MarkFlagRequired("content")

	var title, content string
	var tags []string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title, body or tags of one of your articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var patch models.ArticlePatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			if cmd.Flags().Changed("tags") {
				patch.Tags = &tags
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to change; pass --title, --content or --tags")
			}
			if err := a.start(ctx, false); err != nil {
				return err
			}
			if err := a.articleFeed().UpdateArticle(ctx, args[0], patch); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated article %s.\n", args[0])
			return nil
		},
	}
	edit.Flags().StringVar(&title, "title", "", "new title")
	edit.Flags().StringVar(&content, "content", "", "new body")
	edit.Flags().StringSliceVar(&tags, "tags", nil, "new comma separated tags")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your articles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.start(ctx, false); err != nil {
				return err
			}
			if err := a.articleFeed().DeleteArticle(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted article %s.\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, mine, show, create, edit, del)
	return cmd
}
