package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"heartbridge/internal/format"
	"heartbridge/internal/models"
)

const previewLength = 40

func printArticles(w io.Writer, articles []models.Article, hasMore bool, now time.Time) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROLE\tTITLE\tLIKES\tCOMMENTS\tPOSTED")
	for _, a := range articles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID,
			format.RoleName(a.AuthorRole),
			format.Truncate(a.Title, previewLength, "..."),
			format.CompactNumber(float64(a.Likes)),
			format.CompactNumber(float64(a.CommentCount)),
			format.RelativeTime(a.CreatedAt, now),
		)
	}
	_ = tw.Flush()
	if hasMore {
		fmt.Fprintln(w, "(more available, use --pages to fetch further)")
	}
}

func printArticle(w io.Writer, a *models.Article, now time.Time) {
	fmt.Fprintf(w, "%s\n%s · %s", a.Title, format.RoleName(a.AuthorRole), format.RelativeTime(a.CreatedAt, now))
	if len(a.EditHistory) > 0 {
		fmt.Fprintf(w, " · 已編輯 %d 次", len(a.EditHistory))
	}
	fmt.Fprintln(w)
	if len(a.Tags) > 0 {
		tags := make([]string, len(a.Tags))
		for i, t := range a.Tags {
			tags[i] = "#" + t
		}
		fmt.Fprintln(w, strings.Join(tags, " "))
	}
	fmt.Fprintf(w, "\n%s\n\n♥ %s  💬 %s\n", a.Content, format.Number(float64(a.Likes)), format.Number(float64(a.CommentCount)))
}

func printComments(w io.Writer, comments []models.Comment, hasMore bool, now time.Time) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAUTHOR\tCOMMENT\tLIKES\tPOSTED")
	for _, c := range comments {
		fmt.Fprintf(tw, "%s\t%s (%s)\t%s\t%d\t%s\n",
			c.ID,
			c.AuthorName,
			format.RoleName(c.AuthorRole),
			format.Truncate(c.Content, previewLength, "..."),
			c.Likes,
			format.RelativeTime(c.CreatedAt, now),
		)
	}
	_ = tw.Flush()
	if hasMore {
		fmt.Fprintln(w, "(more available, use --pages to fetch further)")
	}
}
