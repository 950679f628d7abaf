package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bookshelf/internal/browse"
	"bookshelf/internal/catalog"
	"bookshelf/internal/highlights"
)

var (
	browseCategory string
	browseQuery    string
	browsePages    int
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Print pages of a subject or search listing",
	Example: `  bookshelf browse --category fantasy --pages 2
  bookshelf browse -q "ursula le guin"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client := catalog.NewClient(cfg.Catalog, logger)
		sess := browse.NewSession(client, browse.Options{
			PageSize:        cfg.Browse.PageSize,
			MaxFetch:        cfg.Browse.MaxFetch,
			CachePages:      cfg.Browse.CachePages,
			DefaultCategory: client.DefaultCategory(),
		}, logger)

		st := sess.Load(ctx, browseCategory, browseQuery)
		out := cmd.OutOrStdout()
		for i := 0; i < browsePages; i++ {
			if i > 0 {
				next := sess.NextPage(ctx)
				if next.Offset == st.Offset {
					break
				}
				st = next
			}
			printPage(out, st, sess.PageSize())
		}
		return nil
	},
}

var highlightsCmd = &cobra.Command{
	Use:   "highlights",
	Short: "Compute and print the highlight cards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := catalog.NewClient(cfg.Catalog, logger)
		items := highlights.NewAggregator(client, logger).Compute(cmd.Context())
		out := cmd.OutOrStdout()
		for _, h := range items {
			fmt.Fprintf(out, "%-13s %-12s %s\n", h.ID, h.Title, h.Description)
		}
		return nil
	},
}

func printPage(w io.Writer, st browse.State, pageSize int) {
	if st.Status == browse.StatusEmpty {
		fmt.Fprintln(w, "No books found.")
		return
	}
	heading := st.Category
	if st.Searching() {
		heading = fmt.Sprintf("%q", st.SearchTerm)
	}
	fmt.Fprintf(w, "%s - page %d of %d (%d books)\n", heading, st.Page(pageSize)+1, st.PageCount(pageSize), st.TotalFound)
	for i, b := range st.CurrentBooks {
		fmt.Fprintf(w, "%4d. %s, %s (%s)\n", st.Offset+i+1, b.Title, b.AuthorName, b.FirstPublishYear)
	}
}
