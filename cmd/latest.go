// File: cmd/latest.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xkilldash9x/dailyembed/internal/observability"
)

// newLatestCmd prints the newest video from the feed without starting a
// browser.
func newLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "latest",
		Short:       "Prints the latest video from the channel feed",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipValidation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFrom(ctx)
			if err != nil {
				return err
			}

			entry, err := newFeedResolver(cfg.Feed(), observability.GetLogger()).Latest(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:        %s\n", entry.Video.ID())
			fmt.Fprintf(out, "canonical: %s\n", entry.Video.CanonicalURL())
			fmt.Fprintf(out, "embed:     %s\n", entry.Video.EmbedURL())
			if entry.Title != "" {
				fmt.Fprintf(out, "title:     %s\n", entry.Title)
			}
			if !entry.Published.IsZero() {
				fmt.Fprintf(out, "published: %s\n", entry.Published.Format("2006-01-02 15:04 MST"))
			}
			return nil
		},
	}
}
