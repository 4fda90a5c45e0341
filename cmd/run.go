// File: cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xkilldash9x/dailyembed/internal/config"
	"github.com/xkilldash9x/dailyembed/internal/editor"
	"github.com/xkilldash9x/dailyembed/internal/feed"
	"github.com/xkilldash9x/dailyembed/internal/observability"
	"github.com/xkilldash9x/dailyembed/internal/workflow"
	"go.uber.org/zap"
)

// Seams replaced in tests.
var (
	newFeedResolver = func(cfg config.FeedConfig, logger *zap.Logger) feed.Resolver {
		return feed.NewClient(cfg, feed.NewHTTPClient(cfg.Timeout), logger)
	}
	launchBrowser workflow.Launcher = workflow.ChromeLauncher
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var (
		day         int
		dryRun      bool
		headless    bool
		buttonIndex int
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Logs in, opens today's entry and makes sure it embeds the latest video",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFrom(ctx)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("day") {
				cfg.SetTargetDay(day)
			}
			if flags.Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}
			if flags.Changed("video-button-index") {
				cfg.SetEditorVideoButtonIndex(buttonIndex)
			}
			cfg.SetRunConfig(config.RunConfig{DryRun: dryRun})
			// Flags may have moved values out of range.
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := observability.GetLogger()
			runner := workflow.NewRunner(cfg, newFeedResolver(cfg.Feed(), logger), launchBrowser, logger)
			res, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case !res.Saved:
				fmt.Fprintf(out, "Dry run: day %d would embed %s (%s); nothing saved.\n", res.Day, res.Video.EmbedURL(), res.Outcome)
			case res.Outcome == editor.AlreadyPresent:
				fmt.Fprintf(out, "Day %d already embeds %s; entry saved.\n", res.Day, res.Video.EmbedURL())
			default:
				fmt.Fprintf(out, "Day %d now embeds %s; entry saved.\n", res.Day, res.Video.EmbedURL())
			}
			return nil
		},
	}

	runCmd.Flags().IntVar(&day, "day", 0, "day of month to update (default: today in target.timezone)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "do everything except the final save click")
	runCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	runCmd.Flags().IntVar(&buttonIndex, "video-button-index", 0, "index of the unlabeled toolbar control that opens the video dialog")
	return runCmd
}
