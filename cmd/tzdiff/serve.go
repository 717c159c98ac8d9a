package main

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "tzdiff/internal/log"
	"tzdiff/internal/session"
	"tzdiff/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the difference API over HTTP",
	Long: `Serve JSON and iCalendar endpoints for offset changes, plus /health and
/metrics. With "reload" set in the config, the dataset is reloaded on that
cron schedule without interrupting requests.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveListen != "" {
			conf.Listen = serveListen
		}
		ctx := cmd.Context()

		idx, err := loadIndex(ctx)
		if err != nil {
			return err
		}
		sess := session.New(idx, nil)
		srv := web.NewServer(conf, sess)

		if conf.Reload != "" {
			c := cron.New()
			if _, err := c.AddFunc(conf.Reload, func() { reloadDataset(ctx, sess, srv) }); err != nil {
				return fmt.Errorf("schedule dataset reload: %w", err)
			}
			c.Start()
			defer c.Stop()
			appLog.Info("dataset reload scheduled", "schedule", conf.Reload)
		}

		err = srv.Run(ctx)
		appLog.Info("tzdiff serve exiting")
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "HTTP listen address (overrides config)")
}

// reloadDataset swaps in a freshly loaded index. On failure the current
// index stays in place.
func reloadDataset(ctx context.Context, sess *session.Session, srv *web.Server) {
	idx, err := loadIndex(ctx)
	if err != nil {
		appLog.Error("scheduled dataset reload failed; keeping current index", err)
		return
	}
	sess.SetIndex(idx)
	srv.InvalidateResults()
}
