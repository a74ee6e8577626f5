package main

import (
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run daily collection and forecasting on the configured cron",
	RunE:  runSchedule,
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	rt, err := buildRuntime(loadConfig())
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	cmd.Printf("scheduling %s (%s)\n", rt.cfg.Scheduler.CronExpression, rt.cfg.Scheduler.Location())
	return rt.schedule(ctx)
}
