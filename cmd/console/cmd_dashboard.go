package main

import (
	"context"

	"github.com/nexusforge/console/pkg/dashboard"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show registry totals and recent uploads",
	RunE: withApp(true, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
		overview, err := dashboard.New(a.client, a.notifier).Overview(ctx)
		if err != nil {
			return err
		}

		printInfo("Factories:  %d", overview.Stats.Factories)
		printInfo("Algorithms: %d", overview.Stats.Algorithms)
		printInfo("Models:     %d", overview.Stats.Models)

		if len(overview.PerFactory) > 0 {
			printInfo("")
			t := newTable("FACTORY", "MODELS")
			for _, row := range overview.PerFactory {
				t.row(row.Factory, idString(int64(row.Count)))
			}
			t.flush()
		}

		if len(overview.PerAlgorithm) > 0 {
			printInfo("")
			t := newTable("ALGORITHM", "MODELS")
			for _, row := range overview.PerAlgorithm {
				t.row(row.Algorithm, idString(int64(row.Count)))
			}
			t.flush()
		}

		printInfo("")
		if len(overview.RecentFiles) == 0 {
			printInfo("No recent uploads.")
			return nil
		}
		printInfo("Recent uploads:")
		t := newTable("ID", "NAME", "TYPE", "MODEL", "UPLOADED")
		for _, f := range overview.RecentFiles {
			t.row(idString(f.ID), f.FileName, string(f.FileType), idString(f.ModelID), formatTime(f.CreatedAt))
		}
		t.flush()
		return nil
	}),
}
