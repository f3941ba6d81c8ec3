package main

import (
	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past conversions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.ensureTracker(cmd)
			if err != nil {
				return err
			}
			return writeEntries(cmd, format, tracker.History(),
				"No conversion history yet. Convert your first PDF file!")
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or yaml")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete the whole conversion history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.ensureTracker(cmd)
			if err != nil {
				return err
			}
			return tracker.ClearHistory()
		},
	})
	return cmd
}

func newRecentCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent successful conversions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.ensureTracker(cmd)
			if err != nil {
				return err
			}
			return writeEntries(cmd, format, tracker.RecentDownloads(), "No recent downloads.")
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or yaml")
	return cmd
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "download <id>...",
		Short: "Download converted files by history id (a unique prefix is enough)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.ensureTracker(cmd)
			if err != nil {
				return err
			}
			entries := tracker.History()
			for _, ref := range args {
				id, err := resolveEntryID(entries, ref)
				if err != nil {
					return err
				}
				if err := tracker.DownloadEntry(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
