package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdf2word/backend/internal/client"
	"github.com/pdf2word/backend/internal/history"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var download bool
	var format string

	cmd := &cobra.Command{
		Use:   "convert <file.pdf>...",
		Short: "Upload PDF files as one batch and record the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := ctx.ensureTracker(cmd)
			if err != nil {
				return err
			}

			candidates := make([]client.Candidate, 0, len(args))
			for _, path := range args {
				c, err := client.CandidateFromPath(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				candidates = append(candidates, c)
			}

			tracker.AddFiles(candidates)
			if !tracker.CanSubmit() {
				return errors.New("no PDF files to convert")
			}

			batch, submitErr := tracker.SubmitBatch(cmd.Context())
			if submitErr != nil && !errors.Is(submitErr, history.ErrNotPersisted) {
				return submitErr
			}

			if download {
				for _, e := range batch {
					if !e.Downloadable() {
						continue
					}
					if err := tracker.DownloadEntry(cmd.Context(), e.ID); err != nil {
						return err
					}
				}
			}
			if err := writeEntries(cmd, format, batch, "No results returned."); err != nil {
				return err
			}
			return submitErr
		},
	}

	cmd.Flags().BoolVarP(&download, "download", "d", false, "download converted files into the output directory")
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json or yaml")
	return cmd
}
