package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tzdiff/internal/calendar"
	appLog "tzdiff/internal/log"
)

var (
	exportStart  string
	exportEnd    string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <location 1> <location 2>",
	Short: "Write the offset changes as an iCalendar file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := computeFromArgs(cmd, args, exportStart, exportEnd)
		if err != nil {
			return err
		}
		events := calendar.ToEvents(res)
		opts := calendar.Options{
			ProductID: conf.Calendar.ProductID,
			Name:      conf.Calendar.Name,
		}

		if exportOutput == "" || exportOutput == "-" {
			return calendar.WriteICS(cmd.OutOrStdout(), events, opts)
		}

		if err := writeICSFile(exportOutput, func(f *os.File) error {
			return calendar.WriteICS(f, events, opts)
		}); err != nil {
			return err
		}
		appLog.Info("calendar written", "path", exportOutput, "events", len(events))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addRangeFlags(exportCmd, &exportStart, &exportEnd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "Output file, - for stdout")
}

// writeICSFile writes through a temp file in the target directory and
// renames it into place. A failed export leaves no file behind.
func writeICSFile(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tzdiff-export-*.tmp")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return os.Rename(tmpName, path)
}
