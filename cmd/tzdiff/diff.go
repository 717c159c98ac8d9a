package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tzdiff/internal/model"
	"tzdiff/internal/offset"
	"tzdiff/internal/session"
)

// rowDateLayout renders change point dates as "Sat Mar 11 2023".
const rowDateLayout = "Mon Jan 2 2006"

var (
	diffStart string
	diffEnd   string
	diffJSON  bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <location 1> <location 2>",
	Short: "List the dates on which the hour difference changes",
	Long: `List every date in the range on which the whole-hour difference between
two locations changes. Locations are "City", "City, Country" or
"City, Province, Country", for example "Springfield, IL, US".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := computeFromArgs(cmd, args, diffStart, diffEnd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if diffJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		writeHeader(out, res)
		writeRows(out, res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	addRangeFlags(diffCmd, &diffStart, &diffEnd)
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Print the full result as JSON")
}

// addRangeFlags registers --start and --end. Both default to empty, which
// computeFromArgs reads as today and one year from the start.
func addRangeFlags(cmd *cobra.Command, start, end *string) {
	cmd.Flags().StringVarP(start, "start", "s", "", "First date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(end, "end", "e", "", "Last date, YYYY-MM-DD (default one year after start)")
}

func computeFromArgs(cmd *cobra.Command, args []string, start, end string) (*model.DifferenceResult, error) {
	start, end = defaultRange(start, end, time.Now())

	idx, err := loadIndex(cmd.Context())
	if err != nil {
		return nil, err
	}
	return session.New(idx, nil).ComputeRaw(cmd.Context(), args[0], args[1], start, end)
}

// defaultRange fills an empty start with today and an empty end with the
// same day one year after start. Unparseable values are passed through
// for ComputeRaw to reject.
func defaultRange(start, end string, now time.Time) (string, string) {
	if start == "" {
		start = civil.DateOf(now).String()
	}
	if end == "" {
		if s, err := civil.ParseDate(start); err == nil {
			end = civil.DateOf(s.In(time.UTC).AddDate(1, 0, 0)).String()
		} else {
			end = start
		}
	}
	return start, end
}

// writeHeader prints both resolved locations with their UTC offsets on the
// first day of the range.
func writeHeader(w io.Writer, res *model.DifferenceResult) {
	bold := color.New(color.Bold).SprintFunc()
	for _, loc := range []struct {
		label string
		rec   model.LocationRecord
	}{{res.Label1, res.Location1}, {res.Label2, res.Location2}} {
		zone := loc.rec.Timezone
		if l, err := time.LoadLocation(zone); err == nil {
			zone += ", " + offset.FormatOffset(offset.UTCOffset(l, res.Range.Start))
		}
		fmt.Fprintf(w, "%s  %s, %s, %s (%s)\n", bold(loc.label), loc.rec.City, loc.rec.Province, loc.rec.ISO2, zone)
	}
	fmt.Fprintln(w)
}

// writeRows prints one row per change point: the date, then the display
// line. The closing sentinel row carries the date only.
func writeRows(w io.Writer, res *model.DifferenceResult) {
	dateColor := color.New(color.FgCyan).SprintFunc()
	lineColor := color.New(color.FgYellow).SprintFunc()

	line := 0
	for _, p := range res.ChangePoints {
		date := p.Date.In(time.UTC).Format(rowDateLayout)
		if p.IsSentinel() || line >= len(res.DisplayLines) {
			fmt.Fprintln(w, dateColor(date))
			continue
		}
		fmt.Fprintf(w, "%s  |  %s\n", dateColor(date), lineColor(res.DisplayLines[line]))
		line++
	}
}
