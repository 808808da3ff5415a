package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tansive/dahuarpc/pkg/dahua"
)

// timeLayouts are accepted by --start and --end besides Unix seconds and
// durations.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseTimeArg reads an absolute time, Unix seconds, or a duration meaning
// that long before now. Layouts without a zone are read in local time.
func parseTimeArg(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "now" {
		return now, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return now.Add(-d), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Search stored records",
	Long: `Search a record table between two times. Times are Unix seconds, dates such as
"2019-05-27 10:00:00", or durations counted back from now.

Examples:
  # Plate recognitions of the last 24 hours
  dahuarpc find --start 24h

  # Every record of a day, fetched in pages of 500
  dahuarpc find --start 2019-05-27 --end 2019-05-28 --count 500 --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		startArg, _ := cmd.Flags().GetString("start")
		endArg, _ := cmd.Flags().GetString("end")
		count, _ := cmd.Flags().GetInt("count")
		finderName, _ := cmd.Flags().GetString("finder")
		all, _ := cmd.Flags().GetBool("all")

		now := time.Now()
		start, err := parseTimeArg(startArg, now)
		if err != nil {
			return err
		}
		end, err := parseTimeArg(endArg, now)
		if err != nil {
			return err
		}
		if end.Before(start) {
			return fmt.Errorf("--end %s precedes --start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
		}

		return withSession(cmd, func(ctx context.Context, s *dahua.Session) error {
			records, err := findRecords(ctx, s, finderName, start, end, count, all)
			if err != nil {
				return err
			}
			if jsonOutput {
				printJSON(cmd.OutOrStdout(), map[string]any{"found": len(records), "records": records})
				return nil
			}
			printRecords(cmd.OutOrStdout(), records)
			return nil
		})
	},
}

// findRecords runs one search. With all set it keeps fetching pages until
// the device returns an empty one.
func findRecords(ctx context.Context, s *dahua.Session, finderName string, start, end time.Time, count int, all bool) ([]map[string]any, error) {
	finder, err := s.CreateFinder(ctx, finderName)
	if err != nil {
		return nil, err
	}
	if err := s.StartFind(ctx, finder, dahua.TimeCondition(start, end)); err != nil {
		return nil, err
	}

	var records []map[string]any
	for {
		page, err := s.DoFind(ctx, finder, count)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if !all || page.Found == 0 || page.Found < count {
			return records, nil
		}
	}
}

func init() {
	findCmd.Flags().String("start", "24h", "Start of the search window")
	findCmd.Flags().String("end", "now", "End of the search window")
	findCmd.Flags().Int("count", 100, "Records fetched per page")
	findCmd.Flags().String("finder", dahua.TrafficSnapFinder, "Record table to search")
	findCmd.Flags().Bool("all", false, "Fetch pages until the search is exhausted")

	rootCmd.AddCommand(findCmd)
}
