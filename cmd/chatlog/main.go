package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ai-chatlog/internal/config"
	"ai-chatlog/internal/scheduler"
	"ai-chatlog/internal/storage"
)

// inputLayout is the accepted format of --from and --to.
const inputLayout = "2006-01-02 15:04:05"

type options struct {
	config.LogConfig
}

func (o *options) store() (*storage.DailyFileStore, error) {
	loc, err := o.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return storage.NewDailyFileStore(o.LogsDir, storage.WithLocation(loc))
}

// newRootCmd builds the CLI. defaults seed --dir and --tz.
func newRootCmd(out io.Writer, now func() time.Time, defaults config.LogConfig) *cobra.Command {
	opts := &options{LogConfig: defaults}
	root := &cobra.Command{
		Use:           "chatlog",
		Short:         "chatlog - inspect the daily chat log partitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.LogsDir, "dir", defaults.LogsDir, "Chat log directory (LOGS_DIR)")
	root.PersistentFlags().StringVar(&opts.ReportTimezone, "tz", defaults.ReportTimezone, "IANA timezone of the partitions (REPORT_TIMEZONE)")

	var from, to string
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Print records between --from and --to (only --from's day is read)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.store()
			if err != nil {
				return err
			}
			start, err := time.ParseInLocation(inputLayout, from, st.Location())
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := time.ParseInLocation(inputLayout, to, st.Location())
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			for _, rec := range st.Query(start, end) {
				fmt.Fprintln(out, rec.Line)
			}
			return nil
		},
	}
	queryCmd.Flags().StringVar(&from, "from", "", "Range start, "+inputLayout)
	queryCmd.Flags().StringVar(&to, "to", "", "Range end, "+inputLayout)
	_ = queryCmd.MarkFlagRequired("from")
	_ = queryCmd.MarkFlagRequired("to")

	var date string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print one day's partition (default today)",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.store()
			if err != nil {
				return err
			}
			day := now().In(st.Location())
			if date != "" {
				if day, err = time.ParseInLocation(storage.DateLayout, date, st.Location()); err != nil {
					return fmt.Errorf("--date: %w", err)
				}
			}
			lines, err := st.ReadDay(day)
			if errors.Is(err, storage.ErrNoPartition) {
				fmt.Fprintf(out, "No logs found for date %s\n", day.Format(storage.DateLayout))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
	showCmd.Flags().StringVar(&date, "date", "", "Partition date, YYYY-MM-DD")

	var at string
	nextCmd := &cobra.Command{
		Use:   "next",
		Short: "Print the next fire of a daily schedule at --at (HH:MM)",
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := opts.Location()
			if err != nil {
				return fmt.Errorf("timezone: %w", err)
			}
			t, err := time.Parse("15:04", at)
			if err != nil {
				return fmt.Errorf("--at: %w", err)
			}
			s, err := scheduler.New(t.Hour(), t.Minute(), scheduler.WithLocation(loc))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, s.NextAfter(now()).Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
	nextCmd.Flags().StringVar(&at, "at", "21:00", "Daily fire time, HH:MM")

	root.AddCommand(queryCmd, showCmd, nextCmd)
	return root
}

func main() {
	_ = godotenv.Load(".env")
	defaults, err := config.ParseLogConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if err := newRootCmd(os.Stdout, time.Now, *defaults).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
