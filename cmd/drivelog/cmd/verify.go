/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/drivelog/pkg/codec"
	"github.com/ssargent/drivelog/pkg/store"
)

// logSummary describes a whole feedback log
type logSummary struct {
	Path     string        `json:"path"`
	Records  int           `json:"records"`
	Feedback int           `json:"feedback"`
	Commands int           `json:"commands"`
	First    uint64        `json:"first_received,omitempty"`
	Last     uint64        `json:"last_received,omitempty"`
	MinRTT   time.Duration `json:"min_rtt_ns,omitempty"`
	MaxRTT   time.Duration `json:"max_rtt_ns,omitempty"`
	MeanRTT  time.Duration `json:"mean_rtt_ns,omitempty"`
	Ordered  bool          `json:"ordered"`
}

func summarize(path string, records []codec.LogRecord) logSummary {
	s := logSummary{Path: path, Records: len(records), Ordered: true}
	var total time.Duration
	for i, rec := range records {
		if i == 0 {
			s.First = rec.Received()
		} else if rec.Received() < s.Last {
			s.Ordered = false
		}
		s.Last = rec.Received()

		switch r := rec.(type) {
		case *codec.FeedbackLog:
			rtt := roundTrip(r)
			if s.Feedback == 0 || rtt < s.MinRTT {
				s.MinRTT = rtt
			}
			if s.Feedback == 0 || rtt > s.MaxRTT {
				s.MaxRTT = rtt
			}
			total += rtt
			s.Feedback++
		case *codec.CommandLog:
			s.Commands++
		}
	}
	if s.Feedback > 0 {
		s.MeanRTT = total / time.Duration(s.Feedback)
	}
	return s
}

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [log-file]",
	Short: "Check a feedback log and summarise it",
	Long: `Read a whole feedback log at once, check that it holds only complete,
known records and print a summary: record counts per type, the received
time range, whether received times are non-decreasing, and round trip times
of the feedback records.

A log whose size is not a multiple of the record size is rejected before
any record is decoded.

Examples:
  drivelog verify ./data/feedback.log
  drivelog verify --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := logPathArg(cmd, args)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		records, err := store.ReadAll(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		summary := summarize(path, records)

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Path:\t%s\n", summary.Path)
		fmt.Fprintf(w, "Records:\t%d\n", summary.Records)
		fmt.Fprintf(w, "Feedback:\t%d\n", summary.Feedback)
		fmt.Fprintf(w, "Commands:\t%d\n", summary.Commands)
		if summary.Records > 0 {
			fmt.Fprintf(w, "Received:\t%d .. %d\n", summary.First, summary.Last)
			fmt.Fprintf(w, "Ordered:\t%t\n", summary.Ordered)
		}
		if summary.Feedback > 0 {
			fmt.Fprintf(w, "RTT min/mean/max:\t%s / %s / %s\n", summary.MinRTT, summary.MeanRTT, summary.MaxRTT)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().Bool("json", false, "Print the summary as JSON")
}
