/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/drivelog/pkg/store"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump [log-file]",
	Short: "Print the records of a feedback log",
	Long: `Stream a feedback log and print one line per record. The log is read in
chunks, so files of any size are printed without loading them whole.

Records before a damaged or truncated tail are printed; the command then
fails with the reason.

Examples:
  drivelog dump ./data/feedback.log
  drivelog dump --format json --limit 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := logPathArg(cmd, args)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt64("limit")
		chunkSize, _ := cmd.Flags().GetInt("chunk-size")

		printer, err := newRecordPrinter(cmd.OutOrStdout(), format)
		if err != nil {
			return err
		}

		reader, err := store.NewLogReader(store.LogReaderConfig{FilePath: path, ChunkSize: chunkSize})
		if err != nil {
			return err
		}
		defer reader.Close()

		iter := reader.Iterator()
		defer iter.Close()

		var index int64
		for (limit <= 0 || index < limit) && iter.Next() {
			if err := printer.print(newRecordView(index, iter.Record())); err != nil {
				return err
			}
			index++
		}
		if err := printer.flush(); err != nil {
			return err
		}
		if err := iter.Err(); err != nil {
			if errors.Is(err, store.ErrTruncatedLog) {
				return fmt.Errorf("%s: %w", path, err)
			}
			return fmt.Errorf("%s: after %d records: %w", path, index, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().String("format", "table", "Output format (table, json)")
	dumpCmd.Flags().Int64("limit", 0, "Stop after this many records (0 prints all)")
	dumpCmd.Flags().Int("chunk-size", store.DefaultChunkSize, "Read size in bytes")
}

// logPathArg returns the log named on the command line, or the configured one
func logPathArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.LogPath(), nil
}
