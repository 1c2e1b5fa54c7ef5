/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ssargent/drivelog/pkg/codec"
)

// recordView is the printable form of a log record
type recordView struct {
	Index     int64  `json:"index"`
	Type      string `json:"type"`
	Received  uint64 `json:"received"`
	MessageID *uint8 `json:"message_id,omitempty"`
	Sent      uint64 `json:"sent,omitempty"`
	RTT       string `json:"rtt,omitempty"`
	Left      *int   `json:"left_speed,omitempty"`
	Right     *int   `json:"right_speed,omitempty"`
}

func newRecordView(index int64, rec codec.LogRecord) recordView {
	v := recordView{Index: index, Type: rec.LogType().String(), Received: rec.Received()}
	switch r := rec.(type) {
	case *codec.FeedbackLog:
		id := r.MessageID
		v.MessageID = &id
		v.Sent = r.SentTimestamp
		v.RTT = roundTrip(r).String()
	case *codec.CommandLog:
		left, right := r.Speeds()
		v.Left, v.Right = &left, &right
	}
	return v
}

// roundTrip is the time between sending a message and logging its feedback.
// Clock skew can make it negative.
func roundTrip(r *codec.FeedbackLog) time.Duration {
	return time.Duration(int64(r.ReceivedTimestamp - r.SentTimestamp))
}

// recordPrinter streams records as a table or as JSON lines
type recordPrinter struct {
	format string
	out    io.Writer
	table  *tabwriter.Writer
	enc    *json.Encoder
}

func newRecordPrinter(out io.Writer, format string) (*recordPrinter, error) {
	p := &recordPrinter{format: format, out: out}
	switch format {
	case "table":
		p.table = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(p.table, "#\tTYPE\tRECEIVED\tMESSAGE\tSENT\tRTT\tLEFT\tRIGHT")
	case "json":
		p.enc = json.NewEncoder(out)
	default:
		return nil, fmt.Errorf("unknown format %q (want table or json)", format)
	}
	return p, nil
}

func (p *recordPrinter) print(v recordView) error {
	if p.enc != nil {
		return p.enc.Encode(v)
	}
	rtt := v.RTT
	if rtt == "" {
		rtt = "-"
	}
	_, err := fmt.Fprintf(p.table, "%d\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
		v.Index, v.Type, v.Received,
		optUint8(v.MessageID), optUint64(v.Sent), rtt,
		optInt(v.Left), optInt(v.Right))
	return err
}

func (p *recordPrinter) flush() error {
	if p.table != nil {
		return p.table.Flush()
	}
	return nil
}

func optUint8(v *uint8) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func optUint64(v uint64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprint(v)
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
