package report

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"xferbench/internal/model"
	"xferbench/internal/results"
)

// PrintSummary writes the transfer analysis summary block.
func PrintSummary(w io.Writer, items []model.TransferResult) {
	p := message.NewPrinter(language.English)
	s := results.Summarize(items)

	p.Fprintf(w, "\n=== TRANSFER ANALYSIS SUMMARY ===\n")
	p.Fprintf(w, "Files tested: %d\n", s.Count)
	if s.Count == 0 {
		return
	}
	p.Fprintf(w, "File size range: %.3f MB - %.3f MB\n", s.MinSizeMB, s.MaxSizeMB)
	p.Fprintf(w, "Transfer time range: %.4fs - %.4fs\n", s.MinTimeS, s.MaxTimeS)
	p.Fprintf(w, "Throughput range: %.2f Mbps - %.2f Mbps\n", s.MinThroughputMbps, s.MaxThroughputMbps)
	p.Fprintf(w, "Average throughput: %.2f Mbps\n", s.AvgThroughputMbps)
}

// PrintResults writes one aligned row per transfer.
func PrintResults(w io.Writer, items []model.TransferResult) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "%-20s  %14s  %12s  %14s\n", "FILE", "SIZE_BYTES", "TIME_S", "THROUGHPUT")
	for _, r := range items {
		p.Fprintf(w, "%-20s  %14d  %12.4f  %9.2f Mbps\n",
			r.Filename, int64(r.FileSizeMB*model.BytesPerMB), r.TransferTimeS, r.ThroughputMbps)
	}
}

// PrintRuns writes the run history table.
func PrintRuns(w io.Writer, runs []model.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return
	}
	fmt.Fprintf(w, "%-18s  %-20s  %-16s  %-5s  %-5s  %-12s  %s\n",
		"ID", "STARTED", "HOST", "OK", "FAIL", "AVG_MBPS", "ERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%-18s  %-20s  %-16s  %-5d  %-5d  %-12.2f  %s\n",
			r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Host.Hostname,
			r.Succeeded, r.Failed, r.AvgThroughputMbps, r.Error)
	}
}
