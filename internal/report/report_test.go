package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"xferbench/internal/model"
)

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, []model.TransferResult{
		{Filename: "a", FileSizeMB: 1, TransferTimeS: 0.5, ThroughputMbps: 16},
		{Filename: "b", FileSizeMB: 10, TransferTimeS: 2, ThroughputMbps: 40},
	})
	out := buf.String()
	for _, want := range []string{
		"=== TRANSFER ANALYSIS SUMMARY ===",
		"Files tested: 2",
		"File size range: 1.000 MB - 10.000 MB",
		"Transfer time range: 0.5000s - 2.0000s",
		"Throughput range: 16.00 Mbps - 40.00 Mbps",
		"Average throughput: 28.00 Mbps",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrintSummary_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, nil)
	if strings.Contains(buf.String(), "range") {
		t.Fatalf("unexpected ranges:\n%s", buf.String())
	}
}

func TestPrintResults_GroupsBytes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintResults(&buf, []model.TransferResult{{Filename: "test_1MB.dat", FileSizeMB: 1, TransferTimeS: 0.5, ThroughputMbps: 16}})
	if !strings.Contains(buf.String(), "1,048,576") {
		t.Fatalf("bytes not grouped:\n%s", buf.String())
	}
}

func TestPrintRuns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintRuns(&buf, nil)
	if strings.TrimSpace(buf.String()) != "no recorded runs" {
		t.Fatalf("got %q", buf.String())
	}

	buf.Reset()
	PrintRuns(&buf, []model.Run{{ID: "r1", StartedAt: time.Unix(0, 0), Succeeded: 4, Failed: 1, AvgThroughputMbps: 12.5}})
	if !strings.Contains(buf.String(), "r1") || !strings.Contains(buf.String(), "12.50") {
		t.Fatalf("got:\n%s", buf.String())
	}
}
