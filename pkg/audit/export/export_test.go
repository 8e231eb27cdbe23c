package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"janitor-hq/janitor/pkg/audit"
)

func records() []*audit.Record {
	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	return []*audit.Record{
		{ID: "a", RunID: "r", Pass: "soft", Action: "soft_delete", ContentType: "dashboard", ContentID: "1", Success: true, DryRun: true, Message: "Successfully soft deleted dashboard: 1", Timestamp: ts},
		{ID: "b", RunID: "r", Pass: "soft", Action: "soft_delete", ContentType: "look", ContentID: "9", Message: "error, with comma", Error: "boom", Timestamp: ts},
	}
}

func TestCSVExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), records(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "2026-02-03T04:05:06Z" || rows[1][8] != "true" || rows[1][9] != "true" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[2][10] != "error, with comma" || rows[2][11] != "boom" {
		t.Errorf("unexpected second row: %v", rows[2])
	}
}

func TestCSVExporter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), records()[:1], &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.HasPrefix(buf.String(), "id,") {
		t.Error("expected no header row")
	}
}

func TestCSVExporter_ExportStream(t *testing.T) {
	ch := make(chan *audit.Record, 2)
	for _, r := range records() {
		ch <- r
	}
	close(ch)

	var buf bytes.Buffer
	if err := NewCSVExporter(true).ExportStream(context.Background(), ch, &buf); err != nil {
		t.Fatalf("ExportStream failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil || len(rows) != 3 {
		t.Fatalf("expected 3 CSV rows, got %d (%v)", len(rows), err)
	}
}

func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(true).Export(context.Background(), records(), &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var got []audit.Record
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(got) != 2 || got[1].Error != "boom" {
		t.Errorf("unexpected records: %+v", got)
	}
}

func TestJSONExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty array, got %q", buf.String())
	}
}

func TestJSONExporter_ExportStream(t *testing.T) {
	for _, pretty := range []bool{false, true} {
		ch := make(chan *audit.Record, 2)
		for _, r := range records() {
			ch <- r
		}
		close(ch)

		var buf bytes.Buffer
		if err := NewJSONExporter(pretty).ExportStream(context.Background(), ch, &buf); err != nil {
			t.Fatalf("ExportStream failed: %v", err)
		}
		var got []audit.Record
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("pretty=%v: output is not a JSON array: %v\n%s", pretty, err, buf.String())
		}
		if len(got) != 2 {
			t.Errorf("pretty=%v: expected 2 records, got %d", pretty, len(got))
		}
	}
}

func TestExport_CancelledStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan *audit.Record)
	if err := NewJSONExporter(false).ExportStream(ctx, ch, &bytes.Buffer{}); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
