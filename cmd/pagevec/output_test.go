package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/helixml/pagevec/domain/page"
	"github.com/helixml/pagevec/domain/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    outputFormat
		wantErr bool
	}{
		{"", formatTable, false},
		{"table", formatTable, false},
		{"JSON", formatJSON, false},
		{" yaml ", formatYAML, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := parseOutputFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "猫猫...", truncate("猫猫猫", 2))
	assert.Equal(t, "a b c", oneLine("a\n  b\tc "))
}

func testMatchPage(id int64, url, title string) page.Page {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	return page.ReconstructPage(id, url, title, "content", page.Metadata{}, []float64{1, 0, 0}, ts, ts)
}

func TestPrintSearch_Table(t *testing.T) {
	outcome := search.NewOutcome([]search.Match{
		search.NewMatch(testMatchPage(1, "https://a", "Alpha"), 0.1),
		search.NewMatch(testMatchPage(2, "https://b", "Beta"), 0.5),
	})

	var buf bytes.Buffer
	require.NoError(t, printSearch(&buf, formatTable, toSearchRecord("q", outcome)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SIMILARITY")
	assert.Contains(t, lines[1], "90.0%")
	assert.Contains(t, lines[1], "https://a")
	assert.Contains(t, lines[2], "50.0%")
}

func TestPrintSearch_DegradedAndEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printSearch(&buf, formatTable, toSearchRecord("cats", search.NewDegradedOutcome(errors.New("scan")))))
	assert.Contains(t, buf.String(), "warning")
	assert.Contains(t, buf.String(), `No pages found for "cats"`)
}

func TestPrintPages_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPages(&buf, formatTable, nil))
	assert.Equal(t, "No pages stored\n", buf.String())
}

func TestPrintPage_Table(t *testing.T) {
	p := page.ReconstructPage(
		7, "https://example.com", "Example", "body text",
		page.Metadata{page.MetadataAIParsed: map[string]any{"summary": "A summary"}},
		nil,
		time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	)

	var buf bytes.Buffer
	require.NoError(t, printPage(&buf, formatTable, toPageRecord(p, true)))

	out := buf.String()
	assert.Contains(t, out, "ID:      7\n")
	assert.Contains(t, out, "Stored:  2024-01-02 03:04:05\n")
	assert.Contains(t, out, "Summary:\nA summary\n")
	assert.Contains(t, out, "Content:\nbody text\n")
}
