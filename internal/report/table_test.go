package report

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Category", "Score", "Max"}
	rows := [][]string{
		{"Token efficiency", "300.0", "300"},
		{"Trend", "50.0", "125"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Category          Score  Max" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Token efficiency  300.0  300" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Trend              50.0  125" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Icon", "Rank"}, [][]string{{"🚀", "Captain"}, {"x", "Pilot"}}, nil)
	if lines[1] != "🚀    Captain" {
		t.Fatalf("unexpected wide rune row: %q", lines[1])
	}
	if lines[2] != "x     Pilot" {
		t.Fatalf("unexpected row: %q", lines[2])
	}
}
