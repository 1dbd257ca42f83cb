package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || lines != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", lines, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Entry
	}{
		{
			name:  "text handler line",
			input: `time=2026-10-15T10:00:00.000Z level=WARN msg="thumbnail prioritization failed" paths=50 error="api /x: \"busy\""`,
			want: Entry{
				Time:    "2026-10-15T10:00:00.000Z",
				Level:   slog.LevelWarn,
				Message: "thumbnail prioritization failed",
				Attrs:   []Attr{{Key: "paths", Value: "50"}, {Key: "error", Value: `api /x: "busy"`}},
			},
		},
		{
			name:  "bare message",
			input: "panic: something odd",
			want:  Entry{Level: slog.LevelInfo, Message: "panic: something odd"},
		},
		{
			name:  "error level",
			input: "time=t level=ERROR msg=boom",
			want:  Entry{Time: "t", Level: slog.LevelError, Message: "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			tt.want.Raw = tt.input
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	lines := []string{
		"time=a level=DEBUG msg=noise",
		"time=b level=INFO msg=hello",
		"",
		"time=c level=WARN msg=careful",
		"time=d level=ERROR msg=broken",
	}

	got := Filter(lines, slog.LevelWarn)
	if len(got) != 2 || got[0].Message != "careful" || got[1].Message != "broken" {
		t.Fatalf("Filter() = %#v, want WARN and ERROR entries", got)
	}
	if all := Filter(lines, slog.LevelDebug); len(all) != 4 {
		t.Fatalf("Filter(debug) returned %d entries, want 4", len(all))
	}
}
