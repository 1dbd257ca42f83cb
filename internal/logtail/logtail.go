package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed slog text-handler line.
type Entry struct {
	Time    string
	Level   slog.Level
	Message string
	Attrs   []Attr
	Raw     string
}

// Attr is a key=value pair after the message.
type Attr struct {
	Key   string
	Value string
}

// Parse splits a text-handler line into its fields. Lines that are not in
// key=value form come back with only Raw and Level INFO set.
func Parse(line string) Entry {
	e := Entry{Raw: line, Level: slog.LevelInfo}
	for _, kv := range fields(line) {
		switch kv.Key {
		case "time":
			e.Time = kv.Value
		case "level":
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(kv.Value)); err == nil {
				e.Level = lvl
			}
		case "msg":
			e.Message = kv.Value
		default:
			e.Attrs = append(e.Attrs, kv)
		}
	}
	if e.Message == "" && e.Time == "" {
		e.Message = line
	}
	return e
}

// Filter parses lines and keeps those at or above min.
func Filter(lines []string, min slog.Level) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e := Parse(line)
		if e.Level >= min {
			out = append(out, e)
		}
	}
	return out
}

// fields tokenizes logfmt as written by slog.TextHandler: bare values or
// double-quoted values with backslash escapes.
func fields(line string) []Attr {
	var out []Attr
	i := 0
	for i < len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		eq := strings.IndexByte(line[i:], '=')
		if eq <= 0 {
			break
		}
		key := line[i : i+eq]
		if strings.ContainsRune(key, ' ') {
			break
		}
		i += eq + 1
		var val string
		if i < len(line) && line[i] == '"' {
			var b strings.Builder
			i++
			for i < len(line) && line[i] != '"' {
				if line[i] == '\\' && i+1 < len(line) {
					i++
					switch line[i] {
					case 'n':
						b.WriteByte('\n')
					case 't':
						b.WriteByte('\t')
					default:
						b.WriteByte(line[i])
					}
				} else {
					b.WriteByte(line[i])
				}
				i++
			}
			i++
			val = b.String()
		} else {
			end := strings.IndexByte(line[i:], ' ')
			if end < 0 {
				end = len(line) - i
			}
			val = line[i : i+end]
			i += end
		}
		out = append(out, Attr{Key: key, Value: val})
	}
	return out
}
