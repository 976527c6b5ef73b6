package logging

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Tail returns the last n records of the log at path whose level is at
// least minLevel. A missing file yields no records.
func Tail(path string, n int, minLevel slog.Level) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, n)
	kept, next := 0, 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if level, ok := recordLevel(line); !ok || level < minLevel {
			continue
		}
		ring[next] = line
		next = (next + 1) % n
		if kept < n {
			kept++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	out := make([]string, 0, kept)
	start := 0
	if kept == n {
		start = next
	}
	for i := 0; i < kept; i++ {
		out = append(out, ring[(start+i)%n])
	}
	return out, nil
}

// recordLevel extracts the level attribute of a text handler record.
func recordLevel(line string) (slog.Level, bool) {
	for _, field := range strings.Fields(line) {
		value, found := strings.CutPrefix(field, "level=")
		if !found {
			continue
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(value)); err != nil {
			return 0, false
		}
		return level, true
	}
	return 0, false
}
