package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Level is the severity parsed from a log line.
type Level int

const (
	LevelUnknown Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// Line is one tailed log line.
type Line struct {
	Text  string
	Level Level
	// Msg is the msg= value, or the whole text when the line is not key=value.
	Msg string
}

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
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

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if count < maxLines {
		return append([]string(nil), ring[:count]...), nil
	}
	lines := make([]string, maxLines)
	for i := range lines {
		lines[i] = ring[(idx+i)%maxLines]
	}
	return lines, nil
}

// ReadLines is Read followed by Parse on every line.
func ReadLines(path string, maxLines int) ([]Line, error) {
	raw, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, len(raw))
	for i, text := range raw {
		lines[i] = Parse(text)
	}
	return lines, nil
}

// Parse extracts level and message from a slog text handler line such as
//
//	time=2026-10-19T20:00:00.000Z level=WARN msg="persist failed" err=disk
func Parse(text string) Line {
	line := Line{Text: text, Msg: text}
	if v, ok := field(text, "level"); ok {
		line.Level = parseLevel(v)
	}
	if v, ok := field(text, "msg"); ok {
		line.Msg = v
	}
	return line
}

func parseLevel(v string) Level {
	// slog renders offsets from the named levels as e.g. INFO+2.
	base, _, _ := strings.Cut(strings.ToUpper(v), "+")
	base, _, _ = strings.Cut(base, "-")
	switch base {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelUnknown
	}
}

// field returns the value of key=value in text, honoring double quotes.
func field(text, key string) (string, bool) {
	prefix := key + "="
	for i := 0; i < len(text); {
		if strings.HasPrefix(text[i:], prefix) && (i == 0 || text[i-1] == ' ') {
			rest := text[i+len(prefix):]
			if strings.HasPrefix(rest, `"`) {
				return unquote(rest)
			}
			end := strings.IndexByte(rest, ' ')
			if end < 0 {
				return rest, true
			}
			return rest[:end], true
		}
		// skip over quoted values so keys inside them are not matched
		if text[i] == '"' {
			if _, n := quotedLen(text[i:]); n > 0 {
				i += n
				continue
			}
		}
		i++
	}
	return "", false
}

func unquote(s string) (string, bool) {
	v, n := quotedLen(s)
	if n == 0 {
		return strings.TrimPrefix(s, `"`), true
	}
	return v, true
}

// quotedLen decodes the quoted string at the start of s and reports how many
// bytes it spans, or 0 when the quote is unterminated.
func quotedLen(s string) (string, int) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				i++
				switch s[i] {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				default:
					b.WriteByte(s[i])
				}
			}
		case '"':
			return b.String(), i + 1
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0
}
