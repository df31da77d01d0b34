package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Read returns at most maxLines from the end of the file at path.
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

// Field is one [key:value] pair from a log line.
type Field struct {
	Key, Value string
}

// Entry is a parsed molar log line.
type Entry struct {
	Time    string
	Caller  string
	Level   string // DEBU, INFO, WARN, ERRO, FATA, PANI, TRAC
	Fields  []Field
	Message string
	Raw     string
}

// Field returns the value for key, or "".
func (e Entry) Field(key string) string {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

var (
	lineRE  = regexp.MustCompile(`^(\d{2} \w{3} \d{2} - \d{2}:\d{2}:\d{2})(?: \[([^\]]*)\]\[[^\]]*\])? \[([A-Z]{4,5})\] ?(.*)$`)
	fieldRE = regexp.MustCompile(`^\[([^:\]\s]+):([^\]]*)\] ?`)
)

// Parse splits a line written by the logging package. Lines that do not match
// (stack traces, foreign output) come back with only Raw and Message set.
func Parse(line string) Entry {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Entry{Message: line, Raw: line}
	}
	e := Entry{Time: m[1], Caller: m[2], Level: m[3], Raw: line}
	rest := m[4]
	for {
		fm := fieldRE.FindStringSubmatch(rest)
		if fm == nil {
			break
		}
		e.Fields = append(e.Fields, Field{Key: fm[1], Value: fm[2]})
		rest = rest[len(fm[0]):]
	}
	e.Message = strings.TrimSpace(rest)
	return e
}

var levelRank = map[string]int{
	"TRAC": 0, "DEBU": 1, "INFO": 2, "WARN": 3, "ERRO": 4, "FATA": 5, "PANI": 6,
}

// Rank orders levels; unknown levels rank as INFO.
func Rank(level string) int {
	if len(level) > 4 {
		level = level[:4]
	}
	if r, ok := levelRank[strings.ToUpper(level)]; ok {
		return r
	}
	return levelRank["INFO"]
}

// Filter parses lines and keeps entries at or above minLevel whose raw text
// contains query (case-insensitive). Unparsed lines follow the previous entry.
func Filter(lines []string, minLevel, query string) []Entry {
	min := Rank(minLevel)
	if strings.TrimSpace(minLevel) == "" {
		min = 0
	}
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]Entry, 0, len(lines))
	keep := true
	for _, line := range lines {
		e := Parse(line)
		if e.Level != "" {
			keep = Rank(e.Level) >= min && (query == "" || strings.Contains(strings.ToLower(line), query))
		}
		if keep {
			out = append(out, e)
		}
	}
	return out
}
