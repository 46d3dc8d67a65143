// Package history reads the interaction log and groups it into sessions.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/tokencraft/internal/model"
)

// UnknownProject is used for sessions whose entries never name a project.
const UnknownProject = "unknown"

const maxLineSize = 2 * 1024 * 1024

type record struct {
	SessionID string          `json:"sessionId"`
	Display   *string         `json:"display"`
	Message   json.RawMessage `json:"message"`
	Project   string          `json:"project"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// LoadHistory reads a history file. Failing to open the file is an error.
func LoadHistory(path string) ([]model.LogEntry, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open history: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()
	return ReadHistory(f)
}

// ReadHistory parses newline-delimited JSON entries. Malformed lines and lines
// longer than maxLineSize are skipped and counted.
func ReadHistory(r io.Reader) ([]model.LogEntry, int, error) {
	reader := bufio.NewReaderSize(r, 64*1024)

	var entries []model.LogEntry
	skipped := 0
	for {
		line, tooLong, err := readLine(reader)
		if tooLong {
			skipped++
		} else if line = bytes.TrimSpace(line); len(line) > 0 {
			var rec record
			if uerr := json.Unmarshal(line, &rec); uerr != nil {
				skipped++
			} else {
				entries = append(entries, model.LogEntry{
					SessionID: rec.SessionID,
					Display:   rec.text(),
					Project:   rec.Project,
					Timestamp: parseTimestamp(rec.Timestamp),
				})
			}
		}
		if errors.Is(err, io.EOF) {
			return entries, skipped, nil
		}
		if err != nil {
			return entries, skipped, fmt.Errorf("failed to read history: %w", err)
		}
	}
}

// readLine returns the next line including its newline. An oversized line is
// consumed up to its newline and reported as tooLong with no data.
func readLine(br *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > maxLineSize+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, tooLong, err
	}
}

// text prefers "display" and falls back to a plain string "message".
func (r record) text() string {
	if r.Display != nil {
		return *r.Display
	}
	if len(r.Message) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Message, &s); err != nil {
		return ""
	}
	return s
}

func parseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return time.UnixMilli(int64(n))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GroupSessions groups entries by session id in first-seen order, preserving
// message order. Entries without a session id or text are dropped.
func GroupSessions(entries []model.LogEntry) []model.Session {
	index := map[string]int{}
	var sessions []model.Session
	for _, e := range entries {
		if e.SessionID == "" || e.Display == "" {
			continue
		}
		i, ok := index[e.SessionID]
		if !ok {
			i = len(sessions)
			index[e.SessionID] = i
			sessions = append(sessions, model.Session{
				ID:        e.SessionID,
				Timestamp: e.Timestamp,
			})
		}
		s := &sessions[i]
		if s.Project == "" && e.Project != "" {
			s.Project = e.Project
		}
		s.Messages = append(s.Messages, e)
	}
	for i := range sessions {
		if sessions[i].Project == "" {
			sessions[i].Project = UnknownProject
		}
	}
	return sessions
}
