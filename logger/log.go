// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package logger implements a small in-memory log used by the bus and its
// collaborators to record tolerated-but-unusual conditions: invalid address
// decodes, POST writes, and so on. It is not a general purpose logging
// framework - there is no I/O here except when explicitly asked for with
// Write() or SetEcho().
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Entry represents a single line in the log. Adjacent entries with the same
// tag and detail are coalesced and counted rather than duplicated.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	repeated  int
}

func (e Entry) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s: %s", e.Tag, e.Detail))
	if e.repeated > 0 {
		s.WriteString(fmt.Sprintf(" (repeat x%d)", e.repeated+1))
	}
	s.WriteString("\n")
	return s.String()
}

// Permission implementations indicate whether the caller is allowed to add
// entries to the log. Useful for silencing noisy callers (eg. a recompiler
// thunk retrying the same faulting address every frame) without touching the
// call site.
type Permission interface {
	AllowLogging() bool
}

type allow struct{}

func (allow) AllowLogging() bool { return true }

// Allow is a Permission that always allows logging.
var Allow Permission = allow{}

// Logger is a bounded, coalescing log of tagged entries.
type Logger struct {
	mu         sync.Mutex
	maxEntries int
	entries    []Entry

	echo        io.Writer
	echoRecent  bool
	lastWritten int
}

// NewLogger creates a Logger that retains at most maxEntries entries.
func NewLogger(maxEntries int) *Logger {
	return &Logger{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0),
	}
}

func stringify(detail interface{}) string {
	switch v := detail.(type) {
	case string:
		return v
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Log adds an entry to the log, subject to perm.AllowLogging().
func (l *Logger) Log(perm Permission, tag string, detail interface{}) {
	if perm != Allow && !perm.AllowLogging() {
		return
	}
	l.add(tag, stringify(detail))
}

// Logf adds a formatted entry to the log, subject to perm.AllowLogging().
func (l *Logger) Logf(perm Permission, tag string, format string, args ...interface{}) {
	if perm != Allow && !perm.AllowLogging() {
		return
	}
	l.add(tag, fmt.Sprintf(format, args...))
}

func (l *Logger) add(tag, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	if n := len(l.entries); n > 0 {
		last := &l.entries[n-1]
		if last.Tag == tag && last.Detail == detail {
			last.repeated++
			last.Timestamp = time.Now()
			l.echoEntry(*last)
			return
		}
	}

	e := Entry{Timestamp: time.Now(), Tag: tag, Detail: detail}
	l.entries = append(l.entries, e)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[len(l.entries)-l.maxEntries:]
		if l.lastWritten > 0 {
			l.lastWritten--
		}
	}
	l.echoEntry(e)
}

func (l *Logger) echoEntry(e Entry) {
	if l.echo != nil {
		io.WriteString(l.echo, e.String())
	}
}

// Clear removes all entries from the log.
func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
	l.lastWritten = 0
}

// Write writes every retained entry to output.
func (l *Logger) Write(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		io.WriteString(output, e.String())
	}
	l.lastWritten = len(l.entries)
}

// WriteRecent writes only the entries added since the last call to Write or
// WriteRecent.
func (l *Logger) WriteRecent(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries[l.lastWritten:] {
		io.WriteString(output, e.String())
	}
	l.lastWritten = len(l.entries)
}

// Tail writes the last number entries to output.
func (l *Logger) Tail(output io.Writer, number int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if number > len(l.entries) {
		number = len(l.entries)
	}
	for _, e := range l.entries[len(l.entries)-number:] {
		io.WriteString(output, e.String())
	}
}

// SetEcho causes every new entry to be written to output as it is added. Pass
// a nil output to disable echoing.
func (l *Logger) SetEcho(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.echo = output
}

// only one central log is needed for the lifetime of the process.
var central = NewLogger(512)

// Log adds an entry to the central logger.
func Log(perm Permission, tag string, detail interface{}) { central.Log(perm, tag, detail) }

// Logf adds a formatted entry to the central logger.
func Logf(perm Permission, tag string, format string, args ...interface{}) {
	central.Logf(perm, tag, format, args...)
}

// Clear removes all entries from the central logger.
func Clear() { central.Clear() }

// Write writes the contents of the central logger to output.
func Write(output io.Writer) { central.Write(output) }

// WriteRecent writes only entries added since the last Write/WriteRecent call.
func WriteRecent(output io.Writer) { central.WriteRecent(output) }

// Tail writes the last number entries of the central logger to output.
func Tail(output io.Writer, number int) { central.Tail(output, number) }

// SetEcho causes the central logger to mirror new entries to os.Stderr when
// echo is true, and stops the mirroring when echo is false.
func SetEcho(echo bool) {
	if echo {
		central.SetEcho(os.Stderr)
		return
	}
	central.SetEcho(nil)
}
