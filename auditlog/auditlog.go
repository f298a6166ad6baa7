// Package auditlog records every command a workflow runs, and what it
// returned, in an append-only log file.
//
// Entries are grouped in batches, one per protocol run. A batch is written in
// one go and never touched again.
package auditlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrBatchWritten is returned when a batch is written a second time.
var ErrBatchWritten = errors.New("batch already written")

// Kind tells what an entry holds.
type Kind string

const (
	KindCommand Kind = "command"
	KindResult  Kind = "result"
	KindError   Kind = "error"
)

// Entry is one line of a batch.
type Entry struct {
	Seq  int    `json:"seq"`
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Batch collects the entries of one protocol run.
type Batch struct {
	ID       string
	Protocol string
	Started  time.Time

	mu      sync.Mutex
	entries []Entry
	written bool
}

func (b *Batch) add(kind Kind, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, Entry{Seq: len(b.entries), Kind: kind, Text: text})
}

// Command appends an executed command.
func (b *Batch) Command(text string) {
	b.add(KindCommand, text)
}

// Result appends the captured output of the previous command.
func (b *Batch) Result(text string) {
	b.add(KindResult, text)
}

// Fail appends the error that stopped the protocol.
func (b *Batch) Fail(err error) {
	b.add(KindError, err.Error())
}

// Entries returns a copy of the entries recorded so far.
func (b *Batch) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Entry(nil), b.entries...)
}

// Commands returns the text of the command entries, in order.
func (b *Batch) Commands() []string {
	var commands []string
	for _, e := range b.Entries() {
		if e.Kind == KindCommand {
			commands = append(commands, e.Text)
		}
	}
	return commands
}

// Recorder writes batches as json lines.
type Recorder struct {
	mu     sync.Mutex
	logger zerolog.Logger
	closer io.Closer
}

// NewRecorder returns a recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{
		logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// NewFileRecorder returns a recorder appending to a rotating log file.
func NewFileRecorder(path string) *Recorder {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1, // megabytes
		MaxBackups: 2,
		MaxAge:     30, // days
		Compress:   false,
	}
	r := NewRecorder(writer)
	r.closer = writer
	return r
}

// Begin starts a new batch for protocol.
func (r *Recorder) Begin(protocol string) *Batch {
	return &Batch{
		ID:       uuid.New().String(),
		Protocol: protocol,
		Started:  time.Now(),
	}
}

// Write appends every entry of batch to the log. Batches are written
// contiguously even when several goroutines share the recorder.
func (r *Recorder) Write(batch *Batch) error {
	batch.mu.Lock()
	if batch.written {
		batch.mu.Unlock()
		return ErrBatchWritten
	}
	batch.written = true
	entries := append([]Entry(nil), batch.entries...)
	batch.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.logger.Log().
			Str("batch", batch.ID).
			Str("protocol", batch.Protocol).
			Int("seq", e.Seq).
			Str("kind", string(e.Kind)).
			Str("text", e.Text).
			Send()
	}
	return nil
}

func (r *Recorder) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Record is a decoded log line.
type Record struct {
	Batch    string    `json:"batch"`
	Protocol string    `json:"protocol"`
	Seq      int       `json:"seq"`
	Kind     Kind      `json:"kind"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
}

// ReadRecords decodes a log written by a Recorder.
func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		err := json.Unmarshal(scanner.Bytes(), &rec)
		if err != nil {
			return nil, fmt.Errorf("audit log line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}
