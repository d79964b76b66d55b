// Package activity keeps an append-only CSV log of user-initiated banking actions.
package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Action names written to the log.
const (
	ActionImportConfirmed         = "import_confirmed"
	ActionReconciliationStarted   = "reconciliation_started"
	ActionReconciliationCompleted = "reconciliation_completed"
	ActionItemReconciled          = "item_reconciled"
	ActionItemUnreconciled        = "item_unreconciled"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp        time.Time
	Action           string
	AccountID        string
	ReconciliationID string
	Details          string
}

// Header is the CSV header of the activity log.
const Header = "timestamp,action,account_id,reconciliation_id,details"

const (
	numFields           = 5
	colTimestamp        = 0
	colAction           = 1
	colAccountID        = 2
	colReconciliationID = 3
	colDetails          = 4
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colAction] = e.Action
	row[colAccountID] = e.AccountID
	row[colReconciliationID] = e.ReconciliationID
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp:        ts,
		Action:           record[colAction],
		AccountID:        record[colAccountID],
		ReconciliationID: record[colReconciliationID],
		Details:          record[colDetails],
	}, nil
}

// Append writes entries to the log at path, creating the file and header if needed.
func Append(path string, entries []Entry) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating activity log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing activity log: %w", cerr)
		}
	}()

	cw := csv.NewWriter(f)

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing activity log: %w", err)
	}
	return nil
}

// Read returns all entries from the log at path.
// Returns nil if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Log appends entries to one file. It is safe for concurrent use.
type Log struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewLog returns a Log writing to path.
func NewLog(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the log file location.
func (l *Log) Path() string {
	return l.path
}

// Record appends e, stamping it with the current time when unset.
func (l *Log) Record(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return Append(l.path, []Entry{e})
}
