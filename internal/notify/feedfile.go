package notify

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Header is the CSV header of a notification feed file.
const Header = "id,timestamp,severity,title,message,read"

const (
	numFields   = 6
	colID       = 0
	colTime     = 1
	colSeverity = 2
	colTitle    = 3
	colMessage  = 4
	colRead     = 5
)

// MarshalNotification converts a Notification to a CSV row.
func MarshalNotification(n Notification) []string {
	row := make([]string, numFields)
	row[colID] = n.ID
	row[colTime] = n.Time.Format(time.RFC3339)
	row[colSeverity] = string(n.Severity)
	row[colTitle] = n.Title
	row[colMessage] = n.Message
	row[colRead] = strconv.FormatBool(n.Read)
	return row
}

// UnmarshalNotification converts a CSV row to a Notification.
func UnmarshalNotification(record []string) (Notification, error) {
	if len(record) != numFields {
		return Notification{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTime])
	if err != nil {
		return Notification{}, fmt.Errorf("parsing timestamp %q: %w", record[colTime], err)
	}
	sev, err := ParseSeverity(record[colSeverity])
	if err != nil {
		return Notification{}, err
	}
	read, err := strconv.ParseBool(record[colRead])
	if err != nil {
		return Notification{}, fmt.Errorf("parsing read flag %q: %w", record[colRead], err)
	}

	return Notification{
		ID:       record[colID],
		Time:     ts,
		Severity: sev,
		Title:    record[colTitle],
		Message:  record[colMessage],
		Read:     read,
	}, nil
}

// FeedFile appends notifications to a CSV file, oldest first, so a feed
// outlives the process that produced it. Write failures are logged.
type FeedFile struct {
	path   string
	logger *log.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewFeedFile creates a FeedFile writing to path.
func NewFeedFile(path string, logger *log.Logger) *FeedFile {
	return &FeedFile{path: path, logger: logger, now: time.Now}
}

// Path returns the feed file location.
func (f *FeedFile) Path() string { return f.path }

func (f *FeedFile) Receive(title, message string, sev Severity) {
	n := Notification{
		ID:       uuid.NewString(),
		Time:     f.now().UTC(),
		Severity: sev,
		Title:    title,
		Message:  message,
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := appendFeed(f.path, []Notification{n}); err != nil {
		f.logger.Printf("recording notification %q: %v", title, err)
	}
}

// LoadInbox reads the feed file into an Inbox. A missing file yields an
// empty Inbox.
func (f *FeedFile) LoadInbox() (*Inbox, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, err := readFeed(f.path)
	if err != nil {
		return nil, err
	}
	// file is oldest first, the inbox newest first
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return NewInbox(items), nil
}

// SaveInbox replaces the feed file with the contents of in.
func (f *FeedFile) SaveInbox(in *Inbox) error {
	items := in.List()
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replacing notification feed: %w", err)
	}
	return appendFeed(f.path, items)
}

// appendFeed writes items to path, creating the file and header if needed.
func appendFeed(path string, items []Notification) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating notification dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening notification feed: %w", err)
	}
	defer fh.Close()

	cw := csv.NewWriter(fh)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, n := range items {
		if err := cw.Write(MarshalNotification(n)); err != nil {
			return fmt.Errorf("writing notification %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func readFeed(path string) ([]Notification, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening notification feed: %w", err)
	}
	defer fh.Close()
	return readNotifications(fh)
}

func readNotifications(r io.Reader) ([]Notification, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading notification feed CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var items []Notification
	for i, rec := range records[1:] {
		n, err := UnmarshalNotification(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		items = append(items, n)
	}
	return items, nil
}
