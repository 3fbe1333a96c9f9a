package activity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jaywantadh/RelayByte/pkg/logging"
)

// Actions recorded in the activity log.
const (
	ActionCreate     = "CREATE"
	ActionJoin       = "JOIN"
	ActionComplete   = "COMPLETE"
	ActionDisconnect = "DISCONNECT"
)

// Record is one activity log line. The field set is a fixed wire format
// consumed by external tooling; do not add fields without versioning.
type Record struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	TransferID string    `json:"transferId"`
	SocketID   string    `json:"socketId"`
}

// Logger appends JSON-line records to day-bucketed files under dir.
// Writes are fire-and-forget: failures are logged and swallowed.
type Logger struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
}

func NewLogger(dir string) *Logger {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.Log.WithError(err).Warn("could not create activity log directory")
	}
	return &Logger{dir: dir}
}

// Record appends one activity line to the current day's file.
func (l *Logger) Record(action, transferID, socketID string) {
	rec := Record{
		Timestamp:  time.Now(),
		Action:     action,
		TransferID: transferID,
		SocketID:   socketID,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		logging.Log.WithError(err).Warn("could not encode activity record")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.rotateLocked(rec.Timestamp); err != nil {
		logging.Log.WithError(err).Warn("could not open activity log file")
		return
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		logging.Log.WithError(err).Warn("could not append activity record")
	}
}

// FileName returns the bucket file name for the given day.
func FileName(t time.Time) string {
	return fmt.Sprintf("activity-%s.log", t.Format("2006-01-02"))
}

func (l *Logger) rotateLocked(now time.Time) error {
	day := now.Format("2006-01-02")
	if l.file != nil && l.day == day {
		return nil
	}
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	f, err := os.OpenFile(filepath.Join(l.dir, FileName(now)), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.file = f
	l.day = day
	return nil
}

// Close releases the current log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
