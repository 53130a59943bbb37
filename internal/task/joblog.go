package task

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// LogFileName is the job-scoped log file name for a job id
func LogFileName(jobID string) string {
	return fmt.Sprintf("task_%s.log", jobID)
}

// JobLog is the append-only log sink of one job run
type JobLog struct {
	Logger zerolog.Logger
	path   string
	file   *os.File
	once   sync.Once
}

// OpenJobLog opens (or appends to) dir/task_<id>.log. When mirror is not
// nil every line is copied to it as well.
func OpenJobLog(dir, jobID string, mirror io.Writer) (*JobLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(dir, LogFileName(jobID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open job log: %w", err)
	}

	var out io.Writer = f
	if mirror != nil {
		out = zerolog.MultiLevelWriter(f, mirror)
	}

	return &JobLog{
		Logger: zerolog.New(out).With().Timestamp().Str("task_id", jobID).Logger(),
		path:   path,
		file:   f,
	}, nil
}

// Path is the absolute or relative location of the log file
func (l *JobLog) Path() string {
	return l.path
}

// Close closes the file. Safe to call more than once.
func (l *JobLog) Close() error {
	var err error
	l.once.Do(func() {
		err = l.file.Close()
	})
	return err
}

// ReadJobLog returns the content of a job's log file
func ReadJobLog(dir, jobID string) ([]byte, error) {
	return os.ReadFile(filepath.Join(dir, LogFileName(jobID)))
}
