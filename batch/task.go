package batch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ErrOutsideRoot is returned when a task's file is not below its source root.
var ErrOutsideRoot = errors.New("file outside source root")

// Task is one file to convert.
type Task struct {
	FilePath   string
	SourceRoot string
	DestRoot   string
}

// Name is the display name of the file, also used as the image title.
func (t Task) Name() string {
	return filepath.Base(t.FilePath)
}

// OutputPath returns where the image for t goes: the file's directory
// relative to the source root, recreated under the destination root, with
// ".png" appended to the full file name.
func OutputPath(t Task) (string, error) {
	rel, err := filepath.Rel(t.SourceRoot, t.FilePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrOutsideRoot, t.FilePath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, t.FilePath)
	}
	return filepath.Join(t.DestRoot, filepath.Dir(rel), t.Name()+".png"), nil
}

// Status is the result kind of a task.
type Status int

const (
	Processed Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Processed:
		return "processed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome reports how a task went.
type Outcome struct {
	Task    Task
	Output  string
	Status  Status
	Err     error
	Elapsed time.Duration
	Worker  int

	// Log is the console block for the task.
	Log string
}
