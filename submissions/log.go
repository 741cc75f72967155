package submissions

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mbolis/pathfinders/model"
	"github.com/pkg/errors"
)

var reUnsafe = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// FileLog keeps every received submission as JSON files under dir:
// one file per submission, plus one array per step type that is rewritten
// on each append. Appends are not serialized; concurrent writers to the
// same step can lose entries of the array file.
type FileLog struct {
	dir string
	now func() time.Time
}

func NewFileLog(dir string) *FileLog {
	return &FileLog{dir: dir, now: time.Now}
}

func stepDir(step model.StepType) string {
	return strings.ToLower(string(step))
}

func (l *FileLog) masterFile(step model.StepType) string {
	name := fmt.Sprintf("all-%s-submissions.json", stepDir(step))
	return filepath.Join(l.dir, stepDir(step), name)
}

// Append writes sub to its own file and to the array of its step.
func (l *FileLog) Append(sub model.Submission) error {
	if !sub.StepType.Valid() {
		return errors.Errorf("submissions.log: unknown step type %q", sub.StepType)
	}

	dir := filepath.Join(l.dir, stepDir(sub.StepType))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "submissions.log.mkdir")
	}

	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return errors.Wrap(err, "submissions.log.encode")
	}
	name := fmt.Sprintf("%s-%s-%d.json",
		stepDir(sub.StepType),
		reUnsafe.ReplaceAllString(sub.SessionID, "_"),
		l.now().UnixMilli(),
	)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return errors.Wrap(err, "submissions.log.write")
	}

	all, err := l.List(sub.StepType)
	if err != nil {
		return err
	}
	data, err = json.MarshalIndent(append(all, sub), "", "  ")
	if err != nil {
		return errors.Wrap(err, "submissions.log.encode_all")
	}
	return errors.Wrap(os.WriteFile(l.masterFile(sub.StepType), data, 0o644), "submissions.log.write_all")
}

// List returns the submissions of step in arrival order.
func (l *FileLog) List(step model.StepType) ([]model.Submission, error) {
	data, err := os.ReadFile(l.masterFile(step))
	if errors.Is(err, os.ErrNotExist) {
		return []model.Submission{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "submissions.log.read")
	}

	all := []model.Submission{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, errors.Wrap(err, "submissions.log.decode")
	}
	return all, nil
}
