package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/raphi011/cfmt/internal/lock"
	"github.com/raphi011/cfmt/internal/log"
)

// fixAllIssues repairs what can be repaired and returns the issues that
// remain.
func fixAllIssues(ctx context.Context, issues []Issue) []Issue {
	l := log.FromContext(ctx)
	var remaining []Issue

	for _, issue := range issues {
		var err error
		switch issue.FixAction {
		case FixRemoveFile:
			err = removeFile(issue.Path)
		case FixRemoveLock:
			err = removeLock(issue.Path)
		default:
			remaining = append(remaining, issue)
			continue
		}

		if err != nil {
			l.Warnf("fix %s: %v", issue.Key, err)
			remaining = append(remaining, issue)
			continue
		}
		l.Debug("fixed", "key", issue.Key, "action", issue.FixAction)
	}

	return remaining
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// removeLock deletes a lock file while holding it, so a concurrent run
// that grabbed it in the meantime is not disturbed.
func removeLock(path string) error {
	l := lock.NewFileLock(path)
	ok, err := l.TryLock()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("lock is held")
	}
	defer l.Unlock()
	return removeFile(path)
}
