package doctor

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/raphi011/cfmt/internal/artifact"
	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/lock"
)

// checkLanguages validates every configured language.
// It returns the issues and the names of languages that are runnable.
func checkLanguages(cfg *config.Config, stats *IssueStats) ([]Issue, []string) {
	var issues []Issue
	var valid []string

	for _, name := range cfg.Names() {
		lang := cfg.Languages[name]
		if !lang.HasFormatter() {
			stats.LanguagesOff++
			continue
		}
		if err := config.ValidateLanguage(lang); err != nil {
			stats.LanguagesInvalid++
			issues = append(issues, Issue{
				Key:         name,
				Description: err.Error(),
			})
			continue
		}
		stats.LanguagesValid++
		valid = append(valid, name)
	}

	// Same extension in two languages: the first by name wins.
	owners := make(map[string][]string)
	for _, name := range cfg.Names() {
		for _, ext := range cfg.Languages[name].Extensions {
			key := ext
			if strings.HasPrefix(ext, ".") {
				key = strings.ToLower(ext)
			}
			owners[key] = append(owners[key], name)
		}
	}
	exts := make([]string, 0, len(owners))
	for ext := range owners {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	for _, ext := range exts {
		names := owners[ext]
		if len(names) < 2 {
			continue
		}
		issues = append(issues, Issue{
			Key:         ext,
			Description: fmt.Sprintf("claimed by %s; %s is used", strings.Join(names, ", "), names[0]),
			Warning:     true,
		})
	}

	return issues, valid
}

// checkCommands looks up each runnable language's formatter program.
func checkCommands(cfg *config.Config, names []string, lookPath func(string) (string, error), stats *IssueStats) []Issue {
	var issues []Issue
	found := make(map[string]bool)

	for _, name := range names {
		prog := cfg.Languages[name].Formatter[0]
		ok, seen := found[prog]
		if !seen {
			_, err := lookPath(prog)
			ok = err == nil
			found[prog] = ok
		}
		if ok {
			stats.CommandsFound++
			continue
		}
		stats.CommandsMissing++
		issues = append(issues, Issue{
			Key:         name,
			Description: fmt.Sprintf("formatter %q not found on PATH", prog),
		})
	}

	return issues
}

// checkTempDir verifies artifacts can be created and finds stale ones.
func checkTempDir(store *artifact.DirStore, cutoff time.Time, stats *IssueStats) []Issue {
	var issues []Issue

	probe, err := store.Create(nil, ".probe")
	if err != nil {
		issues = append(issues, Issue{
			Key:         store.Dir(),
			Description: fmt.Sprintf("temp dir not writable: %v", err),
		})
	} else {
		store.Remove(probe)
	}

	stale, err := store.Leftovers(cutoff)
	if err != nil {
		return issues
	}
	for _, path := range stale {
		stats.StaleArtifacts++
		issues = append(issues, Issue{
			Key:         filepath.Base(path),
			Description: "leftover temp file",
			FixAction:   FixRemoveFile,
			Path:        path,
			Warning:     true,
		})
	}

	return issues
}

// checkLocks finds lock files that nobody holds and were not touched
// since cutoff.
func checkLocks(stateDir string, cutoff time.Time, stats *IssueStats) []Issue {
	if stateDir == "" {
		return nil
	}

	var issues []Issue
	matches, err := filepath.Glob(filepath.Join(lock.Dir(stateDir), "*.lock"))
	if err != nil {
		return nil
	}

	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		l := lock.NewFileLock(path)
		ok, err := l.TryLock()
		if err != nil || !ok {
			continue
		}
		l.Unlock()

		stats.StaleLocks++
		issues = append(issues, Issue{
			Key:         filepath.Base(path),
			Description: "unused lock file",
			FixAction:   FixRemoveLock,
			Path:        path,
			Warning:     true,
		})
	}

	return issues
}
