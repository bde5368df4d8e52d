package doctor

// IssueCategory groups issues by type.
type IssueCategory string

const (
	// CategoryConfig represents problems with language definitions.
	CategoryConfig IssueCategory = "config"
	// CategoryCommand represents formatter programs that cannot be run.
	CategoryCommand IssueCategory = "command"
	// CategoryState represents leftovers in the temp and state directories.
	CategoryState IssueCategory = "state"
)

// Fix actions.
const (
	FixRemoveFile = "remove_file"
	FixRemoveLock = "remove_lock"
)

// Issue represents a problem detected by doctor.
type Issue struct {
	Key         string        // language name or file path
	Description string        // human-readable description
	FixAction   string        // what --fix would do, empty if manual
	Category    IssueCategory // issue category
	Path        string        // file to act on for state fixes
	Warning     bool          // formatting still works despite the issue
}

// IssueStats tracks counts by category.
type IssueStats struct {
	LanguagesValid   int // languages whose config is valid
	LanguagesInvalid int // languages with config errors
	LanguagesOff     int // languages without a formatter
	CommandsFound    int // formatter programs found on PATH
	CommandsMissing  int // formatter programs not found
	StaleArtifacts   int // leftover temporary files
	StaleLocks       int // lock files nobody holds
}

// Report is the result of a check.
type Report struct {
	Issues []Issue
	Stats  IssueStats
}

// Errors counts issues that break formatting.
func (r Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if !issue.Warning {
			n++
		}
	}
	return n
}
