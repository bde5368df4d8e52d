package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/colorprofile"

	"github.com/raphi011/cfmt/internal/artifact"
	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/output"
	"github.com/raphi011/cfmt/internal/ui/styles"
)

// DefaultStaleAfter is how old a temp or lock file must be before it is
// reported as left behind.
const DefaultStaleAfter = time.Hour

// Options tune a check. The zero value checks the real PATH and the
// config's temp dir.
type Options struct {
	StateDir   string                       // lock directory parent; empty skips lock checks
	StaleAfter time.Duration                // 0 means DefaultStaleAfter
	LookPath   func(string) (string, error) // nil means exec.LookPath
	Now        func() time.Time             // nil means time.Now
}

// Check runs all diagnostics without changing anything.
func Check(cfg *config.Config, opts Options) Report {
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	cutoff := now().Add(-opts.StaleAfter)

	var r Report

	configIssues, runnable := checkLanguages(cfg, &r.Stats)
	for i := range configIssues {
		configIssues[i].Category = CategoryConfig
	}
	r.Issues = append(r.Issues, configIssues...)

	commandIssues := checkCommands(cfg, runnable, opts.LookPath, &r.Stats)
	for i := range commandIssues {
		commandIssues[i].Category = CategoryCommand
	}
	r.Issues = append(r.Issues, commandIssues...)

	stateIssues := checkTempDir(artifact.NewDirStore(cfg.TempDir), cutoff, &r.Stats)
	stateIssues = append(stateIssues, checkLocks(opts.StateDir, cutoff, &r.Stats)...)
	for i := range stateIssues {
		stateIssues[i].Category = CategoryState
	}
	r.Issues = append(r.Issues, stateIssues...)

	return r
}

// Run performs diagnostic checks, prints them, and optionally fixes issues.
// It returns an error if issues that break formatting remain.
func Run(ctx context.Context, cfg *config.Config, opts Options, fix bool) error {
	w := colorprofile.NewWriter(output.FromContext(ctx).Writer(), os.Environ())

	report := Check(cfg, opts)

	if cfg.Path != "" {
		fmt.Fprintf(w, "Config: %s\n", cfg.Path)
	} else {
		fmt.Fprintln(w, "Config: built-in defaults")
	}
	printSummary(w, report.Stats)

	if len(report.Issues) == 0 {
		fmt.Fprintln(w, "\n"+styles.OK("No issues found"))
		return nil
	}

	fmt.Fprintf(w, "\nFound %d issues:\n", len(report.Issues))
	printIssuesByCategory(w, report.Issues)

	remaining := report.Issues
	if fix {
		remaining = fixAllIssues(ctx, report.Issues)
		if fixed := len(report.Issues) - len(remaining); fixed > 0 {
			fmt.Fprintf(w, "\nFixed %d issues.\n", fixed)
		}
	} else if hasFixable(report.Issues) {
		fmt.Fprintln(w, "\nRun 'cfmt doctor --fix' to clean up.")
	}

	errs := Report{Issues: remaining}.Errors()
	if errs > 0 {
		return fmt.Errorf("%d problems need attention", errs)
	}
	return nil
}

func hasFixable(issues []Issue) bool {
	for _, issue := range issues {
		if issue.FixAction != "" {
			return true
		}
	}
	return false
}

// printSummary prints a categorized summary.
func printSummary(w io.Writer, stats IssueStats) {
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", styles.OK(fmt.Sprintf("%d languages valid", stats.LanguagesValid)))
	if stats.LanguagesInvalid > 0 {
		fmt.Fprintf(w, "  %s\n", styles.Fail(fmt.Sprintf("%d languages misconfigured", stats.LanguagesInvalid)))
	}
	if stats.LanguagesOff > 0 {
		fmt.Fprintf(w, "  %s\n", styles.MutedStyle.Render(fmt.Sprintf("- %d languages without formatter", stats.LanguagesOff)))
	}

	if stats.CommandsFound > 0 {
		fmt.Fprintf(w, "  %s\n", styles.OK(fmt.Sprintf("%d formatters found", stats.CommandsFound)))
	}
	if stats.CommandsMissing > 0 {
		fmt.Fprintf(w, "  %s\n", styles.Fail(fmt.Sprintf("%d formatters missing", stats.CommandsMissing)))
	}

	if stats.StaleArtifacts > 0 {
		fmt.Fprintf(w, "  %s\n", styles.Warn(fmt.Sprintf("%d leftover temp files", stats.StaleArtifacts)))
	}
	if stats.StaleLocks > 0 {
		fmt.Fprintf(w, "  %s\n", styles.Warn(fmt.Sprintf("%d unused lock files", stats.StaleLocks)))
	}
}

// printIssuesByCategory groups and prints issues.
func printIssuesByCategory(w io.Writer, issues []Issue) {
	byCategory := make(map[IssueCategory][]Issue)
	for _, issue := range issues {
		byCategory[issue.Category] = append(byCategory[issue.Category], issue)
	}

	categoryNames := map[IssueCategory]string{
		CategoryConfig:  "Config issues",
		CategoryCommand: "Command issues",
		CategoryState:   "State issues",
	}

	for _, cat := range []IssueCategory{CategoryConfig, CategoryCommand, CategoryState} {
		catIssues := byCategory[cat]
		if len(catIssues) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n%s:\n", styles.Bold.Render(categoryNames[cat]))
		for _, issue := range catIssues {
			line := fmt.Sprintf("%s: %s", issue.Key, issue.Description)
			if issue.Warning {
				fmt.Fprintf(w, "  %s\n", styles.Warn(line))
			} else {
				fmt.Fprintf(w, "  %s\n", styles.Fail(line))
			}
		}
	}
}
