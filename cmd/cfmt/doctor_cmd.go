package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/doctor"
	"github.com/raphi011/cfmt/internal/log"
	"github.com/raphi011/cfmt/internal/storage"
)

func newDoctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:     "doctor",
		Short:   "Diagnose and repair issues",
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		Long: `Diagnose configuration and runtime issues.

Checks:
- Every formatter command parses and its mode is valid
- No file extension is claimed by two languages
- Formatter programs are installed (found on PATH)
- The temp directory is writable
- No temp files or lock files were left behind by crashed runs`,
		Example: `  cfmt doctor          # Check for issues
  cfmt doctor --fix    # Remove leftover temp and lock files`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := effectiveConfig(ctx, "")
			if err != nil {
				// Report the broken local file, check the global config.
				log.FromContext(ctx).Warnf("%v", err)
				cfg = config.FromContext(ctx)
			}

			stateDir, err := storage.StateDir()
			if err != nil {
				stateDir = ""
			}

			return doctor.Run(ctx, cfg, doctor.Options{StateDir: stateDir}, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Remove leftover temp and lock files")

	return cmd
}
