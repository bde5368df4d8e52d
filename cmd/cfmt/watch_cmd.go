package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/log"
	"github.com/raphi011/cfmt/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch [dir]...",
		Short:   "Format files whenever they are saved",
		GroupID: GroupCore,
		Long: `Watch directories recursively and format files as they are saved.

Directories matching watch.ignore (and .git) are not watched. Edits to
.cfmt.toml or .cfmt.yaml take effect immediately. Formatter failures are
logged and the file is left as saved. A file saved again while its
formatter runs, or held by another cfmt process, is retried instead of
overwritten.`,
		Example: `  cfmt watch          # Watch the current directory
  cfmt watch src docs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			cfg := config.FromContext(ctx)

			if len(args) == 0 {
				args = []string{"."}
			}

			w, err := watch.New(newFormatter(cfg), config.ResolverFromContext(ctx), watch.Options{
				Debounce: cfg.Watch.Debounce.Std(),
				Ignore:   cfg.Watch.Ignore,
			})
			if err != nil {
				return err
			}
			for _, dir := range args {
				if err := w.Add(dir); err != nil {
					return err
				}
			}

			l.Printf("watching %d directories, press Ctrl-C to stop\n", len(args))
			return w.Run(ctx)
		},
	}

	return cmd
}
