package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/raphi011/cfmt/internal/log"
)

// Clipboard access; tests replace these.
var (
	readClipboard  = clipboard.ReadAll
	writeClipboard = clipboard.WriteAll
)

func newClipCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:     "clip",
		Short:   "Format the clipboard contents",
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `Format the text on the system clipboard and copy the result back.

The clipboard is left untouched if the formatter fails.`,
		Example: `  cfmt clip --lang json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)

			cfg, err := effectiveConfig(ctx, "")
			if err != nil {
				return err
			}

			if _, err := cfg.LookupLanguage(lang); err != nil {
				return err
			}

			text, err := readClipboard()
			if err != nil {
				return fmt.Errorf("read clipboard: %w", err)
			}
			if text == "" {
				l.Println("clipboard is empty")
				return nil
			}

			formatted, err := newFormatter(cfg).FormatText(ctx, []byte(text), lang, cfg)
			if err != nil {
				return withPosition(err)
			}
			if string(formatted) == text {
				l.Println("clipboard already formatted")
				return nil
			}
			if err := writeClipboard(string(formatted)); err != nil {
				return fmt.Errorf("write clipboard: %w", err)
			}
			l.Println("clipboard formatted")
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Language of the clipboard text")
	cmd.MarkFlagRequired("lang")
	cmd.RegisterFlagCompletionFunc("lang", completeLanguages)

	return cmd
}
