package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/cfmt/internal/buffer"
	"github.com/raphi011/cfmt/internal/format"
	"github.com/raphi011/cfmt/internal/log"
	"github.com/raphi011/cfmt/internal/output"
)

// bufferResult is the --json output of cfmt buffer.
type bufferResult struct {
	Text     string         `json:"text"`
	Changed  bool           `json:"changed"`
	Cursor   *buffer.Cursor `json:"cursor,omitempty"`
	Error    string         `json:"error,omitempty"`
	Position *buffer.Cursor `json:"position,omitempty"`
}

func newBufferCmd() *cobra.Command {
	var (
		lang       string
		path       string
		cursorFlag string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "buffer",
		Short:   "Format an editor buffer from stdin",
		GroupID: GroupCore,
		Args:    cobra.NoArgs,
		Long: `Format text read from stdin and print the result to stdout.

This is the editor integration: bind it to your save hook and replace the
buffer with the output. If the formatter fails, the original text is
printed unchanged, the error goes to stderr and the exit status is 1, so
a careless hook cannot wipe the buffer.

--path names the file the buffer belongs to. It selects the language when
--lang is missing, applies local .cfmt.toml overrides and becomes the
formatter's working directory.

With --json the result is a single object:
  {"text": "...", "changed": true, "cursor": {"line": 3, "column": 5},
   "error": "...", "position": {"line": 2, "column": 7}}
where cursor is the mapped --cursor and position is where the formatter
reported an error, if it did.`,
		Example: `  cfmt buffer --lang go < main.go
  cfmt buffer --path src/app.js --cursor 12:4 --json < src/app.js`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			out := output.FromContext(ctx)

			if lang == "" && path == "" {
				return fmt.Errorf("--lang or --path is required")
			}

			var cursor buffer.Cursor
			if cursorFlag != "" {
				c, err := buffer.ParseCursor(cursorFlag)
				if err != nil {
					return err
				}
				cursor = c
			}

			text, err := readStdin(cmd)
			if err != nil {
				return err
			}

			if path != "" {
				path = absPath(path)
			}
			cfg, err := effectiveConfig(ctx, path)
			if err != nil {
				return err
			}
			language, ok, err := resolveLanguage(cfg, lang, path)
			if err != nil {
				return err
			}

			res := format.Result{Text: text, Cursor: cursor}
			if ok {
				res, err = newFormatter(cfg).Format(ctx, format.Request{
					Text:     text,
					Language: language,
					Path:     path,
					Cursor:   cursor,
					Timeout:  cfg.TimeoutFor(language),
				})
			} else {
				l.Debug("skip", "path", path, "reason", "no language matches")
			}

			if jsonOutput {
				if jerr := out.JSON(newBufferResult(res, err)); jerr != nil {
					return jerr
				}
				return err
			}

			// The original text on failure keeps a pipe-through hook safe.
			if _, werr := out.Write(res.Text); werr != nil {
				return werr
			}
			if err != nil {
				return withPosition(err)
			}
			if res.Changed {
				l.Debug("formatted", "lang", language.Name, "took", res.Duration)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Language of the buffer")
	cmd.Flags().StringVarP(&path, "path", "p", "", "File the buffer belongs to")
	cmd.Flags().StringVar(&cursorFlag, "cursor", "", "Cursor position LINE[:COLUMN] to map onto the result")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.RegisterFlagCompletionFunc("lang", completeLanguages)

	return cmd
}

func newBufferResult(res format.Result, err error) bufferResult {
	r := bufferResult{Text: string(res.Text), Changed: res.Changed}
	if !res.Cursor.IsZero() {
		c := res.Cursor
		r.Cursor = &c
	}
	if err != nil {
		r.Error = err.Error()
		var ce *format.CommandError
		if errors.As(err, &ce) && !ce.Position.IsZero() {
			p := ce.Position
			r.Position = &p
		}
	}
	return r
}
