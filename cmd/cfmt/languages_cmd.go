package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/cfmt/internal/config"
	"github.com/raphi011/cfmt/internal/output"
)

// languageInfo is the --json output of cfmt languages.
type languageInfo struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	Formatter  []string `json:"formatter,omitempty"`
	Mode       string   `json:"mode"`
	Timeout    string   `json:"timeout"`
}

func newLanguagesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "languages",
		Short:   "List configured languages",
		Aliases: []string{"langs"},
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		Long: `List the languages in effect for the current directory, including
local .cfmt.toml overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			cfg, err := effectiveConfig(ctx, "")
			if err != nil {
				return err
			}

			infos := languageInfos(cfg)
			if jsonOutput {
				return out.JSON(infos)
			}
			if len(infos) == 0 {
				out.Println("No languages configured. Run 'cfmt config init' to start from the defaults.")
				return nil
			}

			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				formatter := strings.Join(info.Formatter, " ")
				if formatter == "" {
					formatter = "-"
				}
				rows = append(rows, []string{
					info.Name,
					strings.Join(info.Extensions, " "),
					formatter,
					info.Mode,
					info.Timeout,
				})
			}
			out.Table([]string{"LANGUAGE", "EXTENSIONS", "FORMATTER", "MODE", "TIMEOUT"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func languageInfos(cfg *config.Config) []languageInfo {
	infos := make([]languageInfo, 0, len(cfg.Languages))
	for _, name := range cfg.Names() {
		lang := cfg.Languages[name]
		infos = append(infos, languageInfo{
			Name:       name,
			Extensions: lang.Extensions,
			Formatter:  lang.Formatter,
			Mode:       lang.EffectiveMode(),
			Timeout:    cfg.TimeoutFor(lang).String(),
		})
	}
	return infos
}
