package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdoc/internal/cli/output"
	"github.com/leapstack-labs/leapdoc/internal/mapping"
	"github.com/leapstack-labs/leapdoc/internal/render"
)

// NewPlaceholdersCommand creates the placeholders command.
func NewPlaceholdersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "placeholders <template>",
		Short: "List the placeholders of a template",
		Long: `List every {{placeholder}} in a template's body, tables, headers and
footers, sorted by name. When a mapping file is configured, each placeholder
shows the expression it resolves to.

Use --output to override: auto, text, markdown, json`,
		Example: `  # List placeholders
  leapdoc placeholders letter.docx

  # Show how a mapping file resolves them
  leapdoc placeholders letter.docx --mapping letters.json -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaceholders(cmd, args[0])
		},
	}
	return cmd
}

func runPlaceholders(cmd *cobra.Command, templatePath string) error {
	cc := NewCommandContext(cmd)

	renderer, err := render.New(render.Config{TemplatePath: templatePath, Logger: cc.Logger})
	if err != nil {
		return err
	}

	var m *mapping.Config
	if cc.Cfg.Mapping != "" {
		if m, err = mapping.Load(cc.Cfg.Mapping); err != nil {
			return err
		}
	}
	return printPlaceholders(cc.Renderer, templatePath, placeholderInfos(renderer.Placeholders(), m))
}

// placeholderInfos pairs each placeholder with its rule in m, if any.
func placeholderInfos(names []string, m *mapping.Config) []output.PlaceholderInfo {
	infos := make([]output.PlaceholderInfo, len(names))
	for i, name := range names {
		infos[i] = output.PlaceholderInfo{Name: name}
		if m == nil {
			continue
		}
		if rule, ok := m.Rule(name); ok {
			infos[i].Mapped = true
			infos[i].Expression = rule.Expr()
		}
	}
	return infos
}

func printPlaceholders(r *output.Renderer, templatePath string, infos []output.PlaceholderInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		if infos == nil {
			infos = []output.PlaceholderInfo{}
		}
		return r.JSON(infos)
	}

	r.Header(1, fmt.Sprintf("Placeholders (%d total)", len(infos)))
	r.KeyValue("Template", templatePath)
	r.Println()
	if len(infos) == 0 {
		r.Muted("No placeholders found")
		return nil
	}

	rows := make([][]string, len(infos))
	for i, info := range infos {
		expr := info.Expression
		if !info.Mapped {
			expr = "(unmapped)"
		}
		rows[i] = []string{info.Name, expr}
	}
	r.Table([]string{"Placeholder", "Expression"}, rows)
	return nil
}
