package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/bfv/temporallint/internal/classify"
	"github.com/bfv/temporallint/internal/ddl"
	"github.com/bfv/temporallint/internal/source"
)

// TableClasses is the classify output for one table.
type TableClasses struct {
	Table   string        `yaml:"table"`
	Columns []ColumnClass `yaml:"columns"`
}

// ColumnClass is one classified temporal column.
type ColumnClass struct {
	Name     string            `yaml:"name"`
	Type     string            `yaml:"type"`
	Category classify.Category `yaml:"category"`
}

// NewClassifyCmd builds and returns the 'classify' cobra command.
func NewClassifyCmd(v *viper.Viper) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "classify [path...]",
		Short: "Show the role assigned to every temporal column",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(v)
			if err != nil {
				return err
			}
			provider := source.NewProvider(cmd.InOrStdin())
			return runClassify(provider, args, cfg, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or table")
	return cmd
}

// runClassify is the entry point for the classify command.
func runClassify(provider *source.Provider, paths []string, cfg *ConfigFile, format string, w io.Writer) error {
	sources := provider.Collect(paths)
	if err := source.Failed(sources); err != nil {
		return err
	}
	l, err := newLinter(cfg)
	if err != nil {
		return err
	}

	var out []TableClasses
	for _, src := range sources {
		res := l.Lint(src.Name, src.Text)
		res.Model.Each(func(t *ddl.TableDecl) {
			out = append(out, tableClasses(t, res.Classes[t.Name]))
		})
	}
	log.Debug().Int("tables", len(out)).Msg("classification complete")

	switch format {
	case "yaml":
		data, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("marshalling yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "table":
		renderClasses(w, out)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want yaml or table)", format)
	}
}

// tableClasses lists the classified columns of t in declaration order.
func tableClasses(t *ddl.TableDecl, cls classify.Classification) TableClasses {
	tc := TableClasses{Table: t.Name, Columns: []ColumnClass{}}
	for _, c := range t.Columns {
		cat, ok := cls.Of(c.Name)
		if !ok {
			continue
		}
		tc.Columns = append(tc.Columns, ColumnClass{Name: c.Name, Type: c.Type, Category: cat})
	}
	return tc
}

func renderClasses(w io.Writer, tables []TableClasses) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"TABLE", "COLUMN", "TYPE", "CATEGORY"})
	for _, tc := range tables {
		for _, c := range tc.Columns {
			t.AppendRow(table.Row{tc.Table, c.Name, c.Type, c.Category.String()})
		}
	}
	t.Render()
}
