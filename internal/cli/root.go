package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/config"
	"github.com/goliatone/go-record-finder/pkg/di"
	"github.com/goliatone/go-record-finder/record"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Model      string
	Table      string
	PrimaryKey string
	Columns    []string
	Format     string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// session is the wiring shared by subcommands for a single invocation.
type session struct {
	container *di.Container
	class     *record.Class
}

// NewRootCommand creates the root command for the recordfind CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recordfind",
		Short: "Look up table rows as records",
		Long: `Look up rows by primary key or by column values, using the
same cached finder templates an application would.

The table is described with --column flags, one per column, as name:type.
Types: integer, bigint, smallint, float, string, boolean, datetime, binary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "settings file (yaml)")
	cmd.PersistentFlags().StringVar(&opts.Model, "model", "", "class name (default: singular of --table, capitalized)")
	cmd.PersistentFlags().StringVarP(&opts.Table, "table", "t", "", "table to query")
	cmd.PersistentFlags().StringVar(&opts.PrimaryKey, "pk", "id", "primary key column, empty for none")
	cmd.PersistentFlags().StringArrayVar(&opts.Columns, "column", nil, "column as name:type, repeatable")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewFindByCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// open loads settings and registers the class described by the flags.
// Logs go to the command's stderr.
func open(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	def, err := definition(opts)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Level()}))
	container, err := di.NewContainer(cfg, di.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	class, err := container.Registry().Register(def)
	if err != nil {
		container.Close()
		return nil, err
	}
	return &session{container: container, class: class}, nil
}

func (s *session) Close() error { return s.container.Close() }

// closeInto closes c and joins a close failure into *err.
func closeInto(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil {
		*err = errors.Join(*err, fmt.Errorf("close: %w", cerr))
	}
}

func definition(opts *RootOptions) (record.Definition, error) {
	if opts.Table == "" {
		return record.Definition{}, fmt.Errorf("--table is required")
	}
	if len(opts.Columns) == 0 {
		return record.Definition{}, fmt.Errorf("at least one --column is required")
	}

	columns := make([]attribute.Column, 0, len(opts.Columns))
	for _, col := range opts.Columns {
		name, typeName, ok := strings.Cut(col, ":")
		if !ok {
			typeName = "string"
		}
		typ, known := attribute.TypeByName(typeName)
		if !known {
			return record.Definition{}, fmt.Errorf("column %q: unknown type %q", name, typeName)
		}
		columns = append(columns, attribute.Column{Name: strings.TrimSpace(name), Type: typ})
	}

	model := opts.Model
	if model == "" {
		model = record.ModelName(opts.Table)
	}
	return record.Definition{
		Name:       model,
		Table:      opts.Table,
		PrimaryKey: opts.PrimaryKey,
		Columns:    columns,
	}, nil
}
