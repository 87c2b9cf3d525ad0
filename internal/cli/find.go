package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-record-finder/finder"
	"github.com/goliatone/go-record-finder/record"
)

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "find <id> [id...]",
		Short: "Find records by primary key",
		Long: `Find records by primary key. A single id goes through the cached
template for the primary key; several ids are loaded with one IN query
and printed in the order given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(rootOpts, args, cmd)
		},
	}
}

// FindByOptions holds flags for find-by.
type FindByOptions struct {
	Raise bool
}

// NewFindByCommand creates the find-by command.
func NewFindByCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindByOptions{}

	cmd := &cobra.Command{
		Use:   "find-by <column=value> [column=value...]",
		Short: "Find the first record matching column values",
		Long: `Find the first record whose columns equal the given values.
The literal value null matches NULL. Nothing is printed when no row
matches, unless --raise is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFindBy(rootOpts, opts, args, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.Raise, "raise", false, "fail when no record matches")

	return cmd
}

func runFind(opts *RootOptions, args []string, cmd *cobra.Command) (err error) {
	s, err := open(opts, cmd)
	if err != nil {
		return err
	}
	defer closeInto(s, &err)

	ctx := cmd.Context()
	f := s.container.Finder()

	if len(args) == 1 {
		rec, err := f.FindByPrimaryKey(ctx, s.class, args[0])
		if err != nil {
			return err
		}
		return write(cmd.OutOrStdout(), opts.Format, rec)
	}

	ids := make([]any, len(args))
	for i, arg := range args {
		ids[i] = arg
	}
	recs, err := f.Find(ctx, s.class, ids...)
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), opts.Format, recs...)
}

func runFindBy(opts *RootOptions, fbOpts *FindByOptions, args []string, cmd *cobra.Command) (err error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		column, value, ok := strings.Cut(arg, "=")
		if !ok || column == "" {
			return fmt.Errorf("invalid condition %q: want column=value", arg)
		}
		if value == "null" {
			values[column] = nil
		} else {
			values[column] = value
		}
	}

	s, err := open(opts, cmd)
	if err != nil {
		return err
	}
	defer closeInto(s, &err)

	ctx := cmd.Context()
	f := s.container.Finder()
	attrs := finder.By(values)

	var rec *record.Record
	if fbOpts.Raise {
		rec, err = f.FindByOrRaise(ctx, s.class, attrs)
	} else {
		rec, err = f.FindBy(ctx, s.class, attrs)
	}
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	return write(cmd.OutOrStdout(), opts.Format, rec)
}

func write(w io.Writer, format string, recs ...*record.Record) error {
	for _, rec := range recs {
		if format == "json" {
			if err := json.NewEncoder(w).Encode(rec.Attributes().Values()); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, rec.String()); err != nil {
			return err
		}
	}
	return nil
}
