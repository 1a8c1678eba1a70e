// Command snapinfo summarises a Gadget-family HDF5 snapshot: its variant,
// shards, particle layout, unit system and header properties, and
// optionally the first values of selected arrays.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/robert-malhotra/go-gadgethdf/derived"
	"github.com/robert-malhotra/go-gadgethdf/family"
	"github.com/robert-malhotra/go-gadgethdf/snapshot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	key     = color.New(color.FgYellow).SprintFunc()
	failed  = color.New(color.FgRed).SprintFunc()
)

type flags struct {
	family  string
	load    []string
	rows    int
	config  string
	variant string
	verbose bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var fl flags
	cmd := &cobra.Command{
		Use:          "snapinfo <snapshot>",
		Short:        "Summarise a Gadget, Arepo, Eagle or SubFind HDF5 snapshot",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), args[0], fl)
		},
	}
	cmd.Flags().StringVarP(&fl.family, "family", "f", "", "restrict loaded arrays to one family")
	cmd.Flags().StringSliceVarP(&fl.load, "load", "l", nil, "arrays to load or derive and print")
	cmd.Flags().IntVarP(&fl.rows, "rows", "n", 5, "particles to print per loaded array")
	cmd.Flags().StringVar(&fl.config, "config", "", "YAML file overriding the built-in name and family tables")
	cmd.Flags().StringVar(&fl.variant, "variant", "", "skip detection and use this variant")
	cmd.Flags().BoolVarP(&fl.verbose, "verbose", "v", false, "log at debug level")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func run(w io.Writer, path string, fl flags) error {
	log, err := newLogger(fl.verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	var fam family.Family
	if fl.family != "" {
		if fam, err = family.Get(fl.family); err != nil {
			return err
		}
	}

	derived.Register(snapshot.DefaultRegistry)
	opts := []snapshot.Option{snapshot.WithLogger(log)}
	if fl.config != "" {
		opts = append(opts, snapshot.WithConfigFile(fl.config))
	}
	if fl.variant != "" {
		v, err := snapshot.VariantByName(fl.variant)
		if err != nil {
			return err
		}
		opts = append(opts, snapshot.WithVariant(v))
	}

	s, err := snapshot.Open(path, opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	describe(w, s)
	for _, name := range fl.load {
		a, err := s.Get(name, fam)
		if err != nil {
			fmt.Fprintf(w, "%s %v\n", failed("error:"), err)
			continue
		}
		printArray(w, a, fl.rows)
	}
	return nil
}

func describe(w io.Writer, s *snapshot.Snapshot) {
	fmt.Fprintf(w, "%s %s\n", heading("snapshot"), s.Path())
	fmt.Fprintf(w, "  %s %s\n", key("variant:"), s.Variant().Name)
	fmt.Fprintf(w, "  %s %d\n", key("shards:"), s.NumShards())
	fmt.Fprintf(w, "  %s %d\n", key("particles:"), s.Len())
	fmt.Fprintf(w, "  %s %v\n", key("mass type:"), s.MassType())

	fmt.Fprintln(w, heading("families"))
	for _, f := range s.Families() {
		r, _ := s.Range(f)
		fmt.Fprintf(w, "  %s [%d, %d) %v\n", key(f.String()+":"), r.Start, r.Stop, s.Groups(f))
		fmt.Fprintf(w, "    %v\n", s.LoadableKeys(f))
	}

	u := s.Units()
	fmt.Fprintln(w, heading("units"))
	fmt.Fprintf(w, "  %s %s\n", key("length:"), u.Length)
	fmt.Fprintf(w, "  %s %s\n", key("velocity:"), u.Velocity)
	fmt.Fprintf(w, "  %s %s\n", key("mass:"), u.Mass)
	fmt.Fprintf(w, "  %s %s\n", key("time:"), u.Time)
	if u.Defaulted {
		fmt.Fprintf(w, "  %s\n", failed("(defaults, no unit information in file)"))
	}

	p := s.Properties()
	fmt.Fprintln(w, heading("properties"))
	for _, name := range p.AttrNames() {
		v, _ := p.Attr(name)
		fmt.Fprintf(w, "  %s %v\n", key(name+":"), v)
	}
}

func printArray(w io.Writer, a *snapshot.Array, rows int) {
	fmt.Fprintln(w, heading(a.String()))
	n := min(rows, a.Len())
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, "  %6d", i)
		for j := 0; j < a.Dim; j++ {
			fmt.Fprintf(w, " %12.6g", a.Float(i, j))
		}
		fmt.Fprintln(w)
	}
}
