package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/j-emberton/HXforge/internal/engine"
	"github.com/j-emberton/HXforge/internal/physics"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	tablesDir  string
	ext        string
	delimiter  string
	keyColumn  string
	duplicates string
	bounds     string
	jsonOut    bool
	verbose    bool
}

func (g *globalOptions) loadOptions() (engine.LoadOptions, error) {
	if len(g.delimiter) != 1 {
		return engine.LoadOptions{}, fmt.Errorf("--delimiter must be a single byte, got %q", g.delimiter)
	}
	dup, err := engine.ParseDuplicatePolicy(g.duplicates)
	if err != nil {
		return engine.LoadOptions{}, err
	}
	return engine.LoadOptions{Delimiter: g.delimiter[0], KeyColumn: g.keyColumn, Duplicates: dup}, nil
}

func (g *globalOptions) resolver() engine.DirResolver {
	return engine.DirResolver{Dir: g.tablesDir, Ext: g.ext}
}

func (g *globalOptions) loadTable(fluid string) (*engine.Table, error) {
	opts, err := g.loadOptions()
	if err != nil {
		return nil, err
	}
	return engine.Load(g.resolver(), fluid, opts)
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:          "hxforge",
		Short:        "Fluid property lookup and heat-exchanger formulas",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(cmd.ErrOrStderr())
			if g.verbose {
				log.SetLevel(log.DEBUG)
			} else {
				log.SetLevel(log.WARN)
			}
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&g.tablesDir, "tables", "tables", "directory holding <fluid><ext> tables")
	pf.StringVar(&g.ext, "ext", engine.DefaultExt, "table file extension")
	pf.StringVar(&g.delimiter, "delimiter", "\t", "field delimiter")
	pf.StringVar(&g.keyColumn, "key", engine.DefaultKeyColumn, "key column name")
	pf.StringVar(&g.duplicates, "duplicates", "reject", "duplicate keys: reject, keep-first, keep-last")
	pf.StringVar(&g.bounds, "bounds", "strict", "out-of-range policy: strict, clamp, extrapolate")
	pf.BoolVar(&g.jsonOut, "json", false, "print JSON")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log table loading")

	root.AddCommand(
		newFluidsCmd(g),
		newPropsCmd(g),
		newSweepCmd(g),
		newExportCmd(g),
		newHTCCmd(g),
		newWallCmd(g),
		newLMTDCmd(g),
	)
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }

func newFluidsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fluids",
		Short: "List available fluid tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fluids, err := g.resolver().List()
			if err != nil {
				return err
			}
			if g.jsonOut {
				return writeJSON(cmd.OutOrStdout(), fluids)
			}
			for _, f := range fluids {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

func newPropsCmd(g *globalOptions) *cobra.Command {
	var (
		enthalpies []float64
		strategy   string
		pressure   float64
	)
	cmd := &cobra.Command{
		Use:   "props FLUID",
		Short: "Evaluate properties at one or more enthalpies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(enthalpies) == 0 {
				return fmt.Errorf("at least one --h value is required")
			}
			bounds, err := engine.ParseBoundsPolicy(g.bounds)
			if err != nil {
				return err
			}

			var ev *engine.Evaluator
			switch strategy {
			case "table":
				t, err := g.loadTable(args[0])
				if err != nil {
					return err
				}
				ev = engine.NewTableEvaluator(t, engine.WithBounds(bounds))
			case "liquid":
				var opts []engine.EvaluatorOption
				if cmd.Flags().Changed("pressure") {
					opts = append(opts, engine.WithPressure(pressure))
				}
				ev = engine.NewExternalEvaluator(args[0], engine.Water25C, opts...)
			default:
				return fmt.Errorf("unknown strategy %q (table, liquid)", strategy)
			}

			rows := make([]engine.Row, 0, len(enthalpies))
			for _, h := range enthalpies {
				row, err := ev.SetEnthalpy(h)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}
			return printRows(cmd.OutOrStdout(), g.jsonOut, rows)
		},
	}
	cmd.Flags().Float64SliceVar(&enthalpies, "h", nil, "specific enthalpy (repeatable)")
	cmd.Flags().StringVar(&strategy, "strategy", "table", "computation strategy: table, liquid")
	cmd.Flags().Float64Var(&pressure, "pressure", 0, "pressure for the liquid strategy")
	return cmd
}

func printRows(w io.Writer, asJSON bool, rows []engine.Row) error {
	if asJSON {
		out := make([]map[string]float64, len(rows))
		for i, r := range rows {
			m := r.Map()
			m["enthalpy"] = r.Enthalpy
			out[i] = m
		}
		return writeJSON(w, out)
	}
	if len(rows) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "enthalpy\t"+strings.Join(rows[0].Names, "\t"))
	for _, r := range rows {
		cells := make([]string, 0, len(r.Values)+1)
		cells = append(cells, formatFloat(r.Enthalpy))
		for _, v := range r.Values {
			cells = append(cells, formatFloat(v))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func newSweepCmd(g *globalOptions) *cobra.Command {
	var (
		from, to float64
		steps    int
	)
	cmd := &cobra.Command{
		Use:   "sweep FLUID",
		Short: "Evaluate evenly spaced enthalpies across a range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bounds, err := engine.ParseBoundsPolicy(g.bounds)
			if err != nil {
				return err
			}
			t, err := g.loadTable(args[0])
			if err != nil {
				return err
			}
			points, err := engine.Sweep(t, from, to, steps, bounds)
			if err != nil {
				return err
			}
			names := t.Columns()
			rows := make([]engine.Row, len(points))
			for i, p := range points {
				rows[i] = engine.Row{Enthalpy: p.Enthalpy, Names: names, Values: p.Values}
			}
			return printRows(cmd.OutOrStdout(), g.jsonOut, rows)
		},
	}
	cmd.Flags().Float64Var(&from, "from", 0, "first enthalpy")
	cmd.Flags().Float64Var(&to, "to", 0, "last enthalpy")
	cmd.Flags().IntVar(&steps, "steps", 11, "number of points, ends included")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newExportCmd(g *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export FLUID",
		Short: "Write a fluid table as an Arrow IPC stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := g.loadTable(args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return engine.WriteArrow(cmd.OutOrStdout(), t)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := engine.WriteArrow(f, t); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func printScalar(cmd *cobra.Command, asJSON bool, v float64, unit string) error {
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"value": v, "unit": unit})
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", formatFloat(v), unit)
	return err
}

func newHTCCmd(g *globalOptions) *cobra.Command {
	var htc1, htc2, rWall float64
	cmd := &cobra.Command{
		Use:   "htc",
		Short: "Overall heat transfer coefficient of two films and a wall",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := physics.OverallHTC(htc1, htc2, rWall)
			if err != nil {
				return err
			}
			return printScalar(cmd, g.jsonOut, u, "W/(m2.K)")
		},
	}
	cmd.Flags().Float64Var(&htc1, "htc1", 0, "first film coefficient, W/(m2.K)")
	cmd.Flags().Float64Var(&htc2, "htc2", 0, "second film coefficient, W/(m2.K)")
	cmd.Flags().Float64Var(&rWall, "rwall", 0, "wall resistance, K.m2/W")
	return cmd
}

func newWallCmd(g *globalOptions) *cobra.Command {
	var thickness, k float64
	cmd := &cobra.Command{
		Use:   "wall",
		Short: "Conductive resistance of a plane wall",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := physics.WallResistance(thickness, k)
			if err != nil {
				return err
			}
			return printScalar(cmd, g.jsonOut, r, "K.m2/W")
		},
	}
	cmd.Flags().Float64Var(&thickness, "thickness", 0, "wall thickness, m")
	cmd.Flags().Float64Var(&k, "k", 0, "thermal conductivity, W/(m.K)")
	return cmd
}

func newLMTDCmd(g *globalOptions) *cobra.Command {
	var u, area, dt1, dt2, tubeLength, tubeOD float64
	cmd := &cobra.Command{
		Use:   "lmtd",
		Short: "Heat duty from the log-mean temperature difference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("tube-length") || cmd.Flags().Changed("tube-od") {
				if cmd.Flags().Changed("area") {
					return fmt.Errorf("use either --area or --tube-length/--tube-od")
				}
				a, err := physics.TubeOuterArea(tubeLength, tubeOD)
				if err != nil {
					return err
				}
				area = a
			}
			q, err := physics.HeatLoadLMTD(u, area, dt1, dt2)
			if err != nil {
				return err
			}
			return printScalar(cmd, g.jsonOut, q, "W")
		},
	}
	cmd.Flags().Float64Var(&u, "u", 500, "overall coefficient, W/(m2.K)")
	cmd.Flags().Float64Var(&area, "area", 10, "area, m2")
	cmd.Flags().Float64Var(&dt1, "dt1", 30, "terminal difference 1, K")
	cmd.Flags().Float64Var(&dt2, "dt2", 20, "terminal difference 2, K")
	cmd.Flags().Float64Var(&tubeLength, "tube-length", 0, "take the area from a straight tube of this length, m")
	cmd.Flags().Float64Var(&tubeOD, "tube-od", 0, "outer diameter of that tube, m")
	cmd.MarkFlagsRequiredTogether("tube-length", "tube-od")
	return cmd
}
