package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/viz"
)

var (
	dataDir  string
	logLevel string
	theme    string
	noColor  bool

	// problem flags, applied only when changed
	configFile string
	preset     string
	method     string
	slope      string
	exact      string
	x0         float64
	y0         float64
	h          float64
	xEnd       float64
	maxSteps   int
	precision  int
	grid       int

	noSave       bool
	showChart    bool
	showTable    bool
	plotOut      string
	outPath      string
	csvPrecision int
	addr         string
	accessible   bool
	levels       int
	tolerance    float64

	logger = slog.New(slog.DiscardHandler)
)

// main registers the command tree and exits with status 1 when a command
// returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "odetrace",
		Short:         "fixed-step ODE solver with stage tables and error tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "run data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.ThemeMinimal.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable styled output")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "solve a problem and print its trace",
		Args:  cobra.NoArgs,
		RunE:  runProblem,
	}
	addProblemFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&showChart, "chart", false, "print an ascii chart")
	runCmd.Flags().BoolVar(&showTable, "table", true, "print the trace table")
	runCmd.Flags().StringVar(&plotOut, "plot", "", "write a comparison plot (png, svg, pdf)")

	compareCmd := &cobra.Command{
		Use:   "compare [method...]",
		Short: "solve one problem with several methods",
		RunE:  compareMethods,
	}
	addProblemFlags(compareCmd)

	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "enter a problem interactively and solve it",
		Args:  cobra.NoArgs,
		RunE:  promptProblem,
	}
	addProblemFlags(promptCmd)
	promptCmd.Flags().BoolVar(&accessible, "accessible", false, "plain line prompts")
	promptCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "browse a stored run, or a fresh one, in a terminal viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  viewRun,
	}
	addProblemFlags(viewCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&showChart, "chart", false, "print an ascii chart")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run against its exact solution",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&outPath, "out", "", "write a png, svg or pdf instead of an ascii chart")
	plotCmd.Flags().IntVar(&grid, "grid", config.DefaultGrid, "exact solution sample points")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a stored run to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	exportCSVCmd.Flags().IntVar(&csvPrecision, "precision", -1, "decimals, -1 for round-trip precision")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available problem presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	methodsCmd := &cobra.Command{
		Use:   "methods",
		Short: "list stepping methods",
		Args:  cobra.NoArgs,
		RunE:  listMethods,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the solve API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "step limit per request (0 for the default)")

	convergeCmd := &cobra.Command{
		Use:   "converge",
		Short: "solve at halved step sizes and estimate the observed order",
		Args:  cobra.NoArgs,
		RunE:  convergeProblem,
	}
	addProblemFlags(convergeCmd)
	convergeCmd.Flags().IntVar(&levels, "levels", 5, "number of step sizes, starting at --h")
	convergeCmd.Flags().Float64Var(&tolerance, "tol", 0, "report the coarsest step with final error within tol")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "solve every problem in a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	rootCmd.AddCommand(runCmd, compareCmd, promptCmd, viewCmd, listCmd, showCmd, plotCmd,
		exportCSVCmd, exportJSONCmd, presetsCmd, methodsCmd, convergeCmd, batchCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addProblemFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "problem file (yaml)")
	f.StringVar(&preset, "preset", "", "start from a named preset")
	f.StringVar(&method, "method", config.DefaultMethod, "stepping method")
	f.StringVar(&slope, "slope", "", "slope f(x, y)")
	f.StringVar(&exact, "exact", "", "exact solution g(x)")
	f.Float64Var(&x0, "x0", config.DefaultX0, "initial x")
	f.Float64Var(&y0, "y0", config.DefaultY0, "initial y")
	f.Float64Var(&h, "h", config.DefaultH, "step size")
	f.Float64Var(&xEnd, "x-end", config.DefaultXEnd, "final x")
	f.IntVar(&maxSteps, "max-steps", 0, "step limit (0 for the default)")
	f.IntVar(&precision, "precision", config.DefaultPrecision, "decimals in tables")
	f.IntVar(&grid, "grid", config.DefaultGrid, "exact solution sample points for plots")
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
