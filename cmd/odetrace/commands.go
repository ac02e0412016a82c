package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/san-kum/odetrace/internal/automation"
	"github.com/san-kum/odetrace/internal/config"
	"github.com/san-kum/odetrace/internal/dynamo"
	"github.com/san-kum/odetrace/internal/experiment"
	"github.com/san-kum/odetrace/internal/export"
	"github.com/san-kum/odetrace/internal/expr"
	"github.com/san-kum/odetrace/internal/metrics"
	"github.com/san-kum/odetrace/internal/optim"
	"github.com/san-kum/odetrace/internal/server"
	"github.com/san-kum/odetrace/internal/storage"
	"github.com/san-kum/odetrace/internal/viz"
)

// resolveConfig layers defaults, preset, problem file, ODETRACE_* variables
// and changed flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if err := config.ParseEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("slope") {
		cfg.Slope = slope
	}
	if flags.Changed("exact") {
		cfg.Exact = exact
	}
	if flags.Changed("x0") {
		cfg.X0 = x0
	}
	if flags.Changed("y0") {
		cfg.Y0 = y0
	}
	if flags.Changed("h") {
		cfg.H = h
	}
	if flags.Changed("x-end") {
		cfg.XEnd = xEnd
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("precision") {
		cfg.Precision = precision
	}
	if flags.Changed("grid") {
		cfg.Grid = grid
	}
	if cmd.Root().PersistentFlags().Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

func vizOptions(cfg *config.Config) viz.Options {
	return viz.Options{
		Precision: cfg.Precision,
		Styled:    !noColor && viz.IsTerminal(os.Stdout),
		Theme:     viz.GetTheme(theme),
	}
}

func runProblem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return solveAndReport(cmd.Context(), cfg, !noSave)
}

func solveAndReport(ctx context.Context, cfg *config.Config, save bool) error {
	exp, err := experiment.New(cfg, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	start := time.Now()
	trace, runErr := exp.Run(ctx)
	if trace == nil {
		return runErr
	}
	elapsed := time.Since(start)

	out := os.Stdout
	opts := vizOptions(cfg)
	if showTable {
		if err := viz.RenderTable(out, trace, opts); err != nil {
			return err
		}
	}
	if showChart {
		fmt.Fprintln(out, viz.Chart(trace, 60, 12, opts.Styled))
		fmt.Fprintln(out)
	}
	if err := viz.RenderSummary(out, metrics.Summarize(trace), opts); err != nil {
		return err
	}
	for _, e := range trace.ExactErrors {
		fmt.Fprintf(out, "exact solution unavailable: %v\n", e)
	}
	fmt.Fprintf(out, "completed in %v\n", elapsed)

	if plotOut != "" {
		if err := export.SavePlot(plotOut, trace, exp.Request().Exact, export.PlotOptions{Title: cfg.Label, Grid: cfg.Grid}); err != nil {
			return err
		}
		fmt.Fprintf(out, "plot: %s\n", plotOut)
	}

	if save {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg, trace)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run id: %s\n", runID)
	}
	return runErr
}

func compareMethods(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	methods := args
	if len(methods) == 0 {
		methods = registry.List()
	}

	exp, err := experiment.New(cfg, experiment.WithLogger(logger), experiment.WithRegistry(registry))
	if err != nil {
		return err
	}
	outcomes, err := exp.Compare(cmd.Context(), methods)
	if err != nil {
		return err
	}

	summaries := make([]metrics.Summary, len(outcomes))
	for i, o := range outcomes {
		summaries[i] = o.Summary
	}
	return viz.RenderComparison(os.Stdout, summaries, vizOptions(cfg))
}

func promptProblem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !accessible && !viz.IsTerminal(os.Stdin) {
		accessible = true
	}
	if err := viz.Prompt(cfg, experiment.NewRegistry().List(), accessible); err != nil {
		return err
	}
	return solveAndReport(cmd.Context(), cfg, !noSave)
}

func viewRun(cmd *cobra.Command, args []string) error {
	var (
		trace *dynamo.Trace
		cfg   *config.Config
	)
	if len(args) == 1 {
		meta, t, err := storage.New(dataDir).LoadTrace(args[0])
		if err != nil {
			return err
		}
		trace, cfg = t, meta.Config()
	} else {
		c, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		exp, err := experiment.New(c, experiment.WithLogger(logger))
		if err != nil {
			return err
		}
		t, err := exp.Run(cmd.Context())
		if t == nil {
			return err
		}
		trace, cfg = t, c
	}

	opts := vizOptions(cfg)
	opts.Styled = !noColor
	_, err := tea.NewProgram(viz.NewViewer(trace, opts), tea.WithAltScreen()).Run()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMETHOD\tSTATUS\tSTEPS\tSLOPE\tTIMESTAMP")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			r.ID, r.Method, r.Status, r.Summary.StepsTaken, r.StepCount, r.Slope,
			r.Timestamp.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := storage.New(dataDir).LoadTrace(args[0])
	if err != nil {
		return err
	}
	cfg := meta.Config()
	opts := vizOptions(cfg)

	fmt.Printf("run %s: y' = %s", meta.ID, meta.Slope)
	if meta.Exact != "" {
		fmt.Printf(", exact %s", meta.Exact)
	}
	fmt.Println()
	if err := viz.RenderTable(os.Stdout, trace, opts); err != nil {
		return err
	}
	if showChart {
		fmt.Println(viz.Chart(trace, 60, 12, opts.Styled))
		fmt.Println()
	}
	return viz.RenderSummary(os.Stdout, meta.Summary, opts)
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, trace, err := storage.New(dataDir).LoadTrace(args[0])
	if err != nil {
		return err
	}

	if outPath == "" {
		fmt.Println(viz.Chart(trace, 70, 15, !noColor && viz.IsTerminal(os.Stdout)))
		return nil
	}

	var exactFn dynamo.Formula
	if meta.Exact != "" {
		f, err := expr.Compile(meta.Exact, "x")
		if err != nil {
			return fmt.Errorf("exact: %w", err)
		}
		exactFn = f
	}
	title := meta.Label
	if title == "" {
		title = fmt.Sprintf("y' = %s (%s, h = %g)", meta.Slope, meta.Method, meta.H)
	}
	if err := export.SavePlot(outPath, trace, exactFn, export.PlotOptions{Title: title, Grid: grid}); err != nil {
		return err
	}
	fmt.Printf("plot: %s\n", outPath)
	return nil
}

// output returns the destination for an export and a function that closes
// it.
func output() (io.Writer, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, trace, err := storage.New(dataDir).LoadTrace(args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := export.WriteCSV(w, trace, csvPrecision); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, trace, err := storage.New(dataDir).LoadTrace(args[0])
	if err != nil {
		return err
	}
	doc := export.NewDocument(meta.Slope, meta.Exact, trace)
	doc.ID, doc.Label = meta.ID, meta.Label

	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := export.WriteJSON(w, doc); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSLOPE\tEXACT\tINTERVAL\tH\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%s\t%s\t[%g, %g]\t%g\t%s\n", name, p.Slope, p.Exact, p.X0, p.XEnd, p.H, p.Label)
	}
	return w.Flush()
}

func listMethods(cmd *cobra.Command, args []string) error {
	rows := make([][]string, 0)
	for _, m := range experiment.NewRegistry().Info() {
		stages := "-"
		if len(m.Stages) > 0 {
			stages = fmt.Sprint(m.Stages)
		}
		rows = append(rows, []string{m.Name, fmt.Sprint(m.Order), stages})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("method", "order", "stages").
		Rows(rows...)
	fmt.Println(tbl.Render())
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defaults := config.DefaultConfig()
	defaults.Exact = ""
	if err := config.ParseEnv(defaults); err != nil {
		return err
	}
	if cmd.Flags().Changed("max-steps") {
		defaults.MaxSteps = maxSteps
	}

	gin.SetMode(gin.ReleaseMode)
	h := server.NewHandlers(experiment.NewRegistry(), defaults, logger)
	if err := server.Serve(ctx, addr, h); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func convergeProblem(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	points, err := optim.NewStepStudy(cfg.H, levels).Run(cmd.Context(), cfg, cfg.Method)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "H\tSTEPS\tSTATUS\tFINAL Y\tABS ERROR\tMAX ERROR\tORDER")
	for _, p := range points {
		fmt.Fprintf(w, "%g\t%d\t%s\t%s\t%s\t%s\t%s\n",
			p.H, p.Steps, p.Status,
			dynamo.Some(p.FinalY).Format(cfg.Precision),
			p.AbsError.Format(cfg.Precision), p.MaxError.Format(cfg.Precision), p.Order.Format(3))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if tolerance > 0 {
		if best, ok := optim.Coarsest(points, tolerance); ok {
			fmt.Printf("\ncoarsest step within %g: h=%g (%d steps)\n", tolerance, best.H, best.Steps)
		} else {
			fmt.Printf("\nno step size reached %g\n", tolerance)
		}
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	results, err := automation.NewRunner(st, logger).Run(cmd.Context(), sc)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d problems\n", sc.Name, len(results))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROBLEM\tSTATUS\tSTEPS\tFINAL Y\tABS ERROR\tRUN")
	failed := 0
	for _, r := range results {
		if r.Summary == nil {
			failed++
			fmt.Fprintf(w, "%s\trejected\t-\t-\t-\t%v\n", r.Name, r.Err)
			continue
		}
		if r.Err != nil {
			failed++
		}
		s := r.Summary
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%g\t%s\t%s\n",
			r.Name, s.Status, s.StepsTaken, s.StepCount, s.FinalY, s.FinalAbsError.Format(config.DefaultPrecision), r.RunID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d problems failed", failed, len(results))
	}
	return nil
}
