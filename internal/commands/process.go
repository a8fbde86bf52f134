package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/garyjia/timecard-reconciler/internal/application/service"
	"github.com/garyjia/timecard-reconciler/internal/config"
	"github.com/garyjia/timecard-reconciler/internal/container"
)

type processOptions struct {
	pdfs      []string
	dir       string
	output    string
	allowlist string
	xlsx      bool
	persist   bool
	workers   int
}

func newProcessCommand(a *app) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "Reconcile time-card PDFs and write the reports",
		Long: "Reconcile time-card PDFs and write the summary, detail and failure reports.\n" +
			"Documents that fail are listed in the failure report; the command only\n" +
			"exits non-zero when the run cannot be set up or outputs cannot be written.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.pdfs = append(opts.pdfs, args...)
			return runProcess(cmd.Context(), a, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVar(&opts.pdfs, "pdf", nil, "time-card file (repeatable)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "process every PDF in this directory")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "summary CSV path (default output.csv_path)")
	cmd.Flags().StringVar(&opts.allowlist, "allowlist", "", "allowlist file, one name per line")
	cmd.Flags().BoolVar(&opts.xlsx, "xlsx", false, "also write an XLSX workbook")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "store the run in the database")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "override pipeline.workers")

	return cmd
}

func runProcess(ctx context.Context, a *app, opts processOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := collectPaths(opts.pdfs, opts.dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input files: use --pdf or --dir")
	}

	cfg := *a.cfg
	applyProcessFlags(&cfg, opts)

	c, err := container.NewContainer(&cfg, a.logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	popts := service.ProcessOptions{CSVPath: cfg.Output.CSVPath, Persist: opts.persist}
	if cfg.Output.XLSX {
		popts.XLSXPath = strings.TrimSuffix(cfg.Output.CSVPath, filepath.Ext(cfg.Output.CSVPath)) + ".xlsx"
	}

	res, err := c.Services().Timesheet.Process(ctx, paths, popts)
	if err != nil {
		return err
	}
	printResult(out, res)
	return nil
}

func applyProcessFlags(cfg *config.Config, opts processOptions) {
	if opts.output != "" {
		cfg.Output.CSVPath = opts.output
	}
	if opts.allowlist != "" {
		cfg.Allowlist.Source = config.AllowlistSourceFile
		cfg.Allowlist.Path = opts.allowlist
	}
	if opts.xlsx {
		cfg.Output.XLSX = true
	}
	if opts.persist {
		cfg.Database.Enabled = true
	}
	if opts.workers > 0 {
		cfg.Pipeline.Workers = opts.workers
	}
}

// collectPaths merges explicit files with the PDFs of dir, sorted and without
// duplicates.
func collectPaths(files []string, dir string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, f := range files {
		add(f)
	}
	if dir == "" {
		return paths, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var found []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		found = append(found, filepath.Join(dir, e.Name()))
	}
	sort.Strings(found)
	for _, f := range found {
		add(f)
	}
	return paths, nil
}

func printResult(w io.Writer, res *service.ProcessResult) {
	r := res.Report
	fmt.Fprintf(w, "run %s: %d documents, %d reconciled, %d failed (%s)\n",
		r.RunID, res.Documents, len(r.Summaries), len(r.Failures), res.Elapsed.Round(1e6))
	for _, s := range r.Summaries {
		signed := "nao"
		if s.Signed {
			signed = "sim"
		}
		fmt.Fprintf(w, "  %-40s %s  previsto %s  realizado %s  saldo %s  assinado %s\n",
			s.Employee, s.Period, s.Expected, s.Worked, s.Balance, signed)
	}
	for _, f := range r.FailureRows() {
		fmt.Fprintf(w, "  FALHA %s: %s\n", f.Path, f.Reason)
	}
	if res.CSV != nil {
		fmt.Fprintf(w, "reports: %s, %s, %s\n", res.CSV.Summary, res.CSV.Details, res.CSV.Failures)
	}
	if res.XLSXPath != "" {
		fmt.Fprintf(w, "workbook: %s\n", res.XLSXPath)
	}
	if res.Persisted {
		fmt.Fprintln(w, "run stored in database")
	}
}
