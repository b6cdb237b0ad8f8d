package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"patientcluster/internal/export"
	"patientcluster/internal/logger"
	"patientcluster/internal/pipeline"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "patientcluster",
		Short:         "Cluster a patient table with KMeans, Ward and DBSCAN and keep the best",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				return logger.Initialize(false)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress")

	rootCmd.AddCommand(
		newRunCmd(),
		newSnapshotCmd(),
	)
	return rootCmd
}

type runOptions struct {
	out      string
	snapshot string
	charts   string
	report   string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Cluster a CSV or XLSX file and write the labelled table",
		Long: `Run the full clustering pipeline on one file.

The clustered table is written as CSV with an added Cluster column, and a
binary snapshot of it is kept for later inspection.

Example: patientcluster run patients.csv --out clustered_patients.csv --charts ./charts`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", export.DownloadFilename, "Path of the clustered CSV")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", export.DefaultSnapshotPath, "Path of the binary snapshot, empty to skip")
	cmd.Flags().StringVar(&opts.charts, "charts", "", "Directory for the scatter and dendrogram HTML pages")
	cmd.Flags().StringVar(&opts.report, "report", "", "Path of a Markdown run summary")

	return cmd
}

func newSnapshotCmd() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "snapshot [file]",
		Short: "Print the head of a saved snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := export.DefaultSnapshotPath
			if len(args) == 1 {
				path = args[0]
			}
			return printSnapshot(cmd.OutOrStdout(), path, rows)
		},
	}

	cmd.Flags().IntVar(&rows, "rows", pipeline.PreviewRows, "Number of rows to print")

	return cmd
}

func runPipeline(ctx context.Context, w io.Writer, path string, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	result, err := pipeline.Run(ctx, pipeline.Upload{
		Filename:     filepath.Base(path),
		Data:         data,
		SnapshotPath: opts.snapshot,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.out, result.CSV, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.out, err)
	}

	if opts.charts != "" {
		if err := writeCharts(opts.charts, result); err != nil {
			return err
		}
	}

	if opts.report != "" {
		if err := os.WriteFile(opts.report, result.Report, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.report, err)
		}
	}

	printSummary(w, result, opts.out)
	return nil
}

func writeCharts(dir string, result *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scatter.html"), result.ScatterHTML, 0o644); err != nil {
		return fmt.Errorf("failed to write scatter chart: %w", err)
	}
	if result.DendrogramHTML != nil {
		if err := os.WriteFile(filepath.Join(dir, "dendrogram.html"), result.DendrogramHTML, 0o644); err != nil {
			return fmt.Errorf("failed to write dendrogram: %w", err)
		}
	}
	return nil
}

func printSummary(w io.Writer, result *pipeline.Result, out string) {
	fmt.Fprintf(w, "Best clustering method selected: %s\n", result.Best.Method)
	fmt.Fprintf(w, "Silhouette Score: %.3f\n\n", result.Best.Score)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tSCORE\tCLUSTERS\tNOISE")
	for _, m := range result.Methods {
		fmt.Fprintf(tw, "%s\t%.3f\t%d\t%d\n", m.Method, m.Score, m.Clusters, m.Noise)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nWrote %d rows to %s\n", result.Output.NumRows(), out)
	if result.SnapshotErr != nil {
		fmt.Fprintf(w, "Warning: snapshot not saved: %v\n", result.SnapshotErr)
	}
}

func printSnapshot(w io.Writer, path string, rows int) error {
	table, err := export.LoadSnapshot(path)
	if err != nil {
		return err
	}
	head := table.Head(rows)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, h := range head.Headers {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	for _, row := range head.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()

	fmt.Fprintf(w, "(%d of %d rows from %s)\n", len(head.Rows), table.NumRows(), table.Name)
	return nil
}
