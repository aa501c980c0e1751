package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/vacdash/internal/charts"
	"github.com/ppiankov/vacdash/internal/model"
	"github.com/ppiankov/vacdash/internal/pipeline"
)

var (
	outJSON       string
	outMD         string
	outCSV        string
	chartsDir     string
	chartFormat   string
	renderTimeout time.Duration
	noCache       bool
	noFooter      bool
)

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Fetch field data once and write dashboard files",
	Long: `Render runs the dashboard pipeline once:
- Fetch the configured page(s) of field data
- Flatten, clean and aggregate the submissions
- Write the dashboard as JSON, and optionally Markdown, CSV and chart images
- Print the headline figures

Example:
  vacdash render
  vacdash render --json dashboard.json --md dashboard.md --csv records.csv
  vacdash render --charts ./charts --format png
  vacdash render --no-cache`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	// Output flags
	renderCmd.Flags().StringVar(&outJSON, "json", "dashboard.json", "output JSON path (empty to skip)")
	renderCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	renderCmd.Flags().StringVar(&outCSV, "csv", "", "output CSV path for the flattened records (optional)")
	renderCmd.Flags().StringVar(&chartsDir, "charts", "", "directory for chart images (optional)")
	renderCmd.Flags().StringVar(&chartFormat, "format", "svg", "chart image format (svg, png)")
	renderCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Fetch flags
	renderCmd.Flags().DurationVar(&renderTimeout, "timeout", 2*time.Minute, "overall render timeout")
	renderCmd.Flags().BoolVar(&noCache, "no-cache", false, "drop any cached data and fetch again")
	renderCmd.Flags().Int("max-pages", 0, "pages to fetch (default from fetch.max_pages)")
	_ = viper.BindPFlag("fetch.max_pages", renderCmd.Flags().Lookup("max-pages"))
}

func runRender(cmd *cobra.Command, args []string) error {
	format, err := charts.ParseFormat(chartFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
	defer cancel()

	c, closeCache := newCache(cfg.Cache, logger)
	defer closeCache()
	p := pipeline.NewPipeline(cfg, c, logger)

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Fetching field data from %s\n", cfg.API.BaseURL)
	}

	var snap *model.Snapshot
	if noCache {
		snap, err = p.Refresh(ctx)
	} else {
		snap, err = p.Dashboard(ctx)
	}
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded %d records (%d columns) from %d page(s)\n",
			snap.Dashboard.Records, snap.Dashboard.Columns, snap.Pages)
		fmt.Fprintln(os.Stderr)
	}

	if err := writeOutputs(snap, format); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	pipeline.NewRenderer(!noFooter).RenderSummary(cmd.OutOrStdout(), snap)
	return nil
}

func writeOutputs(snap *model.Snapshot, format charts.Format) error {
	r := pipeline.NewRenderer(!noFooter)

	if outJSON != "" {
		if err := r.RenderJSON(snap, outJSON); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ JSON dashboard: %s\n", outJSON)
	}

	if outMD != "" {
		if err := r.RenderMarkdown(snap, outMD); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown dashboard: %s\n", outMD)
	}

	if outCSV != "" {
		if err := r.RenderCSV(snap.Table, outCSV); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ CSV records: %s\n", outCSV)
	}

	if chartsDir != "" {
		if err := os.MkdirAll(chartsDir, 0755); err != nil {
			return fmt.Errorf("create charts directory: %w", err)
		}
		for _, name := range charts.Names {
			path := filepath.Join(chartsDir, name+"."+string(format))
			if err := writeChart(path, name, snap.Dashboard, format); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Chart: %s\n", path)
		}
	}

	return nil
}

func writeChart(path, name string, d model.Dashboard, format charts.Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close chart: %w", closeErr)
		}
	}()
	return charts.Render(name, d, format, f)
}
