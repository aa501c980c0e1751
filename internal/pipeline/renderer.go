package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/vacdash/internal/model"
)

// Renderer writes snapshots to files and terminals
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the snapshot (without the table) as indented JSON
func (r *Renderer) RenderJSON(snap *model.Snapshot, path string) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes a Markdown report of the dashboard
func (r *Renderer) RenderMarkdown(snap *model.Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create markdown: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := r.WriteMarkdown(f, snap); err != nil {
		return err
	}
	return f.Close()
}

// WriteMarkdown renders the Markdown report to w
func (r *Renderer) WriteMarkdown(w io.Writer, snap *model.Snapshot) error {
	d := snap.Dashboard
	var b strings.Builder

	b.WriteString("# Vaccination Program Dashboard\n\n")

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Latest Submission | %s |\n", mdEscape(d.LatestSubmission))
	fmt.Fprintf(&b, "| Last Vaccine (VA_FIVE) | %s |\n", mdEscape(d.LastVaccine))
	fmt.Fprintf(&b, "| Location (State) | %s |\n", mdEscape(d.LastState))
	fmt.Fprintf(&b, "| No. of States Covered | %d |\n", d.StateCoverageCount)
	fmt.Fprintf(&b, "| Total Number of Children | %d |\n\n", d.ChildCount)

	b.WriteString("## Gender Distribution\n\n")
	if len(d.GenderCounts) == 0 {
		b.WriteString("_No gender data._\n\n")
	} else {
		b.WriteString("| Gender | Count |\n|---|---|\n")
		for _, c := range d.GenderCounts {
			fmt.Fprintf(&b, "| %s | %d |\n", mdEscape(c.Category), c.Count)
		}
		if d.GenderMissing > 0 {
			fmt.Fprintf(&b, "\n%d record(s) without gender.\n", d.GenderMissing)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Vaccination Status by Age Group\n\n")
	if len(d.VaccStatusByAgeGroup) == 0 {
		b.WriteString("_No records with an age between 0 and 17._\n\n")
	} else {
		b.WriteString("| Age Group | VACC_STAT | Count |\n|---|---|---|\n")
		for _, g := range d.VaccStatusByAgeGroup {
			fmt.Fprintf(&b, "| %s | %s | %d |\n", mdEscape(g.AgeGroup), mdEscape(g.VaccStatus), g.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Geographic Coverage\n\n")
	fmt.Fprintf(&b, "%d located submission(s) across %d state(s).\n\n", len(d.GeoPoints), d.StateCoverageCount)

	if r.includeFooter {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "Snapshot `%s`: %d record(s), %d column(s), %d page(s), fetched %s from %s\n",
			snap.ID, d.Records, d.Columns, snap.Pages, snap.FetchedAt.Format("2006-01-02 15:04:05 MST"), snap.SourceURL)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderCSV writes the flattened table as CSV
func (r *Renderer) RenderCSV(t *model.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteCSV(f, t); err != nil {
		return err
	}
	return f.Close()
}

// RenderSummary prints the headline figures to w
func (r *Renderer) RenderSummary(w io.Writer, snap *model.Snapshot) {
	d := snap.Dashboard
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "  Vaccination Program Dashboard")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Latest submission:   %s\n", d.LatestSubmission)
	fmt.Fprintf(w, "  Last vaccine:        %s\n", d.LastVaccine)
	fmt.Fprintf(w, "  Location (state):    %s\n", d.LastState)
	fmt.Fprintf(w, "  States covered:      %d\n", d.StateCoverageCount)
	fmt.Fprintf(w, "  Children:            %d\n", d.ChildCount)
	fmt.Fprintf(w, "  Records:             %d\n", d.Records)
	fmt.Fprintf(w, "  Located submissions: %d\n", len(d.GeoPoints))
	fmt.Fprintln(w)
}

// WriteCSV writes the header row followed by one line per record.
// Missing cells are written as empty fields.
func WriteCSV(w io.Writer, t *model.Table) error {
	cw := csv.NewWriter(w)
	columns := t.Columns()
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	row := make([]string, len(columns))
	for i := 0; i < t.Len(); i++ {
		for j, col := range columns {
			row[j] = t.Cell(i, col).String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
