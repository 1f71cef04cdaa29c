package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/tidwall/pretty"

	"github.com/manmeet-sys/vakil-gpt-sub002/internal/config"
	"github.com/manmeet-sys/vakil-gpt-sub002/internal/store"
	"github.com/manmeet-sys/vakil-gpt-sub002/pkg/riskengine"
)

// highestCount is how many of the highest-scoring assessments a report lists.
const highestCount = 3

// RiskReport summarizes the saved assessments
type RiskReport struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Kind        string       `json:"kind,omitempty"`
	Total       int          `json:"total"`
	Bands       []BandCount  `json:"bands"`
	Highest     []ReportItem `json:"highest"`
	Recent      []ReportItem `json:"recent"`
}

// BandCount is the number of assessments in one risk band
type BandCount struct {
	Band  string `json:"band"`
	Count int    `json:"count"`
}

// ReportItem is one assessment with its recommendations
type ReportItem struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Title           string    `json:"title,omitempty"`
	Subject         string    `json:"subject"`
	OverallScore    int       `json:"overall_score"`
	RiskBand        string    `json:"risk_band"`
	Recommendations []string  `json:"recommendations,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func main() {
	// Command-line flags
	var (
		dbPath = flag.String("db", "", "Assessment database path (default: storage.assessment_db from config)")
		kind   = flag.String("kind", "", "Filter by kind: contract or litigation")
		limit  = flag.Int("limit", 10, "Number of assessments to include")
		format = flag.String("format", "text", "Output format: text or json")
		output = flag.String("output", "", "Write the report to a file instead of stdout")
		help   = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		printHelp()
		os.Exit(0)
	}

	path := *dbPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		path = cfg.Storage.AssessmentDB
	}

	if *kind != "" && *kind != store.KindContract && *kind != store.KindLitigation {
		fmt.Fprintf(os.Stderr, "Invalid kind %q: use contract or litigation\n", *kind)
		os.Exit(1)
	}

	st, err := store.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	report, err := generateReport(context.Background(), st, *kind, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating report: %v\n", err)
		os.Exit(1)
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	switch *format {
	case "json":
		err = writeJSONReport(out, report)
	case "text":
		err = writeTextReport(out, report)
	default:
		fmt.Fprintf(os.Stderr, "Unknown format %q\n", *format)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
		os.Exit(1)
	}
	if *output != "" {
		fmt.Printf("Report written to: %s\n", *output)
	}
}

func printHelp() {
	fmt.Print(`Vakil Risk Report

USAGE:
    riskreport [OPTIONS]

OPTIONS:
    -db <path>         Assessment database (default: storage.assessment_db from config)
    -kind <kind>       Only contract or litigation assessments
    -limit <n>         Number of assessments to include (default: 10)
    -format <format>   Output format: text or json (default: text)
    -output <path>     Write the report to a file
    -help              Show this help message

EXAMPLES:
    # Latest assessments of every kind
    riskreport

    # Contract assessments as JSON
    riskreport -kind contract -format json

    # Litigation summary to a file
    riskreport -kind litigation -output litigation.txt
`)
}

func generateReport(ctx context.Context, st *store.Store, kind string, limit int) (*RiskReport, error) {
	counts, err := st.BandCounts(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to count bands: %w", err)
	}
	records, err := st.List(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	top, err := st.Top(ctx, kind, highestCount)
	if err != nil {
		return nil, fmt.Errorf("failed to list highest risk assessments: %w", err)
	}

	report := &RiskReport{
		GeneratedAt: time.Now(),
		Kind:        kind,
	}

	// Bands from least to most severe, then anything unrecognized
	seen := make(map[string]bool)
	for _, b := range riskengine.Bands {
		band := string(b)
		seen[band] = true
		report.Bands = append(report.Bands, BandCount{Band: band, Count: counts[band]})
		report.Total += counts[band]
	}
	for band, n := range counts {
		if !seen[band] {
			report.Bands = append(report.Bands, BandCount{Band: band, Count: n})
			report.Total += n
		}
	}

	for _, rec := range records {
		report.Recent = append(report.Recent, reportItem(rec))
	}
	// Highest covers the whole store, not just the recent window
	for _, rec := range top {
		report.Highest = append(report.Highest, reportItem(rec))
	}

	return report, nil
}

func reportItem(rec store.Record) ReportItem {
	return ReportItem{
		ID:              rec.ID,
		Kind:            rec.Kind,
		Title:           rec.Title,
		Subject:         rec.Subject,
		OverallScore:    rec.OverallScore,
		RiskBand:        rec.RiskBand,
		Recommendations: recommendationsOf(rec.Payload),
		CreatedAt:       rec.CreatedAt,
	}
}

// recommendationsOf reads the recommendations out of a stored payload, which
// is either an assessment or a litigation prediction wrapping one.
func recommendationsOf(payload json.RawMessage) []string {
	var doc struct {
		Recommendations []string `json:"recommendations"`
		Assessment      *struct {
			Recommendations []string `json:"recommendations"`
		} `json:"assessment"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil
	}
	if doc.Assessment != nil {
		return doc.Assessment.Recommendations
	}
	return doc.Recommendations
}

func writeJSONReport(w io.Writer, report *RiskReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = w.Write(pretty.Pretty(data))
	return err
}

const textTemplate = `RISK ASSESSMENT REPORT
Generated: {{.GeneratedAt.Format "Mon Jan 2, 2006 3:04 PM"}}{{if .Kind}}
Kind: {{.Kind}}{{end}}

SUMMARY ({{.Total}} assessments)
{{range .Bands}}  {{printf "%-10s" .Band}} {{printf "%4d" .Count}}
{{end}}
{{- if .Highest}}
HIGHEST RISK
{{range .Highest}}  [{{short .ID}}] {{label .}}  {{.OverallScore}} ({{.RiskBand}})
{{end}}
{{- end}}
{{- if .Recent}}
RECENT
{{range .Recent}}  [{{short .ID}}] {{label .}}  {{.OverallScore}} ({{.RiskBand}})  {{.CreatedAt.Format "Jan 2 15:04"}}
{{range .Recommendations}}      - {{.}}
{{end}}{{end}}
{{- else}}
No assessments found.
{{end}}`

var reportFuncs = template.FuncMap{
	"short": func(id string) string {
		if len(id) > 8 {
			return id[:8]
		}
		return id
	},
	"label": func(item ReportItem) string {
		parts := []string{item.Kind, item.Subject}
		if item.Title != "" {
			parts = append(parts, fmt.Sprintf("%q", item.Title))
		}
		return strings.Join(parts, " / ")
	},
}

func writeTextReport(w io.Writer, report *RiskReport) error {
	t, err := template.New("report").Funcs(reportFuncs).Parse(textTemplate)
	if err != nil {
		return err
	}
	return t.Execute(w, report)
}
