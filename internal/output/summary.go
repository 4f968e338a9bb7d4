package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/tanq16/dlspeed/internal/utils"
	"gopkg.in/yaml.v3"
)

const (
	FormatTable = "table"
	FormatYAML  = "yaml"
)

type SummaryOptions struct {
	Format      string
	SortBySpeed bool
}

// WriteSummary renders the run as a table (default) or as YAML.
func WriteSummary(w io.Writer, run utils.RunResult, opts SummaryOptions) error {
	results := run.Results
	if opts.SortBySpeed {
		results = SortBySpeed(results)
	}
	switch opts.Format {
	case "", FormatTable:
		_, err := fmt.Fprint(w, RenderSummary(run, results))
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newYAMLRun(run, results)); err != nil {
			return fmt.Errorf("error encoding summary: %w", err)
		}
		return enc.Close()
	default:
		return &utils.ConfigError{Err: fmt.Errorf("unknown output format %q", opts.Format)}
	}
}

// SortBySpeed returns a copy ordered fastest first; failed rows go last and
// keep their input order.
func SortBySpeed(results []utils.TransferResult) []utils.TransferResult {
	sorted := append([]utils.TransferResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Failed() != b.Failed() {
			return !a.Failed()
		}
		return a.AverageBytesPerSecond > b.AverageBytesPerSecond
	})
	return sorted
}

// RenderSummary draws the URL / Status / Speed table followed by totals and
// the full error messages of failed rows.
func RenderSummary(run utils.RunResult, results []utils.TransferResult) string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{res.Request.URL, statusCell(res), speedCell(res)})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderRow(true).
		BorderStyle(streamStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Inherit(headerStyle)
			}
			if row >= 0 && row < len(results) && results[row].Failed() && col > 0 {
				return style.Inherit(errorStyle)
			}
			return style
		}).
		Headers("URL", "Status", "Speed").
		Rows(rows...)

	var sb strings.Builder
	sb.WriteString(t.String())
	sb.WriteString("\n")

	succeeded, failed := run.Counts()
	total := len(run.Results)
	sb.WriteString(success2Style.Render(fmt.Sprintf("Completed %d of %d", succeeded, total)))
	sb.WriteString(FDebug(fmt.Sprintf(" %s %s in %s", StyleSymbols["bullet"], utils.FormatBytes(uint64(run.TotalBytes())), utils.FormatDuration(run.Elapsed))))
	sb.WriteString("\n")
	if failed > 0 {
		sb.WriteString(FError(fmt.Sprintf("Failed %d of %d", failed, total)))
		sb.WriteString("\n\n")
		sb.WriteString(errorStyle.Bold(true).Render("Errors:"))
		sb.WriteString("\n")
		i := 0
		for _, res := range results {
			if !res.Failed() {
				continue
			}
			i++
			sb.WriteString(fmt.Sprintf("  %s %s\n", FError(fmt.Sprintf("%d.", i)), FError(res.Err.Error())))
		}
	}
	return sb.String()
}

func statusCell(res utils.TransferResult) string {
	if res.Status != "" {
		return res.Status
	}
	if kind, ok := utils.ErrorKindOf(res.Err); ok {
		return kind.String()
	}
	if res.Err != nil {
		return "error"
	}
	return "-"
}

func speedCell(res utils.TransferResult) string {
	if res.Failed() {
		return "-"
	}
	return utils.FormatRate(res.AverageBytesPerSecond)
}

type yamlRun struct {
	RunID     string       `yaml:"run_id"`
	Started   string       `yaml:"started"`
	Elapsed   string       `yaml:"elapsed"`
	Succeeded int          `yaml:"succeeded"`
	Failed    int          `yaml:"failed"`
	Results   []yamlResult `yaml:"results"`
}

type yamlResult struct {
	Ordinal    int     `yaml:"ordinal"`
	Method     string  `yaml:"method"`
	URL        string  `yaml:"url"`
	Status     string  `yaml:"status,omitempty"`
	StatusCode int     `yaml:"status_code,omitempty"`
	Bytes      int64   `yaml:"bytes"`
	Expected   int64   `yaml:"expected_bytes"`
	Latency    string  `yaml:"latency"`
	Elapsed    string  `yaml:"elapsed"`
	SpeedBPS   float64 `yaml:"speed_bps"`
	Speed      string  `yaml:"speed"`
	Error      string  `yaml:"error,omitempty"`
}

func newYAMLRun(run utils.RunResult, results []utils.TransferResult) yamlRun {
	succeeded, failed := run.Counts()
	out := yamlRun{
		RunID:     run.ID,
		Started:   run.Started.Format(time.RFC3339),
		Elapsed:   run.Elapsed.String(),
		Succeeded: succeeded,
		Failed:    failed,
		Results:   make([]yamlResult, 0, len(results)),
	}
	for _, res := range results {
		r := yamlResult{
			Ordinal:    res.Ordinal,
			Method:     res.Request.Method,
			URL:        res.Request.URL,
			Status:     res.Status,
			StatusCode: res.StatusCode,
			Bytes:      res.BytesTotal,
			Expected:   res.ExpectedTotal,
			Latency:    res.Latency.String(),
			Elapsed:    res.Elapsed.String(),
			SpeedBPS:   res.AverageBytesPerSecond,
			Speed:      speedCell(res),
		}
		if res.Err != nil {
			r.Error = res.Err.Error()
		}
		out.Results = append(out.Results, r)
	}
	return out
}
