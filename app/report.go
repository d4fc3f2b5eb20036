package app

import (
	"fmt"
	"strings"

	"aitaflow/domain/judgement"
	"aitaflow/domain/labels"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ShareSummary describes how much of a post's weight one judgement received
type ShareSummary struct {
	Judgement judgement.Judgement `json:"judgement"`
	Verdicts  int                 `json:"verdicts"`
	Mean      float64             `json:"mean_share"`
	Median    float64             `json:"median_share"`
	StdDev    float64             `json:"stddev_share"`
}

// Report summarizes a labelled set of posts
type Report struct {
	Posts       int            `json:"posts"`
	Labelled    int            `json:"labelled"`
	Unlabelled  int            `json:"unlabelled"`
	MeanTotal   float64        `json:"mean_total"`
	MeanEntropy float64        `json:"mean_entropy"`
	Shares      []ShareSummary `json:"shares"`
}

// Summarize builds a report. Posts whose total weight is zero count as
// unlabelled and are left out of the share and entropy figures, since
// their multiclass label carries no signal.
func Summarize(rows []labels.Row) (*Report, error) {
	report := &Report{Posts: len(rows)}

	shares := make([][]float64, judgement.Count)
	var totals, entropies []float64
	verdicts := make([]int, judgement.Count)

	for _, row := range rows {
		if row.Distribution.IsZero() {
			report.Unlabelled++
			continue
		}
		report.Labelled++
		verdicts[row.Judgement.Index()]++
		totals = append(totals, float64(row.Total))
		entropies = append(entropies, stat.Entropy(row.Distribution[:]))
		for _, j := range judgement.All() {
			shares[j.Index()] = append(shares[j.Index()], row.Distribution.Get(j))
		}
	}

	if report.Labelled > 0 {
		var err error
		if report.MeanTotal, err = stats.Mean(totals); err != nil {
			return nil, fmt.Errorf("mean total: %w", err)
		}
		if report.MeanEntropy, err = stats.Mean(entropies); err != nil {
			return nil, fmt.Errorf("mean entropy: %w", err)
		}
	}

	for _, j := range judgement.All() {
		summary := ShareSummary{Judgement: j, Verdicts: verdicts[j.Index()]}
		if data := shares[j.Index()]; len(data) > 0 {
			var err error
			if summary.Mean, err = stats.Mean(data); err != nil {
				return nil, fmt.Errorf("mean share for %s: %w", j, err)
			}
			if summary.Median, err = stats.Median(data); err != nil {
				return nil, fmt.Errorf("median share for %s: %w", j, err)
			}
			if summary.StdDev, err = stats.StandardDeviation(data); err != nil {
				return nil, fmt.Errorf("share deviation for %s: %w", j, err)
			}
		}
		report.Shares = append(report.Shares, summary)
	}
	return report, nil
}

// Markdown renders the report as a markdown document
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Judgement report\n\n")
	fmt.Fprintf(&b, "- Posts: %d\n", r.Posts)
	fmt.Fprintf(&b, "- Labelled: %d\n", r.Labelled)
	fmt.Fprintf(&b, "- Without qualifying responses: %d\n", r.Unlabelled)
	fmt.Fprintf(&b, "- Mean weight per post: %.1f\n", r.MeanTotal)
	fmt.Fprintf(&b, "- Mean distribution entropy: %.3f nats\n\n", r.MeanEntropy)

	b.WriteString("| Judgement | Verdicts | Mean share | Median share | Std dev |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, s := range r.Shares {
		fmt.Fprintf(&b, "| %s | %d | %.3f | %.3f | %.3f |\n", s.Judgement, s.Verdicts, s.Mean, s.Median, s.StdDev)
	}
	return b.String()
}

// HTML renders the markdown report to an HTML fragment
func (r *Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(r.Markdown()), p, renderer)
}
