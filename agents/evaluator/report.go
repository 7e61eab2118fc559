package evaluator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrIncompleteReport is returned when scores are missing from a report
var ErrIncompleteReport = errors.New("incomplete evaluation report")

const (
	MaxMetricScore  = 5
	MaxOverallScore = 25
)

// Metrics in report order
var Metrics = []string{
	"Faithfulness",
	"Context Relevance",
	"Answer Completeness",
	"Source Attribution",
	"Response Coherence",
}

var (
	metricRegexp  = regexp.MustCompile(`(?mi)^#{2,4}\s*\**\s*(Faithfulness|Context Relevance|Answer Completeness|Source Attribution|Response Coherence)\s*:?\s*\**\s*:?\s*(\d+(?:\.\d+)?)\s*/\s*5\b`)
	overallRegexp = regexp.MustCompile(`(?mi)^#{1,3}\s*\**\s*Overall Score\s*:?\s*\**\s*:?\s*(\d+(?:\.\d+)?)\s*/\s*25\b`)
)

// Score is the score of one metric
type Score struct {
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
}

// Report is the machine readable part of an evaluation report
type Report struct {
	Scores []Score `json:"scores"`
	// Overall score reported by the judge, 0 when absent
	Overall float64 `json:"overall,omitempty"`
}

// Total sums the metric scores
func (r Report) Total() float64 {
	var ret float64
	for _, v := range r.Scores {
		ret += v.Score
	}
	return ret
}

// Score returns the score of a metric
func (r Report) Score(metric string) (float64, bool) {
	for _, v := range r.Scores {
		if strings.EqualFold(v.Metric, metric) {
			return v.Score, true
		}
	}
	return 0, false
}

// ParseReport extracts the metric and overall scores from a markdown report.
// A report with missing scores is returned along with ErrIncompleteReport.
func ParseReport(markdown string) (*Report, error) {
	found := make(map[string]float64, len(Metrics))
	for _, m := range metricRegexp.FindAllStringSubmatch(markdown, -1) {
		name := canonical(m[1])
		if _, ok := found[name]; ok {
			continue
		}
		score, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, err
		}
		if score < 0 || score > MaxMetricScore {
			return nil, fmt.Errorf("%s score %v out of range", name, score)
		}
		found[name] = score
	}
	ret := new(Report)
	var missing []string
	for _, name := range Metrics {
		score, ok := found[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		ret.Scores = append(ret.Scores, Score{Metric: name, Score: score})
	}
	if m := overallRegexp.FindStringSubmatch(markdown); m != nil {
		ret.Overall, _ = strconv.ParseFloat(m[1], 64)
	} else {
		missing = append(missing, "Overall Score")
	}
	if len(missing) > 0 {
		return ret, fmt.Errorf("%w: missing %s", ErrIncompleteReport, strings.Join(missing, ", "))
	}
	return ret, nil
}

func canonical(name string) string {
	for _, v := range Metrics {
		if strings.EqualFold(v, name) {
			return v
		}
	}
	return name
}
