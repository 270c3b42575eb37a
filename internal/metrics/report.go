package metrics

import (
	"fmt"
	"sort"
	"strings"
)

type Score struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report holds per-class scores followed by the micro, macro and weighted averages.
type Report struct {
	Classes  []Score
	Averages []Score
}

type counts struct {
	truePositives int
	predicted     int
	actual        int
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func f1(p, r float64) float64 {
	return safeDiv(2*p*r, p+r)
}

func newReport(perClass map[string]*counts) Report {
	labels := make([]string, 0, len(perClass))
	for l := range perClass {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	var (
		report                           Report
		total                            counts
		macroP, macroR, macroF1          float64
		weightedP, weightedR, weightedF1 float64
	)

	for _, l := range labels {
		c := perClass[l]
		p := safeDiv(float64(c.truePositives), float64(c.predicted))
		r := safeDiv(float64(c.truePositives), float64(c.actual))
		score := Score{Label: l, Precision: p, Recall: r, F1: f1(p, r), Support: c.actual}
		report.Classes = append(report.Classes, score)

		total.truePositives += c.truePositives
		total.predicted += c.predicted
		total.actual += c.actual

		macroP += score.Precision
		macroR += score.Recall
		macroF1 += score.F1

		w := float64(c.actual)
		weightedP += w * score.Precision
		weightedR += w * score.Recall
		weightedF1 += w * score.F1
	}

	n := float64(len(labels))
	support := float64(total.actual)

	microP := safeDiv(float64(total.truePositives), float64(total.predicted))
	microR := safeDiv(float64(total.truePositives), float64(total.actual))

	report.Averages = []Score{
		{Label: "micro avg", Precision: microP, Recall: microR, F1: f1(microP, microR), Support: total.actual},
		{Label: "macro avg", Precision: safeDiv(macroP, n), Recall: safeDiv(macroR, n), F1: safeDiv(macroF1, n), Support: total.actual},
		{Label: "weighted avg", Precision: safeDiv(weightedP, support), Recall: safeDiv(weightedR, support), F1: safeDiv(weightedF1, support), Support: total.actual},
	}

	return report
}

// ClassificationReport scores every label that occurs in either yTrue or yPred, one
// position at a time. The slices must have the same length.
func ClassificationReport(yTrue, yPred []string) (Report, error) {
	if len(yTrue) != len(yPred) {
		return Report{}, fmt.Errorf("found %d true labels and %d predicted labels", len(yTrue), len(yPred))
	}

	perClass := map[string]*counts{}
	get := func(label string) *counts {
		c, ok := perClass[label]
		if !ok {
			c = &counts{}
			perClass[label] = c
		}
		return c
	}

	for i := range yTrue {
		get(yTrue[i]).actual++
		get(yPred[i]).predicted++
		if yTrue[i] == yPred[i] {
			get(yTrue[i]).truePositives++
		}
	}

	return newReport(perClass), nil
}

func (r Report) Score(label string) (Score, bool) {
	for _, s := range r.Classes {
		if s.Label == label {
			return s, true
		}
	}
	for _, s := range r.Averages {
		if s.Label == label {
			return s, true
		}
	}
	return Score{}, false
}

func (r Report) String() string {
	width := len("weighted avg")
	for _, s := range r.Classes {
		width = max(width, len(s.Label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")

	row := func(s Score) {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, s.Label, s.Precision, s.Recall, s.F1, s.Support)
	}

	for _, s := range r.Classes {
		row(s)
	}
	b.WriteString("\n")
	for _, s := range r.Averages {
		row(s)
	}

	return b.String()
}
