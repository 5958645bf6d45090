package results

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"gridlearn/internal/experiment"
)

// Series is one named line of a chart.
type Series struct {
	Name   string
	Values []float64
}

// NewLineChart builds a line chart over xAxis labels.
func NewLineChart(title string, xAxis []string, series ...Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Theme: "shine"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	for _, s := range series {
		items := make([]opts.LineData, 0, len(s.Values))
		for _, v := range s.Values {
			items = append(items, opts.LineData{Value: v})
		}
		line.AddSeries(s.Name, items)
	}
	return line
}

// SummaryChart renders the per-evaluation reward and prediction error means
// with their standard error bands as an HTML page.
func SummaryChart(w io.Writer, title string, summary []experiment.Summary) error {
	xAxis := make([]string, 0, len(summary))
	var reward, rewardLo, rewardHi, predErr, predLo, predHi []float64
	for _, s := range summary {
		xAxis = append(xAxis, fmt.Sprintf("%d", s.Eval))
		reward = append(reward, s.Reward.Mean)
		rewardLo = append(rewardLo, s.Reward.Mean-s.Reward.StdErr)
		rewardHi = append(rewardHi, s.Reward.Mean+s.Reward.StdErr)
		predErr = append(predErr, s.PredictionError.Mean)
		predLo = append(predLo, s.PredictionError.Mean-s.PredictionError.StdErr)
		predHi = append(predHi, s.PredictionError.Mean+s.PredictionError.StdErr)
	}
	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(
		NewLineChart(title+": reward", xAxis,
			Series{Name: "mean", Values: reward},
			Series{Name: "-stderr", Values: rewardLo},
			Series{Name: "+stderr", Values: rewardHi}),
		NewLineChart(title+": prediction error", xAxis,
			Series{Name: "mean", Values: predErr},
			Series{Name: "-stderr", Values: predLo},
			Series{Name: "+stderr", Values: predHi}),
	)
	return page.Render(w)
}

// SweepPoint is the aggregate of one configuration in a parameter sweep.
type SweepPoint struct {
	Label           string
	Reward          experiment.Stat
	PredictionError experiment.Stat
}

// SweepChart renders mean reward and prediction error across sweep points.
func SweepChart(w io.Writer, title string, points []SweepPoint) error {
	xAxis := make([]string, 0, len(points))
	var reward, predErr []float64
	for _, p := range points {
		xAxis = append(xAxis, p.Label)
		reward = append(reward, p.Reward.Mean)
		predErr = append(predErr, p.PredictionError.Mean)
	}
	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(
		NewLineChart(title+": reward", xAxis, Series{Name: "mean reward", Values: reward}),
		NewLineChart(title+": prediction error", xAxis, Series{Name: "mean prediction error", Values: predErr}),
	)
	return page.Render(w)
}
