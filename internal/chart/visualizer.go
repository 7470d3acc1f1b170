// Package chart renders the downloaded record sets as chart artifacts.
package chart

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/porsk/github-stats/internal/cache"
	"github.com/porsk/github-stats/internal/domain"
	"github.com/porsk/github-stats/internal/gateway"
	"github.com/porsk/github-stats/internal/usecase"
)

const dateLayout = "2006-01-02"

// DefaultAuthorLimit is the number of contributors shown individually in the
// commits-by-author pie; everyone else is folded into an "Others" slice.
const DefaultAuthorLimit = 12

// Visualizer renders charts for one repository. It keeps no state of its own:
// every render re-reads the downloader's output.
type Visualizer struct {
	downloader *usecase.Downloader
	outDir     string
	logger     *log.Logger
}

// NewVisualizer wires a complete chart pipeline for the repository: gateway,
// disk store, and downloader, mirroring the downloader configuration.
func NewVisualizer(owner, repo, token string, useCache bool, cacheDir, outDir string, logger *log.Logger) (*Visualizer, error) {
	gw, err := gateway.NewGitHubGateway(token, logger)
	if err != nil {
		return nil, err
	}
	dl, err := usecase.NewDownloader(gw, cache.NewDiskStore(cacheDir), domain.RepositoryRef{Owner: owner, Name: repo}, useCache, logger)
	if err != nil {
		return nil, err
	}
	return FromDownloader(dl, outDir, logger), nil
}

// FromDownloader builds a Visualizer on top of an existing downloader.
func FromDownloader(dl *usecase.Downloader, outDir string, logger *log.Logger) *Visualizer {
	return &Visualizer{downloader: dl, outDir: outDir, logger: logger}
}

func (v *Visualizer) title(text string) string {
	return fmt.Sprintf("%s [%s]", text, v.downloader.Repository())
}

// writeChart renders any go-echarts renderable into the output directory and
// returns the written path.
func (v *Visualizer) writeChart(name string, r components.Charter) (string, error) {
	page := components.NewPage()
	page.AddCharts(r)
	return v.writePage(name, page)
}

func (v *Visualizer) writePage(name string, page *components.Page) (string, error) {
	if err := os.MkdirAll(v.outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating chart directory: %w", err)
	}
	path := filepath.Join(v.outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	v.logger.Printf("Wrote %s.", path)
	return path, nil
}

// LinesOverTime renders the cumulative lines-of-code chart and the weekly
// additions/deletions chart into one page.
func (v *Visualizer) LinesOverTime(ctx context.Context, force bool) (string, error) {
	frequency, err := v.downloader.CodeFrequency(ctx, force)
	if err != nil {
		return "", err
	}
	return v.renderLinesOverTime(frequency)
}

func (v *Visualizer) renderLinesOverTime(frequency []domain.CodeFrequency) (string, error) {
	dates := make([]string, len(frequency))
	additions := make([]opts.LineData, len(frequency))
	deletions := make([]opts.LineData, len(frequency))
	cumulative := make([]opts.LineData, len(frequency))

	var total int
	addPerWeek := make([]int, len(frequency))
	delPerWeek := make([]int, len(frequency))
	for i, week := range frequency {
		dates[i] = week.Date().Format(dateLayout)
		// Deletions are negative, so this sum is the net line count.
		total += week.Additions + week.Deletions
		additions[i] = opts.LineData{Value: week.Additions}
		deletions[i] = opts.LineData{Value: week.Deletions}
		cumulative[i] = opts.LineData{Value: total}
		addPerWeek[i] = week.Additions
		delPerWeek[i] = -week.Deletions
	}

	meanAdd, _ := stats.Mean(stats.LoadRawData(addPerWeek))
	meanDel, _ := stats.Mean(stats.LoadRawData(delPerWeek))

	totalChart := charts.NewLine()
	totalChart.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title: v.title("Total lines of code over time"),
	}))
	totalChart.SetXAxis(dates).AddSeries("Lines", cumulative)

	changeChart := charts.NewLine()
	changeChart.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    v.title("Additions and deletions over time"),
		Subtitle: fmt.Sprintf("weekly average: %.0f added, %.0f removed", meanAdd, meanDel),
	}))
	changeChart.SetXAxis(dates).
		AddSeries("Additions", additions).
		AddSeries("Deletions", deletions)

	page := components.NewPage()
	page.AddCharts(totalChart, changeChart)
	return v.writePage("lines_over_time.html", page)
}

// CommitsByAuthor renders a pie of the top contributors by commit count.
func (v *Visualizer) CommitsByAuthor(ctx context.Context, force bool, limit int) (string, error) {
	contributors, err := v.downloader.ContributorStats(ctx, force)
	if err != nil {
		return "", err
	}
	return v.renderCommitsByAuthor(contributors.Totals, limit)
}

func (v *Visualizer) renderCommitsByAuthor(totals []domain.ContributorTotal, limit int) (string, error) {
	if limit > len(totals) {
		limit = len(totals)
	}
	if limit < 2 {
		limit = DefaultAuthorLimit
	}

	sorted := make([]domain.ContributorTotal, len(totals))
	copy(sorted, totals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Commits > sorted[j].Commits })

	var slices []opts.PieData
	var rest int
	commitCounts := make([]int, 0, len(sorted))
	for i, contributor := range sorted {
		commitCounts = append(commitCounts, contributor.Commits)
		if i < limit {
			slices = append(slices, opts.PieData{Name: contributor.User, Value: contributor.Commits})
		} else {
			rest += contributor.Commits
		}
	}
	if rest > 0 {
		slices = append(slices, opts.PieData{Name: "Others", Value: rest})
	}

	totalCommits, _ := stats.Sum(stats.LoadRawData(commitCounts))

	pie := charts.NewPie()
	pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    v.title("Commits by authors"),
		Subtitle: fmt.Sprintf("%.0f commits in total", totalCommits),
	}))
	pie.AddSeries("Commits", slices)

	return v.writeChart("commits_by_author.html", pie)
}

// CommitActivityGrid renders the weekday-by-week heatmap of the last year's
// commit activity.
func (v *Visualizer) CommitActivityGrid(ctx context.Context, force bool) (string, error) {
	activity, err := v.downloader.CommitActivity(ctx, force)
	if err != nil {
		return "", err
	}
	return v.renderCommitActivity(activity)
}

func (v *Visualizer) renderCommitActivity(activity []domain.CommitActivity) (string, error) {
	weekdays := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

	weeks := make([]string, len(activity))
	var cells []opts.HeatMapData
	var counts []int
	for x, week := range activity {
		weeks[x] = week.Date().Format(dateLayout)
		for y, count := range week.Days {
			cells = append(cells, opts.HeatMapData{Value: [3]interface{}{x, y, count}})
			counts = append(counts, count)
		}
	}

	busiest, _ := stats.Max(stats.LoadRawData(counts))
	if busiest < 1 {
		busiest = 1
	}

	heatmap := charts.NewHeatMap()
	heatmap.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: v.title("Commit activity in the last year")}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: weeks}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: weekdays}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(busiest),
		}),
	)
	heatmap.AddSeries("Commits", cells)

	return v.writeChart("commit_activity.html", heatmap)
}

// StargazerHistory renders the cumulative star count by day and the number of
// new stars by month into one page.
func (v *Visualizer) StargazerHistory(ctx context.Context, force bool) (string, error) {
	stargazers, err := v.downloader.Stargazers(ctx, force)
	if err != nil {
		return "", err
	}
	return v.renderStargazerHistory(stargazers)
}

func (v *Visualizer) renderStargazerHistory(stargazers []domain.Stargazer) (string, error) {
	byDay := make(map[string]int)
	byMonth := make(map[string]int)
	for _, sg := range stargazers {
		byDay[sg.StarredAt.Format(dateLayout)]++
		byMonth[sg.StarredAt.Format("2006-01")]++
	}

	days := sortedKeys(byDay)
	months := sortedKeys(byMonth)

	cumulative := make([]opts.LineData, len(days))
	var running int
	for i, day := range days {
		running += byDay[day]
		cumulative[i] = opts.LineData{Value: running}
	}
	monthly := make([]opts.LineData, len(months))
	for i, month := range months {
		monthly[i] = opts.LineData{Value: byMonth[month]}
	}

	cumulativeChart := charts.NewLine()
	cumulativeChart.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title:    v.title("Number of stars over time"),
		Subtitle: fmt.Sprintf("%d stars in total", len(stargazers)),
	}))
	cumulativeChart.SetXAxis(days).AddSeries("Stars", cumulative)

	monthlyChart := charts.NewLine()
	monthlyChart.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
		Title: v.title("New stars aggregated by months"),
	}))
	monthlyChart.SetXAxis(months).AddSeries("New stars", monthly)

	page := components.NewPage()
	page.AddCharts(cumulativeChart, monthlyChart)
	return v.writePage("stargazer_history.html", page)
}

// RenderAll produces every chart. The record sets are fetched one after
// another through the downloader; only the rendering of the already fetched
// data runs concurrently.
func (v *Visualizer) RenderAll(ctx context.Context, force bool, limit int) ([]string, error) {
	frequency, err := v.downloader.CodeFrequency(ctx, force)
	if err != nil {
		return nil, err
	}
	contributors, err := v.downloader.ContributorStats(ctx, force)
	if err != nil {
		return nil, err
	}
	activity, err := v.downloader.CommitActivity(ctx, force)
	if err != nil {
		return nil, err
	}
	stargazers, err := v.downloader.Stargazers(ctx, force)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 4)
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		paths[0], err = v.renderLinesOverTime(frequency)
		return err
	})
	eg.Go(func() error {
		var err error
		paths[1], err = v.renderCommitsByAuthor(contributors.Totals, limit)
		return err
	})
	eg.Go(func() error {
		var err error
		paths[2], err = v.renderCommitActivity(activity)
		return err
	})
	eg.Go(func() error {
		var err error
		paths[3], err = v.renderStargazerHistory(stargazers)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
