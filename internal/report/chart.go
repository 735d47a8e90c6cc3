package report

import (
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/pable/valorant-egr/internal/model"
)

var palette = []color.RGBA{
	{R: 20, G: 80, B: 200, A: 255},
	{R: 200, G: 30, B: 30, A: 255},
	{R: 40, G: 150, B: 40, A: 255},
	{R: 230, G: 140, B: 0, A: 255},
	{R: 120, G: 60, B: 170, A: 255},
	{R: 0, G: 150, B: 160, A: 255},
	{R: 120, G: 120, B: 120, A: 255},
	{R: 170, G: 90, B: 40, A: 255},
	{R: 220, G: 80, B: 160, A: 255},
	{R: 60, G: 60, B: 60, A: 255},
}

// PlotEGRAcrossRounds draws one line per player of EGR against round number
// and saves it as an image (format from the file extension).
func PlotEGRAcrossRounds(points []model.PlayerRoundPoint, title, path string) error {
	if len(points) == 0 {
		return fmt.Errorf("plot %s: no points", path)
	}
	series := make(map[string]plotter.XYs)
	for _, pt := range points {
		series[pt.Player] = append(series[pt.Player], plotter.XY{X: float64(pt.Round), Y: pt.EGR})
	}
	players := make([]string, 0, len(series))
	for name := range series {
		players = append(players, name)
	}
	sort.Strings(players)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Round Number"
	p.Y.Label.Text = "EGR"
	p.Add(plotter.NewGrid())

	for i, name := range players {
		xys := series[name]
		sort.Slice(xys, func(a, b int) bool { return xys[a].X < xys[b].X })
		line, pts, err := plotter.NewLinePoints(xys)
		if err != nil {
			return err
		}
		col := palette[i%len(palette)]
		line.Color = col
		line.Width = vg.Points(1.2)
		pts.GlyphStyle.Color = col
		pts.GlyphStyle.Radius = vg.Points(2)
		p.Add(line, pts)
		p.Legend.Add(name, line, pts)
	}
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// PlotTeamTrend draws each team's mean EGR per round, marking won rounds.
func PlotTeamTrend(rows []model.TeamRound, title, path string) error {
	if len(rows) == 0 {
		return fmt.Errorf("plot %s: no rounds", path)
	}
	byTeam := make(map[string]plotter.XYs)
	var wins plotter.XYs
	for _, r := range rows {
		xy := plotter.XY{X: float64(r.Round), Y: r.MeanEGR}
		byTeam[r.Team] = append(byTeam[r.Team], xy)
		if r.Won {
			wins = append(wins, xy)
		}
	}
	teams := make([]string, 0, len(byTeam))
	for t := range byTeam {
		teams = append(teams, t)
	}
	sort.Strings(teams)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Round Number"
	p.Y.Label.Text = "Average EGR Score"
	p.Add(plotter.NewGrid())

	for i, team := range teams {
		line, err := plotter.NewLine(byTeam[team])
		if err != nil {
			return err
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(team, line)
	}
	if len(wins) > 0 {
		sc, err := plotter.NewScatter(wins)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = color.RGBA{R: 218, G: 165, B: 32, A: 255}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("round won", sc)
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
