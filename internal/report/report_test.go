package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pable/valorant-egr/internal/model"
)

func TestDescribe(t *testing.T) {
	d, err := Describe([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if d.N != 4 || d.Mean != 2.5 || d.Median != 2.5 || d.Min != 1 || d.Max != 4 {
		t.Errorf("unexpected distribution %+v", d)
	}
	if math.Abs(d.StdDev-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("population stddev: want %v, got %v", math.Sqrt(1.25), d.StdDev)
	}

	empty, err := Describe(nil)
	if err != nil || empty.N != 0 {
		t.Errorf("empty sample: %+v err=%v", empty, err)
	}
}

func TestSplitOutcomes(t *testing.T) {
	s, err := SplitOutcomes([]model.RoundOutcome{
		{GameID: "g", Round: 1, Won: true, MeanEGR: 0.6, MeanCombatScore: 200},
		{GameID: "g", Round: 1, Won: false, MeanEGR: 0.2, MeanCombatScore: 80},
		{GameID: "g", Round: 2, Won: true, MeanEGR: 0.8, MeanCombatScore: 260},
	})
	if err != nil {
		t.Fatalf("SplitOutcomes: %v", err)
	}
	if s.WonEGR.N != 2 || math.Abs(s.WonEGR.Mean-0.7) > 1e-12 {
		t.Errorf("won EGR: %+v", s.WonEGR)
	}
	if s.LostCS.N != 1 || s.LostCS.Mean != 80 {
		t.Errorf("lost combat score: %+v", s.LostCS)
	}
}

func TestPrintOutcomeDistributionEmptyGroup(t *testing.T) {
	var buf bytes.Buffer
	err := PrintOutcomeDistribution(&buf, []model.RoundOutcome{{Won: true, MeanEGR: 0.5, MeanCombatScore: 100}})
	if err != nil {
		t.Fatalf("PrintOutcomeDistribution: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "COMBAT_SCORE") || !strings.Contains(out, "0.500") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestPrintQueryResult(t *testing.T) {
	var buf bytes.Buffer
	PrintQueryResult(&buf, []string{"player", "egr"}, [][]string{{"a", "0.5"}, {"b", "0.25"}})
	if !strings.Contains(buf.String(), "(2 rows)") {
		t.Errorf("missing row count:\n%s", buf.String())
	}

	buf.Reset()
	PrintQueryResult(&buf, []string{"player"}, nil)
	if strings.TrimSpace(buf.String()) != "(no rows)" {
		t.Errorf("unexpected empty output %q", buf.String())
	}
}

func TestPrintPlayerEGRTableHighlights(t *testing.T) {
	var buf bytes.Buffer
	PrintPlayerEGRTable(&buf, []model.PlayerEGR{
		{Team: "EG", Player: "jawgemo", Agent: "Jett", Role: "Duelists", MeanEGR: 53.333, Rounds: 2},
		{Team: "FNC", Player: "chronicle", Agent: "Sova", MeanEGR: 20, Rounds: 2},
	}, map[string]bool{"EG": true})
	out := buf.String()
	if !strings.Contains(out, "53.33") {
		t.Errorf("mean EGR not rendered:\n%s", out)
	}
	if strings.Count(out, ">") != 1 {
		t.Errorf("expected exactly one highlighted row:\n%s", out)
	}
}

func TestPlotEGRAcrossRounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "egr.png")
	err := PlotEGRAcrossRounds([]model.PlayerRoundPoint{
		{Player: "a", Round: 2, EGR: 0.4},
		{Player: "a", Round: 1, EGR: 0.2},
		{Player: "b", Round: 1, EGR: 0.7},
	}, "EGR across rounds", path)
	if err != nil {
		t.Fatalf("PlotEGRAcrossRounds: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("expected a non-empty image, stat err=%v", err)
	}

	if err := PlotEGRAcrossRounds(nil, "x", path); err == nil {
		t.Error("expected error for empty series")
	}
}

func TestPlotTeamTrend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.png")
	err := PlotTeamTrend([]model.TeamRound{
		{Team: "EG", Round: 1, MeanEGR: 0.4, Won: true},
		{Team: "EG", Round: 2, MeanEGR: 0.8},
		{Team: "FNC", Round: 1, MeanEGR: 0.2},
		{Team: "FNC", Round: 2, MeanEGR: 0.3, Won: true},
	}, "trend", path)
	if err != nil {
		t.Fatalf("PlotTeamTrend: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("image not written: %v", err)
	}
}
