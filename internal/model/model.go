package model

import (
	"strings"
	"time"
)

// Sentinel is the fill value for padded timesteps. Scaled features never take
// this exact value (see pipeline.GuardSentinel).
const Sentinel = -999.0

// Role is the archetype of the agent a player picked.
type Role int

const (
	RoleUnknown    Role = 0
	RoleController Role = 1
	RoleDuelist    Role = 2
	RoleInitiator  Role = 3
	RoleSentinel   Role = 4
)

// String returns the category label used in result tables. Unknown roles
// render as an empty cell.
func (r Role) String() string {
	switch r {
	case RoleController:
		return "Controllers"
	case RoleDuelist:
		return "Duelists"
	case RoleInitiator:
		return "Initiators"
	case RoleSentinel:
		return "Sentinels"
	default:
		return ""
	}
}

var agentRoles = func() map[string]Role {
	byRole := map[Role][]string{
		RoleController: {"Astra", "Brimstone", "Clove", "Harbor", "Omen", "Viper"},
		RoleDuelist:    {"Iso", "Jett", "Neon", "Phoenix", "Raze", "Reyna", "Yoru"},
		RoleInitiator:  {"Breach", "Fade", "Gekko", "KAY/O", "Skye", "Sova"},
		RoleSentinel:   {"Chamber", "Cypher", "Deadlock", "Killjoy", "Sage", "Vyse"},
	}
	m := make(map[string]Role)
	for role, agents := range byRole {
		for _, a := range agents {
			m[strings.ToLower(a)] = role
		}
	}
	return m
}()

// RoleForAgent looks up the role of an agent by name, ignoring case.
func RoleForAgent(agent string) (Role, bool) {
	r, ok := agentRoles[strings.ToLower(strings.TrimSpace(agent))]
	return r, ok
}

// ---- Inference structures ----

// SampleKey identifies one player's participation in one game.
type SampleKey struct {
	GameID string
	Player string
}

// RoundKey identifies one player's round.
type RoundKey struct {
	GameID string
	Player string
	Round  int
}

// RoundSequence is the time-ordered feature rows of one (game, player, round).
type RoundSequence struct {
	Round    int         // source round_num label
	Features [][]float64 // [timestep][feature]
	Target   float64     // target value of the last row in the round
}

// Len returns the number of timesteps in the round.
func (r RoundSequence) Len() int { return len(r.Features) }

// PlayerGameSample is every round one player played in one game, in the
// order the rounds were encountered.
type PlayerGameSample struct {
	GameID string
	Player string
	Rounds []RoundSequence
}

// Key returns the (game, player) grouping key.
func (s PlayerGameSample) Key() SampleKey {
	return SampleKey{GameID: s.GameID, Player: s.Player}
}

// Features returns the per-round feature matrices, indexed like Rounds.
func (s PlayerGameSample) Features() [][][]float64 {
	out := make([][][]float64, len(s.Rounds))
	for i, r := range s.Rounds {
		out[i] = r.Features
	}
	return out
}

// Targets returns the per-round targets, indexed like Rounds.
func (s PlayerGameSample) Targets() []float64 {
	out := make([]float64, len(s.Rounds))
	for i, r := range s.Rounds {
		out[i] = r.Target
	}
	return out
}

// PaddedBatch is a dense (rounds, timesteps, features) tensor in row-major order.
type PaddedBatch struct {
	Rounds    int
	Timesteps int
	Features  int
	Data      []float64
}

// At returns the value at (round, timestep, feature).
func (b PaddedBatch) At(r, t, f int) float64 {
	return b.Data[(r*b.Timesteps+t)*b.Features+f]
}

// Step returns the feature vector of one timestep. The slice aliases Data.
func (b PaddedBatch) Step(r, t int) []float64 {
	off := (r*b.Timesteps + t) * b.Features
	return b.Data[off : off+b.Features]
}

// Shape returns (rounds, timesteps, features).
func (b PaddedBatch) Shape() (int, int, int) {
	return b.Rounds, b.Timesteps, b.Features
}

// PredictionRecord is one model output for one player round.
type PredictionRecord struct {
	GameID string  `csv:"game_id"`
	Player string  `csv:"player"`
	Round  int     `csv:"round_num"`
	EGR    float64 `csv:"EGR"`
	Target float64 `csv:"Target"`
}

// Key returns the join key of the record.
func (p PredictionRecord) Key() RoundKey {
	return RoundKey{GameID: p.GameID, Player: p.Player, Round: p.Round}
}

// RunSummary describes one completed inference run.
type RunSummary struct {
	ID          string
	InputPath   string
	OutputPath  string
	ModelPath   string
	ScalerPath  string
	ResultTable string // empty when results were not imported
	StartedAt   time.Time
	FinishedAt  time.Time
	Samples     int // player-game samples
	Predictions int // prediction records
	MergedRows  int
	Warnings    int
}

// Duration returns how long the run took.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// ---- Result-table aggregates ----

// PlayerEGR is the mean EGR of one player on one agent, scaled to 0-100.
type PlayerEGR struct {
	Team    string
	Player  string
	Agent   string
	Role    string
	MeanEGR float64
	Rounds  int
}

// RoundDetail is the final state of one player in one round.
type RoundDetail struct {
	Player            string
	Round             int
	Kills             float64
	Assists           float64
	Deaths            float64
	OurTeamAlive      float64
	OpponentTeamAlive float64
	IsAlive           bool
	CombatScoreRound  float64
	EGR               float64
	Won               bool
}

// TeamRound is a team's mean EGR in one round of a game.
type TeamRound struct {
	Team    string
	Round   int
	MeanEGR float64
	Won     bool
}

// RoundOutcome is the mean EGR and combat score of one game round, split by
// outcome.
type RoundOutcome struct {
	GameID          string
	Round           int
	Won             bool
	MeanEGR         float64
	MeanCombatScore float64
}

// PlayerRoundPoint is one point of a player's EGR-across-rounds series.
type PlayerRoundPoint struct {
	Player string
	Round  int
	EGR    float64
}
