package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prepareCSV = `game_id,team,player,round_num,seconds,agent_name,map_name,side,spike_event,spike_planted,won,combat_score_round,money,health
g1,red,alice,2,5,Raze,Bind,attack,,False,True,300,4000,100
g1,blue,bob,1,9,Jett,Bind,defense,plant,True,False,100,800,
g1,blue,bob,1,3,Jett,Bind,defense,,False,False,200,800,50
`

func TestPrepareSortsAndEncodes(t *testing.T) {
	f := readFrame(t, prepareCSV)
	require.NoError(t, Prepare(f))

	players, _ := f.Column(ColPlayer)
	seconds, _ := f.Column(ColSeconds)
	assert.Equal(t, []string{"bob", "bob", "alice"}, players)
	assert.Equal(t, []string{"3", "9", "5"}, seconds)

	agents, _ := f.Column("agent_name")
	assert.Equal(t, []string{"0", "0", "1"}, agents, "Jett sorts before Raze")
	won, _ := f.Column(ColWon)
	assert.Equal(t, []string{"0", "0", "1"}, won)
	planted, _ := f.Column("spike_planted")
	assert.Equal(t, []string{"0", "1", "0"}, planted)
}

func TestPrepareMissingColumns(t *testing.T) {
	f := readFrame(t, "game_id,player\ng1,alice\n")
	err := Prepare(f)
	var de *DataError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Missing, ColTeam)
	assert.Contains(t, de.Missing, "spike_planted")
}

func TestNormalizeTarget(t *testing.T) {
	f := readFrame(t, "row,combat_score_round\na,100\nb,300\nc,\nd,200\n")
	require.NoError(t, NormalizeTarget(f))
	got, err := f.Floats(TargetColumn)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 1.0, got[1])
	assert.True(t, math.IsNaN(got[2]))
	assert.Equal(t, 0.5, got[3])
}

func TestNormalizeTargetConstantColumn(t *testing.T) {
	f := readFrame(t, "combat_score_round\n7\n7\n")
	require.NoError(t, NormalizeTarget(f))
	got, _ := f.Floats(TargetColumn)
	assert.Equal(t, []float64{0, 0}, got)
}

func TestNormalizeTargetInfiniteScore(t *testing.T) {
	f := readFrame(t, "row,combat_score_round\na,100\nb,inf\nc,200\n")
	require.NoError(t, NormalizeTarget(f))
	got, _ := f.Floats(TargetColumn)
	assert.Equal(t, 0.0, got[0])
	assert.True(t, math.IsNaN(got[1]), "inf/inf is undefined")
	assert.Equal(t, 0.0, got[2], "an infinite maximum collapses finite scores to 0")
}

func TestFeatureColumnsExcludesIdentifiersAndTarget(t *testing.T) {
	f := readFrame(t, prepareCSV)
	require.NoError(t, NormalizeTarget(f))
	cols := FeatureColumns(f)
	assert.Equal(t, []string{"agent_name", "health", "map_name", "round_num", "seconds", "side", "spike_event", "spike_planted"}, cols)
}

func TestExtractFeatures(t *testing.T) {
	f := readFrame(t, "a,b\n1,2\n3,\n")
	X, err := ExtractFeatures(f, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, X[0][0])
	assert.True(t, math.IsNaN(X[1][0]))
	assert.Equal(t, 3.0, X[1][1])

	_, err = ExtractFeatures(f, []string{"c"})
	var de *DataError
	assert.True(t, errors.As(err, &de))
}
