package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/valorant-egr/internal/frame"
	"github.com/pable/valorant-egr/internal/model"
)

func readFrame(t *testing.T, src string) *frame.Frame {
	t.Helper()
	f, err := frame.Read(strings.NewReader(src))
	require.NoError(t, err)
	return f
}

const groupingCSV = `game_id,player,round_num,f1,f2,cs_round_normalized
g1,alice,1,1,10,0.1
g1,alice,1,2,20,0.2
g1,alice,2,3,30,0.3
g1,bob,1,4,40,0.4
g2,alice,1,5,50,0.5
g2,alice,1,6,60,0.6
g2,alice,1,7,70,0.7
`

func TestBuildSamplesGroupsEveryRowOnce(t *testing.T) {
	f := readFrame(t, groupingCSV)
	samples, err := BuildSamples(f, []string{"f1", "f2"}, TargetColumn)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	seenRounds := map[model.RoundKey]int{}
	var firsts []float64
	for _, s := range samples {
		for _, r := range s.Rounds {
			seenRounds[model.RoundKey{GameID: s.GameID, Player: s.Player, Round: r.Round}]++
			for _, row := range r.Features {
				firsts = append(firsts, row[0])
			}
		}
	}
	for k, n := range seenRounds {
		assert.Equal(t, 1, n, "round %v grouped more than once", k)
	}
	assert.Len(t, seenRounds, 4)
	assert.ElementsMatch(t, []float64{1, 2, 3, 4, 5, 6, 7}, firsts)
}

func TestBuildSamplesEncounterOrderAndTargets(t *testing.T) {
	f := readFrame(t, groupingCSV)
	samples, err := BuildSamples(f, []string{"f1", "f2"}, TargetColumn)
	require.NoError(t, err)

	assert.Equal(t, model.SampleKey{GameID: "g1", Player: "alice"}, samples[0].Key())
	assert.Equal(t, model.SampleKey{GameID: "g1", Player: "bob"}, samples[1].Key())
	assert.Equal(t, model.SampleKey{GameID: "g2", Player: "alice"}, samples[2].Key())

	alice := samples[0]
	require.Len(t, alice.Rounds, 2)
	assert.Equal(t, 2, alice.Rounds[0].Len())
	assert.Equal(t, []float64{0.2, 0.3}, alice.Targets())
	assert.Equal(t, 0.7, samples[2].Rounds[0].Target)
}

func TestBuildSamplesMissingColumns(t *testing.T) {
	f := readFrame(t, "game_id,player,f1\ng1,a,1\n")
	_, err := BuildSamples(f, []string{"f1", "f9"}, TargetColumn)

	var de *DataError
	require.True(t, errors.As(err, &de), "expected *DataError, got %v", err)
	assert.Equal(t, []string{ColRound, TargetColumn, "f9"}, de.Missing)
}

func TestBuildSamplesRejectsFractionalRound(t *testing.T) {
	f := readFrame(t, "game_id,player,round_num,f1,cs_round_normalized\ng1,a,1.0,1,0\ng1,a,1.5,1,0\n")
	_, err := BuildSamples(f, []string{"f1"}, TargetColumn)

	var de *DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, ColRound, de.Column)
	assert.Equal(t, 2, de.Row)
}

func TestGroupSamplesKeepsLabelsWhenRoundIsScaled(t *testing.T) {
	f := readFrame(t, "game_id,player,round_num,cs_round_normalized\ng1,a,1,0.1\ng1,a,1,0.2\ng1,a,2,0.3\n")
	// round_num is also a feature; the matrix carries its scaled value.
	X := [][]float64{{0.5}, {0.5}, {1.0}}

	samples, err := GroupSamples(f, X, TargetColumn)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.Len(t, samples[0].Rounds, 2)
	assert.Equal(t, 1, samples[0].Rounds[0].Round)
	assert.Equal(t, 2, samples[0].Rounds[1].Round)
	assert.Equal(t, [][]float64{{0.5}, {0.5}}, samples[0].Rounds[0].Features)

	_, err = GroupSamples(f, X[:2], TargetColumn)
	assert.Error(t, err, "matrix must have one row per table row")
}
