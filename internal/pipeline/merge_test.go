package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/valorant-egr/internal/model"
)

func TestMergeInnerJoinKeepsOriginalOrder(t *testing.T) {
	original := readFrame(t, `game_id,player,round_num,agent_name,seconds
g1,bob,2,Sova,1
g1,alice,1,jett,1
g1,alice,1,jett,2
g1,alice,3,jett,1
g1,carol,1,Mystery,1
`)
	preds := []model.PredictionRecord{
		{GameID: "g1", Player: "alice", Round: 1, EGR: 0.5, Target: 0.25},
		{GameID: "g1", Player: "bob", Round: 2, EGR: 0.75, Target: 1},
		{GameID: "g1", Player: "carol", Round: 1, EGR: 0, Target: 0},
		{GameID: "g9", Player: "nobody", Round: 1, EGR: 1, Target: 1},
	}

	merged, err := Merge(original, preds)
	require.NoError(t, err)

	assert.Equal(t, []string{"game_id", "player", "round_num", "agent_name", "seconds", "EGR", "Target", "role"}, merged.Columns())
	require.Equal(t, 4, merged.Len())

	players, _ := merged.Column("player")
	assert.Equal(t, []string{"bob", "alice", "alice", "carol"}, players)
	egr, _ := merged.Column(ColEGR)
	assert.Equal(t, []string{"0.75", "0.5", "0.5", "0"}, egr)
	roles, _ := merged.Column(ColRole)
	assert.Equal(t, []string{"Initiators", "Duelists", "Duelists", ""}, roles)
}

func TestMergeEveryRowHasPrediction(t *testing.T) {
	original := readFrame(t, "game_id,player,round_num,agent_name\ng1,a,1,Omen\ng1,a,2,Omen\ng1,b,1,Sage\n")
	preds := []model.PredictionRecord{{GameID: "g1", Player: "a", Round: 2}, {GameID: "g1", Player: "b", Round: 1}}

	merged, err := Merge(original, preds)
	require.NoError(t, err)
	keys := map[model.RoundKey]bool{}
	for _, p := range preds {
		keys[p.Key()] = true
	}
	for i := 0; i < merged.Len(); i++ {
		r, err := parseRound(merged.Value(i, ColRound))
		require.NoError(t, err)
		assert.True(t, keys[model.RoundKey{GameID: merged.Value(i, ColGameID), Player: merged.Value(i, ColPlayer), Round: r}])
	}
	assert.Equal(t, 2, merged.Len())
}

func TestMergeRequiresAgentColumn(t *testing.T) {
	original := readFrame(t, "game_id,player,round_num\ng1,a,1\n")
	_, err := Merge(original, nil)
	var de *DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, []string{ColAgent}, de.Missing)
}
