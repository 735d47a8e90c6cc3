package pipeline

import (
	"github.com/pable/valorant-egr/internal/frame"
	"github.com/pable/valorant-egr/internal/model"
)

// Merge inner-joins prediction records onto the original table on
// (game_id, player, round_num) and appends EGR, Target and role columns.
// Rows keep the original order; rows without a prediction are dropped and a
// row matching several records is repeated once per record.
func Merge(original *frame.Frame, preds []model.PredictionRecord) (*frame.Frame, error) {
	if err := requireColumns(original, ColGameID, ColPlayer, ColRound, ColAgent); err != nil {
		return nil, err
	}

	byKey := make(map[model.RoundKey][]int, len(preds))
	for i, p := range preds {
		k := p.Key()
		byKey[k] = append(byKey[k], i)
	}

	cols := append(original.Columns(), ColEGR, ColTarget, ColRole)
	out := frame.New(dedupe(cols))
	egrAt, targetAt, roleAt := out.Index(ColEGR), out.Index(ColTarget), out.Index(ColRole)
	width := len(out.Columns())
	pos := make([]int, 0, len(cols))
	for _, c := range original.Columns() {
		pos = append(pos, out.Index(c))
	}

	for i := 0; i < original.Len(); i++ {
		round, err := parseRound(original.Value(i, ColRound))
		if err != nil {
			continue
		}
		key := model.RoundKey{GameID: original.Value(i, ColGameID), Player: original.Value(i, ColPlayer), Round: round}
		matches := byKey[key]
		if len(matches) == 0 {
			continue
		}
		role, _ := model.RoleForAgent(original.Value(i, ColAgent))
		src := original.Row(i)
		for _, m := range matches {
			row := make([]string, width)
			for j, cell := range src {
				row[pos[j]] = cell
			}
			row[egrAt] = frame.FormatFloat(preds[m].EGR)
			row[targetAt] = frame.FormatFloat(preds[m].Target)
			row[roleAt] = role.String()
			if err := out.AppendRow(row); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// dedupe drops repeated names, keeping the first position. An input that
// already carries EGR, Target or role has those columns overwritten.
func dedupe(cols []string) []string {
	seen := make(map[string]bool, len(cols))
	out := cols[:0:0]
	for _, c := range cols {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
