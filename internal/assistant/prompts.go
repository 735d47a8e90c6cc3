package assistant

import (
	"fmt"
	"strings"
)

const sqlSystemPrompt = `You are a highly experienced SQL expert converting questions about Valorant match telemetry into SQLite queries.
Reply with exactly one line of the form "SQLQuery: <query>" and nothing else.`

const answerSystemPrompt = `You are a Valorant performance analyst. You are given a question, the SQL that was run and its result.
Answer ONLY from the rows provided, cite the numbers, and keep it to a few sentences. If the result is empty, say so.`

type example struct {
	question string
	query    string
}

var fewShot = []example{
	{"Give me players from EG", "SELECT DISTINCT player FROM {table} WHERE team = 'EG';"},
	{"Give me how many rounds Team EG has won", "WITH unique_outcomes AS (SELECT DISTINCT round_num, team, game_id, won FROM {table}) SELECT game_id, team, COUNT(*) AS rounds_won FROM unique_outcomes WHERE won = 1 GROUP BY game_id, team HAVING team = 'EG';"},
	{"Give me how many kills each round player JAWGEMO has got", "SELECT round_num, game_id, SUM(kill_change) AS total_kills FROM {table} WHERE player = 'JAWGEMO' GROUP BY round_num, game_id;"},
	{"Give me how many kills did EG team get in each round", "SELECT round_num, game_id, SUM(kill_change) AS total_kills FROM {table} WHERE team = 'EG' GROUP BY round_num, game_id;"},
	{"Find all rounds where player JAWGEMO had a kill and an assist", "WITH jawgemo_data AS (SELECT DISTINCT game_id, round_num, kill_change, assists FROM {table} WHERE player = 'JAWGEMO' AND kill_change > 0 AND assists > 0) SELECT game_id, round_num, kill_change, assists FROM jawgemo_data;"},
	{"Find all rounds that were close (at some point in round, it was a 2v2 or 3v3 for at least 5 seconds)", "WITH filtered_events AS (SELECT *, seconds - LAG(seconds, 1, seconds) OVER (PARTITION BY round_num, game_id ORDER BY seconds) AS time_diff FROM {table} WHERE our_team_alive IN (2, 3) AND opponent_team_alive IN (2, 3)), grouped_events AS (SELECT round_num, game_id, SUM(time_diff) AS total_time_diff FROM filtered_events GROUP BY round_num, game_id) SELECT round_num, game_id FROM grouped_events WHERE total_time_diff >= 5;"},
}

func sqlPrompt(table, schema, question string) string {
	var sb strings.Builder
	for _, ex := range fewShot {
		fmt.Fprintf(&sb, "Q: %s\nA: %s\n", ex.question, strings.ReplaceAll(ex.query, "{table}", table))
	}
	fmt.Fprintf(&sb, `
Convert the following question into a SQLite query.

Keep the following in mind:
- Use the correct syntax and structure of SQLite.
- Use a LIMIT of 5 results unless specified otherwise.
- Avoid SELECT *; only select relevant columns based on the question.
- Use DISTINCT to avoid duplicates where necessary.
- Boolean columns hold 1 for true and 0 for false.
- Ensure column names match the schema provided.

Only use this table:
%s

Question: %s
SQLQuery:`, schema, question)
	return sb.String()
}
