package playerstat

// PlayerStat is one player's aggregate performance in one match.
// (match id, player id) is unique.
type PlayerStat struct {
	MatchID  string
	PlayerID string
	Kills    int
	Deaths   int
	Assists  int
	ADR      float64
}
