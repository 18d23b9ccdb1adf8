package registry

import (
	"sort"
	"time"

	"github.com/yourusername/rebound-edge/internal/models"
)

// Snapshot is an immutable view of the registry taken before a batch run.
// It has no locks because nothing mutates it.
type Snapshot struct {
	assignments map[string][]*models.PlayerTeamAssignment
}

// ResolveTeam returns the player's team on the given date, or models.TeamUnknown.
func (s *Snapshot) ResolveTeam(playerID string, asOf time.Time) string {
	return resolveTeam(s.assignments[playerID], asOf)
}

// LookupRoster returns the sorted player IDs on the team as of the date.
func (s *Snapshot) LookupRoster(teamID string, asOf time.Time) []string {
	players := make([]string, 0)
	for playerID, intervals := range s.assignments {
		for _, interval := range intervals {
			if interval.TeamID == teamID && interval.Covers(asOf) {
				players = append(players, playerID)
				break
			}
		}
	}
	sort.Strings(players)
	return players
}

// Players returns all player IDs known to the snapshot, sorted.
func (s *Snapshot) Players() []string {
	players := make([]string, 0, len(s.assignments))
	for playerID := range s.assignments {
		players = append(players, playerID)
	}
	sort.Strings(players)
	return players
}
