// Package registry resolves player-team identity as of any date.
//
// Assignments form an append-only interval log per player: a trade closes the
// open interval the day before it takes effect and opens a new one. Reads are
// served from an in-memory index safe for concurrent use; mutations are
// serialized and expected to run between inference batches, not during them.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/rebound-edge/internal/models"
)

// Registry is the temporal player-team identity index.
type Registry struct {
	mu          sync.RWMutex
	assignments map[string][]*models.PlayerTeamAssignment // per player, ordered by start
	logger      *logrus.Logger
}

// New creates an empty registry.
func New(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{
		assignments: make(map[string][]*models.PlayerTeamAssignment),
		logger:      logger,
	}
}

// NewFromAssignments builds a registry from persisted assignment rows,
// validating the per-player interval invariants.
func NewFromAssignments(rows []*models.PlayerTeamAssignment, logger *logrus.Logger) (*Registry, error) {
	r := New(logger)

	byPlayer := make(map[string][]*models.PlayerTeamAssignment)
	for _, row := range rows {
		byPlayer[row.PlayerID] = append(byPlayer[row.PlayerID], row)
	}

	for playerID, intervals := range byPlayer {
		sort.Slice(intervals, func(i, j int) bool {
			return intervals[i].EffectiveStart.Before(intervals[j].EffectiveStart)
		})
		if err := validateIntervals(playerID, intervals); err != nil {
			return nil, err
		}
		r.assignments[playerID] = intervals
	}

	return r, nil
}

// ResolveTeam returns the team the player was assigned to on the given date.
// A player with no covering assignment resolves to models.TeamUnknown, which
// downstream feature building treats as a categorical value, not an error.
func (r *Registry) ResolveTeam(playerID string, asOf time.Time) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return resolveTeam(r.assignments[playerID], asOf)
}

// ApplyTransaction closes the player's open interval at effectiveDate-1 and
// opens a new interval starting effectiveDate. Returns a ConflictError when
// the effective date does not fall after the start of the interval being
// closed (closing it would produce an empty or inverted interval).
func (r *Registry) ApplyTransaction(tx models.RosterTransaction) (*models.PlayerTeamAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	effective := DateOnly(tx.EffectiveDate)
	intervals := r.assignments[tx.PlayerID]
	oldTeam := models.TeamUnknown

	if open := openInterval(intervals); open != nil {
		if !effective.After(open.EffectiveStart) {
			return nil, &models.ConflictError{
				PlayerID:      tx.PlayerID,
				EffectiveDate: effective,
				IntervalStart: open.EffectiveStart,
			}
		}
		end := effective.AddDate(0, 0, -1)
		open.EffectiveEnd = &end
		oldTeam = open.TeamID
	} else if last := lastInterval(intervals); last != nil && !effective.After(*last.EffectiveEnd) {
		// A closed history may not be rewritten either.
		return nil, &models.ConflictError{
			PlayerID:      tx.PlayerID,
			EffectiveDate: effective,
			IntervalStart: last.EffectiveStart,
		}
	}

	next := &models.PlayerTeamAssignment{
		ID:             uuid.New(),
		PlayerID:       tx.PlayerID,
		TeamID:         tx.NewTeamID,
		EffectiveStart: effective,
		CreatedAt:      time.Now().UTC(),
	}
	r.assignments[tx.PlayerID] = append(intervals, next)

	r.logger.WithFields(logrus.Fields{
		"player_id":      tx.PlayerID,
		"old_team":       oldTeam,
		"new_team":       tx.NewTeamID,
		"effective_date": effective.Format("2006-01-02"),
	}).Info("Roster transaction applied")

	return next, nil
}

// LookupRoster returns the sorted set of player IDs assigned to the team on
// the given date.
func (r *Registry) LookupRoster(teamID string, asOf time.Time) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]string, 0)
	for playerID, intervals := range r.assignments {
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

// Assignments returns a copy of the player's interval log, ordered by start date.
func (r *Registry) Assignments(playerID string) []*models.PlayerTeamAssignment {
	r.mu.RLock()
	defer r.mu.RUnlock()

	intervals := r.assignments[playerID]
	out := make([]*models.PlayerTeamAssignment, len(intervals))
	for i, interval := range intervals {
		clone := *interval
		out[i] = &clone
	}
	return out
}

// Snapshot returns an immutable point-in-time view safe to share across a
// concurrent inference batch.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assignments := make(map[string][]*models.PlayerTeamAssignment, len(r.assignments))
	for playerID, intervals := range r.assignments {
		copied := make([]*models.PlayerTeamAssignment, len(intervals))
		for i, interval := range intervals {
			clone := *interval
			copied[i] = &clone
		}
		assignments[playerID] = copied
	}
	return &Snapshot{assignments: assignments}
}

func resolveTeam(intervals []*models.PlayerTeamAssignment, asOf time.Time) string {
	for _, interval := range intervals {
		if interval.Covers(asOf) {
			return interval.TeamID
		}
	}
	return models.TeamUnknown
}

func openInterval(intervals []*models.PlayerTeamAssignment) *models.PlayerTeamAssignment {
	for _, interval := range intervals {
		if interval.IsOpen() {
			return interval
		}
	}
	return nil
}

func lastInterval(intervals []*models.PlayerTeamAssignment) *models.PlayerTeamAssignment {
	if len(intervals) == 0 {
		return nil
	}
	return intervals[len(intervals)-1]
}

func validateIntervals(playerID string, intervals []*models.PlayerTeamAssignment) error {
	openSeen := false
	for i, interval := range intervals {
		if interval.IsOpen() {
			if openSeen {
				return &models.ConflictError{
					PlayerID:      playerID,
					EffectiveDate: interval.EffectiveStart,
					IntervalStart: interval.EffectiveStart,
				}
			}
			openSeen = true
			if i != len(intervals)-1 {
				return &models.ConflictError{
					PlayerID:      playerID,
					EffectiveDate: interval.EffectiveStart,
					IntervalStart: intervals[i+1].EffectiveStart,
				}
			}
			continue
		}
		if interval.EffectiveEnd.Before(interval.EffectiveStart) {
			return &models.ConflictError{
				PlayerID:      playerID,
				EffectiveDate: *interval.EffectiveEnd,
				IntervalStart: interval.EffectiveStart,
			}
		}
		if i+1 < len(intervals) && !intervals[i+1].EffectiveStart.After(*interval.EffectiveEnd) {
			return &models.ConflictError{
				PlayerID:      playerID,
				EffectiveDate: intervals[i+1].EffectiveStart,
				IntervalStart: interval.EffectiveStart,
			}
		}
	}
	return nil
}

// DateOnly truncates a timestamp to a UTC calendar date. Assignment intervals
// and game dates are compared at day granularity only.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
