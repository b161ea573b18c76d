// Package lifecycle classifies ballots against an instant. Every function
// here is pure; callers pass the same now for a whole request.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/config"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/models"
)

type State int

const (
	Upcoming State = iota
	Open
	PastDue
)

func (s State) String() string {
	switch s {
	case Upcoming:
		return "upcoming"
	case Open:
		return "open"
	case PastDue:
		return "past_due"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Classify reports where b is at now. Both the publish and the due
// instant belong to Open.
func Classify(b *models.Ballot, now time.Time) State {
	if now.Before(b.PublishAt) {
		return Upcoming
	}
	if b.DueAt != nil && now.After(*b.DueAt) {
		return PastDue
	}
	return Open
}

// IsArchived reports whether b closed more than config.ArchiveAfter before now.
func IsArchived(b *models.Ballot, now time.Time) bool {
	if Classify(b, now) != PastDue {
		return false
	}
	return now.Sub(*b.DueAt) > config.ArchiveAfter
}

// IsEditable reports whether b can still be changed. Ballots freeze at publication.
func IsEditable(b *models.Ballot, now time.Time) bool {
	return now.Before(b.PublishAt)
}

// Phase buckets ballots for the administrative lists.
type Phase int

const (
	PhaseUpcoming Phase = iota
	PhaseOpen
	PhasePast
	PhaseArchived
)

var phaseNames = map[Phase]string{
	PhaseUpcoming: "upcoming",
	PhaseOpen:     "open",
	PhasePast:     "past",
	PhaseArchived: "archived",
}

func (p Phase) String() string {
	if n, ok := phaseNames[p]; ok {
		return n
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// PhaseOf is Classify with PastDue split into past and archived.
func PhaseOf(b *models.Ballot, now time.Time) Phase {
	switch Classify(b, now) {
	case Upcoming:
		return PhaseUpcoming
	case Open:
		return PhaseOpen
	}
	if IsArchived(b, now) {
		return PhaseArchived
	}
	return PhasePast
}

func ParsePhase(s string) (Phase, error) {
	for p, n := range phaseNames {
		if strings.EqualFold(n, s) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown phase %q", common.ErrorValidation, s)
}
