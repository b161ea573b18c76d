package models

import (
	"fmt"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
)

// Ballot is a published set of questions scoped to a district.
// A nil DueAt means the ballot never closes.
type Ballot struct {
	ID          string
	Title       string
	Description string
	District    string
	PublishAt   time.Time
	DueAt       *time.Time
	CreatedAt   time.Time

	// Questions is only populated by detail reads.
	Questions []Question
}

// Validate checks field-level invariants the storage layer does not enforce.
func (b *Ballot) Validate() error {
	if b.Title == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if b.DueAt != nil && !b.DueAt.After(b.PublishAt) {
		return fmt.Errorf("%w: due date must be after publish date", common.ErrorValidation)
	}
	return nil
}

type Question struct {
	ID       string
	BallotID string
	Prompt   string
	Choices  []Choice
}

// Choice is an answer option. Votes is the legacy non-anonymous counter.
type Choice struct {
	ID         string
	QuestionID string
	Label      string
	Votes      int64
}

// ChoiceCount is one row of a tally.
type ChoiceCount struct {
	ChoiceID string
	Label    string
	Count    int64
}
