package models

import "time"

// VoteRecord is the eligibility receipt: proof that the holder of
// VoterSignature voted on BallotID. It says nothing about what was chosen.
type VoteRecord struct {
	ID             string
	BallotID       string
	VoterSignature string
	CreatedAt      time.Time
}

// CastBallot is the anonymous envelope of one submission. It has no
// voter reference; CastAt is coarsened to the hour.
type CastBallot struct {
	ID       string
	BallotID string
	CastAt   time.Time
}

// CastVote is one selected choice inside a CastBallot.
type CastVote struct {
	ID           string
	CastBallotID string
	ChoiceID     string
}
