// Package receipts stores eligibility receipts (vote_records). A receipt
// pairs a voter signature with a ballot and nothing else; the database
// enforces at most one per pair.
package receipts

import "context"

type Repository interface {
	Exists(ctx context.Context, ballotID, signature string) (bool, error)
	// Create returns common.ErrorAlreadyExists when the pair is taken.
	Create(ctx context.Context, ballotID, signature string) error
	// VotedBallotIDs lists the ballots the signature holds receipts for.
	VotedBallotIDs(ctx context.Context, signature string) ([]string, error)
	CountByBallot(ctx context.Context, ballotID string) (int64, error)
}
