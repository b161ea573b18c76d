package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/common"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/lifecycle"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/metrics"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/repomanager"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/storage"
)

const archiveContentType = "application/json"

// ArchiveDocument is the JSON written for an archived ballot. It holds
// aggregate counts only.
type ArchiveDocument struct {
	BallotID   string            `json:"ballot_id"`
	Title      string            `json:"title"`
	District   string            `json:"district"`
	PublishAt  time.Time         `json:"publish_at"`
	DueAt      *time.Time        `json:"due_at"`
	ExportedAt time.Time         `json:"exported_at"`
	Receipts   int64             `json:"receipts"`
	Envelopes  int64             `json:"envelopes"`
	Questions  []ArchiveQuestion `json:"questions"`
}

type ArchiveQuestion struct {
	ID      string          `json:"id"`
	Prompt  string          `json:"prompt"`
	Choices []ArchiveChoice `json:"choices"`
}

type ArchiveChoice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// ArchiveService exports results of archived ballots to object storage.
type ArchiveService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tally       *TallyService
	store       storage.ObjectStore
	metrics     *metrics.Recorder
	logger      logging.Logger
}

func NewArchiveService(db *sql.DB, m repomanager.RepositoryManager, tally *TallyService, store storage.ObjectStore,
	rec *metrics.Recorder, l logging.Logger) *ArchiveService {
	return &ArchiveService{
		db:          db,
		repomanager: m,
		tally:       tally,
		store:       store,
		metrics:     rec,
		logger:      l.With("module", "archive"),
	}
}

// ArchiveKey is the object key of a ballot's archive document.
func ArchiveKey(district, ballotID string) string {
	d := strings.ToLower(strings.TrimSpace(district))
	if d == "" {
		d = "_"
	}
	d = strings.ReplaceAll(d, "/", "_")
	return path.Join("archives", d, ballotID+".json")
}

// Export writes the results of an archived ballot and returns the key.
// Exporting again overwrites the same object.
func (s *ArchiveService) Export(ctx context.Context, ballotID string, now time.Time) (string, error) {
	key, err := s.export(ctx, ballotID, now)
	s.metrics.ArchiveExport(err)
	if err != nil {
		s.logger.Error(ctx, "archive export failed", "ballot_id", ballotID, "error", err.Error())
		return "", err
	}
	s.logger.Info(ctx, "archive exported", "ballot_id", ballotID, "key", key)
	return key, nil
}

func (s *ArchiveService) export(ctx context.Context, ballotID string, now time.Time) (string, error) {
	ballot, err := s.repomanager.Ballots(s.db).GetByID(ctx, ballotID)
	if err != nil {
		return "", err
	}
	if !lifecycle.IsArchived(ballot, now) {
		return "", fmt.Errorf("%w: ballot is not archived", common.ErrorValidation)
	}

	res, err := s.tally.Results(ctx, ballot.ID, "", now, true)
	if err != nil {
		return "", err
	}

	doc := ArchiveDocument{
		BallotID:   ballot.ID,
		Title:      ballot.Title,
		District:   ballot.District,
		PublishAt:  ballot.PublishAt,
		DueAt:      ballot.DueAt,
		ExportedAt: now,
		Receipts:   res.Receipts,
		Envelopes:  res.Envelopes,
		Questions:  make([]ArchiveQuestion, 0, len(res.Questions)),
	}
	for _, q := range res.Questions {
		aq := ArchiveQuestion{ID: q.QuestionID, Prompt: q.Prompt, Choices: make([]ArchiveChoice, 0, len(q.Choices))}
		for _, c := range q.Choices {
			aq.Choices = append(aq.Choices, ArchiveChoice{ID: c.ChoiceID, Label: c.Label, Count: c.Count})
		}
		doc.Questions = append(doc.Questions, aq)
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}

	key := ArchiveKey(ballot.District, ballot.ID)
	if err := s.store.Put(ctx, key, body, archiveContentType); err != nil {
		return "", fmt.Errorf("error uploading archive: %w", err)
	}
	return key, nil
}

// DownloadURL presigns a GET for an exported archive.
func (s *ArchiveService) DownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return s.store.PresignGet(ctx, key, ttl)
}
