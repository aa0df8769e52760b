package exam

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("exam session not found")
	ErrAlreadySubmitted = errors.New("exam session already submitted")
)

type ListOpts struct {
	StudentID string
	Book      string
	Status    string // optional: draft|submitted
	Limit     int
	Offset    int
}

type Store interface {
	CreateDraft(ctx context.Context, s Session) error
	// Finalize flips a draft to submitted and writes the per-question batch
	// in one transaction. Safe to retry: a submitted session returns
	// ErrAlreadySubmitted.
	Finalize(ctx context.Context, id string, correct int, passed bool, results []QuestionResult) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Results(ctx context.Context, id string) ([]QuestionResult, error)
	List(ctx context.Context, opts ListOpts) ([]Session, error)
}
