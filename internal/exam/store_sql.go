package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) CreateDraft(ctx context.Context, e Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exam_sessions (id, student_id, book, status, total, correct, cutoff_misses, passed, created_at)
		 VALUES ($1,$2,$3,'draft',$4,0,$5,FALSE,$6)`,
		e.ID, e.StudentID, e.Book, e.Total, e.CutoffMisses, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	return nil
}

func (s *SQLStore) Finalize(ctx context.Context, id string, correct int, passed bool, results []QuestionResult) (Session, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if cur.Status == "submitted" {
		return Session{}, ErrAlreadySubmitted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`UPDATE exam_sessions SET status='submitted', correct=$1, passed=$2, submitted_at=$3 WHERE id=$4`,
		correct, passed, time.Now().Unix(), id)
	if err != nil {
		return Session{}, fmt.Errorf("finalize update: %w", err)
	}
	for _, r := range results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO exam_results (session_id, ord, term_en, meaning_ko, student_answer, is_correct)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			id, r.Ord, r.TermEN, r.MeaningKO, r.StudentAnswer, r.IsCorrect)
		if err != nil {
			return Session{}, fmt.Errorf("finalize results: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return Session{}, err
	}
	return s.Get(ctx, id)
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, student_id, book, status, total, correct, cutoff_misses, passed, created_at, COALESCE(submitted_at, 0)
		 FROM exam_sessions WHERE id=$1`, id)
	var e Session
	if err := row.Scan(&e.ID, &e.StudentID, &e.Book, &e.Status, &e.Total, &e.Correct,
		&e.CutoffMisses, &e.Passed, &e.CreatedAt, &e.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return e, nil
}

func (s *SQLStore) Results(ctx context.Context, id string) ([]QuestionResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, ord, term_en, meaning_ko, student_answer, is_correct
		 FROM exam_results WHERE session_id=$1 ORDER BY ord`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []QuestionResult{}
	for rows.Next() {
		var r QuestionResult
		if err := rows.Scan(&r.SessionID, &r.Ord, &r.TermEN, &r.MeaningKO, &r.StudentAnswer, &r.IsCorrect); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Session, error) {
	q := `SELECT id, student_id, book, status, total, correct, cutoff_misses, passed, created_at, COALESCE(submitted_at, 0)
	      FROM exam_sessions WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond, val string) {
		n++
		q += fmt.Sprintf(" AND %s=$%d", cond, n)
		args = append(args, val)
	}
	if opts.StudentID != "" {
		add("student_id", opts.StudentID)
	}
	if opts.Book != "" {
		add("book", opts.Book)
	}
	if opts.Status != "" {
		add("status", opts.Status)
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Session{}
	for rows.Next() {
		var e Session
		if err := rows.Scan(&e.ID, &e.StudentID, &e.Book, &e.Status, &e.Total, &e.Correct,
			&e.CutoffMisses, &e.Passed, &e.CreatedAt, &e.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
