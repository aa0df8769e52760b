package vocab

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const wordColumns = `id, book, chapter, term_en, meaning_ko, pos, accepted_ko`

func (s *SQLStore) WordsByRange(ctx context.Context, book string, start, end int) ([]Word, error) {
	if end < start {
		start, end = end, start
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+wordColumns+` FROM words WHERE book=$1 AND chapter BETWEEN $2 AND $3 ORDER BY chapter, term_en`,
		book, start, end)
	if err != nil {
		return nil, fmt.Errorf("words by range: %w", err)
	}
	return scanWords(rows)
}

func (s *SQLStore) WordsByChapters(ctx context.Context, book string, chapters []int) ([]Word, error) {
	if len(chapters) == 0 {
		return nil, nil
	}
	ph := make([]string, len(chapters))
	args := make([]any, 0, len(chapters)+1)
	args = append(args, book)
	for i, c := range chapters {
		ph[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, c)
	}
	q := `SELECT ` + wordColumns + ` FROM words WHERE book=$1 AND chapter IN (` +
		strings.Join(ph, ",") + `) ORDER BY chapter, term_en`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("words by chapters: %w", err)
	}
	return scanWords(rows)
}

func (s *SQLStore) AllWordsInBook(ctx context.Context, book string) ([]Word, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+wordColumns+` FROM words WHERE book=$1 ORDER BY chapter, term_en`, book)
	if err != nil {
		return nil, fmt.Errorf("all words in book: %w", err)
	}
	return scanWords(rows)
}

// BulkUpsert validates and upserts rows in one transaction. Invalid rows
// abort the whole batch so a half-imported book never goes live.
func (s *SQLStore) BulkUpsert(ctx context.Context, words []Word) (inserted, updated int, err error) {
	for _, w := range words {
		if err := w.Validate(); err != nil {
			return 0, 0, fmt.Errorf("%w: %q", err, w.TermEN)
		}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	for _, w := range words {
		var exist int
		qerr := tx.QueryRowContext(ctx, `SELECT 1 FROM words WHERE id=$1`, w.ID).Scan(&exist)
		switch {
		case errors.Is(qerr, sql.ErrNoRows):
			inserted++
		case qerr != nil:
			return 0, 0, qerr
		default:
			updated++
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO words (id, book, chapter, term_en, meaning_ko, pos, accepted_ko)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)
			 ON CONFLICT (id) DO UPDATE SET
			   book=EXCLUDED.book, chapter=EXCLUDED.chapter, term_en=EXCLUDED.term_en,
			   meaning_ko=EXCLUDED.meaning_ko, pos=EXCLUDED.pos, accepted_ko=EXCLUDED.accepted_ko`,
			w.ID, w.Book, w.Chapter, w.TermEN, w.MeaningKO, w.POS, w.AcceptedKO)
		if err != nil {
			return 0, 0, err
		}
	}
	return inserted, updated, nil
}

func (s *SQLStore) ListBooks(ctx context.Context) ([]BookSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book, COUNT(*), MAX(chapter) FROM words GROUP BY book ORDER BY book`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []BookSummary{}
	for rows.Next() {
		var b BookSummary
		if err := rows.Scan(&b.Book, &b.Words, &b.Chapters); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLStore) ChapterCounts(ctx context.Context, book string) ([]ChapterCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chapter, COUNT(*) FROM words WHERE book=$1 GROUP BY chapter ORDER BY chapter`, book)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ChapterCount{}
	for rows.Next() {
		var c ChapterCount
		if err := rows.Scan(&c.Chapter, &c.Words); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanWords(rows *sql.Rows) ([]Word, error) {
	defer rows.Close()
	out := []Word{}
	for rows.Next() {
		var w Word
		if err := rows.Scan(&w.ID, &w.Book, &w.Chapter, &w.TermEN, &w.MeaningKO, &w.POS, &w.AcceptedKO); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
