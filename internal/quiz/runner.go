package quiz

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vocadrill/vocadrill/internal/analytics"
	"github.com/vocadrill/vocadrill/internal/exam"
	"github.com/vocadrill/vocadrill/internal/vocab"
)

// Runner wires sessions to their collaborators: the word store for pools,
// the exam store for official-run persistence, and the analytics recorder.
type Runner struct {
	words  vocab.Store
	exams  exam.Store
	events *analytics.Recorder
	reg    *Registry
	clk    Clock
	log    logrus.FieldLogger

	maxQuestions int
}

func NewRunner(words vocab.Store, exams exam.Store, events *analytics.Recorder, log logrus.FieldLogger, maxQuestions int) *Runner {
	return &Runner{
		words:        words,
		exams:        exams,
		events:       events,
		reg:          NewRegistry(),
		clk:          RealClock(),
		log:          log,
		maxQuestions: maxQuestions,
	}
}

// SetClock swaps the ticker source; used by tests.
func (r *Runner) SetClock(clk Clock) { r.clk = clk }

// StartParams is the configuration entry point: book, mode, a chapter
// selection (free-form range text, or an explicit start/end), question
// count and cutoff misses.
type StartParams struct {
	StudentID    string `json:"-"`
	Book         string `json:"book"`
	Mode         Mode   `json:"mode"`
	RangeText    string `json:"range,omitempty"`
	StartChapter int    `json:"start_chapter,omitempty"`
	EndChapter   int    `json:"end_chapter,omitempty"`
	NumQuestions int    `json:"num_questions"`
	CutoffMisses int    `json:"cutoff_misses"`
}

var ErrBadMode = errors.New("unknown quiz mode")

// StartQuiz resolves the word pool from the chapter selection, builds a
// session, and starts it. Empty pools come back as ErrEmptyPool: a
// user-input error, nothing was created.
func (r *Runner) StartQuiz(ctx context.Context, p StartParams) (*Session, error) {
	if !p.Mode.Valid() {
		return nil, ErrBadMode
	}

	pool, err := r.resolvePool(ctx, p)
	if err != nil {
		return nil, err
	}

	// Distractors draw on the whole book; if that fetch fails the range
	// pool serves as the fallback candidate source.
	var bookPool []vocab.Word
	if p.Mode == ModeMCQ {
		bookPool, err = r.words.AllWordsInBook(ctx, p.Book)
		if err != nil {
			r.log.WithError(err).WithField("book", p.Book).Warn("distractor pool fetch failed, falling back to range pool")
			bookPool = pool
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := NewSession(uuid.NewString(), p.StudentID, p.Book, p.Mode, r.clk, rng)
	if err := s.Configure(pool, bookPool, p.NumQuestions, p.CutoffMisses, r.maxQuestions); err != nil {
		return nil, err
	}
	s.SetOnFinish(func() { r.finish(s) })
	if err := s.Start(); err != nil {
		return nil, err
	}
	r.reg.Put(s)
	r.events.Record(p.StudentID, "", "quiz_start", map[string]any{
		"book": p.Book, "mode": string(p.Mode), "questions": len(s.sequence),
	})
	return s, nil
}

func (r *Runner) resolvePool(ctx context.Context, p StartParams) ([]vocab.Word, error) {
	if p.RangeText != "" {
		chapters := vocab.ParseChapterRange(p.RangeText)
		if len(chapters) == 0 {
			return nil, ErrEmptyPool
		}
		return r.words.WordsByChapters(ctx, p.Book, chapters)
	}
	return r.words.WordsByRange(ctx, p.Book, p.StartChapter, p.EndChapter)
}

func (r *Runner) Get(id string) (*Session, error) { return r.reg.Get(id) }

func (r *Runner) Remove(id string) { r.reg.Remove(id) }

// finish runs once per completed session, on its own goroutine: analytics
// plus, for official exams, the draft + submitted persistence. A persist
// failure is kept on the session for the retry endpoint; the in-memory
// results are not lost.
func (r *Runner) finish(s *Session) {
	sum, ok := s.Summary()
	if !ok {
		return
	}
	r.events.Record(s.StudentID, "", "quiz_done", map[string]any{
		"book": s.Book, "mode": string(s.Mode),
		"total": sum.Total, "correct": sum.Corrects, "passed": sum.Passed,
	})
	if s.Mode != ModeExam {
		return
	}
	if err := r.persistExam(s, sum); err != nil {
		r.log.WithError(err).WithField("session_id", s.ID).Error("exam finalize failed")
		s.setFinalized(err)
		return
	}
	s.setFinalized(nil)
}

// RetryFinalize re-runs the official-exam persistence after a failure.
func (r *Runner) RetryFinalize(id string) (Summary, error) {
	s, err := r.reg.Get(id)
	if err != nil {
		return Summary{}, err
	}
	sum, ok := s.Summary()
	if !ok {
		return Summary{}, ErrWrongState
	}
	if s.Mode != ModeExam || s.isFinalized() {
		sum, _ = s.Summary()
		return sum, nil
	}
	if err := r.persistExam(s, sum); err != nil {
		s.setFinalized(err)
		return Summary{}, err
	}
	s.setFinalized(nil)
	sum, _ = s.Summary()
	return sum, nil
}

func (r *Runner) persistExam(s *Session, sum Summary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	examID := sum.ExamSessionID
	if examID == "" {
		examID = uuid.NewString()
		if err := r.exams.CreateDraft(ctx, exam.Session{
			ID:           examID,
			StudentID:    s.StudentID,
			Book:         s.Book,
			Total:        sum.Total,
			CutoffMisses: sum.CutoffMisses,
		}); err != nil {
			return err
		}
		s.setExamSessionID(examID)
	}

	results := make([]exam.QuestionResult, len(sum.Results))
	for i, res := range sum.Results {
		results[i] = exam.QuestionResult{
			SessionID:     examID,
			Ord:           i,
			TermEN:        res.Word.TermEN,
			MeaningKO:     res.Word.MeaningKO,
			StudentAnswer: res.StudentAnswer,
			IsCorrect:     res.IsCorrect,
		}
	}
	_, err := r.exams.Finalize(ctx, examID, sum.Corrects, sum.Passed, results)
	if errors.Is(err, exam.ErrAlreadySubmitted) {
		return nil
	}
	return err
}
