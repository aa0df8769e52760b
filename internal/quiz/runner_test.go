package quiz

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/vocadrill/vocadrill/internal/analytics"
	"github.com/vocadrill/vocadrill/internal/exam"
	"github.com/vocadrill/vocadrill/internal/vocab"
)

/* ---------------- fakes ---------------- */

type fakeWordStore struct {
	words       []vocab.Word
	byChapters  []int // last WordsByChapters call
	bookPoolErr error
}

func (f *fakeWordStore) WordsByRange(ctx context.Context, book string, start, end int) ([]vocab.Word, error) {
	var out []vocab.Word
	for _, w := range f.words {
		if w.Book == book && w.Chapter >= start && w.Chapter <= end {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWordStore) WordsByChapters(ctx context.Context, book string, chapters []int) ([]vocab.Word, error) {
	f.byChapters = chapters
	set := map[int]bool{}
	for _, c := range chapters {
		set[c] = true
	}
	var out []vocab.Word
	for _, w := range f.words {
		if w.Book == book && set[w.Chapter] {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWordStore) AllWordsInBook(ctx context.Context, book string) ([]vocab.Word, error) {
	if f.bookPoolErr != nil {
		return nil, f.bookPoolErr
	}
	var out []vocab.Word
	for _, w := range f.words {
		if w.Book == book {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWordStore) BulkUpsert(ctx context.Context, words []vocab.Word) (int, int, error) {
	return 0, 0, nil
}

func (f *fakeWordStore) ListBooks(ctx context.Context) ([]vocab.BookSummary, error) { return nil, nil }

func (f *fakeWordStore) ChapterCounts(ctx context.Context, book string) ([]vocab.ChapterCount, error) {
	return nil, nil
}

type fakeExamStore struct {
	mu          sync.Mutex
	drafts      []exam.Session
	finalized   map[string][]exam.QuestionResult
	finalizeErr error
}

func (f *fakeExamStore) CreateDraft(ctx context.Context, s exam.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, s)
	return nil
}

func (f *fakeExamStore) Finalize(ctx context.Context, id string, correct int, passed bool, results []exam.QuestionResult) (exam.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finalizeErr != nil {
		return exam.Session{}, f.finalizeErr
	}
	if f.finalized == nil {
		f.finalized = map[string][]exam.QuestionResult{}
	}
	if _, ok := f.finalized[id]; ok {
		return exam.Session{}, exam.ErrAlreadySubmitted
	}
	f.finalized[id] = results
	return exam.Session{ID: id, Status: "submitted", Correct: correct, Passed: passed}, nil
}

func (f *fakeExamStore) Get(ctx context.Context, id string) (exam.Session, error) {
	return exam.Session{}, exam.ErrNotFound
}

func (f *fakeExamStore) Results(ctx context.Context, id string) ([]exam.QuestionResult, error) {
	return nil, nil
}

func (f *fakeExamStore) List(ctx context.Context, opts exam.ListOpts) ([]exam.Session, error) {
	return nil, nil
}

func (f *fakeExamStore) setFinalizeErr(err error) {
	f.mu.Lock()
	f.finalizeErr = err
	f.mu.Unlock()
}

func (f *fakeExamStore) draftCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drafts)
}

func newTestRunner(words *fakeWordStore, exams *fakeExamStore) *Runner {
	log := logrus.New()
	log.SetOutput(io.Discard)
	r := NewRunner(words, exams, analytics.NewRecorder(nil, log), log, 100)
	r.SetClock(&fakeClock{})
	return r
}

/* ---------------- tests ---------------- */

func TestStartQuizResolvesRangeText(t *testing.T) {
	words := &fakeWordStore{words: testPool()}
	r := newTestRunner(words, &fakeExamStore{})

	s, err := r.StartQuiz(context.Background(), StartParams{
		StudentID: "stu1", Book: "b1", Mode: ModeFree,
		RangeText: "1-2", NumQuestions: 2,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !reflect.DeepEqual(words.byChapters, []int{1, 2}) {
		t.Fatalf("resolved chapters = %v, want [1 2]", words.byChapters)
	}
	if s.State() != StateExam {
		t.Fatalf("state = %v, want exam", s.State())
	}
	if got, err := r.Get(s.ID); err != nil || got != s {
		t.Fatalf("session not registered: %v", err)
	}
}

func TestStartQuizBadMode(t *testing.T) {
	r := newTestRunner(&fakeWordStore{words: testPool()}, &fakeExamStore{})
	if _, err := r.StartQuiz(context.Background(), StartParams{Book: "b1", Mode: "flash"}); err != ErrBadMode {
		t.Fatalf("err = %v, want ErrBadMode", err)
	}
}

func TestStartQuizEmptyPool(t *testing.T) {
	r := newTestRunner(&fakeWordStore{words: testPool()}, &fakeExamStore{})

	cases := []StartParams{
		{Book: "b1", Mode: ModeFree, RangeText: "abc,-1", NumQuestions: 3},
		{Book: "b1", Mode: ModeFree, StartChapter: 8, EndChapter: 9, NumQuestions: 3},
		{Book: "nope", Mode: ModeFree, RangeText: "1-2", NumQuestions: 3},
	}
	for _, p := range cases {
		if _, err := r.StartQuiz(context.Background(), p); !errors.Is(err, ErrEmptyPool) {
			t.Fatalf("params %+v: err = %v, want ErrEmptyPool", p, err)
		}
	}
}

func TestStartQuizMCQDistractorFallback(t *testing.T) {
	words := &fakeWordStore{words: testPool(), bookPoolErr: errors.New("db down")}
	r := newTestRunner(words, &fakeExamStore{})

	s, err := r.StartQuiz(context.Background(), StartParams{
		StudentID: "stu1", Book: "b1", Mode: ModeMCQ,
		StartChapter: 1, EndChapter: 2, NumQuestions: 3,
	})
	if err != nil {
		t.Fatalf("distractor fetch failure must not abort the quiz: %v", err)
	}
	if v := s.View(); len(v.Choices) == 0 {
		t.Fatal("no choices after falling back to the range pool")
	}
}

func runExam(t *testing.T, r *Runner) *Session {
	t.Helper()
	s, err := r.StartQuiz(context.Background(), StartParams{
		StudentID: "stu1", Book: "b1", Mode: ModeExam,
		StartChapter: 1, EndChapter: 2, NumQuestions: 1, CutoffMisses: 0,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := map[string]string{"apple": "사과", "banana": "바나나", "grape": "포도"}
	if !s.SubmitText(answers[s.View().TermEN]) {
		t.Fatal("submit rejected")
	}
	return s
}

func TestExamFinalizePersists(t *testing.T) {
	exams := &fakeExamStore{}
	r := newTestRunner(&fakeWordStore{words: testPool()}, exams)
	s := runExam(t, r)

	waitFor(t, func() bool { return s.isFinalized() })
	sum, _ := s.Summary()
	if sum.ExamSessionID == "" || !sum.Finalized || sum.FinalizeError != "" {
		t.Fatalf("summary after finalize = %+v", sum)
	}
	if exams.draftCount() != 1 {
		t.Fatalf("drafts = %d, want 1", exams.draftCount())
	}
	results := exams.finalized[sum.ExamSessionID]
	if len(results) != 1 || !results[0].IsCorrect || results[0].Ord != 0 {
		t.Fatalf("persisted results = %+v", results)
	}
}

func TestExamFinalizeFailureKeepsResultsForRetry(t *testing.T) {
	exams := &fakeExamStore{}
	exams.setFinalizeErr(errors.New("db down"))
	r := newTestRunner(&fakeWordStore{words: testPool()}, exams)
	s := runExam(t, r)

	waitFor(t, func() bool {
		sum, ok := s.Summary()
		return ok && sum.FinalizeError != ""
	})
	sum, _ := s.Summary()
	if sum.Finalized {
		t.Fatal("must not report finalized after a persist failure")
	}
	if sum.ExamSessionID == "" {
		t.Fatal("draft id should survive the finalize failure")
	}
	if len(sum.Results) != 1 {
		t.Fatal("in-memory results must not be lost")
	}

	exams.setFinalizeErr(nil)
	retried, err := r.RetryFinalize(s.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !retried.Finalized || retried.FinalizeError != "" {
		t.Fatalf("retry summary = %+v", retried)
	}
	if exams.draftCount() != 1 {
		t.Fatalf("drafts = %d, retry must reuse the existing draft", exams.draftCount())
	}
}

func TestRetryFinalizeAfterSuccessIsNoop(t *testing.T) {
	exams := &fakeExamStore{}
	r := newTestRunner(&fakeWordStore{words: testPool()}, exams)
	s := runExam(t, r)
	waitFor(t, func() bool { return s.isFinalized() })

	sum, err := r.RetryFinalize(s.ID)
	if err != nil {
		t.Fatalf("retry on a finalized exam: %v", err)
	}
	if !sum.Finalized {
		t.Fatal("summary should still read finalized")
	}
	if exams.draftCount() != 1 {
		t.Fatalf("drafts = %d, want no second draft", exams.draftCount())
	}
}

func TestRetryFinalizeWrongState(t *testing.T) {
	r := newTestRunner(&fakeWordStore{words: testPool()}, &fakeExamStore{})
	s, err := r.StartQuiz(context.Background(), StartParams{
		StudentID: "stu1", Book: "b1", Mode: ModeExam,
		StartChapter: 1, EndChapter: 2, NumQuestions: 2,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.RetryFinalize(s.ID); err != ErrWrongState {
		t.Fatalf("err = %v, want ErrWrongState mid-run", err)
	}
	if _, err := r.RetryFinalize("missing"); err != ErrSessionNotFound {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestRemoveTearsDownSession(t *testing.T) {
	r := newTestRunner(&fakeWordStore{words: testPool()}, &fakeExamStore{})
	s, err := r.StartQuiz(context.Background(), StartParams{
		StudentID: "stu1", Book: "b1", Mode: ModeFree,
		StartChapter: 1, EndChapter: 2, NumQuestions: 2,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	r.Remove(s.ID)
	if _, err := r.Get(s.ID); err != ErrSessionNotFound {
		t.Fatalf("err = %v, want ErrSessionNotFound after remove", err)
	}
	if s.State() != StateDone {
		t.Fatal("remove should tear the session down")
	}
}
