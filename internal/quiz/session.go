package quiz

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/vocadrill/vocadrill/internal/grading"
	"github.com/vocadrill/vocadrill/internal/vocab"
)

type Mode string

const (
	ModeMCQ  Mode = "mcq"  // practice multiple choice, untimed
	ModeFree Mode = "free" // practice mock, timed free response
	ModeExam Mode = "exam" // official exam, timed free response
)

// Timed reports whether the mode runs the per-question countdown. MCQ has
// none: picking a choice is itself the submission.
func (m Mode) Timed() bool { return m == ModeFree || m == ModeExam }

func (m Mode) Valid() bool { return m == ModeMCQ || m == ModeFree || m == ModeExam }

type State string

const (
	StateConfig State = "config"
	StateExam   State = "exam"
	StateDone   State = "done"
)

// QuestionSeconds is the fixed countdown per timed question.
const QuestionSeconds = 6

const maxCutoffMisses = 999

var (
	ErrEmptyPool  = errors.New("word pool is empty")
	ErrWrongState = errors.New("operation not valid in current state")
)

// Result is one scored question.
type Result struct {
	Word          vocab.Word `json:"word"`
	StudentAnswer string     `json:"student_answer"`
	IsCorrect     bool       `json:"is_correct"`
}

// QuestionView is what the page layer renders for the active question.
type QuestionView struct {
	SessionID   string   `json:"session_id"`
	State       State    `json:"state"`
	Index       int      `json:"index"`
	Total       int      `json:"total"`
	TermEN      string   `json:"term_en,omitempty"`
	SecondsLeft int      `json:"seconds_left,omitempty"`
	Corrects    int      `json:"corrects"`
	Choices     []string `json:"choices,omitempty"`
}

// Summary is the final view model after the last question.
type Summary struct {
	SessionID     string   `json:"session_id"`
	Total         int      `json:"total"`
	Corrects      int      `json:"corrects"`
	Misses        int      `json:"misses"`
	CutoffMisses  int      `json:"cutoff_misses"`
	Passed        bool     `json:"passed"`
	Results       []Result `json:"results"`
	ExamSessionID string   `json:"exam_session_id,omitempty"`
	Finalized     bool     `json:"finalized,omitempty"`
	FinalizeError string   `json:"finalize_error,omitempty"`
}

// Session drives one quiz run: config -> exam -> done. All mutation goes
// through the mutex; that serializes the HTTP goroutine against the timer
// goroutine, so there is exactly one accepted submission per question.
type Session struct {
	ID        string
	StudentID string
	Book      string
	Mode      Mode

	clk Clock
	rng *rand.Rand

	mu           sync.Mutex
	state        State
	pool         []vocab.Word
	bookPool     []vocab.Word // MCQ distractor pool
	numQuestions int
	cutoffMisses int

	sequence  []vocab.Word
	options   []Options // parallel to sequence, MCQ only
	current   int
	corrects  int
	results   []Result
	buffer    string // text typed so far; submitted as-is on timeout
	submitted bool   // guard: first submission per question wins
	remaining int
	timer     *countdown

	// set once the run completes
	onFinish      func()
	examSessionID string
	finalized     bool
	finalizeErr   string
}

func NewSession(id, studentID, book string, mode Mode, clk Clock, rng *rand.Rand) *Session {
	return &Session{
		ID:        id,
		StudentID: studentID,
		Book:      book,
		Mode:      mode,
		clk:       clk,
		rng:       rng,
		state:     StateConfig,
	}
}

// Configure sets the word pools and clamps the requested question count to
// [1, min(cap, pool)] and the cutoff to [0, 999]. An empty pool is a
// user-input error: the session stays in config.
func (s *Session) Configure(pool, bookPool []vocab.Word, numQuestions, cutoffMisses, capQuestions int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConfig {
		return ErrWrongState
	}
	if len(pool) == 0 {
		return ErrEmptyPool
	}
	if capQuestions > 0 && numQuestions > capQuestions {
		numQuestions = capQuestions
	}
	if numQuestions > len(pool) {
		numQuestions = len(pool)
	}
	if numQuestions < 1 {
		numQuestions = 1
	}
	if cutoffMisses < 0 {
		cutoffMisses = 0
	}
	if cutoffMisses > maxCutoffMisses {
		cutoffMisses = maxCutoffMisses
	}
	s.pool = pool
	s.bookPool = bookPool
	s.numQuestions = numQuestions
	s.cutoffMisses = cutoffMisses
	return nil
}

// SetOnFinish registers the completion hook (persistence, analytics). It
// runs on its own goroutine when the last question is scored, whichever
// goroutine got there.
func (s *Session) SetOnFinish(fn func()) {
	s.mu.Lock()
	s.onFinish = fn
	s.mu.Unlock()
}

// Start samples the question sequence without replacement, precomputes MCQ
// options, and arms the first countdown for timed modes.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConfig || s.numQuestions == 0 {
		return ErrWrongState
	}
	s.sequence = vocab.SampleN(s.rng, s.pool, s.numQuestions)
	if s.Mode == ModeMCQ {
		distractors := s.bookPool
		if len(distractors) == 0 {
			distractors = s.pool
		}
		s.options = make([]Options, len(s.sequence))
		for i, w := range s.sequence {
			s.options[i] = BuildOptions(s.rng, w, distractors, s.pool)
		}
	}
	s.current = 0
	s.corrects = 0
	s.results = make([]Result, 0, len(s.sequence))
	s.buffer = ""
	s.submitted = false
	s.state = StateExam
	if s.Mode.Timed() {
		s.armTimerLocked()
	}
	return nil
}

// SetBuffer records the text typed so far; the countdown submits it when
// it expires.
func (s *Session) SetBuffer(text string) {
	s.mu.Lock()
	if s.state == StateExam && !s.submitted {
		s.buffer = text
	}
	s.mu.Unlock()
}

// SubmitText scores a free-response answer for the active question.
// Returns false when the submission was not accepted (already answered,
// or not in the exam state).
func (s *Session) SubmitText(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked(text, -1)
}

// SubmitChoice scores an MCQ selection for the active question.
func (s *Session) SubmitChoice(choice int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked("", choice)
}

// expire is the countdown callback: auto-submit whatever is buffered for
// the question the timer was armed for. A stale timer that lost the race
// against a manual submit finds current moved on and does nothing.
func (s *Session) expire(question int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != question {
		return
	}
	s.submitLocked(s.buffer, -1)
}

func (s *Session) submitLocked(text string, choice int) bool {
	if s.state != StateExam || s.submitted {
		return false
	}
	s.submitted = true
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}

	w := s.sequence[s.current]
	var answer string
	var correct bool
	if s.Mode == ModeMCQ {
		opts := s.options[s.current]
		correct = choice == opts.AnswerIndex
		if choice >= 0 && choice < len(opts.Choices) {
			answer = opts.Choices[choice]
		}
	} else {
		answer = text
		correct = grading.IsAnswerCorrect(text, grading.Answer{
			MeaningKO:  w.MeaningKO,
			AcceptedKO: w.AcceptedKO,
			POS:        w.POS,
		})
	}

	s.results = append(s.results, Result{Word: w, StudentAnswer: answer, IsCorrect: correct})
	if correct {
		s.corrects++
	}
	s.current++

	if s.current == len(s.sequence) {
		s.state = StateDone
		if s.onFinish != nil {
			go s.onFinish()
		}
		return true
	}
	s.buffer = ""
	s.submitted = false
	if s.Mode.Timed() {
		s.armTimerLocked()
	}
	return true
}

func (s *Session) armTimerLocked() {
	question := s.current
	s.remaining = QuestionSeconds
	s.timer = startCountdown(s.clk, QuestionSeconds, func(remaining int) {
		s.mu.Lock()
		if s.current == question && s.state == StateExam {
			s.remaining = remaining
		}
		s.mu.Unlock()
	}, func() {
		s.expire(question)
	})
}

// Teardown cancels the countdown. The session is unusable afterwards.
func (s *Session) Teardown() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
	s.state = StateDone
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the render model for the current question (or the done
// marker once the run is over).
func (s *Session) View() QuestionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := QuestionView{
		SessionID: s.ID,
		State:     s.state,
		Index:     s.current,
		Total:     len(s.sequence),
		Corrects:  s.corrects,
	}
	if s.state != StateExam {
		return v
	}
	v.TermEN = s.sequence[s.current].TermEN
	if s.Mode.Timed() {
		v.SecondsLeft = s.remaining
	}
	if s.Mode == ModeMCQ {
		v.Choices = s.options[s.current].Choices
	}
	return v
}

// Summary returns the final view model; ok is false until the run is done.
func (s *Session) Summary() (Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDone || len(s.results) != len(s.sequence) {
		return Summary{}, false
	}
	misses := len(s.sequence) - s.corrects
	return Summary{
		SessionID:     s.ID,
		Total:         len(s.sequence),
		Corrects:      s.corrects,
		Misses:        misses,
		CutoffMisses:  s.cutoffMisses,
		Passed:        misses <= s.cutoffMisses,
		Results:       append([]Result(nil), s.results...),
		ExamSessionID: s.examSessionID,
		Finalized:     s.finalized,
		FinalizeError: s.finalizeErr,
	}, true
}

func (s *Session) setExamSessionID(id string) {
	s.mu.Lock()
	s.examSessionID = id
	s.mu.Unlock()
}

func (s *Session) setFinalized(err error) {
	s.mu.Lock()
	if err != nil {
		s.finalizeErr = err.Error()
	} else {
		s.finalized = true
		s.finalizeErr = ""
	}
	s.mu.Unlock()
}

func (s *Session) isFinalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}
