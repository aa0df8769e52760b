package exam

// Session is one official exam run. A draft row is written when the run
// completes, then flipped to submitted together with the per-question batch
// in the same transaction. Teachers review submitted sessions.
type Session struct {
	ID           string `json:"id"`
	StudentID    string `json:"student_id"`
	Book         string `json:"book"`
	Status       string `json:"status"` // draft|submitted
	Total        int    `json:"total"`
	Correct      int    `json:"correct"`
	CutoffMisses int    `json:"cutoff_misses"`
	Passed       bool   `json:"passed"`
	CreatedAt    int64  `json:"created_at"`
	SubmittedAt  int64  `json:"submitted_at,omitempty"`
}

// QuestionResult is one reviewed answer within a session, in question order.
type QuestionResult struct {
	SessionID     string `json:"session_id"`
	Ord           int    `json:"ord"`
	TermEN        string `json:"term_en"`
	MeaningKO     string `json:"meaning_ko"`
	StudentAnswer string `json:"student_answer"`
	IsCorrect     bool   `json:"is_correct"`
}
