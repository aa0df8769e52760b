package vocab

import "errors"

// Word is one vocabulary entry. Rows are owned by the import pipeline;
// the quiz engine treats them as immutable.
type Word struct {
	ID         string `json:"id"`
	Book       string `json:"book"`
	Chapter    int    `json:"chapter"`
	TermEN     string `json:"term_en"`
	MeaningKO  string `json:"meaning_ko"`
	POS        string `json:"pos,omitempty"`
	AcceptedKO string `json:"accepted_ko,omitempty"` // delimited alternative answers (",", ";" or "|")
}

var ErrInvalidWord = errors.New("invalid word")

// Validate enforces the store-boundary invariants so the quiz engine never
// sees a malformed record.
func (w Word) Validate() error {
	if w.Book == "" || w.TermEN == "" || w.MeaningKO == "" {
		return ErrInvalidWord
	}
	if w.Chapter < 1 {
		return ErrInvalidWord
	}
	return nil
}

// BookSummary describes one book for the range-picker UI.
type BookSummary struct {
	Book     string `json:"book"`
	Words    int    `json:"words"`
	Chapters int    `json:"chapters"` // highest chapter number present
}

// ChapterCount is the per-chapter word count within a book.
type ChapterCount struct {
	Chapter int `json:"chapter"`
	Words   int `json:"words"`
}
