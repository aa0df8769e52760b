package vocab

import "context"

// Store is the persistence boundary for vocabulary words. The quiz engine
// only reads; writes come from the teacher upload surface.
type Store interface {
	// WordsByRange fetches the words of book with chapter in [start, end].
	WordsByRange(ctx context.Context, book string, start, end int) ([]Word, error)
	// WordsByChapters fetches the words of book whose chapter is listed.
	WordsByChapters(ctx context.Context, book string, chapters []int) ([]Word, error)
	// AllWordsInBook fetches every word of book (MCQ distractor pool).
	AllWordsInBook(ctx context.Context, book string) ([]Word, error)

	BulkUpsert(ctx context.Context, words []Word) (inserted, updated int, err error)
	ListBooks(ctx context.Context) ([]BookSummary, error)
	ChapterCounts(ctx context.Context, book string) ([]ChapterCount, error)
}
