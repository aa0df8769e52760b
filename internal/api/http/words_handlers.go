package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vocadrill/vocadrill/internal/vocab"
)

// POST /words/bulk — accepts either multipart file= (CSV/JSON) or a raw
// JSON array in the body, teacher upload surface for word lists.
func BulkUpsertWordsHandler(store vocab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var words []vocab.Word
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			// sniff CSV vs JSON by first byte
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			if _, err := f.(io.Seeker).Seek(0, io.SeekStart); err != nil {
				http.Error(w, "unseekable upload", http.StatusBadRequest)
				return
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&words); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				ws, err := parseWordsCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				words = ws
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&words); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}
		if len(words) == 0 {
			writeJSON(w, map[string]any{"inserted": 0, "updated": 0})
			return
		}
		ins, upd, err := store.BulkUpsert(r.Context(), words)
		if err != nil {
			if errors.Is(err, vocab.ErrInvalidWord) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"inserted": ins, "updated": upd})
	}
}

// GET /books
func ListBooksHandler(store vocab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		books, err := store.ListBooks(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, books)
	}
}

// GET /books/{book}/chapters
func ChapterCountsHandler(store vocab.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts, err := store.ChapterCounts(r.Context(), chi.URLParam(r, "book"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, counts)
	}
}

func parseWordsCSV(r io.Reader) ([]vocab.Word, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"id", "book", "chapter", "term_en", "meaning_ko"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var out []vocab.Word
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		ch, err := strconv.Atoi(strings.TrimSpace(rec[idx["chapter"]]))
		if err != nil {
			return nil, errors.New("bad chapter: " + rec[idx["chapter"]])
		}
		word := vocab.Word{
			ID:        rec[idx["id"]],
			Book:      rec[idx["book"]],
			Chapter:   ch,
			TermEN:    rec[idx["term_en"]],
			MeaningKO: rec[idx["meaning_ko"]],
		}
		if i, ok := idx["pos"]; ok {
			word.POS = rec[i]
		}
		if i, ok := idx["accepted_ko"]; ok {
			word.AcceptedKO = rec[i]
		}
		out = append(out, word)
	}
	return out, nil
}
