package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
)

// Recorder appends study events to the event_log table. Recording is
// fire-and-forget: the insert runs detached from the request, and failures
// are logged at warn, never returned. Question progression must not stall
// on analytics.
type Recorder struct {
	db  *sql.DB
	log logrus.FieldLogger
}

func NewRecorder(db *sql.DB, log logrus.FieldLogger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Record logs one student action ("quiz_start", "answer", "exam_submit")
// with free-form context.
func (r *Recorder) Record(studentID, term, action string, details map[string]any) {
	if r == nil || r.db == nil {
		return
	}
	data, _ := json.Marshal(details)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO event_log (student_id, term, action, data, created_at)
			 VALUES ($1,$2,$3,$4,$5)`,
			studentID, term, action, string(data), time.Now().Unix())
		if err != nil {
			r.log.WithError(err).WithFields(logrus.Fields{
				"student_id": studentID,
				"action":     action,
			}).Warn("event log append failed")
		}
	}()
}
