// Package audit keeps an append-only log of the state changes staff
// may need to reconstruct later: enrollment transitions, session
// closes, grading writes, document validations.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	EnrollmentSubmitted    = "EnrollmentSubmitted"
	EnrollmentTransitioned = "EnrollmentTransitioned"
	SessionClosed          = "SessionClosed"
	ExamGraded             = "ExamGraded"
	DocumentValidated      = "DocumentValidated"
)

type Event struct {
	Offset    int64  `json:"offset"`
	Type      string `json:"typ"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

func (l *Log) Record(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}

func (l *Log) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT "offset", typ, key, data, created_at FROM event_log
		ORDER BY "offset" DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
