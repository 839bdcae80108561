package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xcervi19/orakulum/internal/expand"
)

// Transcript records one traversal run. It satisfies expand.Recorder so the
// traversal can persist incrementally as results are extracted.
type Transcript struct {
	db     *DB
	convID int64
}

// Part is one persisted transcript entry
type Part struct {
	ID          int64
	Author      string
	Tags        []string
	Prompt      string
	ContentType string
	ContentJSON string
	CreatedAt   time.Time
}

// NewTranscript starts a new conversation for a traversal run
func NewTranscript(db *DB, title string) (*Transcript, error) {
	res, err := db.conn.Exec(`INSERT INTO conversations (title) VALUES (?)`, title)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	convID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Transcript{db: db, convID: convID}, nil
}

// ConversationID returns the run's conversation id
func (t *Transcript) ConversationID() int64 {
	return t.convID
}

// RecordRoot persists the initial screen document and its root part
func (t *Transcript) RecordRoot(doc *expand.Screen) (int64, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize root document: %w", err)
	}

	var rootID int64
	err = t.db.ExecTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO conversation_root (conversation_id, autor, type, json_data) VALUES (?, 'system', 'screen', ?)`,
			t.convID, string(data)); err != nil {
			return err
		}

		res, err := tx.Exec(
			`INSERT INTO conversation_parts (conversation_id, author, tags, content_type, content_json) VALUES (?, 'assistant', '[]', 'json', ?)`,
			t.convID, string(data))
		if err != nil {
			return err
		}
		rootID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record root: %w", err)
	}
	return rootID, nil
}

// RecordResult persists one job result as a part plus the edge from its
// parent, keeping the traversal order in the edge's ord column
func (t *Transcript) RecordResult(parentID int64, res *expand.Result, ord int) (int64, error) {
	tags, err := json.Marshal([]string{string(res.Job.Source)})
	if err != nil {
		return 0, err
	}

	var contentJSON *string
	if res.Document != nil {
		data, err := json.Marshal(res.Document)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize result document: %w", err)
		}
		s := string(data)
		contentJSON = &s
	}

	var partID int64
	err = t.db.ExecTx(func(tx *sql.Tx) error {
		r, err := tx.Exec(
			`INSERT INTO conversation_parts (conversation_id, author, tags, prompt, content_type, content, content_json)
			 VALUES (?, 'assistant', ?, ?, 'json', ?, ?)`,
			t.convID, string(tags), res.Prompt, res.Content, contentJSON)
		if err != nil {
			return err
		}
		partID, err = r.LastInsertId()
		if err != nil {
			return err
		}

		_, err = tx.Exec(
			`INSERT INTO conversation_edges (conversation_id, src_part_id, dst_part_id, label, ord, weight)
			 VALUES (?, ?, ?, ?, ?, 1)`,
			t.convID, parentID, partID, res.Label, ord)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record result %s: %w", res.Label, err)
	}
	return partID, nil
}

// Parts returns the run's transcript entries in insertion order
func (t *Transcript) Parts() ([]Part, error) {
	rows, err := t.db.conn.Query(
		`SELECT id, author, tags, COALESCE(prompt, ''), content_type, COALESCE(content_json, ''), created_at
		 FROM conversation_parts WHERE conversation_id = ? ORDER BY id`, t.convID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parts: %w", err)
	}
	defer rows.Close()

	var parts []Part
	for rows.Next() {
		var p Part
		var tags string
		if err := rows.Scan(&p.ID, &p.Author, &tags, &p.Prompt, &p.ContentType, &p.ContentJSON, &p.CreatedAt); err != nil {
			return nil, err
		}
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
				p.Tags = nil
			}
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}
