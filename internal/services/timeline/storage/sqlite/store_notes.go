package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/note"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
)

const noteColumns = `id, clinical_record_id, title, content, note_date, status, created_at, updated_at, finalized_at`

// PutNote inserts or updates a note. Finalized notes are rejected by the
// schema with storage.ErrImmutable.
func (s *Store) PutNote(ctx context.Context, n note.Note) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO notes (`+noteColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    content = excluded.content,
    note_date = excluded.note_date,
    status = excluded.status,
    updated_at = excluded.updated_at,
    finalized_at = excluded.finalized_at`,
		n.ID,
		n.RecordID,
		n.Title,
		n.Content,
		n.Date.String(),
		string(n.Status),
		toMillis(n.CreatedAt),
		toMillis(n.UpdatedAt),
		toNullMillis(n.FinalizedAt),
	)
	return mapWriteError("put note", err, nil)
}

// GetNote returns a note by id.
func (s *Store) GetNote(ctx context.Context, noteID string) (note.Note, error) {
	if err := s.ready(ctx); err != nil {
		return note.Note{}, err
	}
	row := s.q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, noteID)
	n, err := scanNote(row)
	if err != nil {
		return note.Note{}, notFound(err)
	}
	return n, nil
}

// DeleteNote removes a draft note.
func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.q.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, noteID)
	if err != nil {
		return mapWriteError("delete note", err, nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListNotes returns a record's notes in creation order.
func (s *Store) ListNotes(ctx context.Context, recordID string) ([]note.Note, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE clinical_record_id = ? ORDER BY created_at, id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []note.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// AddAddendum appends an addendum to a note.
func (s *Store) AddAddendum(ctx context.Context, a note.Addendum) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO note_addenda (id, note_id, content, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.NoteID, a.Content, toMillis(a.CreatedAt),
	)
	return mapWriteError("add addendum", err, nil)
}

// ListAddenda returns a note's addenda oldest first.
func (s *Store) ListAddenda(ctx context.Context, noteID string) ([]note.Addendum, error) {
	return s.queryAddenda(ctx, `SELECT id, note_id, content, created_at FROM note_addenda
WHERE note_id = ? ORDER BY created_at, id`, noteID)
}

// ListAddendaByRecord returns the addenda of every note of a record.
func (s *Store) ListAddendaByRecord(ctx context.Context, recordID string) ([]note.Addendum, error) {
	return s.queryAddenda(ctx, `SELECT a.id, a.note_id, a.content, a.created_at FROM note_addenda a
JOIN notes n ON n.id = a.note_id
WHERE n.clinical_record_id = ? ORDER BY a.created_at, a.id`, recordID)
}

func (s *Store) queryAddenda(ctx context.Context, query string, arg string) ([]note.Addendum, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list addenda: %w", err)
	}
	defer rows.Close()

	var addenda []note.Addendum
	for rows.Next() {
		var (
			a         note.Addendum
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.NoteID, &a.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan addendum: %w", err)
		}
		a.CreatedAt = fromMillis(createdAt)
		addenda = append(addenda, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list addenda: %w", err)
	}
	return addenda, nil
}

func scanNote(row rowScanner) (note.Note, error) {
	var (
		n           note.Note
		date        string
		status      string
		createdAt   int64
		updatedAt   int64
		finalizedAt sql.NullInt64
	)
	if err := row.Scan(&n.ID, &n.RecordID, &n.Title, &n.Content, &date, &status, &createdAt, &updatedAt, &finalizedAt); err != nil {
		return note.Note{}, err
	}
	parsed, err := parseDate(date)
	if err != nil {
		return note.Note{}, fmt.Errorf("note %s date: %w", n.ID, err)
	}
	n.Date = parsed
	n.Status = note.Status(status)
	n.CreatedAt = fromMillis(createdAt)
	n.UpdatedAt = fromMillis(updatedAt)
	n.FinalizedAt = fromNullMillis(finalizedAt)
	return n, nil
}
