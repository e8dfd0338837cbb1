package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/appointment"
)

const appointmentColumns = `id, clinical_record_id, title, appointment_date, note_id, status,
    created_at, updated_at, completed_at`

// PutAppointment inserts or updates an appointment.
func (s *Store) PutAppointment(ctx context.Context, a appointment.Appointment) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO appointments (`+appointmentColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    appointment_date = excluded.appointment_date,
    note_id = excluded.note_id,
    status = excluded.status,
    updated_at = excluded.updated_at,
    completed_at = excluded.completed_at`,
		a.ID,
		a.RecordID,
		a.Title,
		a.Date.String(),
		a.NoteID,
		string(a.Status),
		toMillis(a.CreatedAt),
		toMillis(a.UpdatedAt),
		toNullMillis(a.CompletedAt),
	)
	return mapWriteError("put appointment", err, nil)
}

// GetAppointment returns an appointment by id.
func (s *Store) GetAppointment(ctx context.Context, appointmentID string) (appointment.Appointment, error) {
	if err := s.ready(ctx); err != nil {
		return appointment.Appointment{}, err
	}
	row := s.q.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, appointmentID)
	a, err := scanAppointment(row)
	if err != nil {
		return appointment.Appointment{}, notFound(err)
	}
	return a, nil
}

// ListAppointments returns a record's appointments by date.
func (s *Store) ListAppointments(ctx context.Context, recordID string, status appointment.Status) ([]appointment.Appointment, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE clinical_record_id = ?`
	args := []any{recordID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY appointment_date, created_at, id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []appointment.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

// ClearAppointmentNote unlinks noteID from every appointment.
func (s *Store) ClearAppointmentNote(ctx context.Context, noteID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `UPDATE appointments SET note_id = '' WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("clear appointment note: %w", err)
	}
	return nil
}

func scanAppointment(row rowScanner) (appointment.Appointment, error) {
	var (
		a           appointment.Appointment
		date        string
		status      string
		createdAt   int64
		updatedAt   int64
		completedAt sql.NullInt64
	)
	if err := row.Scan(&a.ID, &a.RecordID, &a.Title, &date, &a.NoteID, &status, &createdAt, &updatedAt, &completedAt); err != nil {
		return appointment.Appointment{}, err
	}
	parsed, err := parseDate(date)
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("appointment %s date: %w", a.ID, err)
	}
	a.Date = parsed
	a.Status = appointment.Status(status)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updatedAt)
	a.CompletedAt = fromNullMillis(completedAt)
	return a, nil
}
