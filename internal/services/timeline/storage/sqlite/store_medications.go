package sqlite

import (
	"context"
	"fmt"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/medication"
)

const medicationColumns = `id, clinical_record_id, name, dosage, unit, frequency, route,
    start_date, end_date, stop_reason, status, created_at, updated_at`

// PutMedication inserts or replaces the cached medication state.
func (s *Store) PutMedication(ctx context.Context, m medication.Medication) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx, `INSERT INTO medications (`+medicationColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    dosage = excluded.dosage,
    unit = excluded.unit,
    frequency = excluded.frequency,
    route = excluded.route,
    end_date = excluded.end_date,
    stop_reason = excluded.stop_reason,
    status = excluded.status,
    updated_at = excluded.updated_at`,
		m.ID,
		m.RecordID,
		m.Name,
		m.Dosage.Dosage,
		m.Dosage.Unit,
		m.Dosage.Frequency,
		m.Dosage.Route,
		m.StartDate.String(),
		m.EndDate.String(),
		m.StopReason,
		string(m.Status),
		toMillis(m.CreatedAt),
		toMillis(m.UpdatedAt),
	)
	return mapWriteError("put medication", err, nil)
}

// GetMedication returns a medication by id.
func (s *Store) GetMedication(ctx context.Context, medicationID string) (medication.Medication, error) {
	if err := s.ready(ctx); err != nil {
		return medication.Medication{}, err
	}
	row := s.q.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = ?`, medicationID)
	m, err := scanMedication(row)
	if err != nil {
		return medication.Medication{}, notFound(err)
	}
	return m, nil
}

// ListMedications returns a record's medications by start date.
func (s *Store) ListMedications(ctx context.Context, recordID string) ([]medication.Medication, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, `SELECT `+medicationColumns+` FROM medications
WHERE clinical_record_id = ? ORDER BY start_date, id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var meds []medication.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return meds, nil
}

// PutPrescription stores a new prescription.
func (s *Store) PutPrescription(ctx context.Context, p medication.Prescription) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO prescriptions (id, medication_id, quantity, refills, issued_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.MedicationID, p.Quantity, p.Refills, toMillis(p.IssuedAt),
	)
	return mapWriteError("put prescription", err, nil)
}

// ListPrescriptions returns a medication's prescriptions oldest first.
func (s *Store) ListPrescriptions(ctx context.Context, medicationID string) ([]medication.Prescription, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.q.QueryContext(ctx, `SELECT id, medication_id, quantity, refills, issued_at FROM prescriptions
WHERE medication_id = ? ORDER BY issued_at, id`, medicationID)
	if err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	defer rows.Close()

	var out []medication.Prescription
	for rows.Next() {
		var (
			p        medication.Prescription
			issuedAt int64
		)
		if err := rows.Scan(&p.ID, &p.MedicationID, &p.Quantity, &p.Refills, &issuedAt); err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		p.IssuedAt = fromMillis(issuedAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	return out, nil
}

func scanMedication(row rowScanner) (medication.Medication, error) {
	var (
		m         medication.Medication
		startDate string
		endDate   string
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(
		&m.ID,
		&m.RecordID,
		&m.Name,
		&m.Dosage.Dosage,
		&m.Dosage.Unit,
		&m.Dosage.Frequency,
		&m.Dosage.Route,
		&startDate,
		&endDate,
		&m.StopReason,
		&status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return medication.Medication{}, err
	}
	var err error
	if m.StartDate, err = parseDate(startDate); err != nil {
		return medication.Medication{}, fmt.Errorf("medication %s start date: %w", m.ID, err)
	}
	if m.EndDate, err = parseDate(endDate); err != nil {
		return medication.Medication{}, fmt.Errorf("medication %s end date: %w", m.ID, err)
	}
	m.Status = medication.Status(status)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	return m, nil
}
