package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
)

// CreateRecord stores a new clinical record.
func (s *Store) CreateRecord(ctx context.Context, rec storage.ClinicalRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO clinical_records (id, patient_id, created_at) VALUES (?, ?, ?)`,
		rec.ID, rec.PatientID, toMillis(rec.CreatedAt),
	)
	return mapWriteError("create clinical record", err, storage.ErrDuplicateRecord)
}

// GetRecord returns a clinical record by id.
func (s *Store) GetRecord(ctx context.Context, recordID string) (storage.ClinicalRecord, error) {
	return s.getRecord(ctx, `WHERE id = ?`, recordID)
}

// GetRecordByPatient returns the clinical record owned by patientID.
func (s *Store) GetRecordByPatient(ctx context.Context, patientID string) (storage.ClinicalRecord, error) {
	return s.getRecord(ctx, `WHERE patient_id = ?`, patientID)
}

func (s *Store) getRecord(ctx context.Context, where string, arg string) (storage.ClinicalRecord, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ClinicalRecord{}, err
	}
	var (
		rec       storage.ClinicalRecord
		createdAt int64
	)
	err := s.q.QueryRowContext(ctx,
		`SELECT id, patient_id, created_at FROM clinical_records `+where, arg,
	).Scan(&rec.ID, &rec.PatientID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ClinicalRecord{}, storage.ErrNotFound
		}
		return storage.ClinicalRecord{}, fmt.Errorf("get clinical record: %w", err)
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}
