package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/mindchart/internal/platform/id"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
)

// RecordService manages the one clinical record each patient has.
type RecordService struct {
	deps
}

// CreateRecord returns the patient's clinical record, creating it on first
// call.
func (s *RecordService) CreateRecord(ctx context.Context, patientID string) (storage.ClinicalRecord, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return storage.ClinicalRecord{}, missingPatient()
	}

	recordID, err := id.NewID()
	if err != nil {
		return storage.ClinicalRecord{}, fmt.Errorf("generate clinical record id: %w", err)
	}
	rec := storage.ClinicalRecord{
		ID:        recordID,
		PatientID: patientID,
		CreatedAt: s.now().UTC(),
	}
	err = s.store.CreateRecord(ctx, rec)
	if errors.Is(err, storage.ErrDuplicateRecord) {
		return s.RecordForPatient(ctx, patientID)
	}
	if err != nil {
		return storage.ClinicalRecord{}, fmt.Errorf("create clinical record: %w", err)
	}
	s.logger.InfoContext(ctx, "clinical record created",
		"clinical_record_id", rec.ID,
		"patient_id", patientID,
	)
	return rec, nil
}

// RecordForPatient returns the patient's clinical record.
func (s *RecordService) RecordForPatient(ctx context.Context, patientID string) (storage.ClinicalRecord, error) {
	return resolveRecord(ctx, s.store, patientID)
}
