package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/mindchart/internal/services/timeline/domain/appointment"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/event"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/history"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/medication"
	"github.com/louisbranch/mindchart/internal/services/timeline/domain/note"
	"github.com/louisbranch/mindchart/internal/services/timeline/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timeline.sqlite")
	store, err := Open(context.Background(), path, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedRecord(t *testing.T, store *Store, recordID, patientID string) {
	t.Helper()
	require.NoError(t, store.CreateRecord(context.Background(), storage.ClinicalRecord{
		ID:        recordID,
		PatientID: patientID,
		CreatedAt: fixedNow,
	}))
}

func appendEvent(t *testing.T, store *Store, evt event.Event) event.Event {
	t.Helper()
	stored, err := store.AppendEvent(context.Background(), evt)
	require.NoError(t, err)
	return stored
}

func day(month time.Month, d int) event.Date {
	return event.NewDate(2024, month, d)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.sqlite")
	first, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.CreateRecord(context.Background(), storage.ClinicalRecord{ID: "rec-1", PatientID: "pat-1", CreatedAt: fixedNow}))
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer second.Close()
	rec, err := second.GetRecordByPatient(context.Background(), "pat-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
}

func TestCloseIsNilSafe(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Close())
}

func TestRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	seedRecord(t, store, "rec-1", "pat-1")

	err := store.CreateRecord(ctx, storage.ClinicalRecord{ID: "rec-2", PatientID: "pat-1", CreatedAt: fixedNow})
	assert.ErrorIs(t, err, storage.ErrDuplicateRecord)

	rec, err := store.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "pat-1", rec.PatientID)
	assert.Equal(t, fixedNow, rec.CreatedAt)

	_, err = store.GetRecordByPatient(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAppendEventAssignsIdentity(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")

	first := appendEvent(t, store, event.Event{
		RecordID:    "rec-1",
		Date:        day(time.May, 1),
		Type:        event.TypeMedicationStart,
		Title:       "Started sertraline",
		Source:      event.MedicationSource{MedicationID: "med-1"},
		PayloadJSON: []byte(`{"medication_id":"med-1","dosage":"50"}`),
	})
	second := appendEvent(t, store, event.Event{RecordID: "rec-1", Date: day(time.May, 1), Type: event.TypeOther, Title: "Call"})

	assert.NotEmpty(t, first.ID)
	assert.NotEmpty(t, first.Hash)
	assert.Equal(t, fixedNow, first.CreatedAt)
	// Fixed clock: insertion times still strictly increase.
	assert.True(t, second.CreatedAt.After(first.CreatedAt))

	got, err := store.GetEvent(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)
}

func TestAppendEventRequiresExistingRecord(t *testing.T) {
	store := openTestStore(t)
	_, err := store.AppendEvent(context.Background(), event.Event{RecordID: "missing", Date: day(time.May, 1), Type: event.TypeOther, Title: "x"})
	assert.Error(t, err)
}

func TestGetEventNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetEvent(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListEventsFilters(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	seedRecord(t, store, "rec-2", "pat-2")
	ctx := context.Background()

	appendEvent(t, store, event.Event{RecordID: "rec-1", Date: day(time.January, 5), Type: event.TypeLifeEvent, Title: "Moved"})
	appendEvent(t, store, event.Event{RecordID: "rec-1", Date: day(time.February, 5), Type: event.TypeEncounter, Title: "Visit", Source: event.AppointmentSource{AppointmentID: "apt-1"}})
	appendEvent(t, store, event.Event{RecordID: "rec-1", Date: day(time.March, 5), Type: event.TypeHistoryUpdate, Title: "History", Source: event.HistorySource{HistoryID: "h-1"}})
	appendEvent(t, store, event.Event{RecordID: "rec-2", Date: day(time.February, 5), Type: event.TypeOther, Title: "Other record"})

	all, err := store.ListEvents(ctx, "rec-1", storage.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byType, err := store.ListEvents(ctx, "rec-1", storage.EventFilter{Types: []event.Type{event.TypeEncounter, event.TypeHistoryUpdate}})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	byRange, err := store.ListEvents(ctx, "rec-1", storage.EventFilter{From: day(time.February, 5), To: day(time.February, 5)})
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, "Visit", byRange[0].Title)

	bySource, err := store.ListEvents(ctx, "rec-1", storage.EventFilter{SourceKind: event.SourceKindHistory})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, event.HistorySource{HistoryID: "h-1"}, bySource[0].Source)
}

func TestAppointmentEncounterIsUnique(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	ctx := context.Background()
	src := event.AppointmentSource{AppointmentID: "apt-1"}
	evt := event.Event{RecordID: "rec-1", Date: day(time.May, 1), Type: event.TypeEncounter, Title: "Visit", Source: src}

	appendEvent(t, store, evt)
	_, err := store.AppendEvent(ctx, evt)
	assert.ErrorIs(t, err, storage.ErrDuplicateEvent)

	// Other types pointing at the appointment are not constrained.
	other := evt
	other.Type = event.TypeOther
	appendEvent(t, store, other)
	appendEvent(t, store, other)

	found, err := store.FindEventBySource(ctx, "rec-1", event.TypeEncounter, src)
	require.NoError(t, err)
	assert.Equal(t, "Visit", found.Title)

	_, err = store.FindEventBySource(ctx, "rec-1", event.TypeEncounter, event.AppointmentSource{AppointmentID: "apt-2"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEventsRejectInPlaceUpdate(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	stored := appendEvent(t, store, event.Event{RecordID: "rec-1", Date: day(time.May, 1), Type: event.TypeOther, Title: "x"})

	_, err := store.sqlDB.Exec(`UPDATE clinical_events SET event_date = '2020-01-01' WHERE id = ?`, stored.ID)
	require.Error(t, err)
	assert.True(t, isTriggerError(err))
}

func TestTamperedEventFailsIntegrity(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	stored := appendEvent(t, store, event.Event{RecordID: "rec-1", Date: day(time.May, 1), Type: event.TypeOther, Title: "original"})

	_, err := store.sqlDB.Exec(`DROP TRIGGER clinical_events_no_update`)
	require.NoError(t, err)
	_, err = store.sqlDB.Exec(`UPDATE clinical_events SET title = 'tampered' WHERE id = ?`, stored.ID)
	require.NoError(t, err)

	_, err = store.GetEvent(context.Background(), stored.ID)
	assert.ErrorIs(t, err, storage.ErrIntegrity)

	_, err = store.ListEvents(context.Background(), "rec-1", storage.EventFilter{})
	assert.ErrorIs(t, err, storage.ErrIntegrity)
}

func TestDeleteEventsOnlyForDraftNotes(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	ctx := context.Background()

	draft := note.Note{ID: "n-draft", RecordID: "rec-1", Title: "Draft", Date: day(time.May, 1), Status: note.StatusDraft, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	require.NoError(t, store.PutNote(ctx, draft))
	final := draft
	final.ID = "n-final"
	require.NoError(t, store.PutNote(ctx, final))
	require.NoError(t, store.PutNote(ctx, note.Finalize(final, fixedNow)))

	appendEvent(t, store, event.Event{RecordID: "rec-1", Date: day(time.May, 1), Type: event.TypeEncounter, Title: "Draft", Source: event.NoteSource{NoteID: "n-draft"}})
	appendEvent(t, store, event.Event{RecordID: "rec-1", Date: day(time.May, 1), Type: event.TypeEncounter, Title: "Final", Source: event.NoteSource{NoteID: "n-final"}})
	appendEvent(t, store, event.Event{RecordID: "rec-1", Date: day(time.May, 1), Type: event.TypeMedicationStart, Title: "Med", Source: event.MedicationSource{MedicationID: "m-1"}})

	n, err := store.DeleteEventsBySource(ctx, "rec-1", event.NoteSource{NoteID: "n-draft"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.DeleteEventsBySource(ctx, "rec-1", event.NoteSource{NoteID: "n-final"})
	assert.ErrorIs(t, err, storage.ErrImmutable)

	_, err = store.DeleteEventsBySource(ctx, "rec-1", event.MedicationSource{MedicationID: "m-1"})
	assert.ErrorIs(t, err, storage.ErrImmutable)

	remaining, err := store.ListEvents(ctx, "rec-1", storage.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestNotesLifecycle(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	ctx := context.Background()

	n := note.Note{ID: "n-1", RecordID: "rec-1", Title: "Intake", Content: "v1", Date: day(time.May, 1), Status: note.StatusDraft, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	require.NoError(t, store.PutNote(ctx, n))

	n.Content = "v2"
	require.NoError(t, store.PutNote(ctx, n))
	got, err := store.GetNote(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
	assert.Nil(t, got.FinalizedAt)

	finalized := note.Finalize(n, fixedNow.Add(time.Hour))
	require.NoError(t, store.PutNote(ctx, finalized))
	got, err = store.GetNote(ctx, "n-1")
	require.NoError(t, err)
	require.NotNil(t, got.FinalizedAt)
	assert.Equal(t, note.StatusFinalized, got.Status)

	finalized.Content = "rewritten"
	assert.ErrorIs(t, store.PutNote(ctx, finalized), storage.ErrImmutable)
	assert.ErrorIs(t, store.DeleteNote(ctx, "n-1"), storage.ErrImmutable)

	require.NoError(t, store.AddAddendum(ctx, note.Addendum{ID: "a-2", NoteID: "n-1", Content: "second", CreatedAt: fixedNow.Add(3 * time.Hour)}))
	require.NoError(t, store.AddAddendum(ctx, note.Addendum{ID: "a-1", NoteID: "n-1", Content: "first", CreatedAt: fixedNow.Add(2 * time.Hour)}))
	addenda, err := store.ListAddenda(ctx, "n-1")
	require.NoError(t, err)
	require.Len(t, addenda, 2)
	assert.Equal(t, "first", addenda[0].Content)

	byRecord, err := store.ListAddendaByRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.Len(t, byRecord, 2)

	_, err = store.sqlDB.Exec(`UPDATE note_addenda SET content = 'x' WHERE id = 'a-1'`)
	assert.True(t, isTriggerError(err))

	notes, err := store.ListNotes(ctx, "rec-1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestDeleteDraftNote(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	ctx := context.Background()
	require.NoError(t, store.PutNote(ctx, note.Note{ID: "n-1", RecordID: "rec-1", Title: "Draft", Date: day(time.May, 1), Status: note.StatusDraft, CreatedAt: fixedNow, UpdatedAt: fixedNow}))

	require.NoError(t, store.DeleteNote(ctx, "n-1"))
	_, err := store.GetNote(ctx, "n-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.DeleteNote(ctx, "n-1"), storage.ErrNotFound)
}

func TestMedicationsAndPrescriptions(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	ctx := context.Background()

	m := medication.Medication{
		ID:        "med-1",
		RecordID:  "rec-1",
		Name:      "Sertraline",
		Dosage:    medication.Dosage{Dosage: "50", Unit: "mg", Frequency: "daily", Route: "oral"},
		StartDate: day(time.January, 10),
		Status:    medication.StatusActive,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
	require.NoError(t, store.PutMedication(ctx, m))
	require.NoError(t, store.PutMedication(ctx, medication.Stop(m, day(time.March, 1), "done")))

	got, err := store.GetMedication(ctx, "med-1")
	require.NoError(t, err)
	assert.Equal(t, medication.StatusDiscontinued, got.Status)
	assert.Equal(t, day(time.March, 1), got.EndDate)
	assert.Equal(t, m.Dosage, got.Dosage)

	require.NoError(t, store.PutPrescription(ctx, medication.Prescription{ID: "rx-1", MedicationID: "med-1", Quantity: 30, Refills: 2, IssuedAt: fixedNow}))
	rxs, err := store.ListPrescriptions(ctx, "med-1")
	require.NoError(t, err)
	require.Len(t, rxs, 1)
	assert.Equal(t, 2, rxs[0].Refills)

	meds, err := store.ListMedications(ctx, "rec-1")
	require.NoError(t, err)
	assert.Len(t, meds, 1)

	_, err = store.GetMedication(ctx, "med-x")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAppointments(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	ctx := context.Background()

	a := appointment.Appointment{ID: "apt-1", RecordID: "rec-1", Title: "Follow-up", Date: day(time.May, 1), Status: appointment.StatusScheduled, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	b := a
	b.ID = "apt-2"
	b.Date = day(time.May, 2)
	require.NoError(t, store.PutAppointment(ctx, a))
	require.NoError(t, store.PutAppointment(ctx, b))
	require.NoError(t, store.PutAppointment(ctx, appointment.Complete(a, "n-1", fixedNow)))

	completed, err := store.ListAppointments(ctx, "rec-1", appointment.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "n-1", completed[0].NoteID)
	require.NotNil(t, completed[0].CompletedAt)

	all, err := store.ListAppointments(ctx, "rec-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.ClearAppointmentNote(ctx, "n-1"))
	got, err := store.GetAppointment(ctx, "apt-1")
	require.NoError(t, err)
	assert.Empty(t, got.NoteID)
}

func TestHistoryVersions(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	ctx := context.Background()

	_, err := store.LatestHistory(ctx, "rec-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	for v := 1; v <= 2; v++ {
		require.NoError(t, store.PutHistory(ctx, history.History{
			ID:        "h-" + string(rune('0'+v)),
			RecordID:  "rec-1",
			Version:   v,
			Content:   map[string]string{"family": string(rune('a' + v))},
			Date:      day(time.May, v),
			CreatedAt: fixedNow,
		}))
	}
	latest, err := store.LatestHistory(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "c", latest.Content["family"])

	err = store.PutHistory(ctx, history.History{ID: "h-dup", RecordID: "rec-1", Version: 2, Content: map[string]string{}, Date: day(time.May, 3), CreatedAt: fixedNow})
	assert.Error(t, err)

	h1, err := store.GetHistory(ctx, "h-1")
	require.NoError(t, err)
	assert.Equal(t, day(time.May, 1), h1.Date)
}

func TestInTxRollsBackOnError(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(tx storage.Store) error {
		if _, err := tx.AppendEvent(ctx, event.Event{RecordID: "rec-1", Date: day(time.May, 1), Type: event.TypeOther, Title: "rolled back"}); err != nil {
			return err
		}
		// Nested calls join the outer transaction.
		return tx.InTx(ctx, func(inner storage.Store) error {
			if _, err := inner.AppendEvent(ctx, event.Event{RecordID: "rec-1", Date: day(time.May, 2), Type: event.TypeOther, Title: "also rolled back"}); err != nil {
				return err
			}
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	events, err := store.ListEvents(ctx, "rec-1", storage.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestInTxCommits(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store, "rec-1", "pat-1")
	ctx := context.Background()

	require.NoError(t, store.InTx(ctx, func(tx storage.Store) error {
		_, err := tx.AppendEvent(ctx, event.Event{RecordID: "rec-1", Date: day(time.May, 1), Type: event.TypeOther, Title: "kept"})
		return err
	}))
	events, err := store.ListEvents(ctx, "rec-1", storage.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCanceledContext(t *testing.T) {
	store := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.GetEvent(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
