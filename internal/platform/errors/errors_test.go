package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("append: %w", New(CodeMissingTitle, "title is required"))

	assert.ErrorIs(t, err, New(CodeMissingTitle, "other message"))
	assert.NotErrorIs(t, err, New(CodeMissingEventType, "title is required"))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk gone")
	err := Wrap(CodeSourceUnavailable, "load note", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load note", err.Error())
}

func TestWithMetadataCopiesMap(t *testing.T) {
	metadata := map[string]string{"medication_id": "med-1"}
	err := WithMetadata(CodeMedicationNotFound, "medication not found", metadata)
	metadata["medication_id"] = "med-2"

	assert.Equal(t, "med-1", err.Value("medication_id"))
	assert.Empty(t, err.Value("event_id"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeUnknown, CodeOf(stderrors.New("boom")))
	assert.Equal(t, CodeEventNotFound, CodeOf(fmt.Errorf("get: %w", New(CodeEventNotFound, "missing"))))

	assert.True(t, IsDomain(New(CodeInvalidState, "bad")))
	assert.False(t, IsDomain(stderrors.New("fault")))
}

func TestCategories(t *testing.T) {
	tests := []struct {
		code     Code
		category Category
		grpc     codes.Code
	}{
		{CodeMissingTitle, CategoryMissingData, codes.InvalidArgument},
		{CodeInvalidDateRange, CategoryInvalidData, codes.InvalidArgument},
		{CodePatientNotFound, CategoryNotFound, codes.NotFound},
		{CodeNoteAlreadyFinalized, CategoryState, codes.FailedPrecondition},
		{CodeMedicationNotActiveCannotPrescribe, CategoryState, codes.FailedPrecondition},
		{CodeInvalidState, CategoryReconstruction, codes.DataLoss},
		{CodeSourceUnavailable, CategorySource, codes.DataLoss},
		{CodeUnknown, CategoryUnknown, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.category, tt.code.Category())
			assert.Equal(t, tt.grpc, tt.code.GRPCCode())
		})
	}
}

func TestToGRPCStatusAttachesDetails(t *testing.T) {
	err := WithMetadata(CodeInvalidTimestampFuture, "event date in future", map[string]string{"event_date": "2030-01-01"})

	st, ok := status.FromError(err.ToGRPCStatus("en-US", "The event date is in the future."))
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "event date in future", st.Message())

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	require.NotNil(t, info)
	require.NotNil(t, localized)
	assert.Equal(t, "INVALID_TIMESTAMP_FUTURE", info.Reason)
	assert.Equal(t, Domain, info.Domain)
	assert.Equal(t, "2030-01-01", info.Metadata["event_date"])
	assert.Equal(t, "en-US", localized.Locale)
}
