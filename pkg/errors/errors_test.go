package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		escalate  bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeInvalidTransition, status: http.StatusConflict},
		{code: CodeTerminalState, status: http.StatusConflict},
		{code: CodeNotEligible, status: http.StatusConflict},
		{code: CodeVendorPayoutDisabled, status: http.StatusUnprocessableEntity},
		{code: CodeInsufficientAuthorization, status: http.StatusBadRequest},
		{code: CodeConservationViolation, status: http.StatusInternalServerError, escalate: true},
		{code: CodeConcurrentModification, status: http.StatusConflict, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			meta := MetadataFor(tt.code)
			assert.Equal(t, tt.status, meta.HTTPStatus)
			assert.Equal(t, tt.retryable, meta.Retryable)
			assert.Equal(t, tt.escalate, meta.Escalate)
			assert.NotEmpty(t, meta.PublicMessage)
		})
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCauseAndCode(t *testing.T) {
	cause := stdErrors.New("db down")
	err := Wrap(CodeDependency, cause, "load payout")

	assert.Equal(t, "DEPENDENCY_ERROR: load payout", err.Error())
	assert.ErrorIs(t, err, cause)

	outer := fmt.Errorf("gateway: %w", err)
	require.NotNil(t, As(outer))
	assert.True(t, IsCode(outer, CodeDependency))
	assert.False(t, IsCode(outer, CodeNotFound))
}

func TestCodeOfUntypedIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(stdErrors.New("plain")))
	assert.False(t, IsCode(nil, CodeInternal))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeInvalidTransition, "payout cannot move").WithDetails(map[string]string{"from": "PAID"})
	assert.Equal(t, map[string]string{"from": "PAID"}, err.Details())
}

func TestDumpIncludesChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", Wrap(CodeConservationViolation, stdErrors.New("sum exceeded"), "approve"))
	dump := Dump(err)
	assert.Equal(t, CodeConservationViolation, dump.Code)
	assert.Len(t, dump.Chain, 3)
}
