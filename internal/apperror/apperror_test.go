package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"property-survey-backend/internal/apperror"
)

func TestKindOf_WrappedChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("upload: %w", apperror.Wrap(apperror.KindRemoteWrite, "remote repository rejected the write", cause))

	assert.Equal(t, apperror.KindRemoteWrite, apperror.KindOf(err))
	assert.True(t, apperror.IsKind(err, apperror.KindRemoteWrite))
	assert.ErrorIs(t, err, cause)
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(errors.New("boom")))
	assert.False(t, apperror.IsKind(nil, apperror.KindInternal))
}

func TestField(t *testing.T) {
	err := apperror.Field("owner_name", "owner_name is required")
	assert.Equal(t, apperror.KindValidation, err.Kind)
	assert.Equal(t, "owner_name", err.Field)
	assert.Equal(t, "validation_error: owner_name is required", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[apperror.Kind]int{
		apperror.KindValidation:          http.StatusBadRequest,
		apperror.KindEditCommentRequired: http.StatusBadRequest,
		apperror.KindReasonRequired:      http.StatusBadRequest,
		apperror.KindNotFound:            http.StatusNotFound,
		apperror.KindAccessDenied:        http.StatusForbidden,
		apperror.KindConflict:            http.StatusConflict,
		apperror.KindAlreadyDecided:      http.StatusConflict,
		apperror.KindUploadFailed:        http.StatusBadGateway,
		apperror.KindInternal:            http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, apperror.HTTPStatus(kind), string(kind))
	}
}
