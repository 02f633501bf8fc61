package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := New(KindNotFound, "user not found")
	wrapped := fmt.Errorf("lookup: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrInvalidOTP))
	assert.Equal(t, "lookup: user not found", wrapped.Error())
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWithCopiesFields(t *testing.T) {
	base := New(KindVerificationRequired, "verify first")
	withEmail := base.With("email", "a@b.com").With("needsVerification", true)

	assert.Nil(t, base.Fields)
	assert.Equal(t, "a@b.com", withEmail.Fields["email"])
	assert.Equal(t, true, withEmail.Fields["needsVerification"])
	assert.True(t, errors.Is(withEmail, ErrVerificationRequired))
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:           http.StatusBadRequest,
		KindDuplicateEmail:       http.StatusBadRequest,
		KindInvalidOTP:           http.StatusBadRequest,
		KindInvalidCredentials:   http.StatusBadRequest,
		KindVerificationRequired: http.StatusBadRequest,
		KindRegistrationExpired:  http.StatusBadRequest,
		KindNotFound:             http.StatusNotFound,
		KindUnauthorized:         http.StatusUnauthorized,
		KindForbidden:            http.StatusForbidden,
		KindInternal:             http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status(), kind.String())
	}
}

func TestInternalUsesCauseMessage(t *testing.T) {
	err := Internal(errors.New("connection refused"))
	assert.Equal(t, "connection refused", err.Error())
	assert.True(t, errors.Is(err, ErrInternal))
}

func TestWithStatusKeepsKind(t *testing.T) {
	err := New(KindNotFound, "Invalid email").WithStatus(http.StatusBadRequest).With("email", "a@b.com")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, err.Status())
	assert.Equal(t, "a@b.com", err.Fields["email"])
	assert.Equal(t, http.StatusNotFound, New(KindNotFound, "x").Status())
}
