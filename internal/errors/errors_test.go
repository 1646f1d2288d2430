package errors

import (
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFieldError(t *testing.T) {
	err := NewMissingFieldError("Name")
	assert.Equal(t, "missing field: Name", err.Error())
	assert.True(t, IsMissingField(err))
	assert.False(t, IsInvalidField(err))
}

func TestFileIOError(t *testing.T) {
	err := NewFileIOError("append", "ledger.csv", fs.ErrPermission)

	assert.Contains(t, err.Error(), "append")
	assert.Contains(t, err.Error(), "ledger.csv")
	assert.ErrorIs(t, err, fs.ErrPermission)

	noCause := NewFileIOError("read", "x.csv", nil)
	assert.Equal(t, "file read x.csv failed", noCause.Error())
}

func TestPredicatesFollowWrapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"missing field", NewMissingFieldError("Location"), IsMissingField},
		{"invalid field", NewInvalidFieldError("Mobile Number", "must be 10 digits"), IsInvalidField},
		{"file io", NewFileIOError("open", "a.csv", nil), IsFileIO},
		{"service", NewServiceUnavailableError("espeak", nil), IsServiceUnavailable},
		{"duplicate", NewDuplicateComplaintError("TCKT1001", "water"), IsDuplicateComplaint},
		{"auth", NewAuthError("ravi", "invalid credentials"), IsAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("submit: %w", tt.err)
			require.True(t, tt.check(tt.err))
			require.True(t, tt.check(wrapped))
			require.False(t, tt.check(fmt.Errorf("plain")))
		})
	}
}

func TestDuplicateComplaintError(t *testing.T) {
	err := NewDuplicateComplaintError("TCKT1004", "Water")
	assert.Equal(t, `complaint of type "Water" already registered as TCKT1004`, err.Error())
}
