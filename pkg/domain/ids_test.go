package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

func TestParseDomainID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseDomainID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseDomainID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil uuid", func(t *testing.T) {
		_, err := ParseDomainID(uuid.Nil.String())
		require.Error(t, err)
	})

	t.Run("accepts valid uuid", func(t *testing.T) {
		valid := uuid.New()
		got, err := ParseDomainID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, DomainID(valid), got)
	})
}

func TestTypeDistinction(t *testing.T) {
	domainID := NewDomainID()
	taskID := NewTaskID()

	// These would fail to compile if the types were interchangeable:
	// var _ DomainID = taskID

	assert.NotEqual(t, uuid.UUID(domainID), uuid.UUID(taskID))
}

func TestParseDomainID_RejectsAttackVectors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"sql injection attempt", "'; DROP TABLE domains;--"},
		{"path traversal", "../../../etc/passwd"},
		{"null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000"},
		{"oversized input", strings.Repeat("a", 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDomainID(tt.input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}
