package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "attestry/pkg/domain-errors"
)

// TestParsePrincipalID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
//
// The nil rejection is load-bearing: the zero PrincipalID is the sentinel
// attester of unattested records, so no parsed caller may ever equal it.
func TestParsePrincipalID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePrincipalID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePrincipalID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParsePrincipalID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		principal, err := ParsePrincipalID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, validUUID.String(), principal.String())
		assert.False(t, principal.IsZero())
	})

	t.Run("sentinel never equals a parsed principal", func(t *testing.T) {
		principal, err := ParsePrincipalID(uuid.New().String())
		require.NoError(t, err)
		assert.NotEqual(t, SentinelAttester, principal)
		assert.True(t, SentinelAttester.IsZero())
	})
}

// FuzzParsePrincipalID tests that parsing never panics on arbitrary input
// and always returns either a valid ID or an error.
func FuzzParsePrincipalID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE identity_records;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		principal, err := ParsePrincipalID(input)
		if err != nil {
			return
		}
		if principal.IsZero() {
			t.Error("parse accepted the sentinel value")
		}
		roundTrip, err2 := ParsePrincipalID(principal.String())
		if err2 != nil {
			t.Errorf("valid ID failed round-trip: %v", err2)
		}
		if roundTrip != principal {
			t.Error("round-trip changed ID value")
		}
	})
}
