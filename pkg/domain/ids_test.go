package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "registrar/pkg/domain-errors"
)

// TestParseVoterID_Invariants validates that ids parsed at the HTTP boundary
// are positive integers.
func TestParseVoterID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseVoterID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects non-numeric", func(t *testing.T) {
		_, err := ParseVoterID("abc")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects zero and negatives", func(t *testing.T) {
		for _, in := range []string{"0", "-4"} {
			_, err := ParseVoterID(in)
			require.Error(t, err, in)
		}
	})

	t.Run("accepts positive integer", func(t *testing.T) {
		id, err := ParseVoterID(" 42 ")
		require.NoError(t, err)
		assert.Equal(t, VoterID(42), id)
		assert.Equal(t, "42", id.String())
		assert.False(t, id.IsNil())
	})
}

func TestVoterIDIsNil(t *testing.T) {
	var id VoterID
	assert.True(t, id.IsNil())
}
