package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"registrar/internal/voter/models"
)

func TestRedisRecordKeepsPasswordHash(t *testing.T) {
	in := models.Voter{ID: 5, Email: "e@example.com", Name: "Eve Adams", PasswordHash: "digest"}

	raw, err := encodeVoter(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"password_hash":"digest"`)

	out, err := decodeVoter(raw)
	require.NoError(t, err)
	assert.Equal(t, in, *out)
}

func TestRedisKeys(t *testing.T) {
	assert.Equal(t, "voter:12", recordKey(12))
	assert.Equal(t, "voter:email:a@b.c", emailKey("a@b.c"))
}

func TestDecodeVoterRejectsGarbage(t *testing.T) {
	_, err := decodeVoter([]byte("not json"))
	assert.ErrorContains(t, err, "decode voter")
}
