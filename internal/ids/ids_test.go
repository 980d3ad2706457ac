package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomCodeMatchesGrammar(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateRoomCode()
		require.NoError(t, err)
		assert.True(t, IsValidRoomCode(code), "code %q should match grammar", code)
		assert.False(t, seen[code], "code %q repeated", code)
		seen[code] = true
	}
}

func TestIsValidRoomCode(t *testing.T) {
	assert.True(t, IsValidRoomCode("HIVE-ABCDEF"))
	assert.True(t, IsValidRoomCode("HIVE-234567"))
	assert.False(t, IsValidRoomCode("hive-abcdef"))
	assert.False(t, IsValidRoomCode("HIVE-ABCDE"))
	assert.False(t, IsValidRoomCode("HIVE-ABCDEFG"))
	assert.False(t, IsValidRoomCode("HIVE-ABCDI0")) // I, 0, 1, O excluded from alphabet
	assert.False(t, IsValidRoomCode("NOPE-ABCDEF"))
}

func TestGenerateDeviceIDLength(t *testing.T) {
	id, err := GenerateDeviceID()
	require.NoError(t, err)
	assert.Len(t, id, 16)

	id2, err := GenerateDeviceID()
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestSHA256Hex(t *testing.T) {
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		SHA256Hex("hello"),
	)
}
