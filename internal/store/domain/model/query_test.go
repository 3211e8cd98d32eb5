package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	c := NewCursor(map[string]interface{}{"_id": "abc", "codigo": "BUS-7"})

	token, err := c.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	decoded, err := DecodeCursor(token)
	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.Equal(t, "abc", decoded.Doc["_id"])
	assert.Equal(t, "BUS-7", decoded.Doc["codigo"])
}

func TestDecodeCursorEmptyToken(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestDecodeCursorBadToken(t *testing.T) {
	_, err := DecodeCursor("no es base64 !!!")
	assert.Error(t, err)
}

func TestNewCursorNilDoc(t *testing.T) {
	assert.Nil(t, NewCursor(nil))
}
