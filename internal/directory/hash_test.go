package directory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashRowIgnoresKeyOrder(t *testing.T) {
	first, err := HashRow(json.RawMessage(`{"a":1,"b":2}`))
	require.NoError(t, err)

	second, err := HashRow(json.RawMessage(`{"b":2,"a":1}`))
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, first, 64) // sha256 hex
}

func TestHashRowRespectsArrayOrder(t *testing.T) {
	first, err := HashRow(json.RawMessage(`{"a":[1,2]}`))
	require.NoError(t, err)

	second, err := HashRow(json.RawMessage(`{"a":[2,1]}`))
	require.NoError(t, err)

	require.NotEqual(t, first, second)
}

func TestHashRowNestedObjectsAndNull(t *testing.T) {
	first, err := HashRow(json.RawMessage(`{"outer":{"y":null,"x":"v"},"n":1.50}`))
	require.NoError(t, err)

	second, err := HashRow(json.RawMessage(`{"n":1.50,"outer":{"x":"v","y":null}}`))
	require.NoError(t, err)

	require.Equal(t, first, second)

	// 1.5 and 1.50 are different literal forms, so they hash differently.
	third, err := HashRow(json.RawMessage(`{"n":1.5,"outer":{"x":"v","y":null}}`))
	require.NoError(t, err)
	require.NotEqual(t, first, third)
}

func TestHashRowRejectsInvalidJSON(t *testing.T) {
	_, err := HashRow(json.RawMessage(`{"a":`))
	require.Error(t, err)
}
