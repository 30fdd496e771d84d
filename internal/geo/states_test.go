package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateTableIsBijection(t *testing.T) {
	names := States()
	require.Len(t, names, 51)

	seen := make(map[string]string)
	for _, name := range names {
		code, err := Code(name)
		require.NoError(t, err, name)
		assert.Len(t, code, 2)

		if prev, dup := seen[code]; dup {
			t.Fatalf("code %s shared by %q and %q", code, prev, name)
		}
		seen[code] = name

		back, err := Name(code)
		require.NoError(t, err)
		assert.Equal(t, name, back)
	}
}

func TestCode_RejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "Puerto Rico", "california", "Ontario", "DC"} {
		t.Run(in, func(t *testing.T) {
			code, err := Code(in)
			assert.ErrorIs(t, err, ErrUnknownState)
			assert.Empty(t, code)
		})
	}
}

func TestCode_DistrictOfColumbia(t *testing.T) {
	code, err := Code("District of Columbia")
	require.NoError(t, err)
	assert.Equal(t, "DC", code)
}
