package ids

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testULID = "01HYX3KQW7ERTV9XNBM2P8QJZF"

func TestNewULIDReturnsValid(t *testing.T) {
	value := NewULID()

	require.NoError(t, ValidateULID(value))
}

func TestNewULIDSortsInCreationOrder(t *testing.T) {
	values := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		values = append(values, NewULID())
	}

	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	require.Equal(t, values, sorted)
}

func TestIsULIDAndValidateULID(t *testing.T) {
	require.True(t, IsULID(testULID))
	require.True(t, IsULID(" "+testULID+" "))
	require.NoError(t, ValidateULID(testULID))

	require.False(t, IsULID("not-a-ulid"))
	require.ErrorIs(t, ValidateULID("not-a-ulid"), ErrInvalidULID)
}

func TestULIDAtIsDeterministic(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := ULIDAt(at, 1)
	second := ULIDAt(at, 1)
	third := ULIDAt(at, 2)

	require.Equal(t, first, second)
	require.NotEqual(t, first, third)
	require.Less(t, first, third)
	require.NoError(t, ValidateULID(first))

	ts, err := TimeOf(first)
	require.NoError(t, err)
	require.True(t, at.Equal(ts))
}

func TestTimeOfRejectsGarbage(t *testing.T) {
	_, err := TimeOf("bad")

	require.ErrorIs(t, err, ErrInvalidULID)
}
