package infra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type weight uint16

func TestCompareOrderedKey(t *testing.T) {
	require.Equal(t, int64(0), CompareOrderedKey(5, 5))
	require.Equal(t, int64(-1), CompareOrderedKey(-3, 5))
	require.Equal(t, int64(1), CompareOrderedKey(7.5, 5.25))
	require.Equal(t, int64(-1), CompareOrderedKey("abc", "abd"))
	require.Equal(t, int64(1), CompareOrderedKey(weight(9), weight(2)))

	var cmp OrderedKeyComparator[string] = CompareOrderedKey[string]
	require.Equal(t, int64(0), cmp("k", "k"))
}
