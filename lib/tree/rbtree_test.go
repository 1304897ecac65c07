package tree

import (
	randv2 "math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/infra"
)

type checkData[K infra.OrderedKey] struct {
	color Color
	key   K
}

func requireRBColors[K infra.OrderedKey](t *testing.T, tree Tree[K], expected []checkData[K]) {
	t.Helper()
	nodes := inorderNodes(tree.Root(), nil)
	require.Len(t, nodes, len(expected))
	for i, n := range nodes {
		require.Equal(t, expected[i].key, n.Key())
		require.Equalf(t, expected[i].color, n.Color(), "key %v", n.Key())
	}
	require.NoError(t, Validate(tree))
}

func TestRbtreeInsertSeed(t *testing.T) {
	tree := NewRBTree[int]()
	for _, key := range []int{5, 2, 10, 8, 6, 9, 12, 13} {
		tree.Insert(key)
	}

	/*
	        [8]
	       /   \
	    <5>     <10>
	    / \     /  \
	  [2] [6] [9]  [12]
	                  \
	                  <13>
	*/
	require.Equal(t, 8, tree.Root().Key())
	require.Equal(t, uint64(4), tree.Height())
	require.Equal(t, uint64(4), tree.CountLeaves())
	require.Equal(t, int64(8), tree.Len())
	requireRBColors(t, tree, []checkData[int]{
		{Black, 2}, {Red, 5}, {Black, 6}, {Black, 8},
		{Black, 9}, {Red, 10}, {Black, 12}, {Red, 13},
	})
}

func TestRbtreeDeleteSeed(t *testing.T) {
	for _, tc := range sentinelModes {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewRBTree[int](tc.opts...)
			for _, key := range []int{12, 8, 15, 5, 9, 13, 19, 10, 23} {
				tree.Insert(key)
			}
			requireRBColors(tt, tree, []checkData[int]{
				{Black, 5}, {Red, 8}, {Black, 9}, {Red, 10}, {Black, 12},
				{Black, 13}, {Red, 15}, {Black, 19}, {Red, 23},
			})

			tree.Delete(15)
			/*
			        [12]
			       /    \
			    <8>      <19>
			    / \      /  \
			  [5] [9]  [13] [23]
			        \
			        <10>
			*/
			require.False(tt, tree.Search(15))
			require.Equal(tt, 19, tree.Root().Right().Key())
			require.Equal(tt, uint64(4), tree.CountLeaves())
			requireRBColors(tt, tree, []checkData[int]{
				{Black, 5}, {Red, 8}, {Black, 9}, {Red, 10},
				{Black, 12}, {Black, 13}, {Red, 19}, {Black, 23},
			})
		})
	}
}

func TestRbtreeInsertAndRemove_Succ(t *testing.T) {
	for _, tc := range sentinelModes {
		t.Run(tc.name, func(tt *testing.T) {
			tree := NewRBTree[uint64](tc.opts...)

			tree.Insert(52)
			requireRBColors(tt, tree, []checkData[uint64]{{Black, 52}})
			tree.Insert(47)
			requireRBColors(tt, tree, []checkData[uint64]{{Red, 47}, {Black, 52}})
			tree.Insert(3)
			requireRBColors(tt, tree, []checkData[uint64]{{Red, 3}, {Black, 47}, {Red, 52}})
			tree.Insert(35)
			requireRBColors(tt, tree, []checkData[uint64]{
				{Black, 3}, {Red, 35}, {Black, 47}, {Black, 52},
			})
			tree.Insert(24)
			requireRBColors(tt, tree, []checkData[uint64]{
				{Red, 3}, {Black, 24}, {Red, 35}, {Black, 47}, {Black, 52},
			})

			tree.Delete(24)
			requireRBColors(tt, tree, []checkData[uint64]{
				{Red, 3}, {Black, 35}, {Black, 47}, {Black, 52},
			})
			tree.Delete(47)
			requireRBColors(tt, tree, []checkData[uint64]{
				{Black, 3}, {Black, 35}, {Black, 52},
			})
			tree.Delete(52)
			requireRBColors(tt, tree, []checkData[uint64]{{Red, 3}, {Black, 35}})
			tree.Delete(3)
			requireRBColors(tt, tree, []checkData[uint64]{{Black, 35}})
			tree.Delete(35)
			require.True(tt, tree.IsEmpty())
			require.Equal(tt, int64(0), tree.Len())
			require.Nil(tt, tree.Root())
		})
	}
}

func rbtreeInsertAndRemoveSequentialNumberRunCore(t *testing.T, opts ...TreeOption) {
	total := uint64(1000)
	insertTotal := uint64(float64(total) * 0.8)
	removeTotal := uint64(float64(total) * 0.2)

	tree := NewRBTree[uint64](opts...)
	for i := uint64(0); i < insertTotal+removeTotal; i++ {
		tree.Insert(i)
		require.NoError(t, RedViolationValidate(tree))
		require.NoError(t, BlackViolationValidate(tree))
	}
	tree.Traverse(Ascending, func(idx int64, key uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		require.True(t, tree.Search(i))
		tree.Delete(i)
		require.False(t, tree.Search(i))
		require.NoError(t, Validate(tree))
	}
	require.Equal(t, int64(insertTotal), tree.Len())
	tree.Traverse(Ascending, func(idx int64, key uint64) bool {
		require.Equal(t, uint64(idx), key)
		return true
	})
}

func TestRbtreeInsertAndRemove_SequentialNumber(t *testing.T) {
	for _, tc := range sentinelModes {
		t.Run(tc.name, func(tt *testing.T) {
			rbtreeInsertAndRemoveSequentialNumberRunCore(tt, tc.opts...)
		})
	}
}

func TestRbtreeInsertAndRemove_ReverseSequentialNumber(t *testing.T) {
	total := int64(10000)
	insertTotal := int64(float64(total) * 0.8)
	removeTotal := int64(float64(total) * 0.2)

	tree := NewRBTree[int64]()
	rand := int64(randv2.Uint32() % 1_000)
	for i := removeTotal + insertTotal - 1; i >= 0; i-- {
		tree.Insert(i)
		if i%1000 == rand {
			require.NoError(t, Validate(tree))
		}
	}
	tree.Traverse(Descending, func(idx int64, key int64) bool {
		require.Equal(t, removeTotal+insertTotal-1-idx, key)
		return true
	})

	for i := insertTotal; i < removeTotal+insertTotal; i++ {
		tree.Delete(i)
	}
	require.NoError(t, Validate(tree))
	tree.Traverse(Descending, func(idx int64, key int64) bool {
		require.Equal(t, insertTotal-1-idx, key)
		return true
	})
}

func TestRbtreeInsertAndRemove_RandomNumber(t *testing.T) {
	for _, tc := range sentinelModes {
		t.Run(tc.name, func(tt *testing.T) {
			rng := randv2.New(randv2.NewPCG(7, 29))
			tree := NewRBTree[int](tc.opts...)
			keys := rng.Perm(2000)
			for _, key := range keys {
				tree.Insert(key)
			}
			require.NoError(tt, Validate(tree))

			rng.Shuffle(len(keys), func(i, j int) {
				keys[i], keys[j] = keys[j], keys[i]
			})
			removed, kept := keys[:1000], slices.Clone(keys[1000:])
			for _, key := range removed {
				tree.Delete(key)
				require.NoError(tt, Validate(tree))
			}
			slices.Sort(kept)
			require.Equal(tt, kept, tree.Keys(Ascending))
		})
	}
}

func TestRbtreeStringKeys(t *testing.T) {
	tree := NewRBTree[string]()
	for _, key := range []string{"pear", "apple", "fig", "kiwi", "banana", "cherry"} {
		tree.Insert(key)
	}
	require.Equal(t, []string{"apple", "banana", "cherry", "fig", "kiwi", "pear"}, tree.Keys(Ascending))
	tree.Delete("fig")
	tree.Delete("durian")
	require.Equal(t, []string{"apple", "banana", "cherry", "kiwi", "pear"}, tree.Keys(Ascending))
	require.NoError(t, Validate(tree))
}

func BenchmarkRBTree_Random(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()

	rngArr := make([]int, 0, b.N)
	for i := 0; i < b.N; i++ {
		rngArr = append(rngArr, randv2.Int())
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Insert(rngArr[i])
	}
}

func BenchmarkRBTree_Serial(b *testing.B) {
	tree := NewRBTree[int]()
	for i := 0; i < b.N; i++ {
		tree.Insert(i)
	}
}

func BenchmarkRBTree_SerialSearch(b *testing.B) {
	b.StopTimer()
	tree := NewRBTree[int]()
	for i := 0; i < 100_000; i++ {
		tree.Insert(i)
	}

	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tree.Search(i % 100_000)
	}
}
