package avl

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTreeStateMachine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := &treeMachine{
			tree:  NewOrdered[int](),
			other: NewOrdered[int](),
			model: map[int]int{},
		}
		t.Repeat(map[string]func(*rapid.T){
			"":            m.check,
			"Insert":      m.insert,
			"InsertMulti": m.insertMulti,
			"Erase":       m.erase,
			"Move":        m.move,
			"Bound":       m.bound,
		})
	})
}

func FuzzTree(f *testing.F) {
	f.Fuzz(rapid.MakeFuzz(func(t *rapid.T) {
		tree := NewOrdered[int]()
		keys := rapid.SliceOf(rapid.IntRange(-50, 50)).Draw(t, "keys")
		for _, k := range keys {
			tree.InsertMulti(k)
		}
		require.NoError(t, tree.Verify())
	}))
}

// treeMachine drives a tree and mirrors it in a multiset model.
type treeMachine struct {
	tree  *Tree[int, int]
	other *Tree[int, int] // target of moved nodes
	model map[int]int     // key -> multiplicity
}

func (m *treeMachine) key(t *rapid.T) int {
	return rapid.IntRange(-100, 100).Draw(t, "key")
}

func (m *treeMachine) sortedModel() []int {
	var out []int
	for k, c := range m.model {
		for range c {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func (m *treeMachine) check(t *rapid.T) {
	require.NoError(t, m.tree.Verify())
	require.NoError(t, m.other.Verify())

	var got []int
	for v := range m.tree.All() {
		got = append(got, *v)
	}
	want := m.sortedModel()
	if len(want) == 0 {
		require.Empty(t, got)
	} else {
		require.Equal(t, want, got)
	}
	require.LessOrEqual(t, m.tree.Height(), maxAVLHeight(m.tree.Len()))
}

func (m *treeMachine) insert(t *rapid.T) {
	k := m.key(t)
	n, ok := m.tree.Insert(k)
	require.Equal(t, m.model[k] == 0, ok, "insert of %d", k)
	require.Equal(t, k, n.Value)
	if ok {
		m.model[k]++
	}
}

func (m *treeMachine) insertMulti(t *rapid.T) {
	k := m.key(t)
	m.tree.InsertMulti(k)
	m.model[k]++
}

func (m *treeMachine) erase(t *rapid.T) {
	k := m.key(t)
	require.Equal(t, m.model[k] > 0, m.tree.Erase(k), "erase of %d", k)
	if m.model[k] > 0 {
		m.model[k]--
	}
	if m.model[k] == 0 {
		delete(m.model, k)
	}
}

// move extracts a node, pushes it into the other tree and back again.
func (m *treeMachine) move(t *rapid.T) {
	k := m.key(t)
	n := m.tree.Extract(k)
	if m.model[k] == 0 {
		require.Nil(t, n)
		return
	}
	require.NotNil(t, n)
	m.other.PushMulti(n)
	require.Same(t, n, m.other.Extract(k))
	m.tree.PushMulti(n)
	require.Equal(t, 0, m.other.Len())
}

func (m *treeMachine) bound(t *rapid.T) {
	k := m.key(t)
	want := m.sortedModel()

	lb := m.tree.LowerBound(k)
	i, _ := slices.BinarySearch(want, k)
	if i == len(want) {
		require.False(t, lb.Valid())
	} else {
		require.True(t, lb.Valid())
		require.Equal(t, want[i], *lb.Value())
	}

	ub := m.tree.UpperBound(k)
	j := i
	for j < len(want) && want[j] == k {
		j++
	}
	if j == len(want) {
		require.False(t, ub.Valid())
	} else {
		require.True(t, ub.Valid())
		require.Equal(t, want[j], *ub.Value())
	}
}
