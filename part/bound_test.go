package part

import (
	"fmt"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowerBound_UpperBound(t *testing.T) {
	t.Parallel()

	tr := New[int]()
	for i, key := range []string{"a", "ab", "abcdefghijklmn", "abcdefghijklmz", "b", "ba", "d"} {
		tr.Insert([]byte(key), i)
	}

	for _, tcase := range []*struct {
		Key      string
		ExpLower string
		ExpUpper string
	}{
		{"", "a", "a"},
		{"a", "a", "ab"},
		{"aa", "ab", "ab"},
		{"ab", "ab", "abcdefghijklmn"},
		{"abc", "abcdefghijklmn", "abcdefghijklmn"},
		{"abcdefghijk", "abcdefghijklmn", "abcdefghijklmn"},
		{"abcdefghijklmn", "abcdefghijklmn", "abcdefghijklmz"},
		{"abcdefghijklmo", "abcdefghijklmz", "abcdefghijklmz"},
		{"abcdefghijklmz", "abcdefghijklmz", "b"},
		{"abcdefghijklmzz", "b", "b"},
		{"abcdefghijkz", "b", "b"},
		{"abd", "b", "b"},
		{"b", "b", "ba"},
		{"b\x00", "ba", "ba"},
		{"bb", "d", "d"},
		{"c", "d", "d"},
		{"d", "d", ""},
		{"d\x00", "", ""},
		{"z", "", ""},
	} {
		var (
			tcase = tcase
			name  = fmt.Sprintf("%#v", tcase.Key)
		)

		t.Run(name, func(t *testing.T) {
			t.Parallel()

			lower := tr.LowerBound([]byte(tcase.Key))
			assert.Equal(t, tcase.ExpLower != "", lower.Valid())
			assert.Equal(t, tcase.ExpLower, string(lower.Key()))

			upper := tr.UpperBound([]byte(tcase.Key))
			assert.Equal(t, tcase.ExpUpper != "", upper.Valid())
			assert.Equal(t, tcase.ExpUpper, string(upper.Key()))
		})
	}
}

func TestIterator_Next(t *testing.T) {
	t.Parallel()

	var (
		faker = gofakeit.New(1234567890)
		keys  = append(randomKeys(faker, 2000, "abcd", 7), longPrefixKeys(faker, 200)...)
		tr    = New[int]()
		o     = newOracle()
	)
	fillTree(t, tr, o, keys)

	var got []string
	for it := tr.First(); it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
		assert.Equal(t, o.vals[string(it.Key())], it.Value())
	}
	assert.Equal(t, o.keys, got)

	// start in the middle
	from := o.keys[len(o.keys)/2]
	got = got[:0]
	for it := tr.LowerBound([]byte(from)); it.Valid(); it.Next() {
		got = append(got, string(it.Key()))
	}
	assert.Equal(t, o.keys[len(o.keys)/2:], got)
}

func TestIterator_Exhausted(t *testing.T) {
	t.Parallel()

	tr := New[int]()
	tr.Insert([]byte("only"), 1)

	it := tr.First()
	require.True(t, it.Valid())
	assert.Equal(t, "only", string(it.Key()))
	assert.Equal(t, 1, it.Value())
	assert.NotNil(t, it.Leaf())

	assert.False(t, it.Next())
	assert.False(t, it.Valid())
	assert.Nil(t, it.Key())
	assert.Nil(t, it.Leaf())
	assert.Equal(t, 0, it.Value())
	assert.False(t, it.Next())

	var zero Iterator[int]
	assert.False(t, zero.Valid())
	assert.False(t, zero.Next())
}

func TestBoundStack_Spill(t *testing.T) {
	t.Parallel()

	var bs boundStack[int]

	for i := 0; i < 20; i++ {
		bs.push(boundFrame[int]{c: byte(i)})
		require.Equal(t, i+1, bs.len())
	}
	for i := 19; i >= 0; i-- {
		assert.Equal(t, byte(i), bs.pop().c)
	}
	assert.Equal(t, 0, bs.len())
}

func TestBound_DeepBacktrack(t *testing.T) {
	t.Parallel()

	// a chain of terminal leaves deeper than the inline stack, with the answer at the top
	var (
		tr   = New[int]()
		keys []string
	)
	for i := 0; i < 20; i++ {
		keys = append(keys, strings.Repeat("a", i+1))
		tr.Insert([]byte(keys[i]), i)
	}
	tr.Insert([]byte("b"), 20)
	require.NoError(t, tr.Validate())
	require.Equal(t, 20, tr.MaxDepth())

	for _, tcase := range []*struct {
		Key    string
		Strict bool
		Exp    string
	}{
		{keys[19], true, "b"},
		{keys[19], false, keys[19]},
		{keys[19] + "\x00", false, "b"},
		{keys[10] + "c", false, "b"},
		{keys[9] + "\x00", false, keys[10]},
		{keys[9] + "\x00", true, keys[10]},
		{"", true, "a"},
	} {
		var it Iterator[int]
		if tcase.Strict {
			it = tr.UpperBound([]byte(tcase.Key))
		} else {
			it = tr.LowerBound([]byte(tcase.Key))
		}
		require.True(t, it.Valid(), "%q", tcase.Key)
		assert.Equal(t, tcase.Exp, string(it.Key()), "%q", tcase.Key)
	}
}

func TestLowerBound_UnsortedKeysPanic(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{KindNode4, KindNode16} {
		tr := New[int](withStartKind(kind))
		for i, key := range []string{"a", "ab", "b"} {
			tr.Insert([]byte(key), i)
		}
		require.Equal(t, kind, tr.root.hdr().kind)
		require.Equal(t, "b", string(tr.LowerBound([]byte("az")).Key()))

		switch n := tr.root.(type) {
		case *node4[int]:
			n.keys[0], n.keys[1] = n.keys[1], n.keys[0]
		case *node16[int]:
			n.keys[0], n.keys[1] = n.keys[1], n.keys[0]
		}

		func() {
			defer func() {
				r := recover()
				require.NotNil(t, r, kind.String())
				err, ok := r.(error)
				require.True(t, ok, kind.String())
				assert.ErrorIs(t, err, ErrInvariant, kind.String())
			}()
			tr.LowerBound([]byte("a"))
		}()
	}
}
