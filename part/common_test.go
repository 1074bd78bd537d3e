package part

import (
	"sort"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oracle is the sorted-slice model every tree is checked against
type oracle struct {
	vals map[string]int
	keys []string // sorted, unique
}

func newOracle() *oracle {
	return &oracle{vals: make(map[string]int)}
}

func (o *oracle) insert(key string, val int) {
	if _, ok := o.vals[key]; !ok {
		i := sort.SearchStrings(o.keys, key)
		o.keys = append(o.keys, "")
		copy(o.keys[i+1:], o.keys[i:])
		o.keys[i] = key
	}
	o.vals[key] = val
}

func (o *oracle) clone() *oracle {
	c := &oracle{
		vals: make(map[string]int, len(o.vals)),
		keys: append([]string(nil), o.keys...),
	}
	for k, v := range o.vals {
		c.vals[k] = v
	}
	return c
}

// lowerBound returns the smallest key >= key
func (o *oracle) lowerBound(key string) (string, bool) {
	i := sort.SearchStrings(o.keys, key)
	if i == len(o.keys) {
		return "", false
	}
	return o.keys[i], true
}

// upperBound returns the smallest key > key
func (o *oracle) upperBound(key string) (string, bool) {
	i := sort.Search(len(o.keys), func(i int) bool { return o.keys[i] > key })
	if i == len(o.keys) {
		return "", false
	}
	return o.keys[i], true
}

// randomKeys draws n keys of up to maxLen bytes from alphabet; duplicates and the empty key
// are likely for short lengths, which is the point
func randomKeys(faker *gofakeit.Faker, n int, alphabet string, maxLen int) []string {
	var (
		keys = make([]string, n)
		buf  strings.Builder
	)
	for i := range keys {
		buf.Reset()
		for j := faker.Number(0, maxLen); j > 0; j-- {
			buf.WriteByte(alphabet[faker.Number(0, len(alphabet)-1)])
		}
		keys[i] = buf.String()
	}
	return keys
}

// longPrefixKeys shares prefixes longer than the inline prefix storage
func longPrefixKeys(faker *gofakeit.Faker, n int) []string {
	stems := []string{
		"",
		"common/prefix/",
		"common/prefix/that-is-long/",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
	}
	keys := make([]string, n)
	for i := range keys {
		stem := stems[faker.Number(0, len(stems)-1)]
		keys[i] = stem + randomKeys(faker, 1, "abc/", 12)[0]
	}
	return keys
}

func fillTree(t *testing.T, tr *Tree[int], o *oracle, keys []string) {
	t.Helper()

	for i, key := range keys {
		l := tr.Insert([]byte(key), i)
		require.NotNil(t, l)
		require.Equal(t, key, string(l.Key()))
		require.Equal(t, i, l.Value())
		o.insert(key, i)
	}
	require.Equal(t, len(o.keys), tr.Len())
}

// checkTree compares every read operation of tr with o
func checkTree(t *testing.T, tr *Tree[int], o *oracle, probes []string) {
	t.Helper()

	require.NoError(t, tr.Validate())
	require.Equal(t, len(o.keys), tr.Len())

	var got []string
	tr.Iterate(func(key []byte, val int) bool {
		got = append(got, string(key))
		assert.Equal(t, o.vals[string(key)], val)
		return true
	})
	if len(o.keys) == 0 {
		require.Empty(t, got)
	} else {
		require.Equal(t, o.keys, got)
	}

	for _, key := range append(probes, o.keys...) {
		val, ok := tr.Get([]byte(key))
		expVal, expOK := o.vals[key]
		require.Equal(t, expOK, ok, "Get(%q)", key)
		require.Equal(t, expVal, val, "Get(%q)", key)

		exp, expOK := o.lowerBound(key)
		it := tr.LowerBound([]byte(key))
		require.Equal(t, expOK, it.Valid(), "LowerBound(%q)", key)
		if expOK {
			require.Equal(t, exp, string(it.Key()), "LowerBound(%q)", key)
		}

		exp, expOK = o.upperBound(key)
		it = tr.UpperBound([]byte(key))
		require.Equal(t, expOK, it.Valid(), "UpperBound(%q)", key)
		if expOK {
			require.Equal(t, exp, string(it.Key()), "UpperBound(%q)", key)
		}
	}
}
