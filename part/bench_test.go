package part

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
)

func BenchmarkGoMap_Set(b *testing.B) {
	var (
		keys = getKeys(b.N)
		m    = make(map[string]int)
	)

	b.ResetTimer()

	for i, key := range keys {
		m[string(key)] = i
	}
}

func BenchmarkGoMap_Get(b *testing.B) {
	var (
		keys = getKeys(b.N)
		m    = make(map[string]int)
	)

	for i, key := range keys {
		m[string(key)] = i
	}

	b.ResetTimer()

	for _, key := range keys {
		_ = m[string(key)]
	}
}

func BenchmarkPART_Insert(b *testing.B) {
	var (
		keys = getKeys(b.N)
		tr   = New[int]()
	)

	b.ResetTimer()

	for i, key := range keys {
		tr.Insert(key, i)
	}
}

func BenchmarkPART_InsertWithSnapshots(b *testing.B) {
	var (
		keys = getKeys(b.N)
		tr   = New[int]()
	)

	b.ResetTimer()

	for i, key := range keys {
		if i%64 == 0 {
			tr.Snapshot().Destroy()
		}
		tr.Insert(key, i)
	}
}

func BenchmarkPART_Search(b *testing.B) {
	var (
		keys = getKeys(b.N)
		tr   = New[int]()
	)

	for i, key := range keys {
		tr.Insert(key, i)
	}

	b.ResetTimer()

	for _, key := range keys {
		_ = tr.Search(key)
	}
}

func BenchmarkPART_LowerBound(b *testing.B) {
	var (
		keys = getKeys(b.N)
		tr   = New[int]()
	)

	for i, key := range keys {
		tr.Insert(key, i)
	}

	b.ResetTimer()

	for _, key := range keys {
		_ = tr.LowerBound(key)
	}
}

func BenchmarkPART_Iterate(b *testing.B) {
	var (
		keys = getKeys(b.N)
		tr   = New[int]()
	)

	for i, key := range keys {
		tr.Insert(key, i)
	}

	b.ResetTimer()

	tr.Iterate(func([]byte, int) bool { return true })
}

func BenchmarkLowerBound16_Scalar(b *testing.B) {
	keys := [16]byte{'a', 'c', 'e', 'g', 'i', 'k', 'm', 'o', 'q', 's', 'u', 'w', 'y', 'z'}

	for i := 0; i < b.N; i++ {
		_ = lowerBound16Scalar(&keys, 14, byte(i))
	}
}

func BenchmarkLowerBound16_SWAR(b *testing.B) {
	keys := [16]byte{'a', 'c', 'e', 'g', 'i', 'k', 'm', 'o', 'q', 's', 'u', 'w', 'y', 'z'}

	for i := 0; i < b.N; i++ {
		_ = lowerBound16SWAR(&keys, 14, byte(i))
	}
}

func getKeys(total int) [][]byte {
	const seed = 1234567890

	var (
		faker = gofakeit.New(seed)
		keys  = make([][]byte, total)
	)

	for i := range keys {
		keys[i] = []byte(faker.Sentence(4))
	}

	return keys
}
