package searchcache

import (
	"bytes"
	"math/rand"
	"testing"
)

func randomKey() Key {
	return Key{Source: rand.Uint32(), Target: rand.Uint32()}
}

func randomByteSlice(length int) []byte {
	slc := make([]byte, length)
	rand.Read(slc)
	return slc
}

func copyByteSlice(slc []byte) []byte {
	cpy := make([]byte, len(slc))
	copy(cpy, slc)
	return cpy
}

func TestCacheStandard(t *testing.T) {
	cache, _ := New(128)

	key1 := randomKey()
	result1 := randomByteSlice(100)
	cache.Store(key1, result1)
	if !bytes.Equal(cache.Fetch(key1), result1) {
		t.Error("expected key1 to be cached")
	}

	key2 := randomKey()
	result2 := randomByteSlice(24)
	cache.Store(key2, result2)
	if !bytes.Equal(cache.Fetch(key1), result1) {
		t.Error("expected key1 to still be cached")
	}
	if !bytes.Equal(cache.Fetch(key2), result2) {
		t.Error("expected key2 to be cached")
	}

	key3 := randomKey()
	result3 := randomByteSlice(20)
	cache.Store(key3, result3)
	if bytes.Equal(cache.Fetch(key1), result1) {
		t.Error("expected key1 to have been evicted")
	}
	if !bytes.Equal(cache.Fetch(key2), result2) {
		t.Error("expected key2 to still be cached")
	}
	if !bytes.Equal(cache.Fetch(key3), result3) {
		t.Error("expected key3 to be cached")
	}
}

func TestCacheLarge(t *testing.T) {
	testCount := 128
	testSize := 131072
	keys := make([]Key, testCount)
	results := make([][]byte, testCount)
	for i := range keys {
		keys[i] = randomKey()
		results[i] = randomByteSlice(testSize)
	}
	cache, err := New(testCount * testSize)
	if err != nil {
		t.Fatal(err)
	}
	for i := range keys {
		cache.Store(keys[i], copyByteSlice(results[i]))
	}
	for i := range keys {
		if !bytes.Equal(cache.Fetch(keys[i]), results[i]) {
			t.Error("expected entry to be cached")
		}
	}
}

func TestCacheHammer(t *testing.T) {
	max := 12288
	size := 8388608
	count := 8096
	cache, _ := New(size)
	for i := 0; i < count; i++ {
		cache.Store(randomKey(), randomByteSlice(rand.Intn(max)))
	}
}

func TestCacheZeroBudgetNeverCaches(t *testing.T) {
	cache, err := New(0)
	if err != nil {
		t.Fatal(err)
	}
	key := randomKey()
	result := randomByteSlice(1)
	cache.Store(key, result)
	if bytes.Equal(cache.Fetch(key), result) {
		t.Error("expected nothing to be cached with a zero budget")
	}
}

func TestCacheNegativeBudgetErrors(t *testing.T) {
	if _, err := New(-1); err == nil {
		t.Error("expected error on negative size")
	}
}

func TestCacheOversizedResultNotCached(t *testing.T) {
	cache, err := New(128)
	if err != nil {
		t.Fatal(err)
	}
	key := randomKey()
	result := randomByteSlice(256)
	cache.Store(key, result)
	if bytes.Equal(cache.Fetch(key), result) {
		t.Error("expected oversized result to not be cached")
	}
}

func TestCacheFetchMissReturnsNil(t *testing.T) {
	cache, _ := New(128)
	if cache.Fetch(randomKey()) != nil {
		t.Error("expected miss to return nil")
	}
}
