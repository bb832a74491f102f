package secrets

import (
	"errors"
	"testing"
)

type countingStore struct {
	calls  int
	values map[string]string
}

func (s *countingStore) Get(name string) (string, error) {
	s.calls++
	val, ok := s.values[name]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func TestEnvStoreMissing(t *testing.T) {
	t.Setenv("WINDOW_TEST_SECRET", "")
	_, err := EnvStore{}.Get("WINDOW_TEST_SECRET")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnvStorePresent(t *testing.T) {
	t.Setenv("WINDOW_TEST_SECRET", " sk-abc ")
	val, err := EnvStore{}.Get("WINDOW_TEST_SECRET")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "sk-abc" {
		t.Fatalf("expected trimmed value, got %q", val)
	}
}

func TestCachedResolvesOnce(t *testing.T) {
	base := &countingStore{values: map[string]string{"KEY": "v"}}
	cached := NewCached(base)

	for i := 0; i < 3; i++ {
		val, err := cached.Get("KEY")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if val != "v" {
			t.Fatalf("unexpected value %q", val)
		}
	}
	if base.calls != 1 {
		t.Fatalf("expected 1 base lookup, got %d", base.calls)
	}
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	base := &countingStore{values: map[string]string{}}
	cached := NewCached(base)

	if _, err := cached.Get("MISSING"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	base.values["MISSING"] = "late"
	val, err := cached.Get("MISSING")
	if err != nil {
		t.Fatalf("unexpected error after value appears: %v", err)
	}
	if val != "late" {
		t.Fatalf("unexpected value %q", val)
	}
}
