package table

import (
	"errors"
	"fmt"
	"testing"

	"github.com/upgle/sketchbound/src/sketcherr"
)

func TestCursorVisitsEveryLiveCellExactlyOnce(t *testing.T) {
	tbl := newTestTable(t, 256)
	want := map[string]int64{}
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("k%d", i)
		if err := tbl.Increment([]byte(key), int64(i+1)); err != nil {
			t.Fatal(err)
		}
		want[key] = int64(i + 1)
	}

	got := map[string]int64{}
	cur := tbl.NewCursor(ModePairs)
	for {
		key, value, err := cur.Next()
		if err != nil {
			if errors.Is(err, sketcherr.ErrIterationExhausted) {
				break
			}
			t.Fatalf("Next failed: %v", err)
		}
		got[string(key)] = value
	}

	if len(got) != len(want) {
		t.Fatalf("cursor visited %d keys, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("cursor value for %q = %d, want %d", k, got[k], v)
		}
	}
}

func TestCursorSkipsDeletedCells(t *testing.T) {
	tbl := newTestTable(t, 64)
	if err := tbl.Increment([]byte("a"), 1); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Increment([]byte("b"), 1); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Delete([]byte("a")); err != nil {
		t.Fatal(err)
	}

	cur := tbl.NewCursor(ModeKeys)
	seen := 0
	for {
		key, _, err := cur.Next()
		if err != nil {
			break
		}
		if string(key) != "b" {
			t.Errorf("cursor yielded %q, want only b", key)
		}
		seen++
	}
	if seen != 1 {
		t.Errorf("cursor yielded %d keys, want 1", seen)
	}
}

func TestCursorOnEmptyTableExhaustsImmediately(t *testing.T) {
	tbl := newTestTable(t, 64)
	cur := tbl.NewCursor(ModePairs)
	_, _, err := cur.Next()
	if !errors.Is(err, sketcherr.ErrIterationExhausted) {
		t.Errorf("Next() on empty table = %v, want ErrIterationExhausted", err)
	}
}

func TestCursorModeValuesOmitsKey(t *testing.T) {
	tbl := newTestTable(t, 64)
	if err := tbl.Increment([]byte("a"), 7); err != nil {
		t.Fatal(err)
	}
	cur := tbl.NewCursor(ModeValues)
	key, value, err := cur.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if key != nil {
		t.Errorf("ModeValues yielded a non-nil key %q", key)
	}
	if value != 7 {
		t.Errorf("ModeValues value = %d, want 7", value)
	}
}
