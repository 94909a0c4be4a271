package sketch

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/upgle/sketchbound/src/rng"
)

func buildPopulatedSketch(t *testing.T) *Sketch[uint32] {
	t.Helper()
	s, err := New[uint32](LinearCodec32{}, 256, 3, rng.New(5))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for i := 0; i < 100; i++ {
		if err := s.Increment([]byte(fmt.Sprintf("key-%d", i)), int64(i+1)); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	return s
}

func TestDumpRestoreRoundTripPreservesQueries(t *testing.T) {
	s := buildPopulatedSketch(t)
	dump := s.Dump()

	restored, err := Restore[uint32](LinearCodec32{}, dump, rng.New(5))
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	for i := 0; i < 100; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		if got, want := restored.Get(key), s.Get(key); got != want {
			t.Errorf("Get(%q) after restore = %d, want %d", key, got, want)
		}
	}
	if got, want := restored.Total(), s.Total(); got != want {
		t.Errorf("Total() after restore = %d, want %d", got, want)
	}
	if got, want := restored.Cardinality(), s.Cardinality(); got != want {
		t.Errorf("Cardinality() after restore = %d, want %d", got, want)
	}
}

func TestRestoreRejectsVariantMismatch(t *testing.T) {
	s := buildPopulatedSketch(t)
	dump := s.Dump()
	if _, err := Restore[uint8](LogCodec8{}, CMSDump{
		Variant: dump.Variant,
		Width:   dump.Width,
		Depth:   dump.Depth,
		Rows:    dump.Rows,
	}, rng.New(1)); err == nil {
		t.Error("expected Restore to reject a variant mismatch")
	}
}

func TestMarshalUnmarshalBinaryRoundTrip(t *testing.T) {
	s := buildPopulatedSketch(t)
	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	restored, err := UnmarshalCMS[uint32](LinearCodec32{}, data, rng.New(5))
	if err != nil {
		t.Fatalf("UnmarshalCMS failed: %v", err)
	}

	if diff := cmp.Diff(s.Dump(), restored.Dump()); diff != "" {
		t.Errorf("dump mismatch after binary round trip (-want +got):\n%s", diff)
	}
}

func TestUnmarshalCMSRejectsTruncatedInput(t *testing.T) {
	s := buildPopulatedSketch(t)
	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if _, err := UnmarshalCMS[uint32](LinearCodec32{}, data[:len(data)-10], rng.New(5)); err == nil {
		t.Error("expected UnmarshalCMS to reject truncated input")
	}
}

func TestMarshalBinaryIsByteExactAcrossRuns(t *testing.T) {
	a := buildPopulatedSketch(t)
	b := buildPopulatedSketch(t)
	dataA, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	dataB, err := b.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if !cmp.Equal(dataA, dataB) {
		t.Error("two identically constructed sketches serialized to different bytes")
	}
}
