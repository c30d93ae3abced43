package scan

import (
	"encoding/binary"
	"math"
	"testing"

	"memprobe/process/region"
	"memprobe/snapshot"
)

func newTestHandle(base uint64, data []byte) *snapshot.Snapshot {
	snap := snapshot.New()
	snap.AddRegion(base, region.Protection{Read: true, Write: true}, data)
	return snap
}

func TestScanZeroRegionAlignmentOne(t *testing.T) {
	// An 8-byte integer fits at every offset up to len-8, inclusive.
	snap := newTestHandle(0x1000, make([]byte, 4096))

	results, err := New(snap).Scan(Integer(0), Options{Alignment: 1})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 4089 {
		t.Fatalf("expected 4089 matches, got %d", len(results))
	}
	if uint64(results[0].Address) != 0x1000 {
		t.Fatalf("first match at %x", uint64(results[0].Address))
	}
	if uint64(results[len(results)-1].Address) != 0x1000+4088 {
		t.Fatalf("last match at %x", uint64(results[len(results)-1].Address))
	}
}

func TestScanAlignmentCongruence(t *testing.T) {
	snap := newTestHandle(0x1000, make([]byte, 4096))

	results, err := New(snap).Scan(Integer(0), Options{Alignment: 4})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	for _, res := range results {
		if (uint64(res.Address)-0x1000)%4 != 0 {
			t.Fatalf("match at %x violates alignment", uint64(res.Address))
		}
	}
	// Offsets 0, 4, ..., 4088.
	if len(results) != 1023 {
		t.Fatalf("expected 1023 matches, got %d", len(results))
	}
}

func TestScanInteger(t *testing.T) {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint64(buf[16:], uint64(1337))
	binary.LittleEndian.PutUint64(buf[40:], uint64(1337))
	snap := newTestHandle(0x2000, buf)

	results, err := New(snap).Scan(Integer(1337), Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(results))
	}
	if uint64(results[0].Address) != 0x2010 || uint64(results[1].Address) != 0x2028 {
		t.Fatalf("unexpected addresses %x %x", uint64(results[0].Address), uint64(results[1].Address))
	}
	if results[0].Value.Int() != 1337 {
		t.Fatalf("unexpected value %d", results[0].Value.Int())
	}
}

func TestScanFloatEpsilon(t *testing.T) {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(1.5))
	snap := newTestHandle(0x3000, buf)

	results, err := New(snap).Scan(Float(1.5), Options{Alignment: 4})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	// Offset 8 holds 1.5; the zero words also match Float(0) but not 1.5.
	if len(results) != 1 || uint64(results[0].Address) != 0x3008 {
		t.Fatalf("unexpected results %v", results)
	}

	// A target within the tolerance still matches.
	results, err = New(snap).Scan(Float(1.5+1e-8), Options{Alignment: 4})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected tolerance match, got %d results", len(results))
	}
}

func TestScanString(t *testing.T) {
	buf := make([]byte, 64)
	copy(buf[10:], "health")
	snap := newTestHandle(0x4000, buf)

	results, err := New(snap).Scan(String("health"), Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 || uint64(results[0].Address) != 0x400a {
		t.Fatalf("unexpected results %v", results)
	}
}

func TestScanEmptyValueRejected(t *testing.T) {
	snap := newTestHandle(0x1000, make([]byte, 16))
	if _, err := New(snap).Scan(String(""), Options{}); err == nil {
		t.Fatal("expected error for empty string value")
	}
	if _, err := New(snap).Scan(Bytes(nil), Options{}); err == nil {
		t.Fatal("expected error for empty bytes value")
	}
}

func TestIncrementalNarrowing(t *testing.T) {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint64(buf[0:], 100)
	binary.LittleEndian.PutUint64(buf[16:], 100)
	binary.LittleEndian.PutUint64(buf[32:], 100)
	snap := newTestHandle(0x5000, buf)
	scanner := New(snap)

	first, err := scanner.Scan(Integer(100), Options{Alignment: 8})
	if err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 first-pass matches, got %d", len(first))
	}

	// Mutate one address, then narrow to the changed one.
	patch := make([]byte, 8)
	binary.LittleEndian.PutUint64(patch, 200)
	if err := snap.WriteMemory(0x5010, patch); err != nil {
		t.Fatalf("WriteMemory failed: %v", err)
	}

	changed, err := scanner.Scan(Integer(100), Options{Previous: first, Compare: CompareChanged})
	if err != nil {
		t.Fatalf("changed scan failed: %v", err)
	}
	if len(changed) != 1 || uint64(changed[0].Address) != 0x5010 {
		t.Fatalf("unexpected changed results %v", changed)
	}
	if changed[0].Value.Int() != 200 {
		t.Fatalf("changed result holds stale value %d", changed[0].Value.Int())
	}

	unchanged, err := scanner.Scan(Integer(100), Options{Previous: first, Compare: CompareUnchanged})
	if err != nil {
		t.Fatalf("unchanged scan failed: %v", err)
	}
	if len(unchanged) != 2 {
		t.Fatalf("expected 2 unchanged results, got %d", len(unchanged))
	}

	// Changed and Unchanged partition the previous set.
	if len(changed)+len(unchanged) != len(first) {
		t.Fatalf("changed+unchanged = %d, want %d", len(changed)+len(unchanged), len(first))
	}
}

func TestIncrementalGreater(t *testing.T) {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[0:], 50)
	binary.LittleEndian.PutUint64(buf[8:], 150)
	snap := newTestHandle(0x6000, buf)
	scanner := New(snap)

	prev := []Result{
		{Address: 0x6000, Value: Integer(50)},
		{Address: 0x6008, Value: Integer(150)},
	}

	results, err := scanner.Scan(Integer(100), Options{Previous: prev, Compare: CompareGreater})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 || uint64(results[0].Address) != 0x6008 {
		t.Fatalf("unexpected results %v", results)
	}
}

func TestOrderedCompareRejectedForBytes(t *testing.T) {
	snap := newTestHandle(0x1000, make([]byte, 16))
	prev := []Result{{Address: 0x1000, Value: Bytes([]byte{1})}}

	_, err := New(snap).Scan(Bytes([]byte{1}), Options{Previous: prev, Compare: CompareGreater})
	if err == nil {
		t.Fatal("expected error for greater compare on bytes")
	}
	_, err = New(snap).Scan(String("a"), Options{Previous: prev, Compare: CompareLess})
	if err == nil {
		t.Fatal("expected error for less compare on string")
	}
}

func TestProtectionFilterSkipsRegions(t *testing.T) {
	snap := snapshot.New()
	rw := make([]byte, 16)
	binary.LittleEndian.PutUint64(rw, 42)
	rx := make([]byte, 16)
	binary.LittleEndian.PutUint64(rx, 42)
	snap.AddRegion(0x1000, region.Protection{Read: true, Write: true}, rw)
	snap.AddRegion(0x2000, region.Protection{Read: true, Execute: true}, rx)

	results, err := New(snap).Scan(Integer(42), Options{Protection: "rw"})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 || uint64(results[0].Address) != 0x1000 {
		t.Fatalf("unexpected results %v", results)
	}
}

func TestParseKindAndCompareType(t *testing.T) {
	for _, name := range []string{"int", "float", "double", "string", "bytes"} {
		k, err := ParseKind(name)
		if err != nil {
			t.Fatalf("ParseKind(%q) failed: %v", name, err)
		}
		if k.String() != name {
			t.Fatalf("round trip %q -> %q", name, k.String())
		}
	}
	if _, err := ParseKind("short"); err == nil {
		t.Fatal("expected error for unknown kind")
	}

	for _, name := range []string{"equal", "notequal", "greater", "less", "changed", "unchanged"} {
		c, err := ParseCompareType(name)
		if err != nil {
			t.Fatalf("ParseCompareType(%q) failed: %v", name, err)
		}
		if c.String() != name {
			t.Fatalf("round trip %q -> %q", name, c.String())
		}
	}
	if _, err := ParseCompareType("between"); err == nil {
		t.Fatal("expected error for unknown compare type")
	}
}
