package xref_test

import (
	"strings"
	"testing"

	"memprobe/disasm"
	"memprobe/process/region"
	"memprobe/snapshot"
	"memprobe/xref"
)

func codeRegion(base uint64, code []byte) *snapshot.Snapshot {
	snap := snapshot.New()
	snap.AddRegion(base, region.Protection{Read: true, Execute: true}, code)
	return snap
}

// pad extends code with nops so candidates near the end are not
// rejected by the end-of-region guard.
func pad(code []byte, size int) []byte {
	buf := make([]byte, size)
	copy(buf, code)
	for i := len(code); i < size; i++ {
		buf[i] = 0x90
	}
	return buf
}

func newDecoder(t *testing.T, bits int) xref.Decoder {
	t.Helper()
	d, err := disasm.NewX86(bits)
	if err != nil {
		t.Fatalf("NewX86 failed: %v", err)
	}
	return d
}

func TestScanFindsSelfCall(t *testing.T) {
	// call -5 at the region base refers back to itself.
	snap := codeRegion(0x1000, pad([]byte{0xE8, 0xFB, 0xFF, 0xFF, 0xFF}, 16))
	scanner := xref.New(snap, newDecoder(t, 64))

	results, err := scanner.Scan(0x1000, xref.Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(results))
	}

	res := results[0]
	if uint64(res.Address) != 0x1000 {
		t.Fatalf("reference at %x", uint64(res.Address))
	}
	if res.Type != xref.TypeCall {
		t.Fatalf("unexpected type %s", res.Type)
	}
	if res.Instruction.Mnemonic != "call" {
		t.Fatalf("unexpected mnemonic %q", res.Instruction.Mnemonic)
	}
}

func TestScanCallToOtherTarget(t *testing.T) {
	// call +0x0b at 0x1000 lands on 0x1010.
	snap := codeRegion(0x1000, pad([]byte{0xE8, 0x0B, 0x00, 0x00, 0x00}, 32))
	scanner := xref.New(snap, newDecoder(t, 64))

	results, err := scanner.Scan(0x1010, xref.Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 || uint64(results[0].Address) != 0x1000 {
		t.Fatalf("unexpected results %v", results)
	}

	// A different target finds nothing.
	results, err = scanner.Scan(0x1014, xref.Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no references, got %d", len(results))
	}
}

func TestScanJumpsRequireOptIn(t *testing.T) {
	// jmp +0x0b at 0x2000 lands on 0x2010.
	snap := codeRegion(0x2000, pad([]byte{0xE9, 0x0B, 0x00, 0x00, 0x00}, 32))
	scanner := xref.New(snap, newDecoder(t, 64))

	results, err := scanner.Scan(0x2010, xref.Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatal("jump found without IncludeJumps")
	}

	results, err = scanner.Scan(0x2010, xref.Options{IncludeJumps: true})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 || results[0].Type != xref.TypeJump {
		t.Fatalf("unexpected results %v", results)
	}
}

func TestScanCallByteInsideJumpDisplacement(t *testing.T) {
	// jmp -24 at 0x2000: the rel32 is E8 FF FF FF, so its first byte
	// is a call candidate whose owning instruction is the jump. With
	// jumps disabled the jump must not surface through that candidate.
	snap := codeRegion(0x2000, pad([]byte{0xE9, 0xE8, 0xFF, 0xFF, 0xFF}, 32))
	scanner := xref.New(snap, newDecoder(t, 64))

	results, err := scanner.Scan(0x1fed, xref.Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("jump reported without IncludeJumps: %v", results)
	}

	results, err = scanner.Scan(0x1fed, xref.Options{IncludeJumps: true})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected jump reference with IncludeJumps")
	}
	for _, res := range results {
		if res.Type != xref.TypeJump || uint64(res.Address) != 0x2000 {
			t.Fatalf("unexpected result %v", res)
		}
	}
}

func TestScanIndirectCall(t *testing.T) {
	// call dword ptr [0x5000] in 32-bit mode.
	snap := codeRegion(0x3000, pad([]byte{0xFF, 0x15, 0x00, 0x50, 0x00, 0x00}, 32))
	scanner := xref.New(snap, newDecoder(t, 32))

	results, err := scanner.Scan(0x5000, xref.Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatal("indirect call found without IncludeIndirect")
	}

	results, err = scanner.Scan(0x5000, xref.Options{IncludeIndirect: true})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 || results[0].Type != xref.TypeIndirect {
		t.Fatalf("unexpected results %v", results)
	}
	if uint64(results[0].Address) != 0x3000 {
		t.Fatalf("reference at %x", uint64(results[0].Address))
	}
}

func TestScanSkipsCandidateNearRegionEnd(t *testing.T) {
	// The call is real, but the region ends too soon after the opcode
	// byte for verification.
	snap := codeRegion(0x1000, []byte{0xE8, 0xFB, 0xFF, 0xFF, 0xFF, 0x90, 0x90, 0x90})
	scanner := xref.New(snap, newDecoder(t, 64))

	results, err := scanner.Scan(0x1000, xref.Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no references, got %d", len(results))
	}
}

func TestScanSkipsNonExecutableRegions(t *testing.T) {
	snap := snapshot.New()
	snap.AddRegion(0x1000, region.Protection{Read: true, Write: true},
		pad([]byte{0xE8, 0xFB, 0xFF, 0xFF, 0xFF}, 16))
	scanner := xref.New(snap, newDecoder(t, 64))

	results, err := scanner.Scan(0x1000, xref.Options{})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatal("data region scanned with default protection filter")
	}
}

func TestScanContextListing(t *testing.T) {
	snap := codeRegion(0x1000, pad([]byte{0xE8, 0xFB, 0xFF, 0xFF, 0xFF}, 64))
	scanner := xref.New(snap, newDecoder(t, 64))

	results, err := scanner.Scan(0x1000, xref.Options{ContextCount: 1})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(results))
	}

	ctx := results[0].Context
	if len(ctx) == 0 {
		t.Fatal("expected context lines")
	}
	if !strings.HasPrefix(ctx[0], "0x1000") || !strings.Contains(ctx[0], "call") {
		t.Fatalf("unexpected first context line %q", ctx[0])
	}
	// ContextCount 1 widens the window past the minimal 15 bytes.
	if len(ctx) <= 11 {
		t.Fatalf("context not widened, %d lines", len(ctx))
	}
}

func TestTypeString(t *testing.T) {
	cases := map[xref.Type]string{
		xref.TypeCall:     "call",
		xref.TypeJump:     "jump",
		xref.TypeIndirect: "indirect",
		xref.TypeDataRef:  "data_ref",
	}
	for typ, want := range cases {
		if typ.String() != want {
			t.Fatalf("%d.String() = %q, want %q", int(typ), typ.String(), want)
		}
	}
}
