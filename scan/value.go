package scan

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the type of a scanned value.
type Kind int

const (
	KindInteger Kind = iota // 64-bit signed integer
	KindFloat               // 32-bit float
	KindDouble              // 64-bit float
	KindString              // raw byte sequence from a string literal
	KindBytes               // raw byte sequence
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	}
	return "unknown"
}

// ParseKind converts a value-type name to a Kind. Unknown names are a
// caller error.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "int":
		return KindInteger, nil
	case "float":
		return KindFloat, nil
	case "double":
		return KindDouble, nil
	case "string":
		return KindString, nil
	case "bytes":
		return KindBytes, nil
	}
	return 0, fmt.Errorf("unsupported value type %q", s)
}

// Comparison tolerances for floating point equality. Bitwise equality
// is deliberately not used.
const (
	epsilon32 = 1.1920929e-07
	epsilon64 = 2.220446049250313e-16
)

// Value is a typed scan value. Exactly one payload field is meaningful,
// selected by the kind.
type Value struct {
	kind Kind
	i    int64
	f    float32
	d    float64
	b    []byte
}

func Integer(v int64) Value  { return Value{kind: KindInteger, i: v} }
func Float(v float32) Value  { return Value{kind: KindFloat, f: v} }
func Double(v float64) Value { return Value{kind: KindDouble, d: v} }
func String(s string) Value  { return Value{kind: KindString, b: []byte(s)} }
func Bytes(b []byte) Value   { return Value{kind: KindBytes, b: b} }

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.i }

// Float32 returns the float payload.
func (v Value) Float32() float32 { return v.f }

// Float64 returns the double payload.
func (v Value) Float64() float64 { return v.d }

// Bytes returns the string/bytes payload.
func (v Value) Bytes() []byte { return v.b }

// Size returns the number of bytes the value occupies in memory.
func (v Value) Size() int {
	switch v.kind {
	case KindInteger:
		return 8
	case KindFloat:
		return 4
	case KindDouble:
		return 8
	case KindString, KindBytes:
		return len(v.b)
	}
	return 0
}

func (v Value) validate() error {
	switch v.kind {
	case KindInteger, KindFloat, KindDouble:
		return nil
	case KindString, KindBytes:
		if len(v.b) == 0 {
			return fmt.Errorf("empty %s value", v.kind)
		}
		return nil
	}
	return fmt.Errorf("unsupported value kind %d", int(v.kind))
}

// Display renders the value for result output.
func (v Value) Display() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.d, 'g', -1, 64)
	case KindString:
		return string(v.b)
	case KindBytes:
		return hex.EncodeToString(v.b)
	}
	return "?"
}

// decodeAt decodes a value of v's kind and width at buf[off:]. Values
// are stored little-endian. Reports false when the buffer is too short.
func (v Value) decodeAt(buf []byte, off int) (Value, bool) {
	if off < 0 || off+v.Size() > len(buf) {
		return Value{}, false
	}
	switch v.kind {
	case KindInteger:
		return Integer(int64(binary.LittleEndian.Uint64(buf[off:]))), true
	case KindFloat:
		return Float(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))), true
	case KindDouble:
		return Double(math.Float64frombits(binary.LittleEndian.Uint64(buf[off:]))), true
	case KindString:
		return String(string(buf[off : off+len(v.b)])), true
	case KindBytes:
		cp := make([]byte, len(v.b))
		copy(cp, buf[off:])
		return Bytes(cp), true
	}
	return Value{}, false
}

// equal compares two values of the same kind, using epsilon-bounded
// equality for floats and byte equality otherwise.
func (v Value) equal(other Value) bool {
	switch v.kind {
	case KindInteger:
		return v.i == other.i
	case KindFloat:
		return math.Abs(float64(v.f-other.f)) < epsilon32
	case KindDouble:
		return math.Abs(v.d-other.d) < epsilon64
	case KindString, KindBytes:
		return bytes.Equal(v.b, other.b)
	}
	return false
}

// less reports v < other for ordered kinds.
func (v Value) less(other Value) bool {
	switch v.kind {
	case KindInteger:
		return v.i < other.i
	case KindFloat:
		return v.f < other.f
	case KindDouble:
		return v.d < other.d
	}
	return false
}
