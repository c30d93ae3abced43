package scan

import "fmt"

// CompareType selects the comparison applied during an incremental
// scan. Equal through Less compare the current value to the scan
// target; Changed and Unchanged compare it to the value stored in the
// previous result.
type CompareType int

const (
	CompareEqual CompareType = iota
	CompareNotEqual
	CompareGreater
	CompareLess
	CompareChanged
	CompareUnchanged
)

func (c CompareType) String() string {
	switch c {
	case CompareEqual:
		return "equal"
	case CompareNotEqual:
		return "notequal"
	case CompareGreater:
		return "greater"
	case CompareLess:
		return "less"
	case CompareChanged:
		return "changed"
	case CompareUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// ParseCompareType converts a comparison name to a CompareType.
func ParseCompareType(s string) (CompareType, error) {
	switch s {
	case "equal":
		return CompareEqual, nil
	case "notequal":
		return CompareNotEqual, nil
	case "greater":
		return CompareGreater, nil
	case "less":
		return CompareLess, nil
	case "changed":
		return CompareChanged, nil
	case "unchanged":
		return CompareUnchanged, nil
	}
	return 0, fmt.Errorf("unsupported compare type %q", s)
}

// ordered reports whether the comparison requires an ordering on the
// value kind. Greater/Less are undefined for string and bytes values.
func (c CompareType) ordered() bool {
	return c == CompareGreater || c == CompareLess
}

// apply evaluates the comparison for the current value against the
// target literal or the previous value, depending on the type.
func (c CompareType) apply(current, target, previous Value) bool {
	switch c {
	case CompareEqual:
		return current.equal(target)
	case CompareNotEqual:
		return !current.equal(target)
	case CompareGreater:
		return target.less(current)
	case CompareLess:
		return current.less(target)
	case CompareChanged:
		return !current.equal(previous)
	case CompareUnchanged:
		return current.equal(previous)
	}
	return false
}
