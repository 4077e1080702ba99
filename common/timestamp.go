package common

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// TimestampRange is the validity interval [Lower, Upper) of an entity
// version, in nanoseconds since epoch.  A nil Upper means the version is
// still current.  It maps to a postgres int8range column.
type TimestampRange struct {
	Lower int64
	Upper *int64
}

// NewTimestampRange returns an open range starting at lower
func NewTimestampRange(lower int64) *TimestampRange {
	return &TimestampRange{Lower: lower}
}

// ModifiedTimestamp is the consensus timestamp of the update that produced
// the version
func (r *TimestampRange) ModifiedTimestamp() int64 {
	return r.Lower
}

func (r TimestampRange) String() string {
	if r.Upper == nil {
		return fmt.Sprintf("[%d,)", r.Lower)
	}
	return fmt.Sprintf("[%d,%d)", r.Lower, *r.Upper)
}

// Value implements driver.Valuer
func (r TimestampRange) Value() (driver.Value, error) {
	return r.String(), nil
}

// Scan implements sql.Scanner
func (r *TimestampRange) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return Wrap(fmt.Errorf("can't scan %T into TimestampRange", src))
	}
	parsed, err := ParseTimestampRange(s)
	if err != nil {
		return Wrap(err)
	}
	*r = parsed
	return nil
}

// ParseTimestampRange parses the text form of an int8range, e.g. "[1,5)" or
// "[1,)"
func ParseTimestampRange(s string) (TimestampRange, error) {
	if len(s) < 4 || s[0] != '[' || s[len(s)-1] != ')' {
		return TimestampRange{}, fmt.Errorf("invalid timestamp range %q", s)
	}
	bounds := strings.SplitN(s[1:len(s)-1], ",", 2)
	if len(bounds) != 2 {
		return TimestampRange{}, fmt.Errorf("invalid timestamp range %q", s)
	}
	lower, err := strconv.ParseInt(bounds[0], 10, 64)
	if err != nil {
		return TimestampRange{}, fmt.Errorf("invalid timestamp range %q: %w", s, err)
	}
	r := TimestampRange{Lower: lower}
	if bounds[1] != "" {
		upper, err := strconv.ParseInt(bounds[1], 10, 64)
		if err != nil {
			return TimestampRange{}, fmt.Errorf("invalid timestamp range %q: %w", s, err)
		}
		r.Upper = &upper
	}
	return r, nil
}

// Int64Ptr returns a pointer to v
func Int64Ptr(v int64) *int64 { return &v }

// Int32Ptr returns a pointer to v
func Int32Ptr(v int32) *int32 { return &v }

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool { return &v }

// StringPtr returns a pointer to v
func StringPtr(v string) *string { return &v }
