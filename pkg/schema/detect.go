package schema

import "strconv"

// FieldType is an automatically detected SQL column type. Larger values are
// more generic: a column only ever widens towards TypeText.
type FieldType int

const (
	// TypeNone is a column that has only seen empty values
	TypeNone FieldType = iota
	// TypeInteger holds whole numbers that fit in 64 bits
	TypeInteger
	// TypeDouble holds decimal and scientific notation numbers
	TypeDouble
	// TypeText holds everything else
	TypeText
)

// SQLName returns the SQL type used in CREATE TABLE. Untyped columns are
// created as TEXT.
func (t FieldType) SQLName() string {
	switch t {
	case TypeInteger:
		return "BIGINT"
	case TypeDouble:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func (t FieldType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeInteger:
		return "integer"
	case TypeDouble:
		return "double"
	default:
		return "text"
	}
}

// Widen returns the more generic of two types.
func Widen(a, b FieldType) FieldType {
	if a > b {
		return a
	}
	return b
}

// Detect classifies a value. Empty values are TypeNone.
func Detect(s string) FieldType {
	if s == "" {
		return TypeNone
	}
	if isInteger(s) {
		return TypeInteger
	}
	if isDouble(s) {
		return TypeDouble
	}
	return TypeText
}

// isInteger matches [+-]?[0-9]+ within the int64 range.
func isInteger(s string) bool {
	i := skipSign(s, 0)
	j := skipDigits(s, i)
	if j == i || j != len(s) {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// isDouble matches [+-]?(d+(.d*)?|.d+)([eE][+-]?d+)?. Integers that
// overflow int64 also land here.
func isDouble(s string) bool {
	i := skipSign(s, 0)
	j := skipDigits(s, i)
	mantissa := j - i

	if j < len(s) && s[j] == '.' {
		k := skipDigits(s, j+1)
		mantissa += k - (j + 1)
		j = k
	}
	if mantissa == 0 {
		return false
	}

	if j < len(s) && (s[j] == 'e' || s[j] == 'E') {
		k := skipSign(s, j+1)
		e := skipDigits(s, k)
		if e == k {
			return false
		}
		j = e
	}
	return j == len(s)
}

func skipSign(s string, i int) int {
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		return i + 1
	}
	return i
}

func skipDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
