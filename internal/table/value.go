// Package table is the in-memory tabular model shared by every pipeline stage.
//
// A Table is an ordered set of uniquely named, equally long Columns; a Column
// is an immutable sequence of typed Values. Stages never mutate a Table:
// every transformation builds a new one, sharing unchanged columns.
package table

import (
	"math"
	"strconv"
	"time"
)

// Kind identifies the type of a cell or column.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindText
	KindBool
	KindTime
)

// String returns the lowercase kind name used in reports and DDL inference.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindTime:
		return "datetime"
	default:
		return "missing"
	}
}

// Value is a single typed cell. The zero Value is missing.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	t    time.Time
}

// Missing returns the missing cell.
func Missing() Value { return Value{} }

// Number returns a numeric cell. NaN is stored as missing and negative
// zero as zero.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	if f == 0 {
		f = 0
	}
	return Value{kind: KindNumber, num: f}
}

// Text returns a text cell.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time returns a datetime cell. The zero time is stored as missing.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Value{}
	}
	return Value{kind: KindTime, t: t}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// AsNumber returns the numeric payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsText returns the text payload and whether v is text.
func (v Value) AsText() (string, bool) { return v.str, v.kind == KindText }

// AsBool returns the boolean payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsTime returns the datetime payload and whether v is a datetime.
func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindTime }

// Equal reports whether two cells have the same kind and payload. Missing
// equals missing.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// String renders the canonical string form of a cell:
//
//	number    shortest decimal ("2020", "10.5"); exponent form outside [1e-4, 1e15)
//	bool      "true" / "false"
//	datetime  "2006-01-02" at UTC midnight, else "2006-01-02 15:04:05"
//	missing   ""
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText:
		return v.str
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindTime:
		return FormatTime(v.t)
	default:
		return ""
	}
}

// FormatNumber is the number rendering used by Value.String.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	a := math.Abs(f)
	if a == 0 || (a >= 1e-4 && a < 1e15) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatTime is the datetime rendering used by Value.String.
func FormatTime(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format("2006-01-02")
	}
	return u.Format("2006-01-02 15:04:05")
}

// AppendKey appends a kind-tagged binary encoding of v to buf, suitable for
// hashing whole rows. Distinct cells never share an encoding.
func (v Value) AppendKey(buf []byte) []byte {
	buf = append(buf, byte(v.kind))
	switch v.kind {
	case KindNumber:
		buf = strconv.AppendUint(buf, math.Float64bits(v.num), 16)
	case KindText:
		buf = strconv.AppendInt(buf, int64(len(v.str)), 10)
		buf = append(buf, ':')
		buf = append(buf, v.str...)
	case KindBool:
		if v.b {
			buf = append(buf, '1')
		} else {
			buf = append(buf, '0')
		}
	case KindTime:
		buf = strconv.AppendInt(buf, v.t.UnixNano(), 16)
	}
	return append(buf, 0x1f)
}
