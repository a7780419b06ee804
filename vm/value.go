package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	farm "github.com/dgryski/go-farm"
)

// Kind identifies which variant of Value is populated. ObjectIR represents
// values as an explicit tagged union rather than the NaN-boxed encoding
// Maggie uses at this layer, per the core's design notes on sum types.
type Kind byte

const (
	KindNull Kind = iota
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Value is the tagged variant described by the core's value model: null,
// int32, int64, float32, float64, bool, string, or an object handle.
type Value struct {
	kind Kind
	num  uint64 // bit pattern for int32/int64/float32/float64/bool
	str  string
	obj  *Object
	arr  *Array
}

// Null is the shared null value.
var Null = Value{kind: KindNull}

// True and False are the shared bool values.
var (
	True  = Value{kind: KindBool, num: 1}
	False = Value{kind: KindBool, num: 0}
)

func Int32(n int32) Value     { return Value{kind: KindInt32, num: uint64(uint32(n))} }
func Int64(n int64) Value     { return Value{kind: KindInt64, num: uint64(n)} }
func Float32(f float32) Value { return Value{kind: KindFloat32, num: uint64(math.Float32bits(f))} }
func Float64(f float64) Value { return Value{kind: KindFloat64, num: math.Float64bits(f)} }

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Str(s string) Value { return Value{kind: KindString, str: s} }

func ObjRef(o *Object) Value {
	if o == nil {
		return Null
	}
	return Value{kind: KindObject, obj: o}
}

func ArrRef(a *Array) Value {
	if a == nil {
		return Null
	}
	return Value{kind: KindArray, arr: a}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsBool() bool { return v.kind == KindBool }

func (v Value) AsInt32() int32     { return int32(uint32(v.num)) }
func (v Value) AsInt64() int64     { return int64(v.num) }
func (v Value) AsFloat32() float32 { return math.Float32frombits(uint32(v.num)) }
func (v Value) AsFloat64() float64 { return math.Float64frombits(v.num) }
func (v Value) AsBool() bool       { return v.num != 0 }
func (v Value) AsString() string   { return v.str }
func (v Value) AsObject() *Object  { return v.obj }
func (v Value) AsArray() *Array    { return v.arr }

// IsNumeric reports whether v holds one of the four numeric kinds.
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindInt32, KindInt64, KindFloat32, KindFloat64:
		return true
	}
	return false
}

// IsFloatKind reports whether v is float32 or float64.
func (v Value) IsFloatKind() bool {
	return v.kind == KindFloat32 || v.kind == KindFloat64
}

// ---------------------------------------------------------------------------
// Coercions
// ---------------------------------------------------------------------------

// DefaultEpsilon is used by ToBool's float truthiness test unless an
// interpreter configuration overrides it.
const DefaultEpsilon = 1e-9

// ToBool coerces v to bool: null is false, numbers are false only at (near)
// zero, strings are false only when empty, objects are always true.
func (v Value) ToBool(epsilon float64) bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.AsBool()
	case KindInt32:
		return v.AsInt32() != 0
	case KindInt64:
		return v.AsInt64() != 0
	case KindFloat32:
		return math.Abs(float64(v.AsFloat32())) > epsilon
	case KindFloat64:
		return math.Abs(v.AsFloat64()) > epsilon
	case KindString:
		return v.str != ""
	case KindObject, KindArray:
		return true
	}
	return false
}

// ToInt64 coerces v to int64. A parse failure on a string operand reports a
// TypeMismatch error rather than panicking.
func (v Value) ToInt64() (int64, error) {
	switch v.kind {
	case KindNull:
		return 0, nil
	case KindBool:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	case KindInt32:
		return int64(v.AsInt32()), nil
	case KindInt64:
		return v.AsInt64(), nil
	case KindFloat32:
		return int64(v.AsFloat32()), nil
	case KindFloat64:
		return int64(v.AsFloat64()), nil
	case KindString:
		n, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
		if err != nil {
			return 0, NewError(TypeMismatch, fmt.Sprintf("cannot convert %q to int64", v.str))
		}
		return n, nil
	}
	return 0, NewError(TypeMismatch, "cannot convert object to int64")
}

// ToFloat64 coerces v to float64.
func (v Value) ToFloat64() (float64, error) {
	switch v.kind {
	case KindNull:
		return 0, nil
	case KindBool:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	case KindInt32:
		return float64(v.AsInt32()), nil
	case KindInt64:
		return float64(v.AsInt64()), nil
	case KindFloat32:
		return float64(v.AsFloat32()), nil
	case KindFloat64:
		return v.AsFloat64(), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, NewError(TypeMismatch, fmt.Sprintf("cannot convert %q to float64", v.str))
		}
		return f, nil
	}
	return 0, NewError(TypeMismatch, "cannot convert object to float64")
}

// ToStringValue renders v the way the console sink and string
// concatenation primitives do: null becomes the empty string.
func (v Value) ToStringValue() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindInt32:
		return strconv.FormatInt(int64(v.AsInt32()), 10)
	case KindInt64:
		return strconv.FormatInt(v.AsInt64(), 10)
	case KindFloat32:
		return strconv.FormatFloat(float64(v.AsFloat32()), 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.AsFloat64(), 'g', -1, 64)
	case KindString:
		return v.str
	case KindObject:
		if v.obj != nil {
			return v.obj.String()
		}
		return ""
	case KindArray:
		return "array"
	}
	return ""
}

// ---------------------------------------------------------------------------
// Equality and hashing
// ---------------------------------------------------------------------------

// Equal implements the component-wise equality used by ceq and by the
// host's hashed-set/keyed-mapping collections.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindObject:
		return v.obj == other.obj
	case KindArray:
		return v.arr == other.arr
	default:
		return v.num == other.num
	}
}

// Hash returns a hash suitable for the host's hashed-set and keyed-mapping
// collections. It uses FarmHash over a tag-prefixed byte encoding so that
// distinct kinds never collide on raw payload bits.
func (v Value) Hash() uint64 {
	switch v.kind {
	case KindNull:
		return farm.Hash64([]byte{byte(KindNull)})
	case KindString:
		buf := make([]byte, 0, len(v.str)+1)
		buf = append(buf, byte(KindString))
		buf = append(buf, v.str...)
		return farm.Hash64(buf)
	case KindObject:
		var buf [9]byte
		buf[0] = byte(KindObject)
		putUint64(buf[1:], v.obj.identity())
		return farm.Hash64(buf[:])
	case KindArray:
		var buf [9]byte
		buf[0] = byte(KindArray)
		putUint64(buf[1:], v.arr.identity())
		return farm.Hash64(buf[:])
	default:
		var buf [9]byte
		buf[0] = byte(v.kind)
		putUint64(buf[1:], v.num)
		return farm.Hash64(buf[:])
	}
}

func putUint64(b []byte, x uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(x >> (8 * i))
	}
}

// String implements fmt.Stringer for debugging output and disassembly.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return strconv.Quote(v.str)
	default:
		return v.ToStringValue()
	}
}
