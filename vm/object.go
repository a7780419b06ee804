package vm

import "sync/atomic"

// objectSeq hands out monotonically increasing identities for Value.Hash,
// since Object no longer lives behind a NaN-boxed pointer encoding that the
// hash could read bits out of directly.
var objectSeq uint64

// Object is a heap-allocated instance of a Class. Fields are stored by
// name rather than by slot index: spec §3 describes instance state as a
// name-keyed record, not a packed slot layout, so the teacher's 4-inline-
// slot-plus-overflow scheme is dropped in favor of a plain map.
type Object struct {
	class    *Class
	fields   map[string]Value
	hostData any
	id       uint64
}

// NewObject creates an instance with no fields populated; callers
// typically go through Class.NewInstance instead, which seeds every
// declared field with Null.
func NewObject(class *Class) *Object {
	return &Object{
		class:  class,
		fields: make(map[string]Value),
		id:     atomic.AddUint64(&objectSeq, 1),
	}
}

// Class returns the object's class.
func (o *Object) Class() *Class { return o.class }

// HostData returns the opaque slot native stdlib methods use to attach a
// language-native structure (a list buffer, a dictionary table). The data
// lives exactly as long as the object.
func (o *Object) HostData() any { return o.hostData }

// SetHostData attaches host-native data to the object.
func (o *Object) SetHostData(v any) { o.hostData = v }

// ElementAccessor is implemented by host data that wants to service
// ldelem/stelem when its owning object is the receiver, letting a native
// ordered-sequence behave like an array at the instruction level.
type ElementAccessor interface {
	GetElement(index int) (Value, error)
	SetElement(index int, v Value) error
}

// ClassName returns the object's class name, or "?" if the object has no
// class (should not occur outside of tests).
func (o *Object) ClassName() string {
	if o.class == nil {
		return "?"
	}
	return o.class.Name
}

// GetField returns the value stored in the named field. Returns Null and
// an error if the field is not declared anywhere in the object's class
// chain.
func (o *Object) GetField(name string) (Value, error) {
	if o.class == nil || o.class.FindField(name) == nil {
		return Null, Errorf(NotFound, "no field %q on %s", name, o.ClassName())
	}
	v, ok := o.fields[name]
	if !ok {
		return Null, nil
	}
	return v, nil
}

// SetField stores a value in the named field. Returns an error if the
// field is not declared anywhere in the object's class chain.
func (o *Object) SetField(name string, v Value) error {
	if o.class != nil && o.class.FindField(name) == nil {
		return Errorf(NotFound, "no field %q on %s", name, o.ClassName())
	}
	o.fields[name] = v
	return nil
}

// identity returns a stable per-object identity used by Value.Hash. It is
// not exposed as part of the field API; two distinct objects are never
// equal regardless of field contents (reference semantics, per spec §3).
func (o *Object) identity() uint64 {
	if o == nil {
		return 0
	}
	return o.id
}

func (o *Object) String() string {
	return o.ClassName() + "@" + itoa(o.id)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// ---------------------------------------------------------------------------
// Array: the one built-in growable reference type the core itself knows
// about (newarr/ldelem/stelem). Host-level collections (List, Dictionary,
// Queue, Stack, HashSet) keep their own backing storage in an Object's
// host data in hostlib; only Dictionary's Keys/Values return Arrays.
// ---------------------------------------------------------------------------

// Array is a bounds-checked, growable buffer of Values.
type Array struct {
	ElementType string
	elems       []Value
	id          uint64
}

// NewArray creates an array of the given length, every element Null.
func NewArray(elementType string, length int) *Array {
	a := &Array{
		ElementType: elementType,
		elems:       make([]Value, length),
		id:          atomic.AddUint64(&objectSeq, 1),
	}
	for i := range a.elems {
		a.elems[i] = Null
	}
	return a
}

// Len returns the current element count.
func (a *Array) Len() int { return len(a.elems) }

// Get returns the element at index. Out-of-range reads return Null rather
// than an error, per the array element-access contract.
func (a *Array) Get(index int) Value {
	if index < 0 || index >= len(a.elems) {
		return Null
	}
	return a.elems[index]
}

// Set stores value at index, growing the array with Null padding if index
// is beyond the current length (spec §4.3's stelem growth rule).
func (a *Array) Set(index int, value Value) error {
	if index < 0 {
		return Errorf(IndexOutOfRange, "negative index %d", index)
	}
	if index >= len(a.elems) {
		grown := make([]Value, index+1)
		copy(grown, a.elems)
		for i := len(a.elems); i < len(grown); i++ {
			grown[i] = Null
		}
		a.elems = grown
	}
	a.elems[index] = value
	return nil
}

// Append grows the array by one, storing value at the new final index.
func (a *Array) Append(value Value) {
	a.elems = append(a.elems, value)
}

// Elements returns the backing slice directly; callers must not retain
// it across a mutation.
func (a *Array) Elements() []Value { return a.elems }

func (a *Array) identity() uint64 { return a.id }
