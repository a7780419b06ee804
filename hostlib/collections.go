package hostlib

import (
	"strings"
	"sync"

	"github.com/objectir-lang/objectir/vm"
)

// Host-side collection storage adapts the teacher's dictionaryRegistry
// pattern (chazu-maggie/vm/dictionary_primitives.go), where a Go-native
// backing structure is looked up by a handle value. The teacher had to
// synthesize that handle as a tagged symbol ID kept in a side table
// because its NaN-boxed Value couldn't carry a raw pointer; ObjectIR's
// Object carries an opaque host-data slot, so the backing structure
// rides on the object itself and dies with it.

var (
	listClass    = vm.NewClass("List", nil)
	dictClass    = vm.NewClass("Dictionary", nil)
	queueClass   = vm.NewClass("Queue", nil)
	stackClass   = vm.NewClass("Stack", nil)
	hashSetClass = vm.NewClass("HashSet", nil)
)

type listData struct {
	mu    sync.Mutex
	elems []vm.Value
}

// GetElement and SetElement let a List receiver service ldelem/stelem
// directly (vm.ElementAccessor). SetElement grows with null padding the
// same way stelem on an array does.
func (l *listData) GetElement(index int) (vm.Value, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.elems) {
		return vm.Null, nil
	}
	return l.elems[index], nil
}

func (l *listData) SetElement(index int, v vm.Value) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 {
		return vm.Errorf(vm.IndexOutOfRange, "negative index %d", index)
	}
	for len(l.elems) <= index {
		l.elems = append(l.elems, vm.Null)
	}
	l.elems[index] = v
	return nil
}

type dictEntry struct {
	key, val vm.Value
}

type dictData struct {
	mu      sync.Mutex
	entries map[uint64][]dictEntry // hash bucket -> entries (linear probe within bucket for collisions)
}

type queueData struct {
	mu    sync.Mutex
	elems []vm.Value
}

type stackData struct {
	mu    sync.Mutex
	elems []vm.Value
}

type setData struct {
	mu      sync.Mutex
	entries map[uint64][]vm.Value
}

func newHandle(class *vm.Class, data any) *vm.Object {
	h := vm.NewObject(class)
	h.SetHostData(data)
	return h
}

func registerCollections(r *Registry) {
	registerList(r)
	registerDictionary(r)
	registerQueue(r)
	registerStack(r)
	registerHashSet(r)

	// Modules produced from framework-style sources spell the declaring
	// type as System.Collections.Generic.*; both spellings bind to the
	// same implementations.
	aliases := make(map[string]vm.HostFunc)
	r.mu.RLock()
	for sig, fn := range r.funcs {
		if strings.HasPrefix(sig, "System.Collections.") {
			aliases["System.Collections.Generic."+strings.TrimPrefix(sig, "System.Collections.")] = fn
		}
	}
	r.mu.RUnlock()
	for sig, fn := range aliases {
		r.Register(sig, fn)
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func registerList(r *Registry) {
	r.Register("System.Collections.List.New()", HostFunc0(func(*vm.Interpreter, vm.Value) (vm.Value, error) {
		return vm.ObjRef(newHandle(listClass, &listData{})), nil
	}))
	r.Register("System.Collections.List.Add(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		l, err := listOf(this)
		if err != nil {
			return vm.Null, err
		}
		l.mu.Lock()
		l.elems = append(l.elems, a0)
		l.mu.Unlock()
		return vm.Null, nil
	}))
	r.Register("System.Collections.List.Get(int32)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		l, err := listOf(this)
		if err != nil {
			return vm.Null, err
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		i := int(a0.AsInt32())
		if i < 0 || i >= len(l.elems) {
			return vm.Null, vm.Errorf(vm.IndexOutOfRange, "List.Get index %d out of range", i)
		}
		return l.elems[i], nil
	}))
	r.Register("System.Collections.List.Set(int32,object)", HostFunc2(func(_ *vm.Interpreter, this, a0, a1 vm.Value) (vm.Value, error) {
		l, err := listOf(this)
		if err != nil {
			return vm.Null, err
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		i := int(a0.AsInt32())
		if i < 0 || i >= len(l.elems) {
			return vm.Null, vm.Errorf(vm.IndexOutOfRange, "List.Set index %d out of range", i)
		}
		l.elems[i] = a1
		return vm.Null, nil
	}))
	r.Register("System.Collections.List.RemoveAt(int32)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		l, err := listOf(this)
		if err != nil {
			return vm.Null, err
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		i := int(a0.AsInt32())
		if i < 0 || i >= len(l.elems) {
			return vm.Null, vm.Errorf(vm.IndexOutOfRange, "List.RemoveAt index %d out of range", i)
		}
		l.elems = append(l.elems[:i], l.elems[i+1:]...)
		return vm.Null, nil
	}))
	r.Register("System.Collections.List.Count()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		l, err := listOf(this)
		if err != nil {
			return vm.Null, err
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		return vm.Int32(int32(len(l.elems))), nil
	}))
	r.Register("System.Collections.List.Contains(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		l, err := listOf(this)
		if err != nil {
			return vm.Null, err
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		for _, e := range l.elems {
			if e.Equal(a0) {
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))
	r.Register("System.Collections.List.Clear()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		l, err := listOf(this)
		if err != nil {
			return vm.Null, err
		}
		l.mu.Lock()
		l.elems = nil
		l.mu.Unlock()
		return vm.Null, nil
	}))
	r.Register("System.Collections.List.Insert(int32,object)", HostFunc2(func(_ *vm.Interpreter, this, a0, a1 vm.Value) (vm.Value, error) {
		l, err := listOf(this)
		if err != nil {
			return vm.Null, err
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		i := int(a0.AsInt32())
		if i < 0 || i > len(l.elems) {
			return vm.Null, vm.Errorf(vm.IndexOutOfRange, "List.Insert index %d out of range", i)
		}
		l.elems = append(l.elems, vm.Null)
		copy(l.elems[i+1:], l.elems[i:])
		l.elems[i] = a1
		return vm.Null, nil
	}))
	r.Register("System.Collections.List.Remove(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		l, err := listOf(this)
		if err != nil {
			return vm.Null, err
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, e := range l.elems {
			if e.Equal(a0) {
				l.elems = append(l.elems[:i], l.elems[i+1:]...)
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))
}

func listOf(v vm.Value) (*listData, error) {
	if o := v.AsObject(); o != nil {
		if l, ok := o.HostData().(*listData); ok {
			return l, nil
		}
	}
	return nil, vm.Errorf(vm.TypeMismatch, "not a List instance")
}

// ---------------------------------------------------------------------------
// Dictionary
// ---------------------------------------------------------------------------

func registerDictionary(r *Registry) {
	r.Register("System.Collections.Dictionary.New()", HostFunc0(func(*vm.Interpreter, vm.Value) (vm.Value, error) {
		return vm.ObjRef(newHandle(dictClass, &dictData{entries: map[uint64][]dictEntry{}})), nil
	}))
	r.Register("System.Collections.Dictionary.Set(object,object)", HostFunc2(func(_ *vm.Interpreter, this, k, val vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		h := k.Hash()
		bucket := d.entries[h]
		for i, e := range bucket {
			if e.key.Equal(k) {
				bucket[i].val = val
				return vm.Null, nil
			}
		}
		d.entries[h] = append(bucket, dictEntry{k, val})
		return vm.Null, nil
	}))
	r.Register("System.Collections.Dictionary.Get(object)", HostFunc1(func(_ *vm.Interpreter, this, k vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, e := range d.entries[k.Hash()] {
			if e.key.Equal(k) {
				return e.val, nil
			}
		}
		return vm.Null, vm.Errorf(vm.NotFound, "key not present in Dictionary")
	}))
	r.Register("System.Collections.Dictionary.ContainsKey(object)", HostFunc1(func(_ *vm.Interpreter, this, k vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, e := range d.entries[k.Hash()] {
			if e.key.Equal(k) {
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))
	r.Register("System.Collections.Dictionary.Remove(object)", HostFunc1(func(_ *vm.Interpreter, this, k vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		h := k.Hash()
		bucket := d.entries[h]
		for i, e := range bucket {
			if e.key.Equal(k) {
				d.entries[h] = append(bucket[:i], bucket[i+1:]...)
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))
	r.Register("System.Collections.Dictionary.Count()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		n := 0
		for _, bucket := range d.entries {
			n += len(bucket)
		}
		return vm.Int32(int32(n)), nil
	}))
	r.Register("System.Collections.Dictionary.Add(object,object)", HostFunc2(func(_ *vm.Interpreter, this, k, val vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		h := k.Hash()
		bucket := d.entries[h]
		for i, e := range bucket {
			if e.key.Equal(k) {
				bucket[i].val = val
				return vm.Null, nil
			}
		}
		d.entries[h] = append(bucket, dictEntry{k, val})
		return vm.Null, nil
	}))
	r.Register("System.Collections.Dictionary.Clear()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		d.entries = map[uint64][]dictEntry{}
		d.mu.Unlock()
		return vm.Null, nil
	}))
	r.Register("System.Collections.Dictionary.TryGetValue(object)", HostFunc1(func(_ *vm.Interpreter, this, k vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, e := range d.entries[k.Hash()] {
			if e.key.Equal(k) {
				return e.val, nil
			}
		}
		return vm.Null, nil
	}))
	r.Register("System.Collections.Dictionary.Keys()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		arr := vm.NewArray("object", 0)
		for _, bucket := range d.entries {
			for _, e := range bucket {
				arr.Append(e.key)
			}
		}
		return vm.ArrRef(arr), nil
	}))
	r.Register("System.Collections.Dictionary.Values()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		d, err := dictOf(this)
		if err != nil {
			return vm.Null, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		arr := vm.NewArray("object", 0)
		for _, bucket := range d.entries {
			for _, e := range bucket {
				arr.Append(e.val)
			}
		}
		return vm.ArrRef(arr), nil
	}))
}

func dictOf(v vm.Value) (*dictData, error) {
	if o := v.AsObject(); o != nil {
		if d, ok := o.HostData().(*dictData); ok {
			return d, nil
		}
	}
	return nil, vm.Errorf(vm.TypeMismatch, "not a Dictionary instance")
}

// ---------------------------------------------------------------------------
// Queue
// ---------------------------------------------------------------------------

func registerQueue(r *Registry) {
	r.Register("System.Collections.Queue.New()", HostFunc0(func(*vm.Interpreter, vm.Value) (vm.Value, error) {
		return vm.ObjRef(newHandle(queueClass, &queueData{})), nil
	}))
	r.Register("System.Collections.Queue.Enqueue(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		q, err := queueOf(this)
		if err != nil {
			return vm.Null, err
		}
		q.mu.Lock()
		q.elems = append(q.elems, a0)
		q.mu.Unlock()
		return vm.Null, nil
	}))
	r.Register("System.Collections.Queue.Dequeue()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		q, err := queueOf(this)
		if err != nil {
			return vm.Null, err
		}
		q.mu.Lock()
		defer q.mu.Unlock()
		if len(q.elems) == 0 {
			return vm.Null, vm.Errorf(vm.StackUnderflow, "Dequeue on empty Queue")
		}
		v := q.elems[0]
		q.elems = q.elems[1:]
		return v, nil
	}))
	r.Register("System.Collections.Queue.Peek()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		q, err := queueOf(this)
		if err != nil {
			return vm.Null, err
		}
		q.mu.Lock()
		defer q.mu.Unlock()
		if len(q.elems) == 0 {
			return vm.Null, vm.Errorf(vm.StackUnderflow, "Peek on empty Queue")
		}
		return q.elems[0], nil
	}))
	r.Register("System.Collections.Queue.Count()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		q, err := queueOf(this)
		if err != nil {
			return vm.Null, err
		}
		q.mu.Lock()
		defer q.mu.Unlock()
		return vm.Int32(int32(len(q.elems))), nil
	}))
	r.Register("System.Collections.Queue.Contains(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		q, err := queueOf(this)
		if err != nil {
			return vm.Null, err
		}
		q.mu.Lock()
		defer q.mu.Unlock()
		for _, e := range q.elems {
			if e.Equal(a0) {
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))
	r.Register("System.Collections.Queue.Clear()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		q, err := queueOf(this)
		if err != nil {
			return vm.Null, err
		}
		q.mu.Lock()
		q.elems = nil
		q.mu.Unlock()
		return vm.Null, nil
	}))
}

func queueOf(v vm.Value) (*queueData, error) {
	if o := v.AsObject(); o != nil {
		if q, ok := o.HostData().(*queueData); ok {
			return q, nil
		}
	}
	return nil, vm.Errorf(vm.TypeMismatch, "not a Queue instance")
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

func registerStack(r *Registry) {
	r.Register("System.Collections.Stack.New()", HostFunc0(func(*vm.Interpreter, vm.Value) (vm.Value, error) {
		return vm.ObjRef(newHandle(stackClass, &stackData{})), nil
	}))
	r.Register("System.Collections.Stack.Push(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		s, err := stackOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		s.elems = append(s.elems, a0)
		s.mu.Unlock()
		return vm.Null, nil
	}))
	r.Register("System.Collections.Stack.Pop()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		s, err := stackOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.elems) == 0 {
			return vm.Null, vm.Errorf(vm.StackUnderflow, "Pop on empty Stack")
		}
		v := s.elems[len(s.elems)-1]
		s.elems = s.elems[:len(s.elems)-1]
		return v, nil
	}))
	r.Register("System.Collections.Stack.Peek()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		s, err := stackOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.elems) == 0 {
			return vm.Null, vm.Errorf(vm.StackUnderflow, "Peek on empty Stack")
		}
		return s.elems[len(s.elems)-1], nil
	}))
	r.Register("System.Collections.Stack.Count()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		s, err := stackOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return vm.Int32(int32(len(s.elems))), nil
	}))
	r.Register("System.Collections.Stack.Contains(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		s, err := stackOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, e := range s.elems {
			if e.Equal(a0) {
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))
	r.Register("System.Collections.Stack.Clear()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		s, err := stackOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		s.elems = nil
		s.mu.Unlock()
		return vm.Null, nil
	}))
}

func stackOf(v vm.Value) (*stackData, error) {
	if o := v.AsObject(); o != nil {
		if s, ok := o.HostData().(*stackData); ok {
			return s, nil
		}
	}
	return nil, vm.Errorf(vm.TypeMismatch, "not a Stack instance")
}

// ---------------------------------------------------------------------------
// HashSet
// ---------------------------------------------------------------------------

func registerHashSet(r *Registry) {
	r.Register("System.Collections.HashSet.New()", HostFunc0(func(*vm.Interpreter, vm.Value) (vm.Value, error) {
		return vm.ObjRef(newHandle(hashSetClass, &setData{entries: map[uint64][]vm.Value{}})), nil
	}))
	r.Register("System.Collections.HashSet.Add(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		s, err := setOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		h := a0.Hash()
		for _, e := range s.entries[h] {
			if e.Equal(a0) {
				return vm.False, nil
			}
		}
		s.entries[h] = append(s.entries[h], a0)
		return vm.True, nil
	}))
	r.Register("System.Collections.HashSet.Contains(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		s, err := setOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, e := range s.entries[a0.Hash()] {
			if e.Equal(a0) {
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))
	r.Register("System.Collections.HashSet.Remove(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		s, err := setOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		h := a0.Hash()
		bucket := s.entries[h]
		for i, e := range bucket {
			if e.Equal(a0) {
				s.entries[h] = append(bucket[:i], bucket[i+1:]...)
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))
	r.Register("System.Collections.HashSet.Count()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		s, err := setOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		n := 0
		for _, bucket := range s.entries {
			n += len(bucket)
		}
		return vm.Int32(int32(n)), nil
	}))
	r.Register("System.Collections.HashSet.Clear()", HostFunc0(func(_ *vm.Interpreter, this vm.Value) (vm.Value, error) {
		s, err := setOf(this)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		s.entries = map[uint64][]vm.Value{}
		s.mu.Unlock()
		return vm.Null, nil
	}))
	r.Register("System.Collections.HashSet.UnionWith(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		s, err := setOf(this)
		if err != nil {
			return vm.Null, err
		}
		other, err := setOf(a0)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		other.mu.Lock()
		defer other.mu.Unlock()
		for h, bucket := range other.entries {
			for _, v := range bucket {
				present := false
				for _, e := range s.entries[h] {
					if e.Equal(v) {
						present = true
						break
					}
				}
				if !present {
					s.entries[h] = append(s.entries[h], v)
				}
			}
		}
		return vm.Null, nil
	}))
	r.Register("System.Collections.HashSet.IntersectWith(object)", HostFunc1(func(_ *vm.Interpreter, this, a0 vm.Value) (vm.Value, error) {
		s, err := setOf(this)
		if err != nil {
			return vm.Null, err
		}
		other, err := setOf(a0)
		if err != nil {
			return vm.Null, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		other.mu.Lock()
		defer other.mu.Unlock()
		for h, bucket := range s.entries {
			kept := bucket[:0]
			for _, v := range bucket {
				for _, e := range other.entries[h] {
					if e.Equal(v) {
						kept = append(kept, v)
						break
					}
				}
			}
			if len(kept) == 0 {
				delete(s.entries, h)
			} else {
				s.entries[h] = kept
			}
		}
		return vm.Null, nil
	}))
}

func setOf(v vm.Value) (*setData, error) {
	if o := v.AsObject(); o != nil {
		if s, ok := o.HostData().(*setData); ok {
			return s, nil
		}
	}
	return nil, vm.Errorf(vm.TypeMismatch, "not a HashSet instance")
}
