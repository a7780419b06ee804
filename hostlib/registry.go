// Package hostlib implements ObjectIR's host bridge: the standard
// library of native methods spec.md §4.5 requires every interpreter to
// register at startup (Console, Math, String, Convert, Collections,
// and a Reflection supplement). It depends on vm, never the reverse —
// vm only knows hostlib through the vm.HostRegistry interface.
package hostlib

import (
	"sync"

	"github.com/objectir-lang/objectir/vm"
)

// Registry is a process-wide signature-keyed table of native method
// implementations, generalizing the teacher's per-class VTable slot
// registration (AddMethod0..AddMethod8 in chazu-maggie/vm/class.go) into
// a single flat table keyed by the normalized `Type.Name(t1,t2,...)`
// signature string, since host methods are not subject to the
// overload-by-arity ambiguity interpreted methods are (the key already
// encodes the full parameter list).
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]vm.HostFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]vm.HostFunc)}
}

// Register binds a HostFunc under signature, overwriting any previous
// binding (later registrations win, matching the teacher's own
// last-registration-wins class-extension behavior).
func (r *Registry) Register(signature string, fn vm.HostFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[signature] = fn
}

// Lookup implements vm.HostRegistry.
func (r *Registry) Lookup(signature string) (vm.HostFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[signature]
	return fn, ok
}

// HostFunc0..HostFunc4 are fixed-arity wrapper constructors that adapt a
// small-arity Go func to vm.HostFunc by unpacking the args slice (missing
// arguments read as Null; the slice itself is still allocated by the
// caller), generalizing the teacher's Method0Func..Method8Func arity
// specialization (chazu-maggie/vm/method.go) from VTable slots to
// Registry entries.
func HostFunc0(fn func(interp *vm.Interpreter, this vm.Value) (vm.Value, error)) vm.HostFunc {
	return func(interp *vm.Interpreter, this vm.Value, args []vm.Value) (vm.Value, error) {
		return fn(interp, this)
	}
}

func HostFunc1(fn func(interp *vm.Interpreter, this, a0 vm.Value) (vm.Value, error)) vm.HostFunc {
	return func(interp *vm.Interpreter, this vm.Value, args []vm.Value) (vm.Value, error) {
		return fn(interp, this, arg(args, 0))
	}
}

func HostFunc2(fn func(interp *vm.Interpreter, this, a0, a1 vm.Value) (vm.Value, error)) vm.HostFunc {
	return func(interp *vm.Interpreter, this vm.Value, args []vm.Value) (vm.Value, error) {
		return fn(interp, this, arg(args, 0), arg(args, 1))
	}
}

func HostFunc3(fn func(interp *vm.Interpreter, this, a0, a1, a2 vm.Value) (vm.Value, error)) vm.HostFunc {
	return func(interp *vm.Interpreter, this vm.Value, args []vm.Value) (vm.Value, error) {
		return fn(interp, this, arg(args, 0), arg(args, 1), arg(args, 2))
	}
}

func HostFunc4(fn func(interp *vm.Interpreter, this, a0, a1, a2, a3 vm.Value) (vm.Value, error)) vm.HostFunc {
	return func(interp *vm.Interpreter, this vm.Value, args []vm.Value) (vm.Value, error) {
		return fn(interp, this, arg(args, 0), arg(args, 1), arg(args, 2), arg(args, 3))
	}
}

func arg(args []vm.Value, i int) vm.Value {
	if i < len(args) {
		return args[i]
	}
	return vm.Null
}

// NewStandardLibrary builds a Registry with every native method spec.md
// §4.5 requires at minimum (Console/String/Convert/Math/Collections),
// plus the System.Reflection supplement SPEC_FULL.md §4.5 adds. out
// receives the Console sink's output (spec §6's "replaceable output
// function"); a nil out defaults to os.Stdout.
func NewStandardLibrary(out ConsoleWriter) *Registry {
	r := NewRegistry()
	registerConsole(r, out)
	registerString(r)
	registerConvert(r)
	registerMath(r)
	registerCollections(r)
	registerReflection(r)
	return r
}
