package hostlib

import "github.com/objectir-lang/objectir/vm"

// registerReflection wires System.Reflection, SPEC_FULL.md §4.5's
// supplement over the spec's minimum standard library: the ability for a
// running module to ask basic questions about an object's runtime type,
// grounded on the teacher's class_reflection_primitives.go which exposes
// the same handful of questions (class name, field names, superclass
// chain) over its own slot-indexed Class.
func registerReflection(r *Registry) {
	r.Register("System.Reflection.GetTypeName(object)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		o := a0.AsObject()
		if o == nil {
			return vm.Str(a0.Kind().String()), nil
		}
		return vm.Str(o.Class().FullName()), nil
	}))
	r.Register("System.Reflection.GetFieldNames(object)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		o := a0.AsObject()
		if o == nil {
			return vm.ArrRef(vm.NewArray("string", 0)), nil
		}
		fields := o.Class().AllInstanceFields()
		arr := vm.NewArray("string", len(fields))
		for i, f := range fields {
			arr.Set(i, vm.Str(f.Name))
		}
		return vm.ArrRef(arr), nil
	}))
	r.Register("System.Reflection.GetSuperclassName(object)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		o := a0.AsObject()
		if o == nil || o.Class().Superclass == nil {
			return vm.Null, nil
		}
		return vm.Str(o.Class().Superclass.FullName()), nil
	}))
	r.Register("System.Reflection.IsInstanceOf(object,string)", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
		o := a0.AsObject()
		if o == nil {
			return vm.Bool(a0.Kind().String() == a1.AsString()), nil
		}
		target := a1.AsString()
		for c := o.Class(); c != nil; c = c.Superclass {
			if c.FullName() == target || c.Name == target {
				return vm.True, nil
			}
		}
		return vm.False, nil
	}))
	r.Register("System.Reflection.GetFields(string)", HostFunc1(func(interp *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		c := interp.Classes.Lookup(a0.AsString())
		if c == nil {
			return vm.Null, vm.Errorf(vm.NotFound, "no type %q", a0.AsString())
		}
		fields := c.AllInstanceFields()
		arr := vm.NewArray("string", len(fields))
		for i, f := range fields {
			arr.Set(i, vm.Str(f.Name))
		}
		return vm.ArrRef(arr), nil
	}))
	r.Register("System.Reflection.GetMethods(string)", HostFunc1(func(interp *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		c := interp.Classes.Lookup(a0.AsString())
		if c == nil {
			return vm.Null, vm.Errorf(vm.NotFound, "no type %q", a0.AsString())
		}
		names := c.Methods.AllNames()
		arr := vm.NewArray("string", len(names))
		for i, n := range names {
			arr.Set(i, vm.Str(n))
		}
		return vm.ArrRef(arr), nil
	}))
}
