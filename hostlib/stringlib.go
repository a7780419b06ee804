package hostlib

import (
	"strings"

	"github.com/objectir-lang/objectir/vm"
)

func registerString(r *Registry) {
	r.Register("System.String.Concat(string,string)", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
		return vm.Str(a0.ToStringValue() + a1.ToStringValue()), nil
	}))
	r.Register("System.String.Length(string)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		return vm.Int32(int32(len(a0.AsString()))), nil
	}))
	r.Register("System.String.Substring(string,int32,int32)", HostFunc3(func(_ *vm.Interpreter, _, a0, a1, a2 vm.Value) (vm.Value, error) {
		s := a0.AsString()
		start, length := int(a1.AsInt32()), int(a2.AsInt32())
		if start < 0 || start > len(s) {
			return vm.Null, vm.Errorf(vm.TypeMismatch, "Substring start %d out of range", start)
		}
		end := start + length
		if end > len(s) {
			end = len(s)
		}
		return vm.Str(s[start:end]), nil
	}))
	r.Register("System.String.IsNullOrEmpty(string)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		return vm.Bool(a0.IsNull() || a0.AsString() == ""), nil
	}))
	r.Register("System.String.Equals(string,string)", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
		return vm.Bool(a0.AsString() == a1.AsString()), nil
	}))
	r.Register("System.String.IndexOf(string,string)", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
		return vm.Int32(int32(strings.Index(a0.AsString(), a1.AsString()))), nil
	}))
	r.Register("System.String.ToUpper(string)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		return vm.Str(strings.ToUpper(a0.AsString())), nil
	}))
	r.Register("System.String.ToLower(string)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		return vm.Str(strings.ToLower(a0.AsString())), nil
	}))
	r.Register("System.String.Trim(string)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		return vm.Str(strings.TrimSpace(a0.AsString())), nil
	}))
	r.Register("System.String.Split(string,string)", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
		parts := strings.Split(a0.AsString(), a1.AsString())
		arr := vm.NewArray("string", len(parts))
		for i, p := range parts {
			arr.Set(i, vm.Str(p))
		}
		return vm.ArrRef(arr), nil
	}))

	// supplemental ToString overloads, used by Convert.ToString and by
	// console formatting tests that want an explicit string-keyed host
	// method rather than Value.ToStringValue's Go-side helper.
	for _, t := range []string{"int32", "int64", "float32", "float64", "bool", "string", "object"} {
		tt := t
		r.Register("System.String.ToString("+tt+")", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			return vm.Str(a0.ToStringValue()), nil
		}))
	}
}
