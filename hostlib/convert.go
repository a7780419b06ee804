package hostlib

import "github.com/objectir-lang/objectir/vm"

// registerConvert wires System.Convert's numeric/string/bool conversions,
// each overloaded across the primitive types per spec.md §4.1's
// coercion rules, reusing vm.Value's own ToInt64/ToFloat64/ToBool/
// ToStringValue rather than re-implementing parsing here.
func registerConvert(r *Registry) {
	for _, t := range []string{"string", "int32", "int64", "float32", "float64", "bool", "object"} {
		tt := t
		r.Register("System.Convert.ToString("+tt+")", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			return vm.Str(a0.ToStringValue()), nil
		}))
		r.Register("System.Convert.ToInt32("+tt+")", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			n, err := a0.ToInt64()
			if err != nil {
				return vm.Null, err
			}
			return vm.Int32(int32(n)), nil
		}))
		r.Register("System.Convert.ToInt64("+tt+")", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			n, err := a0.ToInt64()
			if err != nil {
				return vm.Null, err
			}
			return vm.Int64(n), nil
		}))
		r.Register("System.Convert.ToFloat32("+tt+")", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			f, err := a0.ToFloat64()
			if err != nil {
				return vm.Null, err
			}
			return vm.Float32(float32(f)), nil
		}))
		r.Register("System.Convert.ToFloat64("+tt+")", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			f, err := a0.ToFloat64()
			if err != nil {
				return vm.Null, err
			}
			return vm.Float64(f), nil
		}))
		r.Register("System.Convert.ToBoolean("+tt+")", HostFunc1(func(interp *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			return vm.Bool(a0.ToBool(interp.Config.Epsilon)), nil
		}))
	}
}
