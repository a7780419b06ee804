package hostlib

import (
	"math"

	"github.com/objectir-lang/objectir/vm"
)

// registerMath wires System.Math per spec.md §4.5's minimum list,
// delegating every transcendental/rounding function straight to the Go
// standard math package (no third-party numerics library in the
// retrieved pack offers anything beyond what math already provides for
// this surface).
func registerMath(r *Registry) {
	r.Register("System.Math.PI()", HostFunc0(func(*vm.Interpreter, vm.Value) (vm.Value, error) { return vm.Float64(math.Pi), nil }))
	r.Register("System.Math.E()", HostFunc0(func(*vm.Interpreter, vm.Value) (vm.Value, error) { return vm.Float64(math.E), nil }))
	r.Register("System.Math.Tau()", HostFunc0(func(*vm.Interpreter, vm.Value) (vm.Value, error) { return vm.Float64(2 * math.Pi), nil }))

	unary := map[string]func(float64) float64{
		"Sin": math.Sin, "Cos": math.Cos, "Tan": math.Tan,
		"Asin": math.Asin, "Acos": math.Acos, "Atan": math.Atan,
		"Sinh": math.Sinh, "Cosh": math.Cosh, "Tanh": math.Tanh,
		"Exp": math.Exp, "Log10": math.Log10, "Sqrt": math.Sqrt,
		"Ceiling": math.Ceil, "Floor": math.Floor, "Truncate": math.Trunc,
	}
	for name, fn := range unary {
		f := fn
		r.Register("System.Math."+name+"(float64)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			x, err := a0.ToFloat64()
			if err != nil {
				return vm.Null, err
			}
			return vm.Float64(f(x)), nil
		}))
	}

	r.Register("System.Math.Atan2(float64,float64)", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
		x, err := a0.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		y, err := a1.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		return vm.Float64(math.Atan2(x, y)), nil
	}))
	r.Register("System.Math.Log(float64)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		x, err := a0.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		return vm.Float64(math.Log(x)), nil
	}))
	r.Register("System.Math.Log(float64,float64)", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
		x, err := a0.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		base, err := a1.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		return vm.Float64(math.Log(x) / math.Log(base)), nil
	}))
	r.Register("System.Math.Pow(float64,float64)", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
		x, err := a0.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		y, err := a1.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		return vm.Float64(math.Pow(x, y)), nil
	}))
	r.Register("System.Math.Round(float64)", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		x, err := a0.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		return vm.Float64(math.Round(x)), nil
	}))
	r.Register("System.Math.Round(float64,int32)", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
		x, err := a0.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		digits := float64(a1.AsInt32())
		scale := math.Pow(10, digits)
		return vm.Float64(math.Round(x*scale) / scale), nil
	}))

	for _, t := range []string{"int32", "int64", "float32", "float64"} {
		tt := t
		r.Register("System.Math.Abs("+tt+")", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			return absValue(a0)
		}))
		r.Register("System.Math.Sign("+tt+")", HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
			f, err := a0.ToFloat64()
			if err != nil {
				return vm.Null, err
			}
			switch {
			case f > 0:
				return vm.Int32(1), nil
			case f < 0:
				return vm.Int32(-1), nil
			default:
				return vm.Int32(0), nil
			}
		}))
		r.Register("System.Math.Min("+tt+","+tt+")", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
			return minMax(a0, a1, true)
		}))
		r.Register("System.Math.Max("+tt+","+tt+")", HostFunc2(func(_ *vm.Interpreter, _, a0, a1 vm.Value) (vm.Value, error) {
			return minMax(a0, a1, false)
		}))
	}
}

func absValue(v vm.Value) (vm.Value, error) {
	switch v.Kind() {
	case vm.KindInt32:
		n := v.AsInt32()
		if n < 0 {
			n = -n
		}
		return vm.Int32(n), nil
	case vm.KindInt64:
		n := v.AsInt64()
		if n < 0 {
			n = -n
		}
		return vm.Int64(n), nil
	case vm.KindFloat32:
		return vm.Float32(float32(math.Abs(float64(v.AsFloat32())))), nil
	default:
		f, err := v.ToFloat64()
		if err != nil {
			return vm.Null, err
		}
		return vm.Float64(math.Abs(f)), nil
	}
}

func minMax(a, b vm.Value, wantMin bool) (vm.Value, error) {
	fa, err := a.ToFloat64()
	if err != nil {
		return vm.Null, err
	}
	fb, err := b.ToFloat64()
	if err != nil {
		return vm.Null, err
	}
	pick := a
	if (wantMin && fb < fa) || (!wantMin && fb > fa) {
		pick = b
	}
	return pick, nil
}
