package vm

import (
	"strings"
	"testing"
)

// buildProgram creates a Program class with one static Main method whose
// body is instrs, registers it into a fresh ClassTable, and returns an
// Interpreter with a Console.WriteLine host func that appends every
// printed line to *lines, mirroring the scenarios spec.md §8 describes.
func buildProgram(t *testing.T, instrs []Instruction, locals []string, lines *[]string) *Interpreter {
	t.Helper()
	classes := NewClassTable()
	program := NewClass("Program", nil)
	classes.Register(program)

	main := &MethodDecl{
		Name:           "Main",
		DeclaringClass: program,
		IsStatic:       true,
		ReturnType:     "void",
		Locals:         locals,
		Instructions:   instrs,
	}
	program.Methods.Add(main)

	print := func(_ *Interpreter, _ Value, args []Value) (Value, error) {
		if len(args) > 0 {
			*lines = append(*lines, args[0].ToStringValue())
		}
		return Null, nil
	}
	host := &testHostRegistry{funcs: map[string]HostFunc{
		"System.Console.WriteLine(string)":  print,
		"System.Console.WriteLine(int32)":   print,
		"System.Console.WriteLine(float64)": print,
		"System.Math.Sqrt(float64)": func(_ *Interpreter, _ Value, args []Value) (Value, error) {
			f, _ := args[0].ToFloat64()
			return Float64(sqrtApprox(f)), nil
		},
	}}

	return NewInterpreter(classes, host, Config{})
}

// testHostRegistry is a minimal vm.HostRegistry used only by this
// package's own tests, standing in for hostlib.Registry so vm's tests
// don't need to import hostlib (which itself imports vm).
type testHostRegistry struct {
	funcs map[string]HostFunc
}

func (r *testHostRegistry) Lookup(signature string) (HostFunc, bool) {
	fn, ok := r.funcs[signature]
	return fn, ok
}

// sqrtApprox avoids importing math into the test just for one call site.
func sqrtApprox(x float64) float64 {
	if x < 0 {
		return 0
	}
	z := x
	for i := 0; i < 50; i++ {
		if z == 0 {
			break
		}
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func call(target CallTarget) Instruction {
	return Instruction{OpCode: OpCall, Operand: CallOperand{Target: target}}
}

func TestScenarioS1Hello(t *testing.T) {
	var lines []string
	instrs := []Instruction{
		{OpCode: OpLdStr, Operand: ConstOperand{Value: "Hello from Text IR!"}},
		call(CallTarget{DeclaringType: "System.Console", Name: "WriteLine", ParameterTypes: []string{"string"}}),
		{OpCode: OpRet},
	}
	interp := buildProgram(t, instrs, nil, &lines)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(lines) != 1 || lines[0] != "Hello from Text IR!" {
		t.Fatalf("got lines %v", lines)
	}
}

func TestScenarioS2Arithmetic(t *testing.T) {
	var lines []string
	instrs := []Instruction{
		{OpCode: OpLdc, Operand: ConstOperand{Value: int32(2), Type: "int32"}},
		{OpCode: OpLdc, Operand: ConstOperand{Value: int32(3), Type: "int32"}},
		{OpCode: OpAdd},
		call(CallTarget{DeclaringType: "System.Console", Name: "WriteLine", ParameterTypes: []string{"int32"}}),
		{OpCode: OpRet},
	}
	interp := buildProgram(t, instrs, nil, &lines)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(lines) != 1 || lines[0] != "5" {
		t.Fatalf("got lines %v, want [5]", lines)
	}
}

func TestScenarioS3LocalsAndConditional(t *testing.T) {
	var lines []string
	instrs := []Instruction{
		{OpCode: OpLdc, Operand: ConstOperand{Value: int32(7), Type: "int32"}},
		{OpCode: OpStLoc, Operand: LocalOperand{Name: "n"}},
		{OpCode: OpIf, Operand: IfOperand{
			Condition: Condition{
				Kind: CondBinary,
				Op:   OpCgt,
				Left: []Instruction{{OpCode: OpLdLoc, Operand: LocalOperand{Name: "n"}}},
				Right: []Instruction{{OpCode: OpLdc, Operand: ConstOperand{Value: int32(5), Type: "int32"}}},
			},
			Then: []Instruction{
				{OpCode: OpLdStr, Operand: ConstOperand{Value: "big"}},
				call(CallTarget{DeclaringType: "System.Console", Name: "WriteLine", ParameterTypes: []string{"string"}}),
			},
			Else: []Instruction{
				{OpCode: OpLdStr, Operand: ConstOperand{Value: "small"}},
				call(CallTarget{DeclaringType: "System.Console", Name: "WriteLine", ParameterTypes: []string{"string"}}),
			},
			HasElse: true,
		}},
		{OpCode: OpRet},
	}
	interp := buildProgram(t, instrs, []string{"n"}, &lines)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(lines) != 1 || lines[0] != "big" {
		t.Fatalf("got lines %v, want [big]", lines)
	}
}

func TestScenarioS4Loop(t *testing.T) {
	var lines []string
	instrs := []Instruction{
		{OpCode: OpLdc, Operand: ConstOperand{Value: int32(0), Type: "int32"}},
		{OpCode: OpStLoc, Operand: LocalOperand{Name: "i"}},
		{OpCode: OpWhile, Operand: WhileOperand{
			Condition: Condition{
				Kind:  CondBinary,
				Op:    OpClt,
				Left:  []Instruction{{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}}},
				Right: []Instruction{{OpCode: OpLdc, Operand: ConstOperand{Value: int32(3), Type: "int32"}}},
			},
			Body: []Instruction{
				{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}},
				call(CallTarget{DeclaringType: "System.Console", Name: "WriteLine", ParameterTypes: []string{"int32"}}),
				{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}},
				{OpCode: OpLdc, Operand: ConstOperand{Value: int32(1), Type: "int32"}},
				{OpCode: OpAdd},
				{OpCode: OpStLoc, Operand: LocalOperand{Name: "i"}},
			},
		}},
		{OpCode: OpRet},
	}
	interp := buildProgram(t, instrs, []string{"i"}, &lines)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	want := []string{"0", "1", "2"}
	if strings.Join(lines, ",") != strings.Join(want, ",") {
		t.Fatalf("got lines %v, want %v", lines, want)
	}
}

func TestScenarioS5StaticCallWithOverload(t *testing.T) {
	var lines []string
	instrs := []Instruction{
		{OpCode: OpLdc, Operand: ConstOperand{Value: 5.2, Type: "float64"}},
		call(CallTarget{DeclaringType: "System.Math", Name: "Sqrt", ParameterTypes: []string{"float64"}, ReturnType: "float64"}),
		call(CallTarget{DeclaringType: "System.Console", Name: "WriteLine", ParameterTypes: []string{"float64"}}),
		{OpCode: OpRet},
	}
	interp := buildProgram(t, instrs, nil, &lines)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(lines) != 1 || lines[0] == "" || lines[0] == "null" {
		t.Fatalf("got lines %v, want one non-empty numeric line", lines)
	}
}

func TestScenarioS6UncaughtDivisionByZero(t *testing.T) {
	var lines []string
	instrs := []Instruction{
		{OpCode: OpLdc, Operand: ConstOperand{Value: int32(1), Type: "int32"}},
		{OpCode: OpLdc, Operand: ConstOperand{Value: int32(0), Type: "int32"}},
		{OpCode: OpDiv},
		{OpCode: OpRet},
	}
	interp := buildProgram(t, instrs, nil, &lines)
	res := interp.RunMain(nil)
	if res.Err == nil {
		t.Fatal("expected an error, got none")
	}
	if res.Err.Kind != DivisionByZero {
		t.Fatalf("got error kind %v, want DivisionByZero", res.Err.Kind)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no output, got %v", lines)
	}
}

func TestTryCatchFinally(t *testing.T) {
	var lines []string
	instrs := []Instruction{
		{OpCode: OpTry, Operand: TryOperand{
			Try: []Instruction{
				{OpCode: OpLdc, Operand: ConstOperand{Value: int32(1), Type: "int32"}},
				{OpCode: OpLdc, Operand: ConstOperand{Value: int32(0), Type: "int32"}},
				{OpCode: OpDiv},
				{OpCode: OpPop},
			},
			Catches: []CatchClause{{ExceptionType: "", Block: []Instruction{
				{OpCode: OpLdStr, Operand: ConstOperand{Value: "caught"}},
				call(CallTarget{DeclaringType: "System.Console", Name: "WriteLine", ParameterTypes: []string{"string"}}),
			}}},
			Finally: []Instruction{
				{OpCode: OpLdStr, Operand: ConstOperand{Value: "finally"}},
				call(CallTarget{DeclaringType: "System.Console", Name: "WriteLine", ParameterTypes: []string{"string"}}),
			},
			HasFinal: true,
		}},
		{OpCode: OpRet},
	}
	interp := buildProgram(t, instrs, nil, &lines)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	want := []string{"caught", "finally"}
	if strings.Join(lines, ",") != strings.Join(want, ",") {
		t.Fatalf("got lines %v, want %v", lines, want)
	}
}

func TestBreakExitsLoopEarly(t *testing.T) {
	var lines []string
	instrs := []Instruction{
		{OpCode: OpLdc, Operand: ConstOperand{Value: int32(0), Type: "int32"}},
		{OpCode: OpStLoc, Operand: LocalOperand{Name: "i"}},
		{OpCode: OpWhile, Operand: WhileOperand{
			Condition: Condition{
				Kind:  CondBinary,
				Op:    OpClt,
				Left:  []Instruction{{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}}},
				Right: []Instruction{{OpCode: OpLdc, Operand: ConstOperand{Value: int32(3), Type: "int32"}}},
			},
			Body: []Instruction{
				{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}},
				call(CallTarget{DeclaringType: "System.Console", Name: "WriteLine", ParameterTypes: []string{"int32"}}),
				{OpCode: OpBreak},
			},
		}},
		{OpCode: OpRet},
	}
	interp := buildProgram(t, instrs, []string{"i"}, &lines)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(lines) != 1 || lines[0] != "0" {
		t.Fatalf("got lines %v, want a single iteration [0]", lines)
	}
}
