package vm

import "testing"

func ldcI32(n int32) Instruction {
	return Instruction{OpCode: OpLdc, Operand: ConstOperand{Value: n, Type: "int32"}}
}

// newProgram registers a bare Program class with a single static method
// and returns (interpreter, class table) so tests can attach more classes
// or methods before running.
func newProgram(name, returnType string, locals []string, instrs []Instruction, labels LabelMap) (*Interpreter, *ClassTable) {
	classes := NewClassTable()
	program := NewClass("Program", nil)
	classes.Register(program)
	program.Methods.Add(&MethodDecl{
		Name:           name,
		DeclaringClass: program,
		IsStatic:       true,
		ReturnType:     returnType,
		Locals:         locals,
		Instructions:   instrs,
		Labels:         labels,
	})
	return NewInterpreter(classes, nil, Config{}), classes
}

func TestLabelBranchLoop(t *testing.T) {
	// i = 0; loop: if i >= 5 goto end; i = i + 1; goto loop; end: return i
	instrs := []Instruction{
		ldcI32(0),
		{OpCode: OpStLoc, Operand: LocalOperand{Name: "i"}},
		{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}}, // loop
		ldcI32(5),
		{OpCode: OpBge, Operand: BranchOperand{Label: "end", ByLabel: true}},
		{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}},
		ldcI32(1),
		{OpCode: OpAdd},
		{OpCode: OpStLoc, Operand: LocalOperand{Name: "i"}},
		{OpCode: OpBr, Operand: BranchOperand{Label: "loop", ByLabel: true}},
		{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}}, // end
		{OpCode: OpRet},
	}
	labels := LabelMap{"loop": 2, "end": 10}
	interp, _ := newProgram("Main", "int32", []string{"i"}, instrs, labels)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	n, err := res.Value.ToInt64()
	if err != nil || n != 5 {
		t.Fatalf("loop result = %v (%v), want 5", res.Value, err)
	}
}

func TestBranchToUnknownLabel(t *testing.T) {
	instrs := []Instruction{
		{OpCode: OpBr, Operand: BranchOperand{Label: "nowhere", ByLabel: true}},
		{OpCode: OpRet},
	}
	interp, _ := newProgram("Main", "void", nil, instrs, LabelMap{})
	res := interp.RunMain(nil)
	if res.Err == nil || res.Err.Kind != BranchOutOfRange {
		t.Fatalf("got %v, want BranchOutOfRange", res.Err)
	}
}

func TestBranchIndexOutOfRange(t *testing.T) {
	instrs := []Instruction{
		{OpCode: OpBr, Operand: BranchOperand{Index: 99}},
		{OpCode: OpRet},
	}
	interp, _ := newProgram("Main", "void", nil, instrs, nil)
	res := interp.RunMain(nil)
	if res.Err == nil || res.Err.Kind != BranchOutOfRange {
		t.Fatalf("got %v, want BranchOutOfRange", res.Err)
	}
}

func TestTypedConstLoads(t *testing.T) {
	instrs := []Instruction{
		{OpCode: OpLdI4, Operand: ConstOperand{Value: int32(2)}},
		{OpCode: OpLdI8, Operand: ConstOperand{Value: int64(3)}},
		{OpCode: OpAdd},
		{OpCode: OpRet},
	}
	interp, _ := newProgram("Main", "int64", nil, instrs, nil)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if n, _ := res.Value.ToInt64(); n != 5 {
		t.Fatalf("ldi4+ldi8 = %v, want 5", res.Value)
	}
}

func TestInstanceMethodAndFields(t *testing.T) {
	classes := NewClassTable()

	counter := NewClass("Counter", nil)
	counter.Fields = append(counter.Fields, &Field{Name: "count", TypeName: "int32"})
	counter.Methods.Add(&MethodDecl{
		Name:           "Increment",
		DeclaringClass: counter,
		ReturnType:     "void",
		Instructions: []Instruction{
			{OpCode: OpLdFld, Operand: FieldOperand{Field: "count"}},
			ldcI32(1),
			{OpCode: OpAdd},
			{OpCode: OpStFld, Operand: FieldOperand{Field: "count"}},
			{OpCode: OpRet},
		},
	})
	classes.Register(counter)

	program := NewClass("Program", nil)
	classes.Register(program)
	incr := Instruction{OpCode: OpCallVirt, Operand: CallOperand{
		Target: CallTarget{DeclaringType: "Counter", Name: "Increment", ReturnType: "void"},
	}}
	program.Methods.Add(&MethodDecl{
		Name:           "Main",
		DeclaringClass: program,
		IsStatic:       true,
		ReturnType:     "int64",
		Locals:         []string{"c"},
		Instructions: []Instruction{
			{OpCode: OpNewObj, Operand: TypeOperand{Type: "Counter"}},
			{OpCode: OpStLoc, Operand: LocalOperand{Name: "c"}},
			{OpCode: OpLdLoc, Operand: LocalOperand{Name: "c"}},
			incr,
			{OpCode: OpLdLoc, Operand: LocalOperand{Name: "c"}},
			incr,
			{OpCode: OpLdLoc, Operand: LocalOperand{Name: "c"}},
			{OpCode: OpLdFld, Operand: FieldOperand{Field: "count"}},
			{OpCode: OpRet},
		},
	})

	interp := NewInterpreter(classes, nil, Config{})
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if n, _ := res.Value.ToInt64(); n != 2 {
		t.Fatalf("count after two increments = %v, want 2", res.Value)
	}
}

func TestCallVirtOnNullInstanceRaises(t *testing.T) {
	classes := NewClassTable()
	counter := NewClass("Counter", nil)
	counter.Methods.Add(&MethodDecl{Name: "Touch", DeclaringClass: counter, ReturnType: "void",
		Instructions: []Instruction{{OpCode: OpRet}}})
	classes.Register(counter)

	program := NewClass("Program", nil)
	classes.Register(program)
	program.Methods.Add(&MethodDecl{
		Name: "Main", DeclaringClass: program, IsStatic: true, ReturnType: "void",
		Instructions: []Instruction{
			{OpCode: OpLdNull},
			{OpCode: OpCallVirt, Operand: CallOperand{
				Target: CallTarget{DeclaringType: "Counter", Name: "Touch", ReturnType: "void"},
			}},
			{OpCode: OpRet},
		},
	})

	interp := NewInterpreter(classes, nil, Config{})
	res := interp.RunMain(nil)
	if res.Err == nil || res.Err.Kind != NotFound {
		t.Fatalf("got %v, want NotFound for callvirt on null instance", res.Err)
	}
}

func TestStaticFieldsPersistAcrossCalls(t *testing.T) {
	classes := NewClassTable()
	program := NewClass("Program", nil)
	classes.Register(program)

	program.Methods.Add(&MethodDecl{
		Name: "Store", DeclaringClass: program, IsStatic: true, ReturnType: "void",
		Instructions: []Instruction{
			ldcI32(42),
			{OpCode: OpStSFld, Operand: StaticFieldOperand{DeclaringType: "Program", Name: "answer"}},
			{OpCode: OpRet},
		},
	})
	program.Methods.Add(&MethodDecl{
		Name: "Main", DeclaringClass: program, IsStatic: true, ReturnType: "int32",
		Instructions: []Instruction{
			{OpCode: OpCall, Operand: CallOperand{Target: CallTarget{DeclaringType: "Program", Name: "Store", ReturnType: "void"}}},
			{OpCode: OpLdSFld, Operand: StaticFieldOperand{DeclaringType: "Program", Name: "answer"}},
			{OpCode: OpRet},
		},
	})

	interp := NewInterpreter(classes, nil, Config{})
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if n, _ := res.Value.ToInt64(); n != 42 {
		t.Fatalf("static read-back = %v, want 42", res.Value)
	}
}

func TestArrayGrowthAndOutOfRangeRead(t *testing.T) {
	instrs := []Instruction{
		{OpCode: OpNewArr, Operand: TypeOperand{Type: "int32"}},
		{OpCode: OpStLoc, Operand: LocalOperand{Name: "a"}},

		// a[2] = 7 on an empty array: grows with null padding.
		{OpCode: OpLdLoc, Operand: LocalOperand{Name: "a"}},
		ldcI32(2),
		ldcI32(7),
		{OpCode: OpStElem},

		// a[1] is padding, reads as null; a[2] reads back 7.
		{OpCode: OpLdLoc, Operand: LocalOperand{Name: "a"}},
		ldcI32(2),
		{OpCode: OpLdElem},
		{OpCode: OpRet},
	}
	interp, _ := newProgram("Main", "int32", []string{"a"}, instrs, nil)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if n, _ := res.Value.ToInt64(); n != 7 {
		t.Fatalf("a[2] = %v, want 7", res.Value)
	}

	outOfRange := []Instruction{
		{OpCode: OpNewArr, Operand: TypeOperand{Type: "int32"}},
		ldcI32(9),
		{OpCode: OpLdElem},
		{OpCode: OpRet},
	}
	interp2, _ := newProgram("Main", "object", nil, outOfRange, nil)
	res2 := interp2.RunMain(nil)
	if res2.Err != nil {
		t.Fatalf("unexpected error: %v", res2.Err)
	}
	if !res2.Value.IsNull() {
		t.Fatalf("out-of-range read = %v, want null", res2.Value)
	}
}

func TestCastClassAndIsInst(t *testing.T) {
	classes := NewClassTable()
	animal := NewClass("Animal", nil)
	classes.Register(animal)
	dog := NewClass("Dog", animal)
	classes.Register(dog)

	program := NewClass("Program", nil)
	classes.Register(program)
	program.Methods.Add(&MethodDecl{
		Name: "Main", DeclaringClass: program, IsStatic: true, ReturnType: "bool",
		Instructions: []Instruction{
			{OpCode: OpNewObj, Operand: TypeOperand{Type: "Dog"}},
			{OpCode: OpCastClass, Operand: TypeOperand{Type: "Animal"}}, // upcast passes
			{OpCode: OpIsInst, Operand: TypeOperand{Type: "Animal"}},
			{OpCode: OpRet},
		},
	})

	interp := NewInterpreter(classes, nil, Config{})
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Value.AsBool() {
		t.Fatalf("isinst(Dog, Animal) = %v, want true", res.Value)
	}

	program2 := NewClass("Program", nil)
	classes2 := NewClassTable()
	classes2.Register(NewClass("Animal", nil))
	classes2.Register(program2)
	program2.Methods.Add(&MethodDecl{
		Name: "Main", DeclaringClass: program2, IsStatic: true, ReturnType: "void",
		Instructions: []Instruction{
			{OpCode: OpNewObj, Operand: TypeOperand{Type: "Program"}},
			{OpCode: OpCastClass, Operand: TypeOperand{Type: "Animal"}},
			{OpCode: OpRet},
		},
	})
	interp2 := NewInterpreter(classes2, nil, Config{})
	res2 := interp2.RunMain(nil)
	if res2.Err == nil || res2.Err.Kind != TypeMismatch {
		t.Fatalf("got %v, want TypeMismatch for a failing castclass", res2.Err)
	}
}

func TestCastClassNullPassesThrough(t *testing.T) {
	instrs := []Instruction{
		{OpCode: OpLdNull},
		{OpCode: OpCastClass, Operand: TypeOperand{Type: "Whatever"}},
		{OpCode: OpRet},
	}
	interp, _ := newProgram("Main", "object", nil, instrs, nil)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Value.IsNull() {
		t.Fatalf("castclass(null) = %v, want null", res.Value)
	}
}

func TestThrowCaughtByTypeName(t *testing.T) {
	classes := NewClassTable()
	boom := NewClass("BoomError", nil)
	classes.Register(boom)

	program := NewClass("Program", nil)
	classes.Register(program)
	program.Methods.Add(&MethodDecl{
		Name: "Main", DeclaringClass: program, IsStatic: true, ReturnType: "string",
		Instructions: []Instruction{
			{OpCode: OpTry, Operand: TryOperand{
				Try: []Instruction{
					{OpCode: OpNewObj, Operand: TypeOperand{Type: "BoomError"}},
					{OpCode: OpThrow},
				},
				Catches: []CatchClause{
					{ExceptionType: "OtherError", Block: []Instruction{
						{OpCode: OpPop},
						{OpCode: OpLdStr, Operand: ConstOperand{Value: "wrong"}},
						{OpCode: OpRet},
					}},
					{ExceptionType: "BoomError", Block: []Instruction{
						{OpCode: OpPop},
						{OpCode: OpLdStr, Operand: ConstOperand{Value: "boom"}},
						{OpCode: OpRet},
					}},
				},
			}},
			{OpCode: OpLdStr, Operand: ConstOperand{Value: "unreached"}},
			{OpCode: OpRet},
		},
	})

	interp := NewInterpreter(classes, nil, Config{})
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Value.AsString() != "boom" {
		t.Fatalf("caught via %q, want the BoomError clause", res.Value.AsString())
	}
}

func TestUncaughtThrowUnwindsThroughCallers(t *testing.T) {
	classes := NewClassTable()
	program := NewClass("Program", nil)
	classes.Register(program)

	program.Methods.Add(&MethodDecl{
		Name: "Inner", DeclaringClass: program, IsStatic: true, ReturnType: "void",
		Instructions: []Instruction{
			{OpCode: OpLdStr, Operand: ConstOperand{Value: "kaput"}},
			{OpCode: OpThrow},
		},
	})
	program.Methods.Add(&MethodDecl{
		Name: "Main", DeclaringClass: program, IsStatic: true, ReturnType: "void",
		Instructions: []Instruction{
			{OpCode: OpCall, Operand: CallOperand{Target: CallTarget{DeclaringType: "Program", Name: "Inner", ReturnType: "void"}}},
			{OpCode: OpRet},
		},
	})

	interp := NewInterpreter(classes, nil, Config{})
	res := interp.RunMain(nil)
	if res.Err == nil {
		t.Fatal("expected the uncaught throw to surface")
	}
}

func TestRecursionLimit(t *testing.T) {
	classes := NewClassTable()
	program := NewClass("Program", nil)
	classes.Register(program)

	recurse := Instruction{OpCode: OpCall, Operand: CallOperand{
		Target: CallTarget{DeclaringType: "Program", Name: "Spin", ReturnType: "void"},
	}}
	program.Methods.Add(&MethodDecl{
		Name: "Spin", DeclaringClass: program, IsStatic: true, ReturnType: "void",
		Instructions: []Instruction{recurse, {OpCode: OpRet}},
	})
	program.Methods.Add(&MethodDecl{
		Name: "Main", DeclaringClass: program, IsStatic: true, ReturnType: "void",
		Instructions: []Instruction{recurse, {OpCode: OpRet}},
	})

	interp := NewInterpreter(classes, nil, Config{MaxCallDepth: 16})
	res := interp.RunMain(nil)
	if res.Err == nil || res.Err.Kind != RecursionLimit {
		t.Fatalf("got %v, want RecursionLimit", res.Err)
	}
}

func TestBreakOutsideLoopRaises(t *testing.T) {
	instrs := []Instruction{
		{OpCode: OpBreak},
		{OpCode: OpRet},
	}
	interp, _ := newProgram("Main", "void", nil, instrs, nil)
	res := interp.RunMain(nil)
	if res.Err == nil {
		t.Fatal("expected break outside a loop to raise")
	}
}

func TestContinueSkipsRestOfBody(t *testing.T) {
	// i = 0; total = 0; while i < 5 { i = i + 1; if i == 3 continue; total = total + i }
	instrs := []Instruction{
		ldcI32(0),
		{OpCode: OpStLoc, Operand: LocalOperand{Name: "i"}},
		ldcI32(0),
		{OpCode: OpStLoc, Operand: LocalOperand{Name: "total"}},
		{OpCode: OpWhile, Operand: WhileOperand{
			Condition: Condition{
				Kind:  CondBinary,
				Op:    OpClt,
				Left:  []Instruction{{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}}},
				Right: []Instruction{ldcI32(5)},
			},
			Body: []Instruction{
				{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}},
				ldcI32(1),
				{OpCode: OpAdd},
				{OpCode: OpStLoc, Operand: LocalOperand{Name: "i"}},
				{OpCode: OpIf, Operand: IfOperand{
					Condition: Condition{
						Kind:  CondBinary,
						Op:    OpCeq,
						Left:  []Instruction{{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}}},
						Right: []Instruction{ldcI32(3)},
					},
					Then: []Instruction{{OpCode: OpContinue}},
				}},
				{OpCode: OpLdLoc, Operand: LocalOperand{Name: "total"}},
				{OpCode: OpLdLoc, Operand: LocalOperand{Name: "i"}},
				{OpCode: OpAdd},
				{OpCode: OpStLoc, Operand: LocalOperand{Name: "total"}},
			},
		}},
		{OpCode: OpLdLoc, Operand: LocalOperand{Name: "total"}},
		{OpCode: OpRet},
	}
	interp, _ := newProgram("Main", "int64", []string{"i", "total"}, instrs, nil)
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	// 1+2+4+5, skipping 3
	if n, _ := res.Value.ToInt64(); n != 12 {
		t.Fatalf("total = %v, want 12", res.Value)
	}
}

func TestLdArgAndStArg(t *testing.T) {
	classes := NewClassTable()
	program := NewClass("Program", nil)
	classes.Register(program)

	program.Methods.Add(&MethodDecl{
		Name: "Twice", DeclaringClass: program, IsStatic: true, ReturnType: "int64",
		ParamTypes: []string{"int32"}, ParamNames: []string{"n"},
		Instructions: []Instruction{
			{OpCode: OpLdArg, Operand: LocalOperand{Name: "n"}},
			{OpCode: OpLdArg, Operand: LocalOperand{Index: 0, Positional: true}},
			{OpCode: OpAdd},
			{OpCode: OpStArg, Operand: LocalOperand{Name: "n"}},
			{OpCode: OpLdArg, Operand: LocalOperand{Name: "n"}},
			{OpCode: OpRet},
		},
	})
	program.Methods.Add(&MethodDecl{
		Name: "Main", DeclaringClass: program, IsStatic: true, ReturnType: "int64",
		Instructions: []Instruction{
			ldcI32(21),
			{OpCode: OpCall, Operand: CallOperand{Target: CallTarget{
				DeclaringType: "Program", Name: "Twice", ReturnType: "int64", ParameterTypes: []string{"int32"},
			}}},
			{OpCode: OpRet},
		},
	})

	interp := NewInterpreter(classes, nil, Config{})
	res := interp.RunMain(nil)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if n, _ := res.Value.ToInt64(); n != 42 {
		t.Fatalf("Twice(21) = %v, want 42", res.Value)
	}
}

func TestMainReceivesCommandLineArguments(t *testing.T) {
	classes := NewClassTable()
	program := NewClass("Program", nil)
	classes.Register(program)
	program.Methods.Add(&MethodDecl{
		Name: "Main", DeclaringClass: program, IsStatic: true, ReturnType: "string",
		ParamTypes: []string{"string[]"}, ParamNames: []string{"args"},
		Instructions: []Instruction{
			{OpCode: OpLdArg, Operand: LocalOperand{Name: "args"}},
			ldcI32(1),
			{OpCode: OpLdElem},
			{OpCode: OpRet},
		},
	})

	interp := NewInterpreter(classes, nil, Config{})
	res := interp.RunMain([]string{"first", "second"})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Value.AsString() != "second" {
		t.Fatalf("args[1] = %q, want %q", res.Value.AsString(), "second")
	}
}
