package vm

import (
	"errors"
	"strings"
)

// Config tunes the ambient limits and coercion constant an Interpreter
// uses. A zero-value Config behaves exactly as spec.md describes with no
// configuration surface: DefaultConfig supplies the fallback values used
// whenever a zero Config is passed to NewInterpreter.
type Config struct {
	MaxCallDepth int
	MaxEvalStack int
	Epsilon      float64
}

// DefaultConfig mirrors internal/config's TOML defaults.
var DefaultConfig = Config{MaxCallDepth: 2048, MaxEvalStack: 4096, Epsilon: DefaultEpsilon}

func (c Config) orDefault() Config {
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = DefaultConfig.MaxCallDepth
	}
	if c.MaxEvalStack == 0 {
		c.MaxEvalStack = DefaultConfig.MaxEvalStack
	}
	if c.Epsilon == 0 {
		c.Epsilon = DefaultConfig.Epsilon
	}
	return c
}

// EventKind tags one kind of execution-trace event (SPEC_FULL.md §4.7).
type EventKind string

const (
	EventFramePush   EventKind = "frame.push"
	EventFramePop    EventKind = "frame.pop"
	EventStaticWrite EventKind = "static.write"
)

// Event is one observation emitted to an optional TraceSink.
type Event struct {
	Kind   EventKind
	Method string
	Class  string
	Field  string
	Value  Value
	Depth  int
}

// TraceSink is the pluggable observer hook SPEC_FULL.md §4.7 describes,
// generalizing spec.md §7's "observable through a pluggable on_exception
// hook" requirement to cover normal execution too. internal/trace
// provides a concrete cbor+duckdb-backed implementation; nil is the
// zero-cost default.
type TraceSink interface {
	Emit(Event)
}

// Interpreter owns everything spec.md §3 scopes to "one interpreter
// instance": the class registry, the static-field store, the host
// bridge, and the active call stack.
type Interpreter struct {
	Classes *ClassTable
	Statics *StaticFieldStore
	Host    HostRegistry
	Config  Config

	Trace       TraceSink
	OnException func(*InterpreterError)

	stack           CallStack
	resolutionCache *ResolutionCache
}

// NewInterpreter creates an interpreter over classes, bridging native
// calls through host (may be nil if the module calls no host methods).
func NewInterpreter(classes *ClassTable, host HostRegistry, cfg Config) *Interpreter {
	return &Interpreter{
		Classes:         classes,
		Statics:         NewStaticFieldStore(),
		Host:            host,
		Config:          cfg.orDefault(),
		resolutionCache: NewResolutionCache(),
	}
}

// RunResult is the Go-level shape of spec.md §6's "Exit semantics":
// exactly one of Err or Value is meaningful.
type RunResult struct {
	Value Value
	Err   *InterpreterError
}

// sentinel control-flow signals: not exceptions, never caught by try.
var (
	errBreak    = errors.New("break outside loop")
	errContinue = errors.New("continue outside loop")
)

// RaisedError is a raised-and-unwinding error as it crosses frame and
// try/catch boundaries (spec.md §4.3 step 8, §7). Both a `throw`'d
// program value and an internal *InterpreterError normalize to this
// shape so a single catch-matching routine handles both uniformly.
type RaisedError struct {
	Value    Value
	TypeName string // empty means "no declared type"; only a catch-any clause matches it
	Cause    *InterpreterError
}

func (r *RaisedError) Error() string {
	if r.Cause != nil {
		return r.Cause.Error()
	}
	return "raised: " + r.Value.ToStringValue()
}

func (r *RaisedError) Unwrap() error {
	if r.Cause != nil {
		return r.Cause
	}
	return nil
}

// raise normalizes any error surfacing from instruction execution into a
// *RaisedError, wrapping a plain *InterpreterError (or any other Go
// error, e.g. from a host function) with ErrorKind Host if it isn't one
// already tagged.
func raise(err error) *RaisedError {
	if err == nil {
		return nil
	}
	if r, ok := err.(*RaisedError); ok {
		return r
	}
	var ie *InterpreterError
	if errors.As(err, &ie) {
		return &RaisedError{Value: Str(ie.Message), TypeName: string(ie.Kind), Cause: ie}
	}
	wrapped := Wrap(Host, err.Error(), err)
	return &RaisedError{Value: Str(err.Error()), TypeName: string(Host), Cause: wrapped}
}

// RunMain locates Program.Main per spec.md §6's entry-point convention
// and invokes it, passing cliArgs as a string[] when Main declares one
// parameter, or no arguments when it declares zero.
func (interp *Interpreter) RunMain(cliArgs []string) RunResult {
	class := interp.findEntryClass()
	if class == nil {
		return interp.fail(Errorf(NotFound, "no Program class found"))
	}
	candidates := CandidatesFor(class, "Main")
	var entry *MethodDecl
	for _, c := range candidates {
		if c.IsStatic {
			entry = c
			break
		}
	}
	if entry == nil {
		return interp.fail(Errorf(NotFound, "no static Program.Main method"))
	}

	var args []Value
	if entry.Arity() == 1 {
		arr := NewArray("string", len(cliArgs))
		for i, a := range cliArgs {
			arr.Set(i, Str(a))
		}
		args = []Value{ArrRef(arr)}
	}

	v, err := interp.invoke(entry, nil, args)
	if err != nil {
		return interp.fail(err)
	}
	return RunResult{Value: v}
}

func (interp *Interpreter) fail(err error) RunResult {
	ie := toInterpreterError(err)
	if interp.OnException != nil {
		interp.OnException(ie)
	}
	return RunResult{Err: ie}
}

func toInterpreterError(err error) *InterpreterError {
	var ie *InterpreterError
	if errors.As(err, &ie) {
		return ie
	}
	return Wrap(Host, "unhandled error", err)
}

func (interp *Interpreter) findEntryClass() *Class {
	if c := interp.Classes.Lookup("Program"); c != nil {
		return c
	}
	for _, c := range interp.Classes.All() {
		if c.Name == "Program" {
			return c
		}
	}
	return nil
}

// Invoke resolves and runs a method by CallTarget, the same path `call`/
// `callvirt` use, exposed for host functions that need to re-enter
// interpreted code (e.g. a collection's comparator callback).
func (interp *Interpreter) Invoke(target CallTarget, this Value, args []Value) (Value, error) {
	if interp.Host != nil {
		if fn, ok := interp.Host.Lookup(target.HostKey()); ok {
			return fn(interp, this, args)
		}
	}
	m, err := ResolveOverload(interp, target)
	if err != nil {
		return Null, err
	}
	var obj *Object
	if target.IsVirtual {
		if this.IsNull() {
			return Null, Errorf(NotFound, "callvirt on null instance")
		}
		obj = this.AsObject()
	}
	return interp.invoke(m, obj, args)
}

// invoke runs m directly (already resolved), pushing/popping a CallFrame.
func (interp *Interpreter) invoke(m *MethodDecl, this *Object, args []Value) (Value, error) {
	if interp.stack.Depth()+1 > interp.Config.MaxCallDepth {
		return Null, Errorf(RecursionLimit, "call depth exceeded %d", interp.Config.MaxCallDepth)
	}

	frame := NewCallFrame(m, this, args)
	interp.stack.Push(frame)
	interp.emit(Event{Kind: EventFramePush, Method: m.Signature(), Class: declClassName(m), Depth: interp.stack.Depth()})

	ret, _, err := interp.runInstructions(frame, m.Instructions, m.Labels)

	interp.stack.Pop()
	interp.emit(Event{Kind: EventFramePop, Method: m.Signature(), Class: declClassName(m), Depth: interp.stack.Depth()})

	if err != nil {
		if err == errBreak || err == errContinue {
			return Null, Errorf(TypeMismatch, "break/continue outside loop in %s", m.Signature())
		}
		r := raise(err)
		if r.Cause != nil {
			r.Cause.Frames = append(r.Cause.Frames, FrameInfo{Method: m.Signature(), Class: declClassName(m)})
		}
		return Null, r
	}
	if isVoidReturn(m.ReturnType) {
		return Null, nil
	}
	return ret, nil
}

func declClassName(m *MethodDecl) string {
	if m.DeclaringClass == nil {
		return ""
	}
	return m.DeclaringClass.FullName()
}

func (interp *Interpreter) emit(e Event) {
	if interp.Trace != nil {
		interp.Trace.Emit(e)
	}
}

func isVoidReturn(t string) bool {
	return t == "" || NormalizeTypeName(t) == "void"
}

// ---------------------------------------------------------------------------
// Dispatch loop
// ---------------------------------------------------------------------------

// runInstructions walks instrs sequentially against frame's shared state,
// implementing spec.md §4.3's algorithm. labels resolves textual branch
// targets and is non-nil only for the top-level call into a method body;
// nested if/while/try blocks are executed with labels=nil, so label
// branches are only meaningful at method-body scope (direct-index
// branches work at any nesting level).
func (interp *Interpreter) runInstructions(frame *CallFrame, instrs []Instruction, labels LabelMap) (Value, bool, error) {
	ip := 0
	for ip < len(instrs) {
		if frame.StackLen() > interp.Config.MaxEvalStack {
			return Null, false, Errorf(StackOverflow, "evaluation stack exceeded %d values", interp.Config.MaxEvalStack)
		}
		ins := instrs[ip]
		ip++

		switch ins.OpCode {
		case OpRet:
			if frame.StackLen() > 0 {
				v, _ := frame.Pop()
				if !isVoidReturn(frame.Method.ReturnType) {
					return v, true, nil
				}
			}
			return Null, true, nil

		case OpBr, OpBrTrue, OpBrFalse, OpBeq, OpBne, OpBgt, OpBge, OpBlt, OpBle:
			target, err := interp.branchTarget(frame, ins, labels, len(instrs))
			if err != nil {
				return Null, false, err
			}
			if target >= 0 {
				ip = target
			}
			continue

		case OpIf:
			op, ok := ins.Operand.(IfOperand)
			if !ok {
				return Null, false, Errorf(MalformedOperand, "if without IfOperand")
			}
			cond, err := interp.evalCondition(frame, op.Condition)
			if err != nil {
				return Null, false, err
			}
			var block []Instruction
			if cond {
				block = op.Then
			} else if op.HasElse {
				block = op.Else
			}
			if block != nil {
				v, didReturn, err := interp.runInstructions(frame, block, nil)
				if err != nil || didReturn {
					return v, didReturn, err
				}
			}

		case OpWhile:
			op, ok := ins.Operand.(WhileOperand)
			if !ok {
				return Null, false, Errorf(MalformedOperand, "while without WhileOperand")
			}
			v, didReturn, err := interp.runLoop(frame, op)
			if err != nil || didReturn {
				return v, didReturn, err
			}

		case OpBreak:
			return Null, false, errBreak

		case OpContinue:
			return Null, false, errContinue

		case OpTry:
			op, ok := ins.Operand.(TryOperand)
			if !ok {
				return Null, false, Errorf(MalformedOperand, "try without TryOperand")
			}
			v, didReturn, err := interp.runTry(frame, op)
			if err != nil || didReturn {
				return v, didReturn, err
			}

		case OpThrow:
			v, err := frame.Pop()
			if err != nil {
				return Null, false, err
			}
			return Null, false, &RaisedError{Value: v, TypeName: exceptionTypeName(v)}

		default:
			if err := interp.execOne(frame, ins); err != nil {
				return Null, false, err
			}
		}
	}
	return Null, false, nil
}

func exceptionTypeName(v Value) string {
	if v.Kind() == KindObject && v.AsObject() != nil {
		return v.AsObject().ClassName()
	}
	return ""
}

// runLoop implements the while state machine of spec.md §4.6: Entering ->
// Checking -> Body -> Continuing -> Checking, with break forcing ->
// Exiting and continue forcing Body -> Checking.
func (interp *Interpreter) runLoop(frame *CallFrame, op WhileOperand) (Value, bool, error) {
	for {
		cond, err := interp.evalCondition(frame, op.Condition)
		if err != nil {
			return Null, false, err
		}
		if !cond {
			return Null, false, nil
		}
		v, didReturn, err := interp.runInstructions(frame, op.Body, nil)
		if didReturn {
			return v, true, nil
		}
		if err != nil {
			if err == errBreak {
				return Null, false, nil
			}
			if err == errContinue {
				continue
			}
			return Null, false, err
		}
	}
}

// runTry implements spec.md §4.3 step 8.
func (interp *Interpreter) runTry(frame *CallFrame, op TryOperand) (Value, bool, error) {
	v, didReturn, err := interp.runInstructions(frame, op.Try, nil)

	if err != nil && err != errBreak && err != errContinue {
		if r := raise(err); r != nil {
			if clause, matched := matchCatch(op.Catches, r); matched {
				frame.Push(r.Value)
				v, didReturn, err = interp.runInstructions(frame, clause.Block, nil)
			}
		}
	}

	if op.HasFinal {
		fv, finDidReturn, finErr := interp.runInstructions(frame, op.Finally, nil)
		if finErr != nil {
			return Null, false, finErr
		}
		if finDidReturn {
			return fv, true, nil
		}
	}
	return v, didReturn, err
}

func matchCatch(catches []CatchClause, r *RaisedError) (CatchClause, bool) {
	for _, c := range catches {
		if c.ExceptionType == "" {
			return c, true
		}
		if c.ExceptionType == r.TypeName || strings.EqualFold(c.ExceptionType, r.TypeName) {
			return c, true
		}
	}
	return CatchClause{}, false
}

// branchTarget resolves a br* operand to an instruction index, per spec
// §4.3 step 4. Returns -1 for conditional branches whose condition did
// not hold (meaning: fall through, do not jump).
func (interp *Interpreter) branchTarget(frame *CallFrame, ins Instruction, labels LabelMap, length int) (int, error) {
	op, ok := ins.Operand.(BranchOperand)
	if !ok {
		return -1, Errorf(MalformedOperand, "%s without BranchOperand", ins.OpCode.Name())
	}

	take := true
	switch ins.OpCode {
	case OpBr:
		take = true
	case OpBrTrue, OpBrFalse:
		v, err := frame.Pop()
		if err != nil {
			return -1, err
		}
		b := v.ToBool(interp.Config.Epsilon)
		if ins.OpCode == OpBrFalse {
			b = !b
		}
		take = b
	case OpBeq, OpBne, OpBgt, OpBge, OpBlt, OpBle:
		right, err := frame.Pop()
		if err != nil {
			return -1, err
		}
		left, err := frame.Pop()
		if err != nil {
			return -1, err
		}
		cmpOp := map[Opcode]Opcode{OpBeq: OpCeq, OpBne: OpCne, OpBgt: OpCgt, OpBge: OpCge, OpBlt: OpClt, OpBle: OpCle}[ins.OpCode]
		res, err := compareValues(cmpOp, left, right)
		if err != nil {
			return -1, err
		}
		take = res
	}
	if !take {
		return -1, nil
	}

	var idx int
	if op.ByLabel {
		if labels == nil {
			return -1, Errorf(BranchOutOfRange, "label %q not resolvable at this scope", op.Label)
		}
		i, ok := labels[op.Label]
		if !ok {
			return -1, Errorf(BranchOutOfRange, "unknown label %q", op.Label)
		}
		idx = i
	} else {
		idx = op.Index
	}
	if idx < 0 || idx > length {
		return -1, Errorf(BranchOutOfRange, "branch target %d out of range [0,%d]", idx, length)
	}
	return idx, nil
}

// evalCondition accepts the four Condition shapes spec.md §4.3/§9 require.
func (interp *Interpreter) evalCondition(frame *CallFrame, cond Condition) (bool, error) {
	switch cond.Kind {
	case CondEmpty:
		v, err := frame.Pop()
		if err != nil {
			return false, err
		}
		return v.ToBool(interp.Config.Epsilon), nil

	case CondBinary:
		if _, _, err := interp.runInstructions(frame, cond.Left, nil); err != nil {
			return false, err
		}
		if _, _, err := interp.runInstructions(frame, cond.Right, nil); err != nil {
			return false, err
		}
		right, err := frame.Pop()
		if err != nil {
			return false, err
		}
		left, err := frame.Pop()
		if err != nil {
			return false, err
		}
		return compareValues(cond.Op, left, right)

	case CondExpr, CondBlock:
		if _, _, err := interp.runInstructions(frame, cond.Expr, nil); err != nil {
			return false, err
		}
		v, err := frame.Pop()
		if err != nil {
			return false, err
		}
		return v.ToBool(interp.Config.Epsilon), nil
	}
	return false, Errorf(MalformedOperand, "unknown condition kind")
}

// ---------------------------------------------------------------------------
// Single-opcode execution (everything that isn't structured control flow)
// ---------------------------------------------------------------------------

func (interp *Interpreter) execOne(frame *CallFrame, ins Instruction) error {
	switch ins.OpCode {
	case OpNop:
		return nil
	case OpDup:
		v, err := frame.Peek()
		if err != nil {
			return err
		}
		frame.Push(v)
		return nil
	case OpPop:
		_, err := frame.Pop()
		return err
	case OpLdNull:
		frame.Push(Null)
		return nil
	case OpLdTrue:
		frame.Push(True)
		return nil
	case OpLdFalse:
		frame.Push(False)
		return nil
	case OpLdStr:
		op, ok := ins.Operand.(ConstOperand)
		if !ok {
			return Errorf(MalformedOperand, "ldstr without ConstOperand")
		}
		s, _ := op.Value.(string)
		frame.Push(Str(s))
		return nil
	case OpLdc:
		return execLdc(frame, ins)
	case OpLdI4, OpLdI8, OpLdR4, OpLdR8:
		return execTypedConst(frame, ins)

	case OpLdLoc:
		op, ok := ins.Operand.(LocalOperand)
		if !ok {
			return Errorf(MalformedOperand, "ldloc without LocalOperand")
		}
		v, err := frame.GetLocal(op.Name)
		if err != nil {
			return err
		}
		frame.Push(v)
		return nil
	case OpStLoc:
		op, ok := ins.Operand.(LocalOperand)
		if !ok {
			return Errorf(MalformedOperand, "stloc without LocalOperand")
		}
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		return frame.SetLocal(op.Name, v)

	case OpLdArg:
		op, ok := ins.Operand.(LocalOperand)
		if !ok {
			return Errorf(MalformedOperand, "ldarg without LocalOperand")
		}
		var v Value
		var err error
		if op.Positional {
			v, err = frame.GetArgByIndex(op.Index)
		} else {
			v, err = frame.GetArg(op.Name)
		}
		if err != nil {
			return err
		}
		frame.Push(v)
		return nil
	case OpStArg:
		op, ok := ins.Operand.(LocalOperand)
		if !ok {
			return Errorf(MalformedOperand, "starg without LocalOperand")
		}
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		return frame.SetArg(op.Name, v)

	case OpLdFld:
		op, ok := ins.Operand.(FieldOperand)
		if !ok {
			return Errorf(MalformedOperand, "ldfld without FieldOperand")
		}
		obj, err := fieldReceiver(frame)
		if err != nil {
			return err
		}
		v, err := obj.GetField(op.Field)
		if err != nil {
			return err
		}
		frame.Push(v)
		return nil
	case OpStFld:
		op, ok := ins.Operand.(FieldOperand)
		if !ok {
			return Errorf(MalformedOperand, "stfld without FieldOperand")
		}
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		obj, err := fieldReceiver(frame)
		if err != nil {
			return err
		}
		return obj.SetField(op.Field, v)

	case OpLdSFld:
		op, ok := ins.Operand.(StaticFieldOperand)
		if !ok {
			return Errorf(MalformedOperand, "ldsfld without StaticFieldOperand")
		}
		decl := NormalizeTypeName(op.DeclaringType)
		if c := interp.Classes.Lookup(decl); c != nil {
			decl = c.FullName()
		}
		frame.Push(interp.Statics.Get(decl, op.Name))
		return nil
	case OpStSFld:
		op, ok := ins.Operand.(StaticFieldOperand)
		if !ok {
			return Errorf(MalformedOperand, "stsfld without StaticFieldOperand")
		}
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		decl := NormalizeTypeName(op.DeclaringType)
		if c := interp.Classes.Lookup(decl); c != nil {
			decl = c.FullName()
		}
		interp.Statics.Set(decl, op.Name, v)
		interp.emit(Event{Kind: EventStaticWrite, Class: decl, Field: op.Name, Value: v})
		return nil

	case OpAdd, OpSub, OpMul, OpDiv, OpRem:
		right, err := frame.Pop()
		if err != nil {
			return err
		}
		left, err := frame.Pop()
		if err != nil {
			return err
		}
		v, err := arithmetic(ins.OpCode, left, right)
		if err != nil {
			return err
		}
		frame.Push(v)
		return nil
	case OpNeg:
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		r, err := negate(v)
		if err != nil {
			return err
		}
		frame.Push(r)
		return nil
	case OpNot:
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		frame.Push(Bool(!v.ToBool(interp.Config.Epsilon)))
		return nil

	case OpCeq, OpCne, OpClt, OpCle, OpCgt, OpCge:
		right, err := frame.Pop()
		if err != nil {
			return err
		}
		left, err := frame.Pop()
		if err != nil {
			return err
		}
		res, err := compareValues(ins.OpCode, left, right)
		if err != nil {
			return err
		}
		frame.Push(Bool(res))
		return nil

	case OpNewObj:
		op, ok := ins.Operand.(TypeOperand)
		if !ok {
			return Errorf(MalformedOperand, "newobj without TypeOperand")
		}
		class := interp.Classes.Lookup(op.Type)
		if class == nil {
			return Errorf(NotFound, "no class %q", op.Type)
		}
		if class.Kind != "" && class.Kind != KindClass {
			return Errorf(TypeMismatch, "cannot instantiate %s %q", class.Kind, class.FullName())
		}
		frame.Push(ObjRef(class.NewInstance()))
		return nil
	case OpNewArr:
		op, ok := ins.Operand.(TypeOperand)
		if !ok {
			return Errorf(MalformedOperand, "newarr without TypeOperand")
		}
		frame.Push(ArrRef(NewArray(NormalizeTypeName(op.Type), 0)))
		return nil
	case OpLdElem:
		idx, err := frame.Pop()
		if err != nil {
			return err
		}
		arrv, err := frame.Pop()
		if err != nil {
			return err
		}
		i, err := idx.ToInt64()
		if err != nil {
			return err
		}
		if arr := arrv.AsArray(); arr != nil {
			frame.Push(arr.Get(int(i)))
			return nil
		}
		if acc := elementAccessor(arrv); acc != nil {
			v, err := acc.GetElement(int(i))
			if err != nil {
				return err
			}
			frame.Push(v)
			return nil
		}
		return Errorf(TypeMismatch, "ldelem on non-array")
	case OpStElem:
		val, err := frame.Pop()
		if err != nil {
			return err
		}
		idx, err := frame.Pop()
		if err != nil {
			return err
		}
		arrv, err := frame.Pop()
		if err != nil {
			return err
		}
		i, err := idx.ToInt64()
		if err != nil {
			return err
		}
		if arr := arrv.AsArray(); arr != nil {
			return arr.Set(int(i), val)
		}
		if acc := elementAccessor(arrv); acc != nil {
			return acc.SetElement(int(i), val)
		}
		return Errorf(TypeMismatch, "stelem on non-array")

	case OpCastClass:
		op, ok := ins.Operand.(TypeOperand)
		if !ok {
			return Errorf(MalformedOperand, "castclass without TypeOperand")
		}
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		if v.IsNull() {
			frame.Push(Null)
			return nil
		}
		if v.Kind() != KindObject || !instanceMatches(v.AsObject(), op.Type) {
			return Errorf(TypeMismatch, "cannot cast %s to %s", v.Kind(), op.Type)
		}
		frame.Push(v)
		return nil
	case OpIsInst:
		op, ok := ins.Operand.(TypeOperand)
		if !ok {
			return Errorf(MalformedOperand, "isinst without TypeOperand")
		}
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		frame.Push(Bool(!v.IsNull() && v.Kind() == KindObject && instanceMatches(v.AsObject(), op.Type)))
		return nil

	case OpCall, OpCallVirt:
		op, ok := ins.Operand.(CallOperand)
		if !ok {
			return Errorf(MalformedOperand, "%s without CallOperand", ins.OpCode.Name())
		}
		return interp.execCall(frame, ins.OpCode == OpCallVirt, op.Target)
	}
	return Errorf(UnknownOpcode, "unrecognized opcode %v", ins.OpCode)
}

// elementAccessor returns the receiver's host data as an ElementAccessor
// when it is an object whose native structure supports indexing (a List).
func elementAccessor(v Value) ElementAccessor {
	if v.Kind() != KindObject || v.AsObject() == nil {
		return nil
	}
	acc, _ := v.AsObject().HostData().(ElementAccessor)
	return acc
}

func fieldReceiver(frame *CallFrame) (*Object, error) {
	if v, err := frame.Peek(); err == nil && v.Kind() == KindObject {
		frame.Pop()
		return v.AsObject(), nil
	}
	if frame.This != nil {
		return frame.This, nil
	}
	return nil, Errorf(NotFound, "no object receiver for field access")
}

func instanceMatches(o *Object, typeName string) bool {
	if o == nil || o.Class() == nil {
		return false
	}
	target := NormalizeTypeName(typeName)
	for cur := o.Class(); cur != nil; cur = cur.Superclass {
		if cur.Name == target || cur.FullName() == target {
			return true
		}
	}
	return false
}

func execLdc(frame *CallFrame, ins Instruction) error {
	op, ok := ins.Operand.(ConstOperand)
	if !ok {
		return Errorf(MalformedOperand, "ldc without ConstOperand")
	}
	switch NormalizeTypeName(op.Type) {
	case "int32", "int16", "uint16", "int8", "uint8", "uint32":
		n, ok := toInt64(op.Value)
		if !ok {
			return Errorf(MalformedOperand, "ldc int32 with non-numeric value")
		}
		frame.Push(Int32(int32(n)))
	case "int64", "uint64":
		n, ok := toInt64(op.Value)
		if !ok {
			return Errorf(MalformedOperand, "ldc int64 with non-numeric value")
		}
		frame.Push(Int64(n))
	case "float32":
		f, ok := toFloat64(op.Value)
		if !ok {
			return Errorf(MalformedOperand, "ldc float32 with non-numeric value")
		}
		frame.Push(Float32(float32(f)))
	case "float64":
		f, ok := toFloat64(op.Value)
		if !ok {
			return Errorf(MalformedOperand, "ldc float64 with non-numeric value")
		}
		frame.Push(Float64(f))
	case "bool":
		b, _ := op.Value.(bool)
		frame.Push(Bool(b))
	case "string":
		s, _ := op.Value.(string)
		frame.Push(Str(s))
	default:
		return Errorf(MalformedOperand, "ldc with unsupported type %q", op.Type)
	}
	return nil
}

// execTypedConst handles ldi4/ldi8/ldr4/ldr8, the typed constant loads
// whose target kind is implied by the opcode rather than an operand
// field.
func execTypedConst(frame *CallFrame, ins Instruction) error {
	op, ok := ins.Operand.(ConstOperand)
	if !ok {
		return Errorf(MalformedOperand, "%s without ConstOperand", ins.OpCode.Name())
	}
	switch ins.OpCode {
	case OpLdI4:
		n, ok := toInt64(op.Value)
		if !ok {
			return Errorf(MalformedOperand, "ldi4 with non-numeric value")
		}
		frame.Push(Int32(int32(n)))
	case OpLdI8:
		n, ok := toInt64(op.Value)
		if !ok {
			return Errorf(MalformedOperand, "ldi8 with non-numeric value")
		}
		frame.Push(Int64(n))
	case OpLdR4:
		f, ok := toFloat64(op.Value)
		if !ok {
			return Errorf(MalformedOperand, "ldr4 with non-numeric value")
		}
		frame.Push(Float32(float32(f)))
	case OpLdR8:
		f, ok := toFloat64(op.Value)
		if !ok {
			return Errorf(MalformedOperand, "ldr8 with non-numeric value")
		}
		frame.Push(Float64(f))
	}
	return nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
