package vm

import "fmt"

// Opcode identifies the operation one Instruction performs. ObjectIR's
// instructions arrive pre-parsed as a structured value (spec §6), so
// unlike the teacher's packed-byte Opcode (bytecode.go), the numeric value
// here is never serialized to a wire format — it only needs to be a
// stable, switchable tag for the dispatch loop and for error messages.
type Opcode byte

const (
	// Stack / constants
	OpNop Opcode = iota
	OpDup
	OpPop
	OpLdNull
	OpLdStr
	OpLdc
	OpLdTrue
	OpLdFalse
	OpLdI4
	OpLdI8
	OpLdR4
	OpLdR8

	// Locals / args / fields
	OpLdLoc
	OpStLoc
	OpLdArg
	OpStArg
	OpLdFld
	OpStFld
	OpLdSFld
	OpStSFld

	// Arithmetic / logic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpNot

	// Comparisons
	OpCeq
	OpCne
	OpClt
	OpCle
	OpCgt
	OpCge

	// Object / array
	OpNewObj
	OpNewArr
	OpLdElem
	OpStElem
	OpCastClass
	OpIsInst

	// Calls / returns
	OpCall
	OpCallVirt
	OpRet

	// Structured control flow
	OpIf
	OpWhile
	OpBreak
	OpContinue
	OpTry
	OpThrow

	// Label / index branches
	OpBr
	OpBrTrue
	OpBrFalse
	OpBeq
	OpBne
	OpBgt
	OpBge
	OpBlt
	OpBle
)

var opcodeNames = map[Opcode]string{
	OpNop: "nop", OpDup: "dup", OpPop: "pop", OpLdNull: "ldnull",
	OpLdStr: "ldstr", OpLdc: "ldc", OpLdTrue: "ldtrue", OpLdFalse: "ldfalse",
	OpLdI4: "ldi4", OpLdI8: "ldi8", OpLdR4: "ldr4", OpLdR8: "ldr8",
	OpLdLoc: "ldloc", OpStLoc: "stloc", OpLdArg: "ldarg", OpStArg: "starg",
	OpLdFld: "ldfld", OpStFld: "stfld", OpLdSFld: "ldsfld", OpStSFld: "stsfld",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpRem: "rem",
	OpNeg: "neg", OpNot: "not",
	OpCeq: "ceq", OpCne: "cne", OpClt: "clt", OpCle: "cle", OpCgt: "cgt", OpCge: "cge",
	OpNewObj: "newobj", OpNewArr: "newarr", OpLdElem: "ldelem", OpStElem: "stelem",
	OpCastClass: "castclass", OpIsInst: "isinst",
	OpCall: "call", OpCallVirt: "callvirt", OpRet: "ret",
	OpIf: "if", OpWhile: "while", OpBreak: "break", OpContinue: "continue",
	OpTry: "try", OpThrow: "throw",
	OpBr: "br", OpBrTrue: "brtrue", OpBrFalse: "brfalse",
	OpBeq: "beq", OpBne: "bne", OpBgt: "bgt", OpBge: "bge", OpBlt: "blt", OpBle: "ble",
}

// nameToOpcode maps the canonical textual mnemonic (as it appears in an
// external Module's instruction.opCode field, already normalized per the
// core's "no spelling variants" decision — see DESIGN.md) back to an
// Opcode. An unrecognized mnemonic is an UnknownOpcode, not a panic.
var nameToOpcode map[string]Opcode

func init() {
	nameToOpcode = make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		nameToOpcode[name] = op
	}
}

// LookupOpcode resolves a textual mnemonic to an Opcode.
func LookupOpcode(name string) (Opcode, bool) {
	op, ok := nameToOpcode[name]
	return op, ok
}

// Name renders the opcode's canonical mnemonic, used by error messages and
// by Instruction.String() for disassembly.
func (op Opcode) Name() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return fmt.Sprintf("op<%d>", byte(op))
}

func (op Opcode) String() string { return op.Name() }

// Instruction is one step of a Method body: an Opcode plus a polymorphic
// Operand whose concrete type depends on the opcode, per spec §4.2. This
// generalizes the teacher's packed-byte operand (decoded on the fly by
// ReadOperand in bytecode.go) into a pre-decoded Go value, since ObjectIR
// instructions are handed to the core already parsed rather than read from
// a byte stream.
type Instruction struct {
	OpCode  Opcode
	Operand Operand
}

// Operand is implemented by exactly one struct per operand shape named in
// spec §4.2.
type Operand interface {
	operand()
}

// ConstOperand carries ldstr/ldc/ldi4/ldi8/ldr4/ldr8's literal payload.
// Type is ldc's type name as given (execLdc normalizes it); ldstr/ldtrue/ldfalse/ldnull
// leave it empty since their kind is implied by the opcode itself.
type ConstOperand struct {
	Value interface{}
	Type  string
}

func (ConstOperand) operand() {}

// LocalOperand carries ldloc/stloc's local-variable name, and
// ldarg/starg's argument name-or-index (Index is used when Name is empty
// and Positional is true).
type LocalOperand struct {
	Name       string
	Index      int
	Positional bool
}

func (LocalOperand) operand() {}

// FieldOperand carries ldfld/stfld's field name.
type FieldOperand struct {
	Field string
}

func (FieldOperand) operand() {}

// StaticFieldOperand carries ldsfld/stsfld's (declaringType, name) pair.
type StaticFieldOperand struct {
	DeclaringType string
	Name          string
}

func (StaticFieldOperand) operand() {}

// TypeOperand carries newobj/newarr/castclass/isinst's target type name.
type TypeOperand struct {
	Type string
}

func (TypeOperand) operand() {}

// CallOperand carries call/callvirt's CallTarget.
type CallOperand struct {
	Target CallTarget
}

func (CallOperand) operand() {}

// BranchOperand carries br*'s target, either a label name (resolved
// through the owning Method's LabelMap) or a direct instruction index.
type BranchOperand struct {
	Label   string
	Index   int
	ByLabel bool
}

func (BranchOperand) operand() {}

// Condition is one of the four shapes spec §4.3/§9 requires the
// if/while evaluator to accept, selected by Kind.
type ConditionKind byte

const (
	// CondEmpty pops the top of the evaluation stack and uses it as the
	// boolean, coerced per §4.1.
	CondEmpty ConditionKind = iota
	// CondBinary evaluates Left then Right (right popped first, per the
	// operand ordering rule) and applies Op.
	CondBinary
	// CondExpr runs a single sub-instruction that itself pushes a bool.
	CondExpr
	// CondBlock runs a sub-sequence of instructions that leaves a bool on
	// top of the stack.
	CondBlock
)

type Condition struct {
	Kind  ConditionKind
	Op    Opcode        // for CondBinary: one of the comparison opcodes
	Left  []Instruction // for CondBinary: instructions pushing the left operand
	Right []Instruction // for CondBinary: instructions pushing the right operand
	Expr  []Instruction // for CondExpr (single instruction) / CondBlock (sequence)
}

// IfOperand carries if's condition plus then/else instruction blocks.
type IfOperand struct {
	Condition Condition
	Then      []Instruction
	Else      []Instruction
	HasElse   bool
}

func (IfOperand) operand() {}

// WhileOperand carries while's condition plus body instruction block.
type WhileOperand struct {
	Condition Condition
	Body      []Instruction
}

func (WhileOperand) operand() {}

// CatchClause is one entry of a try's catch list. An empty
// ExceptionType means "catch any."
type CatchClause struct {
	ExceptionType string
	Block         []Instruction
}

// TryOperand carries try's body, ordered catch list, and optional finally
// block.
type TryOperand struct {
	Try      []Instruction
	Catches  []CatchClause
	Finally  []Instruction
	HasFinal bool
}

func (TryOperand) operand() {}

// LabelMap resolves a method-scoped label name to an instruction index
// within the same instruction list (spec §3, §4.3 step 4).
type LabelMap map[string]int

// String renders one disassembled line, mirroring the teacher's
// DisassembleInstruction debugging aid (bytecode.go) adapted from a byte
// reader to a structured operand.
func (ins Instruction) String() string {
	switch op := ins.Operand.(type) {
	case nil:
		return ins.OpCode.Name()
	case ConstOperand:
		return fmt.Sprintf("%s %v", ins.OpCode.Name(), op.Value)
	case LocalOperand:
		if op.Positional {
			return fmt.Sprintf("%s #%d", ins.OpCode.Name(), op.Index)
		}
		return fmt.Sprintf("%s %s", ins.OpCode.Name(), op.Name)
	case FieldOperand:
		return fmt.Sprintf("%s %s", ins.OpCode.Name(), op.Field)
	case StaticFieldOperand:
		return fmt.Sprintf("%s %s.%s", ins.OpCode.Name(), op.DeclaringType, op.Name)
	case TypeOperand:
		return fmt.Sprintf("%s %s", ins.OpCode.Name(), op.Type)
	case CallOperand:
		return fmt.Sprintf("%s %s", ins.OpCode.Name(), op.Target.Signature())
	case BranchOperand:
		if op.ByLabel {
			return fmt.Sprintf("%s %s", ins.OpCode.Name(), op.Label)
		}
		return fmt.Sprintf("%s #%d", ins.OpCode.Name(), op.Index)
	default:
		return ins.OpCode.Name()
	}
}

// Disassemble renders every instruction in the list, one per line,
// mirroring the teacher's Method.Disassemble helper in bytecode.go.
func Disassemble(instrs []Instruction) string {
	out := ""
	for i, ins := range instrs {
		out += fmt.Sprintf("%4d: %s\n", i, ins.String())
	}
	return out
}
