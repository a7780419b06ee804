package vm

import "strings"

// MethodDecl is a single overload candidate registered on a Class: a
// user-defined method carrying Instructions. Host functions are not
// MethodDecls; they live in the Interpreter's HostRegistry. This generalizes the teacher's VTable, which
// indexed one Method per selector ID, into a name-indexed table where
// multiple candidates may share a name but differ in parameter types —
// ObjectIR permits overloads the way Maggie's single-selector dispatch
// does not.
type MethodDecl struct {
	Name           string
	DeclaringClass *Class
	IsStatic       bool
	IsVirtual      bool
	IsOverride     bool
	IsAbstract     bool
	IsConstructor  bool
	ReturnType     string
	ParamTypes     []string
	ParamNames     []string
	Locals         []string
	Instructions   []Instruction
	Labels         LabelMap

	TypeParameters []string // carried, never substituted (see generics note)
	AccessModifier string
	Docstring      string
}

// Arity returns the declared parameter count.
func (m *MethodDecl) Arity() int { return len(m.ParamTypes) }

// Signature renders `Name(t1,t2,...)` from the parameter types as
// declared (not normalized), for trace events, unwind frames and error
// messages. The resolution cache keys on CallTarget.Signature instead.
func (m *MethodDecl) Signature() string {
	return m.Name + "(" + strings.Join(m.ParamTypes, ",") + ")"
}

// MethodTable holds every MethodDecl declared directly on one class,
// grouped by name. Ancestor lookups walk Class.Superclass, mirroring the
// teacher's VTable parent-chain walk in vtable.go.
type MethodTable struct {
	byName map[string][]*MethodDecl
}

// NewMethodTable creates an empty method table.
func NewMethodTable() *MethodTable {
	return &MethodTable{byName: make(map[string][]*MethodDecl)}
}

// Add registers a method declaration under its name.
func (mt *MethodTable) Add(m *MethodDecl) {
	mt.byName[m.Name] = append(mt.byName[m.Name], m)
}

// Local returns the candidates declared directly in this table (no
// ancestor walk) for the given name.
func (mt *MethodTable) Local(name string) []*MethodDecl {
	return mt.byName[name]
}

// AllNames returns every distinct method name declared in this table.
func (mt *MethodTable) AllNames() []string {
	names := make([]string, 0, len(mt.byName))
	for n := range mt.byName {
		names = append(names, n)
	}
	return names
}

// CandidatesFor collects every candidate named `name` visible from class
// c, walking from c up through its ancestors. Candidates declared on a
// more-derived class shadow same-signature candidates on an ancestor but
// distinct signatures simply accumulate, per overload resolution's
// candidate-collection step.
func CandidatesFor(c *Class, name string) []*MethodDecl {
	var result []*MethodDecl
	seen := make(map[string]bool)
	for cur := c; cur != nil; cur = cur.Superclass {
		if cur.Methods == nil {
			continue
		}
		for _, cand := range cur.Methods.Local(name) {
			sig := strings.Join(cand.ParamTypes, ",")
			if seen[sig] {
				continue
			}
			seen[sig] = true
			result = append(result, cand)
		}
	}
	return result
}
