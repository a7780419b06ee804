package vm

import "sync"

// Module is a self-contained unit of classes presented to the core as an
// already-parsed structured value (the lexer/parser/FOB-container layer
// that would produce one is out of scope for the core itself).
type Module struct {
	Name    string
	Classes []*Class
}

// Field describes one instance or static field declared on a class.
type Field struct {
	Name       string
	TypeName   string
	IsStatic   bool
	IsReadOnly bool
	Access     string // public/private/protected/internal; carried, never enforced (spec §3's Design Notes)
}

// TypeKind is one of the four kinds spec §3 names for a declared type.
// Only "class" is executable; the other three are tracked by the
// registry purely so isinst/castclass and field TypeReferences naming
// them resolve instead of the interpreter special-casing "unknown kind."
type TypeKind string

const (
	KindClass     TypeKind = "class"
	KindInterface TypeKind = "interface"
	KindStruct    TypeKind = "struct"
	KindEnum      TypeKind = "enum"
)

// Class is ObjectIR's type: a name, an optional superclass link, declared
// fields, and declared methods. Unlike the teacher's slot-indexed layout,
// instances store fields in a name-keyed map (see Object), so Class here
// carries field declarations rather than slot offsets.
type Class struct {
	Name       string
	Namespace  string
	Kind       TypeKind
	Superclass *Class
	Interfaces []*Class

	Fields  []*Field
	Methods *MethodTable

	IsAbstract bool
	IsSealed   bool

	TypeParameters []string // carried, never substituted at runtime (spec §9 generics note)
	AccessModifier string
	Docstring      string

	table *ClassTable // registry this class was registered into, for Lookup by name during resolution
}

// FullName returns the fully qualified class name (namespace.name, or just
// name when there is no namespace).
func (c *Class) FullName() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "." + c.Name
}

func (c *Class) String() string { return c.FullName() }

// IsSubclassOf reports whether c is other or a descendant of other.
func (c *Class) IsSubclassOf(other *Class) bool {
	for cur := c; cur != nil; cur = cur.Superclass {
		if cur == other {
			return true
		}
	}
	return false
}

// IsSuperclassOf reports whether c is an ancestor of other (or other itself).
func (c *Class) IsSuperclassOf(other *Class) bool {
	return other.IsSubclassOf(c)
}

// Superclasses returns every ancestor from the immediate parent to the root.
func (c *Class) Superclasses() []*Class {
	var result []*Class
	for cur := c.Superclass; cur != nil; cur = cur.Superclass {
		result = append(result, cur)
	}
	return result
}

// Depth returns the inheritance depth (0 for a root class).
func (c *Class) Depth() int {
	depth := 0
	for cur := c.Superclass; cur != nil; cur = cur.Superclass {
		depth++
	}
	return depth
}

// InstanceFields returns this class's own declared instance fields, not
// including inherited ones.
func (c *Class) InstanceFields() []*Field {
	var result []*Field
	for _, f := range c.Fields {
		if !f.IsStatic {
			result = append(result, f)
		}
	}
	return result
}

// AllInstanceFields returns instance fields including inherited ones,
// walking from the root down so subclass fields come last.
func (c *Class) AllInstanceFields() []*Field {
	var result []*Field
	if c.Superclass != nil {
		result = c.Superclass.AllInstanceFields()
	}
	return append(result, c.InstanceFields()...)
}

// FindField looks up a field declaration by name, walking up the
// superclass chain. Returns nil if no class in the chain declares it.
func (c *Class) FindField(name string) *Field {
	for cur := c; cur != nil; cur = cur.Superclass {
		for _, f := range cur.Fields {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

// DeclaresField reports whether this exact class (not an ancestor)
// declares the named field.
func (c *Class) DeclaresField(name string) bool {
	for _, f := range c.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// NewInstance allocates a zero-valued instance of c. All declared
// instance fields (including inherited ones) start out Null.
func (c *Class) NewInstance() *Object {
	obj := NewObject(c)
	for _, f := range c.AllInstanceFields() {
		obj.SetField(f.Name, Null)
	}
	return obj
}

// NewClass creates a class with no fields or methods yet registered.
func NewClass(name string, superclass *Class) *Class {
	return &Class{
		Name:       name,
		Kind:       KindClass,
		Superclass: superclass,
		Methods:    NewMethodTable(),
	}
}

// NewClassInNamespace creates a class scoped to a namespace.
func NewClassInNamespace(namespace, name string, superclass *Class) *Class {
	c := NewClass(name, superclass)
	c.Namespace = namespace
	return c
}

// ---------------------------------------------------------------------------
// ClassTable: the module-wide class registry
// ---------------------------------------------------------------------------

// ClassTable is the global class registry a Module is loaded into. Lookup
// accepts either a simple name or a fully qualified namespace.name; when a
// simple name is ambiguous across namespaces the fully qualified form must
// be used (spec's Open Question on duplicate simple class names).
type ClassTable struct {
	mu      sync.RWMutex
	byFull  map[string]*Class
	byShort map[string][]*Class
}

// NewClassTable creates an empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{
		byFull:  make(map[string]*Class),
		byShort: make(map[string][]*Class),
	}
}

// Register adds a class to the table. Returns the previous class
// registered under the same fully qualified name, or nil.
func (ct *ClassTable) Register(c *Class) *Class {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	full := c.FullName()
	old := ct.byFull[full]
	ct.byFull[full] = c
	if old != nil {
		list := ct.byShort[old.Name]
		for i, o := range list {
			if o == old {
				ct.byShort[old.Name] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
	}
	ct.byShort[c.Name] = append(ct.byShort[c.Name], c)
	c.table = ct
	return old
}

// Lookup resolves a class by fully qualified or simple name. A simple
// name that matches exactly one registered class resolves to it; a simple
// name matching more than one class (distinct namespaces) returns nil,
// requiring the fully qualified form.
func (ct *ClassTable) Lookup(name string) *Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	if c, ok := ct.byFull[name]; ok {
		return c
	}
	if cands := ct.byShort[name]; len(cands) == 1 {
		return cands[0]
	}
	return nil
}

// Has reports whether name resolves to a registered class.
func (ct *ClassTable) Has(name string) bool {
	return ct.Lookup(name) != nil
}

// All returns every registered class.
func (ct *ClassTable) All() []*Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	result := make([]*Class, 0, len(ct.byFull))
	for _, c := range ct.byFull {
		result = append(result, c)
	}
	return result
}

// Len returns the number of registered classes.
func (ct *ClassTable) Len() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.byFull)
}

// LoadModule registers every class in m with ct. Superclass pointers are
// used as already set on each Class; no name-based linking happens here.
func (ct *ClassTable) LoadModule(m *Module) error {
	for _, c := range m.Classes {
		ct.Register(c)
	}
	return nil
}
