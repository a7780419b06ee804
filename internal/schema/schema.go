// Package schema validates the externally supplied structured module
// value (the `{name, version, types[], functions[]}` shape vm.LoadModule
// accepts) against a CUE schema before any conversion or instruction
// executes. Grounded on cuelang.org/go/cue, the teacher's own
// schema/constraint-language dependency from the Quint language-server's
// model checking — not previously wired to the vm package. schema has no
// dependency on vm; callers (the driver, or any other module producer)
// run Validate before handing the value to vm.LoadModule, and retag its
// plain Go errors into the core's ErrorKind taxonomy as needed.
package schema

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ErrNotFound distinguishes an unresolved type-name reference from a
// plain structural violation, so callers can retag it as vm.NotFound
// instead of vm.MalformedOperand (spec.md §4.8).
var ErrNotFound = errors.New("schema: referenced type not found")

// moduleSchema describes the minimum structural shape vm.LoadModule
// requires: a name and a list of type (class) declarations each with a
// name; methods, fields and parameters are optional, but each one present
// needs a name (and fields/parameters a type). Field-level and operand-level detail is left to the
// converter itself (spec.md's loader is explicitly out of scope; this
// only rejects shapes the converter cannot possibly make sense of).
const moduleSchema = `
name: string
version?: string | number | null
types: [...{
	name: string
	namespace?: string | null
	kind?: string | null
	superclass?: string | null
	interfaces?: [...string]
	isAbstract?: bool
	isSealed?: bool
	access?: string | null
	docstring?: string | null
	typeParameters?: [...string]
	fields?: [...{
		name: string
		type: string
		isStatic?: bool
		isReadOnly?: bool
		access?: string | null
	}]
	methods?: [...{
		name: string
		isStatic?: bool
		isVirtual?: bool
		isOverride?: bool
		isAbstract?: bool
		isConstructor?: bool
		returnType?: string | null
		access?: string | null
		docstring?: string | null
		typeParameters?: [...string]
		parameters?: [...{
			name: string
			type: string
		}]
		localVariables?: [...(string | {name: string, ...})]
		instructions?: [...{...}]
	}]
}]
`

// Validate reports the first structural violation in input, or nil if it
// conforms closely enough for vm.LoadModule's converter to proceed.
func Validate(input any) error {
	ctx := cuecontext.New()
	schemaVal := ctx.CompileString(moduleSchema)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("schema: internal schema is invalid: %w", err)
	}

	dataVal := ctx.Encode(input)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("schema: module value cannot be represented as CUE: %w", err)
	}

	unified := schemaVal.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema: module does not conform to the expected shape: %w", err)
	}
	return nil
}

// ValidateTypeReferences checks that every superclass name mentioned in
// input names a type in known, either as spelled or after normalizeFn is
// applied to it (so an alias spelling of a known name is accepted; a name
// absent from known is rejected even if it is a primitive). normalizeFn is injected
// rather than imported so this package stays free of a vm dependency.
func ValidateTypeReferences(input any, known map[string]bool, normalizeFn func(string) string) error {
	top, ok := input.(map[string]any)
	if !ok {
		return nil
	}
	rawTypes, _ := top["types"].([]any)
	for _, rt := range rawTypes {
		tm, ok := rt.(map[string]any)
		if !ok {
			continue
		}
		sup, ok := tm["superclass"].(string)
		if !ok || sup == "" {
			continue
		}
		if known[sup] {
			continue
		}
		if normalizeFn != nil && known[normalizeFn(sup)] {
			continue
		}
		return fmt.Errorf("%w: superclass %q not declared in module", ErrNotFound, sup)
	}
	return nil
}
