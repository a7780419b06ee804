package vm

import "strings"

// CallTarget is the tuple a call/callvirt instruction carries: the
// declaring type it was compiled against, the method name, the declared
// return type, and the parameter-type list used to disambiguate
// overloads. Mirrors spec §4.4/GLOSSARY exactly.
type CallTarget struct {
	DeclaringType  string
	Name           string
	ReturnType     string
	ParameterTypes []string
	IsVirtual      bool // true for callvirt, false for call
}

// Signature renders the normalized `Name(t1,t2,...)` form used both for
// the resolution cache key and the host registry's lookup key.
func (t CallTarget) Signature() string {
	norm := make([]string, len(t.ParameterTypes))
	for i, p := range t.ParameterTypes {
		norm[i] = NormalizeTypeName(p)
	}
	return t.Name + "(" + strings.Join(norm, ",") + ")"
}

// HostKey renders the full `DeclaringType.Name(t1,t2,...)` signature the
// host registry indexes native methods by (spec §4.5).
func (t CallTarget) HostKey() string {
	return NormalizeTypeName(t.DeclaringType) + "." + t.Signature()
}

// typeAliases maps recognized alternate spellings to their canonical form,
// per spec §4.1/§6's alias table. Lookups are case-insensitive.
var typeAliases = map[string]string{
	"system.void": "void", "void": "void",
	"system.string": "string", "string": "string",
	"system.boolean": "bool", "boolean": "bool", "system.bool": "bool", "bool": "bool",
	"system.int32": "int32", "int": "int32", "int32": "int32", "system.int": "int32",
	"system.int64": "int64", "long": "int64", "int64": "int64",
	"system.single": "float32", "single": "float32", "float": "float32", "float32": "float32",
	"system.double": "float64", "double": "float64", "float64": "float64",
	"system.byte": "uint8", "byte": "uint8", "uint8": "uint8",
	"system.sbyte": "int8", "sbyte": "int8", "int8": "int8",
	"system.int16": "int16", "short": "int16", "int16": "int16",
	"system.uint16": "uint16", "ushort": "uint16", "uint16": "uint16",
	"system.uint32": "uint32", "uint": "uint32", "uint32": "uint32",
	"system.uint64": "uint64", "ulong": "uint64", "uint64": "uint64",
	"system.char": "char", "char": "char",
	"system.object": "object", "object": "object",
}

// NormalizeTypeName applies the alias table of spec §4.1/§6. Names not in
// the table (user class names, and array-of-T spellings of them) pass
// through unchanged, so `Foo[]` and `foo[]` stay distinct while `Int[]`
// becomes `int32[]`; user class names are case-sensitive, matching the teacher's own convention of
// case-sensitive class names but case-insensitive primitive keywords.
func NormalizeTypeName(name string) string {
	if name == "" {
		return ""
	}
	isArray := strings.HasSuffix(name, "[]")
	base := name
	if isArray {
		base = strings.TrimSuffix(name, "[]")
	}
	lower := strings.ToLower(strings.TrimSpace(base))
	canon, ok := typeAliases[lower]
	if !ok {
		canon = base // not a recognized primitive alias; keep original spelling (class name)
	}
	if isArray {
		return canon + "[]"
	}
	return canon
}

// NormalizeIdempotent is exercised by the property test that requires
// normalize(normalize(x)) == normalize(x) (spec §8 property 5); it is
// trivially true given NormalizeTypeName's implementation, but exposed
// here so both the property test and the rest of the package share one
// authoritative entry point.
func NormalizeIdempotent(name string) bool {
	once := NormalizeTypeName(name)
	return NormalizeTypeName(once) == once
}

// ResolveOverload implements spec §4.4's five-step algorithm. interp is
// used only for its ClassTable and ResolutionCache.
func ResolveOverload(interp *Interpreter, target CallTarget) (*MethodDecl, error) {
	sig := target.Signature()
	declClass, err := resolveDeclaringClass(interp, target.DeclaringType)
	if err != nil {
		return nil, err
	}

	if cached, ok := interp.resolutionCache.get(declClass, target.Name, sig); ok {
		return cached, nil
	}

	candidates := CandidatesFor(declClass, target.Name)
	candidates = filterByKind(candidates, target.IsVirtual)
	if len(candidates) == 0 {
		return nil, Errorf(NotFound, "no method named %q on %s", target.Name, declClass.FullName())
	}

	normReq := normalizeAll(target.ParameterTypes)

	var exact []*MethodDecl
	for _, c := range candidates {
		if paramNamesEqual(normalizeAll(c.ParamTypes), normReq) {
			exact = append(exact, c)
		}
	}
	// An unqualified (no-dot) requested parameter type also matches a
	// candidate declared with a namespace-qualified type whose simple-name
	// component agrees, position by position (spec §4.4 step 3's fallback).
	// Strictly equal matches take precedence, so this pass only runs when
	// none exist.
	if len(exact) == 0 {
		for _, c := range candidates {
			if paramTypesMatch(normalizeAll(c.ParamTypes), normReq) {
				exact = append(exact, c)
			}
		}
	}
	if len(exact) == 1 {
		interp.resolutionCache.put(declClass, target.Name, sig, exact[0])
		return exact[0], nil
	}
	if len(exact) > 1 {
		return nil, Errorf(Ambiguous, "ambiguous overload for %s.%s%v", declClass.FullName(), target.Name, target.ParameterTypes)
	}

	// Parameter-type names that are empty (or an entirely absent list)
	// require the method name alone to be unique (spec §4.4's closing
	// paragraph).
	if len(target.ParameterTypes) == 0 || allEmpty(target.ParameterTypes) {
		if len(candidates) == 1 {
			interp.resolutionCache.put(declClass, target.Name, sig, candidates[0])
			return candidates[0], nil
		}
		return nil, Errorf(Ambiguous, "ambiguous, provide parameterTypes for %s.%s", declClass.FullName(), target.Name)
	}

	// Legacy compatibility: exactly one candidate shares the arity.
	var byArity []*MethodDecl
	for _, c := range candidates {
		if c.Arity() == len(target.ParameterTypes) {
			byArity = append(byArity, c)
		}
	}
	if len(byArity) == 1 {
		interp.resolutionCache.put(declClass, target.Name, sig, byArity[0])
		return byArity[0], nil
	}

	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Signature()
	}
	return nil, Errorf(NoMatchingOverload, "no matching overload for %s.%s%v; candidates: %s",
		declClass.FullName(), target.Name, target.ParameterTypes, strings.Join(names, ", "))
}

func resolveDeclaringClass(interp *Interpreter, declaringType string) (*Class, error) {
	if c := interp.Classes.Lookup(declaringType); c != nil {
		return c, nil
	}
	// Suffix match on ".Name" per spec §4.4 step 1's third fallback.
	want := "." + declaringType
	var match *Class
	for _, c := range interp.Classes.All() {
		if strings.HasSuffix(c.FullName(), want) {
			if match != nil {
				return nil, Errorf(Ambiguous, "ambiguous declaring type %q", declaringType)
			}
			match = c
		}
	}
	if match == nil {
		return nil, Errorf(NotFound, "no class %q", declaringType)
	}
	return match, nil
}

func filterByKind(candidates []*MethodDecl, wantInstance bool) []*MethodDecl {
	var out []*MethodDecl
	for _, c := range candidates {
		if c.IsStatic == !wantInstance {
			out = append(out, c)
		}
	}
	return out
}

func normalizeAll(types []string) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = NormalizeTypeName(t)
	}
	return out
}

func paramNamesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// paramTypesMatch compares a candidate's declared parameter types against
// the requested ones position-wise, allowing each requested name to match
// via typeNameMatchesParameter's simple-name fallback.
func paramTypesMatch(declared, requested []string) bool {
	if len(declared) != len(requested) {
		return false
	}
	for i := range declared {
		if !typeNameMatchesParameter(requested[i], declared[i]) {
			return false
		}
	}
	return true
}

// typeNameMatchesParameter reports whether a requested parameter-type
// name matches a declared one: exact equality (both already normalized),
// or — when the request is unqualified — equality with the declared
// name's simple-name component. Array-ness must agree on both sides.
func typeNameMatchesParameter(requested, declared string) bool {
	if requested == declared {
		return true
	}
	reqArr := strings.HasSuffix(requested, "[]")
	if reqArr != strings.HasSuffix(declared, "[]") {
		return false
	}
	req := strings.TrimSuffix(requested, "[]")
	decl := strings.TrimSuffix(declared, "[]")
	if strings.Contains(req, ".") {
		return false
	}
	if i := strings.LastIndex(decl, "."); i >= 0 {
		return decl[i+1:] == req
	}
	return false
}

func allEmpty(ss []string) bool {
	for _, s := range ss {
		if s != "" {
			return false
		}
	}
	return true
}

// NoMatchingOverload and AmbiguousOverload mirror the teacher's taxonomy
// split between missing (too few) and ambiguous (too many) resolutions.
// NoMatchingOverload is kept distinct from NotFound (no candidate by that
// name at all) so a host can discriminate.
const NoMatchingOverload ErrorKind = "NoMatchingOverload"
