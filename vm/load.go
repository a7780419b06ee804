package vm

import "fmt"

// LoadModule converts an already-parsed, externally supplied structured
// value (spec §6: `{name, version, types[], functions[]}`) into a Module
// and registers its classes into a fresh ClassTable. This is the core's
// one public entry point for external input: the lexer/parser, JSON
// loader, FOB binary reader, and module builder spec §1 places out of
// scope are all, from the core's point of view, merely producers of the
// `input any` this function accepts.
//
// internal/schema.Validate should be run over input before calling
// LoadModule when the producer is not already known-good (see
// SPEC_FULL.md §4.8); LoadModule itself performs only the structural
// checks needed to build a Module without panicking, reporting the
// first problem as MalformedOperand, NotFound or UnknownOpcode.
func LoadModule(input any) (*Module, *ClassTable, error) {
	root, ok := input.(map[string]any)
	if !ok {
		return nil, nil, Errorf(MalformedOperand, "module input must be an object")
	}

	mod := &Module{Name: getStringOr(root, "name", "")}
	types, _ := root["types"].([]any)

	classes := NewClassTable()

	// Pass 1: create every class (so forward/backward superclass and
	// field/param type references resolve regardless of declaration
	// order), deferring method-body conversion to pass 2.
	raws := make([]map[string]any, 0, len(types))
	for _, t := range types {
		tm, ok := t.(map[string]any)
		if !ok {
			return nil, nil, Errorf(MalformedOperand, "type entry must be an object")
		}
		kind := getStringOr(tm, "kind", "class")
		if kind != "class" && kind != "interface" && kind != "struct" && kind != "enum" {
			return nil, nil, Errorf(MalformedOperand, "unknown type kind %q", kind)
		}
		name := getStringOr(tm, "name", "")
		if name == "" {
			return nil, nil, Errorf(MalformedOperand, "type entry missing name")
		}
		c := NewClassInNamespace(getStringOr(tm, "namespace", ""), name, nil)
		c.Kind = TypeKind(kind)
		c.IsAbstract = getBoolOr(tm, "isAbstract", false)
		c.IsSealed = getBoolOr(tm, "isSealed", false)
		c.AccessModifier = getStringOr(tm, "access", "")
		c.Docstring = getStringOr(tm, "docstring", "")
		if tps, ok := tm["typeParameters"].([]any); ok {
			for _, tp := range tps {
				if s, ok := tp.(string); ok {
					c.TypeParameters = append(c.TypeParameters, s)
				}
			}
		}
		classes.Register(c)
		raws = append(raws, tm)
	}

	// Pass 2: link superclasses, convert fields and methods. Each raw
	// entry's class is re-looked-up by name rather than indexed out of
	// ClassTable.All(), since that map's iteration order is unrelated to
	// raws' declaration order.
	for _, tm := range raws {
		name := getStringOr(tm, "name", "")
		ns := getStringOr(tm, "namespace", "")
		full := name
		if ns != "" {
			full = ns + "." + name
		}
		c := classes.Lookup(full)
		if c == nil {
			return nil, nil, Errorf(NotFound, "internal: lost class %q", full)
		}

		if superName, ok := tm["superclass"].(string); ok && superName != "" {
			super := classes.Lookup(superName)
			if super == nil {
				return nil, nil, Errorf(NotFound, "superclass %q of %q not found", superName, full)
			}
			c.Superclass = super
		}

		if ifaces, ok := tm["interfaces"].([]any); ok {
			for _, iv := range ifaces {
				ifaceName, ok := iv.(string)
				if !ok || ifaceName == "" {
					continue
				}
				iface := classes.Lookup(ifaceName)
				if iface == nil {
					return nil, nil, Errorf(NotFound, "interface %q of %q not found", ifaceName, full)
				}
				c.Interfaces = append(c.Interfaces, iface)
			}
		}

		fields, _ := tm["fields"].([]any)
		for _, fv := range fields {
			fm, ok := fv.(map[string]any)
			if !ok {
				return nil, nil, Errorf(MalformedOperand, "field entry must be an object")
			}
			c.Fields = append(c.Fields, &Field{
				Name:       getStringOr(fm, "name", ""),
				TypeName:   NormalizeTypeName(getStringOr(fm, "type", "")),
				IsStatic:   getBoolOr(fm, "isStatic", false),
				IsReadOnly: getBoolOr(fm, "isReadOnly", false),
				Access:     getStringOr(fm, "access", ""),
			})
		}

		methods, _ := tm["methods"].([]any)
		for _, mv := range methods {
			mm, ok := mv.(map[string]any)
			if !ok {
				return nil, nil, Errorf(MalformedOperand, "method entry must be an object")
			}
			decl, err := convertMethod(mm, c)
			if err != nil {
				return nil, nil, err
			}
			c.Methods.Add(decl)
		}

		mod.Classes = append(mod.Classes, c)
	}

	return mod, classes, nil
}

func convertMethod(mm map[string]any, owner *Class) (*MethodDecl, error) {
	decl := &MethodDecl{
		Name:           getStringOr(mm, "name", ""),
		DeclaringClass: owner,
		IsStatic:       getBoolOr(mm, "isStatic", false),
		IsVirtual:      getBoolOr(mm, "isVirtual", false),
		IsOverride:     getBoolOr(mm, "isOverride", false),
		IsAbstract:     getBoolOr(mm, "isAbstract", false),
		IsConstructor:  getBoolOr(mm, "isConstructor", false),
		ReturnType:     NormalizeTypeName(getStringOr(mm, "returnType", "void")),
		AccessModifier: getStringOr(mm, "access", ""),
		Docstring:      getStringOr(mm, "docstring", ""),
	}
	if decl.Name == "" {
		return nil, Errorf(MalformedOperand, "method entry missing name")
	}

	params, _ := mm["parameters"].([]any)
	for _, pv := range params {
		pm, ok := pv.(map[string]any)
		if !ok {
			return nil, Errorf(MalformedOperand, "parameter entry must be an object")
		}
		decl.ParamNames = append(decl.ParamNames, getStringOr(pm, "name", ""))
		decl.ParamTypes = append(decl.ParamTypes, NormalizeTypeName(getStringOr(pm, "type", "")))
	}

	if tps, ok := mm["typeParameters"].([]any); ok {
		for _, tp := range tps {
			if s, ok := tp.(string); ok {
				decl.TypeParameters = append(decl.TypeParameters, s)
			}
		}
	}

	locals, _ := mm["localVariables"].([]any)
	for _, lv := range locals {
		switch l := lv.(type) {
		case string:
			decl.Locals = append(decl.Locals, l)
		case map[string]any:
			decl.Locals = append(decl.Locals, getStringOr(l, "name", ""))
		default:
			return nil, Errorf(MalformedOperand, "local entry must be a name or a {name, type} object")
		}
	}

	if lm, ok := mm["labelMap"].(map[string]any); ok {
		decl.Labels = make(LabelMap, len(lm))
		for k, v := range lm {
			idx, ok := asInt(v)
			if !ok {
				return nil, Errorf(MalformedOperand, "labelMap entry %q must be an integer", k)
			}
			decl.Labels[k] = idx
		}
	}

	instrs, _ := mm["instructions"].([]any)
	list, err := convertInstructions(instrs)
	if err != nil {
		return nil, err
	}
	decl.Instructions = list
	return decl, nil
}

func convertInstructions(raw []any) ([]Instruction, error) {
	out := make([]Instruction, 0, len(raw))
	for _, iv := range raw {
		im, ok := iv.(map[string]any)
		if !ok {
			return nil, Errorf(MalformedOperand, "instruction entry must be an object")
		}
		name := getStringOr(im, "opCode", "")
		op, ok := LookupOpcode(name)
		if !ok {
			return nil, Errorf(UnknownOpcode, "unknown opcode %q", name)
		}
		operand, err := convertOperand(op, im["operand"])
		if err != nil {
			return nil, fmt.Errorf("instruction %q: %w", name, err)
		}
		out = append(out, Instruction{OpCode: op, Operand: operand})
	}
	return out, nil
}

func convertOperand(op Opcode, raw any) (Operand, error) {
	switch op {
	case OpNop, OpDup, OpPop, OpLdNull, OpLdTrue, OpLdFalse, OpRet, OpBreak, OpContinue, OpThrow,
		OpAdd, OpSub, OpMul, OpDiv, OpRem, OpNeg, OpNot,
		OpCeq, OpCne, OpClt, OpCle, OpCgt, OpCge, OpLdElem, OpStElem:
		return nil, nil

	case OpLdStr, OpLdI4, OpLdI8, OpLdR4, OpLdR8:
		m, _ := raw.(map[string]any)
		if m != nil {
			return ConstOperand{Value: m["value"]}, nil
		}
		return ConstOperand{Value: raw}, nil

	case OpLdc:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, Errorf(MalformedOperand, "ldc requires an object operand with value/type")
		}
		return ConstOperand{Value: m["value"], Type: getStringOr(m, "type", "")}, nil

	case OpLdLoc, OpStLoc:
		name, err := asLocalName(raw, "localName")
		if err != nil {
			return nil, err
		}
		return LocalOperand{Name: name}, nil

	case OpLdArg:
		return convertArgOperand(raw)
	case OpStArg:
		name, err := asLocalName(raw, "argumentName")
		if err != nil {
			return nil, err
		}
		return LocalOperand{Name: name}, nil

	case OpLdFld, OpStFld:
		field, err := asLocalName(raw, "field")
		if err != nil {
			return nil, err
		}
		return FieldOperand{Field: field}, nil

	case OpLdSFld, OpStSFld:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, Errorf(MalformedOperand, "%v requires declaringType/name operand", op)
		}
		return StaticFieldOperand{
			DeclaringType: getStringOr(m, "declaringType", ""),
			Name:          getStringOr(m, "name", ""),
		}, nil

	case OpNewObj, OpNewArr, OpCastClass, OpIsInst:
		typeName, err := asLocalName(raw, "type")
		if err != nil {
			key := "elementType"
			typeName, err = asLocalName(raw, key)
			if err != nil {
				return nil, Errorf(MalformedOperand, "%v requires a type name operand", op)
			}
		}
		return TypeOperand{Type: typeName}, nil

	case OpCall, OpCallVirt:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, Errorf(MalformedOperand, "%v requires a method target operand", op)
		}
		mt, ok := m["method"].(map[string]any)
		if !ok {
			mt = m
		}
		target := CallTarget{
			DeclaringType: getStringOr(mt, "declaringType", ""),
			Name:          getStringOr(mt, "name", ""),
			ReturnType:    NormalizeTypeName(getStringOr(mt, "returnType", "void")),
		}
		if pts, ok := mt["parameterTypes"].([]any); ok {
			for _, p := range pts {
				if s, ok := p.(string); ok {
					target.ParameterTypes = append(target.ParameterTypes, s)
				}
			}
		}
		return CallOperand{Target: target}, nil

	case OpBr, OpBrTrue, OpBrFalse, OpBeq, OpBne, OpBgt, OpBge, OpBlt, OpBle:
		return convertBranchOperand(raw)

	case OpIf:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, Errorf(MalformedOperand, "if requires an operand object")
		}
		cond, err := convertCondition(m["condition"])
		if err != nil {
			return nil, err
		}
		thenInstrs, err := convertInstructions(asSlice(m["then"]))
		if err != nil {
			return nil, err
		}
		op := IfOperand{Condition: cond, Then: thenInstrs}
		if elseRaw, ok := m["else"]; ok && elseRaw != nil {
			elseInstrs, err := convertInstructions(asSlice(elseRaw))
			if err != nil {
				return nil, err
			}
			op.Else = elseInstrs
			op.HasElse = true
		}
		return op, nil

	case OpWhile:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, Errorf(MalformedOperand, "while requires an operand object")
		}
		cond, err := convertCondition(m["condition"])
		if err != nil {
			return nil, err
		}
		body, err := convertInstructions(asSlice(m["body"]))
		if err != nil {
			return nil, err
		}
		return WhileOperand{Condition: cond, Body: body}, nil

	case OpTry:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, Errorf(MalformedOperand, "try requires an operand object")
		}
		tryBlock, err := convertInstructions(asSlice(m["tryBlock"]))
		if err != nil {
			return nil, err
		}
		op := TryOperand{Try: tryBlock}
		catches, _ := m["catchBlocks"].([]any)
		for _, cv := range catches {
			cm, ok := cv.(map[string]any)
			if !ok {
				return nil, Errorf(MalformedOperand, "catchBlocks entry must be an object")
			}
			block, err := convertInstructions(asSlice(cm["block"]))
			if err != nil {
				return nil, err
			}
			op.Catches = append(op.Catches, CatchClause{
				ExceptionType: getStringOr(cm, "exceptionType", ""),
				Block:         block,
			})
		}
		if finRaw, ok := m["finallyBlock"]; ok && finRaw != nil {
			fin, err := convertInstructions(asSlice(finRaw))
			if err != nil {
				return nil, err
			}
			op.Finally = fin
			op.HasFinal = true
		}
		return op, nil
	}

	return nil, Errorf(UnknownOpcode, "no operand conversion for opcode %v", op)
}

func convertArgOperand(raw any) (Operand, error) {
	switch v := raw.(type) {
	case string:
		return LocalOperand{Name: v}, nil
	case float64:
		return LocalOperand{Index: int(v), Positional: true}, nil
	case map[string]any:
		if name, ok := v["argumentName"].(string); ok && name != "" {
			return LocalOperand{Name: name}, nil
		}
		if idx, ok := asInt(v["index"]); ok {
			return LocalOperand{Index: idx, Positional: true}, nil
		}
	}
	return nil, Errorf(MalformedOperand, "ldarg requires argumentName or index")
}

func convertBranchOperand(raw any) (Operand, error) {
	switch v := raw.(type) {
	case string:
		return BranchOperand{Label: v, ByLabel: true}, nil
	case float64:
		return BranchOperand{Index: int(v)}, nil
	case map[string]any:
		target := v["target"]
		switch t := target.(type) {
		case string:
			return BranchOperand{Label: t, ByLabel: true}, nil
		case float64:
			return BranchOperand{Index: int(t)}, nil
		}
	}
	return nil, Errorf(MalformedOperand, "branch requires a target label or index")
}

func convertCondition(raw any) (Condition, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Condition{}, Errorf(MalformedOperand, "condition must be an object")
	}
	kind := getStringOr(m, "kind", "empty")
	switch kind {
	case "empty":
		return Condition{Kind: CondEmpty}, nil
	case "binary":
		op, ok := LookupOpcode(getStringOr(m, "op", ""))
		if !ok {
			return Condition{}, Errorf(MalformedOperand, "binary condition has unknown op")
		}
		left, err := convertInstructions(asSlice(m["left"]))
		if err != nil {
			return Condition{}, err
		}
		right, err := convertInstructions(asSlice(m["right"]))
		if err != nil {
			return Condition{}, err
		}
		return Condition{Kind: CondBinary, Op: op, Left: left, Right: right}, nil
	case "expr":
		expr, err := convertInstructions(asSlice(m["expr"]))
		if err != nil {
			return Condition{}, err
		}
		return Condition{Kind: CondExpr, Expr: expr}, nil
	case "block":
		expr, err := convertInstructions(asSlice(m["block"]))
		if err != nil {
			return Condition{}, err
		}
		return Condition{Kind: CondBlock, Expr: expr}, nil
	}
	return Condition{}, Errorf(MalformedOperand, "unknown condition kind %q", kind)
}

// ---------------------------------------------------------------------------
// small decoding helpers over map[string]any / []any, the shape
// encoding/json.Unmarshal produces when decoding into `any`
// ---------------------------------------------------------------------------

func getStringOr(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

func getBoolOr(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asLocalName(raw any, key string) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case map[string]any:
		if s, ok := v[key].(string); ok {
			return s, nil
		}
	}
	return "", Errorf(MalformedOperand, "missing %q in operand", key)
}
