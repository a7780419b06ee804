package vm

// execCall implements spec §4.3 step 6: pop args right-to-left (and, for
// callvirt, pop the instance first per the Design Notes' decision to
// raise rather than fall back to `this` on a null receiver), then either
// invoke a registered host function or resolve and invoke an interpreted
// method.
func (interp *Interpreter) execCall(frame *CallFrame, isVirtual bool, target CallTarget) error {
	argc := len(target.ParameterTypes)
	args := make([]Value, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		args[i] = v
	}

	var instance Value
	if isVirtual {
		v, err := frame.Pop()
		if err != nil {
			return err
		}
		instance = v
	}

	target.IsVirtual = isVirtual
	result, err := interp.Invoke(target, instance, args)
	if err != nil {
		return err
	}
	if !isVoidReturn(target.ReturnType) {
		frame.Push(result)
	}
	return nil
}
