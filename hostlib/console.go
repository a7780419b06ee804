package hostlib

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/objectir-lang/objectir/vm"
)

// ConsoleWriter is the replaceable sink spec.md §4.5/§6 requires so tests
// can redirect a module's console output instead of writing to the real
// process stdout. Generalizes the teacher's single global fileOut
// redirection target (chazu-maggie/vm/file_out.go) into an injected
// io.Writer field scoped to one Registry rather than a package global.
type ConsoleWriter io.Writer

func registerConsole(r *Registry, out ConsoleWriter) {
	if out == nil {
		out = os.Stdout
	}
	reader := bufio.NewReader(os.Stdin)

	writeLine := HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		fmt.Fprintln(out, a0.ToStringValue())
		return vm.Null, nil
	})
	write := HostFunc1(func(_ *vm.Interpreter, _, a0 vm.Value) (vm.Value, error) {
		fmt.Fprint(out, a0.ToStringValue())
		return vm.Null, nil
	})
	// Call sites arrive with whatever parameter type the producing module
	// spelled, so the sink is bound once per primitive signature rather
	// than relying on an object-typed catch-all the resolver would never
	// fall back to.
	for _, t := range []string{"object", "string", "int32", "int64", "float32", "float64", "bool", "char"} {
		r.Register("System.Console.WriteLine("+t+")", writeLine)
		r.Register("System.Console.Write("+t+")", write)
	}
	r.Register("System.Console.WriteLine()", HostFunc0(func(_ *vm.Interpreter, _ vm.Value) (vm.Value, error) {
		fmt.Fprintln(out)
		return vm.Null, nil
	}))
	r.Register("System.Console.ReadLine()", HostFunc0(func(_ *vm.Interpreter, _ vm.Value) (vm.Value, error) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return vm.Null, nil
		}
		for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
			line = line[:len(line)-1]
		}
		return vm.Str(line), nil
	}))
}
