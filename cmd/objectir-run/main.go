// objectir-run is a minimal driver that decodes an already-parsed,
// JSON-described module and runs it. It is not the lexer/parser/module
// builder front end spec.md places out of scope: it is a thin adapter
// exercising vm.LoadModule's public entry point, the same way the
// teacher's cmd/bootstrap decodes .mag source into its VM rather than
// implementing a language front end itself.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/objectir-lang/objectir/hostlib"
	"github.com/objectir-lang/objectir/internal/config"
	"github.com/objectir-lang/objectir/internal/schema"
	"github.com/objectir-lang/objectir/internal/trace"
	"github.com/objectir-lang/objectir/vm"
)

func main() {
	modulePath := flag.String("module", "", "path to a JSON-encoded module description")
	configPath := flag.String("config", "", "path to a TOML interpreter configuration file")
	tracePath := flag.String("trace", "", "path to a DuckDB file to record an execution trace into")
	argsCSV := flag.String("args", "", "comma-separated argument list passed to Program.Main(string[])")
	flag.Parse()

	if *modulePath == "" {
		fmt.Fprintln(os.Stderr, "objectir-run: -module is required")
		os.Exit(2)
	}

	if err := run(*modulePath, *configPath, *tracePath, *argsCSV); err != nil {
		fmt.Fprintf(os.Stderr, "objectir-run: %v\n", err)
		os.Exit(1)
	}
}

func run(modulePath, configPath, tracePath, argsCSV string) error {
	data, err := os.ReadFile(modulePath)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("decode module JSON: %w", err)
	}

	if err := schema.Validate(input); err != nil {
		return fmt.Errorf("module failed validation: %w", err)
	}
	if err := schema.ValidateTypeReferences(input, declaredTypeNames(input), vm.NormalizeTypeName); err != nil {
		return fmt.Errorf("module failed validation: %w", err)
	}

	_, classes, err := vm.LoadModule(input)
	if err != nil {
		return fmt.Errorf("load module: %w", err)
	}

	cfg := vm.Config{}
	var out io.Writer = os.Stdout
	if configPath != "" {
		c, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c.ToVMConfig()
		if c.Console.RedirectToFile != "" {
			f, err := os.Create(c.Console.RedirectToFile)
			if err != nil {
				return fmt.Errorf("open console redirect target: %w", err)
			}
			defer f.Close()
			out = f
		}
	}

	host := hostlib.NewStandardLibrary(out)
	interp := vm.NewInterpreter(classes, host, cfg)

	if tracePath != "" {
		sink, err := trace.Open(tracePath)
		if err != nil {
			return fmt.Errorf("open trace sink: %w", err)
		}
		defer sink.Close()
		interp.Trace = sink
	}

	var cliArgs []string
	if argsCSV != "" {
		cliArgs = strings.Split(argsCSV, ",")
	}

	result := interp.RunMain(cliArgs)
	if result.Err != nil {
		return result.Err
	}
	if !result.Value.IsNull() {
		fmt.Println(result.Value.ToStringValue())
	}
	return nil
}

// declaredTypeNames collects every type name the module declares, under
// both its simple and namespace-qualified spellings, for the
// type-reference validation pass.
func declaredTypeNames(input any) map[string]bool {
	known := make(map[string]bool)
	top, ok := input.(map[string]any)
	if !ok {
		return known
	}
	types, _ := top["types"].([]any)
	for _, t := range types {
		tm, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name, _ := tm["name"].(string)
		if name == "" {
			continue
		}
		known[name] = true
		if ns, _ := tm["namespace"].(string); ns != "" {
			known[ns+"."+name] = true
		}
	}
	return known
}
