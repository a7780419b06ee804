package hostlib

import (
	"testing"

	"github.com/objectir-lang/objectir/vm"
)

func TestReflectionGetTypeNameAndFields(t *testing.T) {
	classes := vm.NewClassTable()
	animal := vm.NewClassInNamespace("Zoo", "Animal", nil)
	animal.Fields = append(animal.Fields, &vm.Field{Name: "Name", TypeName: "string"})
	animal.Methods.Add(&vm.MethodDecl{Name: "Speak", DeclaringClass: animal, ReturnType: "void"})
	classes.Register(animal)

	dog := vm.NewClassInNamespace("Zoo", "Dog", animal)
	dog.Fields = append(dog.Fields, &vm.Field{Name: "Breed", TypeName: "string"})
	classes.Register(dog)

	r := NewStandardLibrary(nil)
	interp := vm.NewInterpreter(classes, r, vm.Config{})

	obj := vm.ObjRef(dog.NewInstance())
	if got := call(t, r, "System.Reflection.GetTypeName(object)", vm.Null, obj); got.AsString() != "Zoo.Dog" {
		t.Fatalf("GetTypeName = %q, want Zoo.Dog", got.AsString())
	}
	if got := call(t, r, "System.Reflection.GetSuperclassName(object)", vm.Null, obj); got.AsString() != "Zoo.Animal" {
		t.Fatalf("GetSuperclassName = %q, want Zoo.Animal", got.AsString())
	}

	fieldsFn, _ := r.Lookup("System.Reflection.GetFields(string)")
	fields, err := fieldsFn(interp, vm.Null, []vm.Value{vm.Str("Zoo.Dog")})
	if err != nil {
		t.Fatalf("GetFields: unexpected error: %v", err)
	}
	if fields.AsArray().Len() != 2 {
		t.Fatalf("GetFields length = %d, want 2 (inherited + own)", fields.AsArray().Len())
	}

	methodsFn, _ := r.Lookup("System.Reflection.GetMethods(string)")
	methods, err := methodsFn(interp, vm.Null, []vm.Value{vm.Str("Zoo.Animal")})
	if err != nil {
		t.Fatalf("GetMethods: unexpected error: %v", err)
	}
	if methods.AsArray().Len() != 1 {
		t.Fatalf("GetMethods length = %d, want 1", methods.AsArray().Len())
	}

	isInstFn, _ := r.Lookup("System.Reflection.IsInstanceOf(object,string)")
	isInst, err := isInstFn(interp, vm.Null, []vm.Value{obj, vm.Str("Zoo.Animal")})
	if err != nil {
		t.Fatalf("IsInstanceOf: unexpected error: %v", err)
	}
	if !isInst.AsBool() {
		t.Fatalf("IsInstanceOf(Dog instance, Animal) = false, want true")
	}
}

func TestReflectionGetFieldsUnknownType(t *testing.T) {
	classes := vm.NewClassTable()
	r := NewStandardLibrary(nil)
	interp := vm.NewInterpreter(classes, r, vm.Config{})

	fn, _ := r.Lookup("System.Reflection.GetFields(string)")
	_, err := fn(interp, vm.Null, []vm.Value{vm.Str("Nope")})
	if !vm.IsKind(err, vm.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
