// Command cubecldump compiles a small built-in sample kernel and prints
// its generated source, for inspecting what a backend emits without
// writing a whole test harness around it.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cubecl-go/cubecl/compiler"
	_ "github.com/cubecl-go/cubecl/compiler/wgsl"
	"github.com/cubecl-go/cubecl/ir"
)

func main() {
	var (
		backend  = flag.String("backend", "", "backend to compile with (default: the registered default)")
		unsafe   = flag.Bool("unchecked", false, "compile in Unchecked execution mode instead of Checked")
		validate = flag.Bool("validate", false, "round-trip the output through the backend's own validator, if it has one")
		sample   = flag.String("sample", "elementwise-add", "built-in sample kernel to compile (elementwise-add, reduce-sum)")
	)
	flag.Parse()

	def, err := buildSample(*sample)
	if err != nil {
		slog.Error("cubecldump: unknown sample", "sample", *sample, "error", err)
		os.Exit(1)
	}

	var c compiler.Compiler
	if *backend == "" {
		c, err = compiler.Default()
	} else {
		c, err = compiler.Get(*backend)
	}
	if err != nil {
		slog.Error("cubecldump: resolve backend", "error", err)
		os.Exit(1)
	}

	if v, ok := c.(interface{ SetValidate(bool) }); ok {
		v.SetValidate(*validate)
	}

	mode := compiler.Checked
	if *unsafe {
		mode = compiler.Unchecked
	}

	compiled, err := c.Compile(def, mode)
	if err != nil {
		slog.Error("cubecldump: compile", "backend", c.Name(), "error", err)
		os.Exit(1)
	}

	fmt.Printf("// backend=%s mode=%s id=%s\n", c.Name(), mode, compiled.ID)
	fmt.Print(compiled.Source)
}

// buildSample constructs one of a small set of built-in kernels, so the
// tool has something to compile without requiring a generated frontend
// kernel on disk.
func buildSample(name string) (ir.KernelDefinition, error) {
	switch name {
	case "elementwise-add":
		return elementwiseAddKernel(), nil
	case "reduce-sum":
		return reduceSumKernel(), nil
	default:
		return ir.KernelDefinition{}, fmt.Errorf("no such sample %q", name)
	}
}

// elementwiseAddKernel builds output[i] = a[i] + b[i] over a 1-D grid.
func elementwiseAddKernel() ir.KernelDefinition {
	root := ir.Root()
	item := ir.Scalar(ir.F32())

	a := root.ReadArray(0, item, 0)
	b := root.ReadArray(1, item, 1)
	out := root.CreateLocal(item)
	root.Register(ir.NewOperator(ir.OpAdd, a, b, out))

	output := ir.GlobalOutputArray(0, item)
	root.WriteGlobal(out, output, 0)

	return ir.KernelDefinition{
		Inputs:  []ir.Binding{{Name: "a", Item: item, Position: 0}, {Name: "b", Item: item, Position: 1}},
		Outputs: []ir.Binding{{Name: "out", Item: item, Position: 0}},
		CubeDim: [3]uint32{256, 1, 1},
		Body:    root.Process(),
	}
}

// reduceSumKernel stages an input array through shared memory behind a
// barrier, demonstrating shared-memory declaration and workgroup
// synchronization rather than performing a real reduction tree.
func reduceSumKernel() ir.KernelDefinition {
	root := ir.Root()
	item := ir.Scalar(ir.F32())

	shared := root.CreateShared(item, 256)
	value := root.ReadArray(0, item, 0)
	root.Register(ir.NewOperator(ir.OpAssign, value, ir.Variable{}, shared))
	root.Register(ir.NewSync(ir.SyncUnits))

	out := root.CreateLocal(item)
	root.Register(ir.NewOperator(ir.OpAssign, shared, ir.Variable{}, out))

	output := ir.GlobalOutputArray(0, item)
	root.WriteGlobal(out, output, 0)

	return ir.KernelDefinition{
		Inputs:  []ir.Binding{{Name: "input", Item: item, Position: 0}},
		Outputs: []ir.Binding{{Name: "partial_sums", Item: item, Position: 0}},
		CubeDim: [3]uint32{256, 1, 1},
		Body:    root.Process(),
	}
}
