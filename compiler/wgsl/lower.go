package wgsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cubecl-go/cubecl/ir"
)

// lowerElem renders an element type. ir.Elem.String already produces the
// WGSL spelling for every kind wgpu's shader stage actually accepts (f32,
// i32, u32, bool, atomic<i32>, atomic<u32>); f16/bf16/f64/i64 pass through
// unchanged so that a kernel built for an unsupported element still
// produces stable, inspectable source rather than a compile-time panic —
// the device-side shader module creation is what ultimately rejects those,
// same as the teacher's own backend leaves shader-stage validation to the
// driver.
func (cs *compileState) lowerElem(e ir.Elem) string {
	return e.String()
}

func (cs *compileState) lowerItem(it ir.Item) string {
	return it.String()
}

func (cs *compileState) lowerConstant(v ir.ConstantScalarValue) string {
	switch v.Elem.Kind {
	case ir.ElemBool:
		b, _ := v.Bool()
		return strconv.FormatBool(b)
	case ir.ElemFloat:
		f, _ := v.Float()
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s + lowerFloatSuffix(v.Elem)
	case ir.ElemInt, ir.ElemAtomicInt:
		i, _ := v.Int()
		return fmt.Sprintf("%di", i)
	default:
		u, _ := v.UInt()
		return fmt.Sprintf("%du", u)
	}
}

func lowerFloatSuffix(e ir.Elem) string {
	if e.Width == ir.Float16 {
		return "h"
	}
	return "f"
}

// lowerVariable renders a reference to v in expression position, recording
// any built-in, shared-memory, or local-array declaration it implies.
func (cs *compileState) lowerVariable(v ir.Variable) string {
	switch v.Kind {
	case ir.VarGlobalInputArray:
		return fmt.Sprintf("input_%d", v.ID)
	case ir.VarGlobalOutputArray:
		return fmt.Sprintf("output_%d", v.ID)
	case ir.VarGlobalScalar:
		return fmt.Sprintf("scalars.s%d", v.ID)
	case ir.VarConstantScalar:
		return cs.lowerConstant(v.Value)
	case ir.VarLocal:
		return fmt.Sprintf("local_%d_%d", v.Depth, v.ID)
	case ir.VarLocalScalar:
		return fmt.Sprintf("local_scalar_%d_%d", v.Depth, v.ID)
	case ir.VarSlice:
		return fmt.Sprintf("slice_%d_%d", v.Depth, v.ID)
	case ir.VarMatrix:
		return fmt.Sprintf("matrix_%d_%d", v.Depth, v.ID)
	case ir.VarSharedMemory:
		cs.sharedMemories[v.ID] = v
		return fmt.Sprintf("shared_%d", v.ID)
	case ir.VarLocalArray:
		cs.localArrays[v.ID] = v
		return fmt.Sprintf("local_array_%d_%d", v.Depth, v.ID)

	case ir.VarAbsolutePos:
		cs.markReferenced(v.Kind)
		return "(global_invocation_id.x)"
	case ir.VarUnitPos:
		cs.markReferenced(v.Kind)
		return "local_invocation_id"
	case ir.VarUnitPosX:
		cs.markReferenced(v.Kind)
		return "local_invocation_id.x"
	case ir.VarUnitPosY:
		cs.markReferenced(v.Kind)
		return "local_invocation_id.y"
	case ir.VarUnitPosZ:
		cs.markReferenced(v.Kind)
		return "local_invocation_id.z"
	case ir.VarCubePos:
		cs.markReferenced(v.Kind)
		return "workgroup_id"
	case ir.VarCubePosX:
		cs.markReferenced(v.Kind)
		return "workgroup_id.x"
	case ir.VarCubePosY:
		cs.markReferenced(v.Kind)
		return "workgroup_id.y"
	case ir.VarCubePosZ:
		cs.markReferenced(v.Kind)
		return "workgroup_id.z"
	case ir.VarCubeDim:
		return fmt.Sprintf("vec3<u32>(%du, %du, %du)", cs.cubeDim[0], cs.cubeDim[1], cs.cubeDim[2])
	case ir.VarCubeDimX:
		return fmt.Sprintf("%du", cs.cubeDim[0])
	case ir.VarCubeDimY:
		return fmt.Sprintf("%du", cs.cubeDim[1])
	case ir.VarCubeDimZ:
		return fmt.Sprintf("%du", cs.cubeDim[2])
	case ir.VarCubeCount:
		cs.markReferenced(v.Kind)
		return "num_workgroups"
	case ir.VarCubeCountX:
		cs.markReferenced(v.Kind)
		return "num_workgroups.x"
	case ir.VarCubeCountY:
		cs.markReferenced(v.Kind)
		return "num_workgroups.y"
	case ir.VarCubeCountZ:
		cs.markReferenced(v.Kind)
		return "num_workgroups.z"
	case ir.VarRank:
		return "(info[0] / 2u)"
	case ir.VarSubcubeDim:
		cs.markReferenced(v.Kind)
		return "subgroup_size"
	}
	panic(fmt.Sprintf("compiler/wgsl: unhandled variable kind %d", v.Kind))
}
