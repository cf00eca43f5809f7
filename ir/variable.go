package ir

// VarKind discriminates the closed set of value kinds a Variable may be.
type VarKind int

const (
	VarGlobalInputArray VarKind = iota
	VarGlobalOutputArray
	VarGlobalScalar
	VarConstantScalar
	VarLocal
	VarLocalScalar
	VarSlice
	VarMatrix
	VarSharedMemory
	VarLocalArray

	// Built-in position/size constants. These carry no id/depth of their
	// own — there is exactly one of each per kernel.
	VarAbsolutePos
	VarUnitPos
	VarUnitPosX
	VarUnitPosY
	VarUnitPosZ
	VarCubePos
	VarCubePosX
	VarCubePosY
	VarCubePosZ
	VarCubeDim
	VarCubeDimX
	VarCubeDimY
	VarCubeDimZ
	VarCubeCount
	VarCubeCountX
	VarCubeCountY
	VarCubeCountZ
	VarRank
	VarSubcubeDim
)

// IsBuiltin reports whether kind is one of the built-in position/size
// constants rather than a declared or global variable.
func (k VarKind) IsBuiltin() bool {
	return k >= VarAbsolutePos
}

// MatrixIdent identifies the role a cooperative-matrix Variable plays.
type MatrixIdent int

const (
	MatrixA MatrixIdent = iota
	MatrixB
	MatrixAccumulator
)

// MatrixLayout describes the storage layout cooperative-matrix load/store
// operations assume.
type MatrixLayout int

const (
	MatrixRowMajor MatrixLayout = iota
	MatrixColMajor
)

// MatrixInfo describes a cooperative-matrix fragment's shape and role.
type MatrixInfo struct {
	Ident  MatrixIdent
	M, N, K uint32
	Elem   Elem
	Layout MatrixLayout
}

// Variable is a tagged sum of value kinds, each carrying a stable identity
// within the scope it was declared in. The zero Variable (VarGlobalInputArray
// with ID 0) is never produced by the constructors below and is used as a
// sentinel "absent" value by Operation fields that are only conditionally
// populated.
type Variable struct {
	Kind VarKind

	ID    uint32
	Depth uint8

	Item Item // GlobalInputArray, GlobalOutputArray, Local, Slice, SharedMemory, LocalArray
	Elem Elem // GlobalScalar, LocalScalar

	Length uint32     // SharedMemory, LocalArray
	Mat    MatrixInfo // Matrix

	Value ConstantScalarValue // ConstantScalar
}

func GlobalInputArray(id uint32, item Item) Variable {
	return Variable{Kind: VarGlobalInputArray, ID: id, Item: item}
}

func GlobalOutputArray(id uint32, item Item) Variable {
	return Variable{Kind: VarGlobalOutputArray, ID: id, Item: item}
}

func GlobalScalar(id uint32, elem Elem) Variable {
	return Variable{Kind: VarGlobalScalar, ID: id, Elem: elem}
}

func ConstantScalar(value ConstantScalarValue) Variable {
	return Variable{Kind: VarConstantScalar, Value: value}
}

func Local(id uint32, item Item, depth uint8) Variable {
	return Variable{Kind: VarLocal, ID: id, Item: item, Depth: depth}
}

func LocalScalar(id uint32, elem Elem, depth uint8) Variable {
	return Variable{Kind: VarLocalScalar, ID: id, Elem: elem, Depth: depth}
}

func Slice(id uint32, item Item, depth uint8) Variable {
	return Variable{Kind: VarSlice, ID: id, Item: item, Depth: depth}
}

func Matrix(id uint32, mat MatrixInfo, depth uint8) Variable {
	return Variable{Kind: VarMatrix, ID: id, Mat: mat, Depth: depth}
}

func SharedMemory(id uint32, item Item, length uint32) Variable {
	return Variable{Kind: VarSharedMemory, ID: id, Item: item, Length: length}
}

func LocalArray(id uint32, item Item, depth uint8, length uint32) Variable {
	return Variable{Kind: VarLocalArray, ID: id, Item: item, Depth: depth, Length: length}
}

// Built-in constants. Each maps onto exactly one Variable; the Item carried
// is implicitly a uint32 scalar for the 3-component family members and for
// Rank/SubcubeDim, and a uvec3 for the un-suffixed whole-vector form.
var (
	AbsolutePos = Variable{Kind: VarAbsolutePos, Item: Scalar(UInt())}

	UnitPos  = Variable{Kind: VarUnitPos, Item: Vectorized(UInt(), 3)}
	UnitPosX = Variable{Kind: VarUnitPosX, Item: Scalar(UInt())}
	UnitPosY = Variable{Kind: VarUnitPosY, Item: Scalar(UInt())}
	UnitPosZ = Variable{Kind: VarUnitPosZ, Item: Scalar(UInt())}

	CubePos  = Variable{Kind: VarCubePos, Item: Vectorized(UInt(), 3)}
	CubePosX = Variable{Kind: VarCubePosX, Item: Scalar(UInt())}
	CubePosY = Variable{Kind: VarCubePosY, Item: Scalar(UInt())}
	CubePosZ = Variable{Kind: VarCubePosZ, Item: Scalar(UInt())}

	CubeDim  = Variable{Kind: VarCubeDim, Item: Vectorized(UInt(), 3)}
	CubeDimX = Variable{Kind: VarCubeDimX, Item: Scalar(UInt())}
	CubeDimY = Variable{Kind: VarCubeDimY, Item: Scalar(UInt())}
	CubeDimZ = Variable{Kind: VarCubeDimZ, Item: Scalar(UInt())}

	CubeCount  = Variable{Kind: VarCubeCount, Item: Vectorized(UInt(), 3)}
	CubeCountX = Variable{Kind: VarCubeCountX, Item: Scalar(UInt())}
	CubeCountY = Variable{Kind: VarCubeCountY, Item: Scalar(UInt())}
	CubeCountZ = Variable{Kind: VarCubeCountZ, Item: Scalar(UInt())}

	Rank       = Variable{Kind: VarRank, Item: Scalar(UInt())}
	SubcubeDim = Variable{Kind: VarSubcubeDim, Item: Scalar(UInt())}
)

// VarKey is the (kind, id, depth) identity tuple used to detect colliding
// declarations within a single scope; ids across sibling scopes may
// collide but are disambiguated by depth.
type VarKey struct {
	Kind  VarKind
	ID    uint32
	Depth uint8
}

// Key returns v's identity tuple.
func (v Variable) Key() VarKey {
	return VarKey{Kind: v.Kind, ID: v.ID, Depth: v.Depth}
}

// IsBuiltin reports whether v is a built-in position/size constant.
func (v Variable) IsBuiltin() bool { return v.Kind.IsBuiltin() }

// IsEmpty reports whether v is the unset sentinel used by optional
// Operation fields (e.g. BranchOp.Cond when a Loop has no condition).
func (v Variable) IsEmpty() bool {
	return v == Variable{}
}
