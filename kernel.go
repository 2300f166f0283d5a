package blockbench

// Blocking selects the cache blocking used for one kernel call. The zero
// value asks the kernel for its own default blocking.
type Blocking struct {
	size     SizeTriple
	override bool
}

// DefaultBlocking lets the kernel choose its blocking.
func DefaultBlocking() Blocking {
	return Blocking{}
}

// Block forces the kernel to use block sizes t for a single call.
func Block(t SizeTriple) Blocking {
	return Blocking{size: t, override: true}
}

// Size returns the forced block sizes and true, or false for default blocking.
func (b Blocking) Size() (SizeTriple, bool) {
	return b.size, b.override
}

// IsDefault reports whether b leaves blocking to the kernel.
func (b Blocking) IsDefault() bool {
	return !b.override
}

// Operands is one independent set of inputs and output for a product of
// size Problem. Matrices are row-major float32: LHS is M×K, RHS is K×N and
// Dst is M×N.
type Operands struct {
	Problem SizeTriple
	LHS     []float32
	RHS     []float32
	Dst     []float32
}

// OperandBytes is the combined footprint of one operand set of size t.
func OperandBytes(t SizeTriple) uint64 {
	k, m, n := uint64(t.K), uint64(t.M), uint64(t.N)
	return 4 * (k*m + k*n + m*n)
}

// NewOperands allocates a zeroed operand set.
func NewOperands(t SizeTriple) *Operands {
	return &Operands{
		Problem: t,
		LHS:     make([]float32, t.M*t.K),
		RHS:     make([]float32, t.K*t.N),
		Dst:     make([]float32, t.M*t.N),
	}
}

// Kernel is the numeric routine under test. Implementations compute
// op.Dst = op.LHS * op.RHS.
type Kernel interface {
	// Multiply performs one product using the given blocking.
	Multiply(op *Operands, block Blocking)

	// AutoBlocking reports the blocking the kernel uses for problem when
	// called with DefaultBlocking.
	AutoBlocking(problem SizeTriple) SizeTriple
}
