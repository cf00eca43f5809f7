package wgsl

import (
	"fmt"
	"strings"

	"github.com/cubecl-go/cubecl/ir"
)

// registerExtensions scans a kernel body for operators that require a
// polyfill function definition — WGSL has no native powf, erf, or a tanh
// that behaves sanely at the extremes — recursing into every nested branch
// body so a polyfill used only inside a loop or conditional is still
// declared at module scope. A vectorized OpPowf additionally registers the
// matching powf_polyfill_vecN wrapper (see powfVecFn/writeExtensions): the
// scalar polyfill's negative-base branch relies on i32(exponent) to test
// parity, which has no direct vecN analogue, so component-wise pow is
// expressed as N calls to the scalar polyfill instead of a single vectorized
// one.
func (cs *compileState) registerExtensions(ops []ir.Operation) {
	for _, op := range ops {
		switch op.Category {
		case ir.CategoryOperator:
			switch op.Operator.Kind {
			case ir.OpPowf:
				cs.extensions["powf"] = true
				if width := vectorizationOf(op.Operator.Out); width > 1 {
					cs.extensions[powfVecFn(width)] = true
				}
			case ir.OpTanh:
				cs.extensions["safe_tanh"] = true
			case ir.OpErf:
				cs.extensions["erf"] = true
			}
		case ir.CategoryBranch:
			b := op.Branch
			if b.Body != nil {
				cs.registerExtensions(b.Body.Operations)
			}
			if b.Else != nil {
				cs.registerExtensions(b.Else.Operations)
			}
		}
	}
}

// powfVecFn names the component-wise powf wrapper for a given vector width.
func powfVecFn(width int) string {
	return fmt.Sprintf("powf_polyfill_vec%d", width)
}

func (cs *compileState) writeExtensions(out *strings.Builder) {
	if cs.extensions["powf"] {
		out.WriteString(powfSource)
	}
	for _, width := range []int{2, 3, 4} {
		if cs.extensions[powfVecFn(width)] {
			out.WriteString(powfVecSource(width))
		}
	}
	if cs.extensions["safe_tanh"] {
		out.WriteString(safeTanhSource)
	}
	if cs.extensions["erf"] {
		out.WriteString(erfSource)
	}
}

// powfSource polyfills pow() for negative bases, which WGSL's native pow()
// leaves undefined: the result is pow(-base, exponent), negated unless the
// exponent is an even integer. This gives the correctly signed value for
// integer exponents; a non-integer exponent yields the negated power of
// the magnitude.
const powfSource = `fn powf_polyfill(base: f32, exponent: f32) -> f32 {
  if base < 0.0 {
    return select(-pow(-base, exponent), pow(-base, exponent), exponent == floor(exponent) && (i32(exponent) % 2) == 0);
  }
  return pow(base, exponent);
}
`

var vecComponents = [4]string{"x", "y", "z", "w"}

// powfVecSource generates a component-wise powf_polyfill_vecN wrapper: it
// calls the scalar polyfill once per lane rather than trying to vectorize
// the scalar polyfill's negative-base branch directly.
func powfVecSource(width int) string {
	args := make([]string, width)
	for i := 0; i < width; i++ {
		c := vecComponents[i]
		args[i] = fmt.Sprintf("powf_polyfill(base.%s, exponent.%s)", c, c)
	}
	return fmt.Sprintf("fn %s(base: vec%d<f32>, exponent: vec%d<f32>) -> vec%d<f32> {\n  return vec%d<f32>(%s);\n}\n",
		powfVecFn(width), width, width, width, width, strings.Join(args, ", "))
}

// safeTanhSource avoids the Inf-Inf NaN some WGSL driver implementations of
// tanh produce for large-magnitude inputs by clamping before the exponential.
const safeTanhSource = `fn safe_tanh(x: f32) -> f32 {
  let clamped = clamp(x, -20.0, 20.0);
  return tanh(clamped);
}
`

// erfSource polyfills the Gauss error function via the Abramowitz & Stegun
// rational approximation, since WGSL has no native erf.
const erfSource = `fn erf_polyfill(x: f32) -> f32 {
  let s = sign(x);
  let a = abs(x);
  let t = 1.0 / (1.0 + 0.3275911 * a);
  let y = 1.0 - (((((1.061405429 * t - 1.453152027) * t) + 1.421413741) * t - 0.284496736) * t + 0.254829592) * t * exp(-a * a);
  return s * y;
}
`
