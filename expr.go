package wkb

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

// Expr is a node of a potential expression. Numbers stay exact until an
// expression is compiled or evaluated.
type Expr interface {
	Simplify() Expr
	String() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Eval() (*Num, bool)
	Equal(other Expr) bool
	compile(varName string) (func(float64) float64, error)
}

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("wkb: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts f exactly. f must be finite.
func NFloat(f float64) *Num {
	r := new(big.Rat).SetFloat64(f)
	if r == nil {
		panic(fmt.Sprintf("wkb: cannot represent %v as a rational", f))
	}
	return &Num{val: r}
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Eval() (*Num, bool)    { return n, true }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) compile(string) (func(float64) float64, error) {
	v := n.Float64()
	return func(float64) float64 { return v }, nil
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("wkb: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym             { return &Sym{name: name} }
func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) Eval() (*Num, bool)    { return nil, false }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) Sub(v string, val Expr) Expr {
	if s.name == v {
		return val
	}
	return s
}
func (s *Sym) Diff(v string) Expr {
	if s.name == v {
		return N(1)
	}
	return N(0)
}

func (s *Sym) compile(varName string) (func(float64) float64, error) {
	if s.name != varName {
		return nil, fmt.Errorf("%w: %s", ErrFreeSymbol, s.name)
	}
	return func(x float64) float64 { return x }, nil
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	// Like terms are keyed by their non-numeric part, so 2*x^2 + x^2
	// collapses to 3*x^2.
	acc := N(0)
	coeffs := map[string]*Num{}
	bodies := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			acc = numAdd(acc, n)
			continue
		}
		c, body := splitCoeff(t)
		key := body.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = N(0)
			bodies[key] = body
		}
		coeffs[key] = numAdd(coeffs[key], c)
	}
	sort.Strings(order)

	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		c := coeffs[key]
		switch {
		case c.IsZero():
			continue
		case c.IsOne():
			result = append(result, bodies[key])
		default:
			result = append(result, MulOf(c, bodies[key]))
		}
	}
	if !acc.IsZero() {
		result = append(result, acc)
	}
	switch len(result) {
	case 0:
		return N(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}

func (a *Add) Sub(varName string, value Expr) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Sub(varName, value)
	}
	return AddOf(out...)
}

func (a *Add) Diff(varName string) Expr {
	out := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		out[i] = t.Diff(varName)
	}
	return AddOf(out...)
}

func (a *Add) Eval() (*Num, bool) {
	acc := N(0)
	for _, t := range a.terms {
		v, ok := t.Eval()
		if !ok {
			return nil, false
		}
		acc = numAdd(acc, v)
	}
	return acc, true
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	return ok && equalAll(a.terms, o.terms)
}

func (a *Add) Terms() []Expr { return a.terms }

func (a *Add) compile(varName string) (func(float64) float64, error) {
	fs, err := compileAll(a.terms, varName)
	if err != nil {
		return nil, err
	}
	return func(x float64) float64 {
		s := 0.0
		for _, f := range fs {
			s += f(x)
		}
		return s
	}, nil
}

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	coeff := N(1)
	others := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			for _, g := range inner.factors {
				if n, ok := g.(*Num); ok {
					coeff = numMul(coeff, n)
				} else {
					others = append(others, g)
				}
			}
			continue
		}
		if n, ok := s.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		others = append(others, s)
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}
	sort.SliceStable(others, func(i, j int) bool { return others[i].String() < others[j].String() })
	if coeff.IsOne() {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func (m *Mul) String() string {
	parts := make([]string, len(m.factors))
	for i, f := range m.factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return strings.Join(parts, "*")
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	out := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.Sub(varName, value)
	}
	return MulOf(out...)
}

// Diff applies the product rule.
func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i := range m.factors {
		fs := make([]Expr, len(m.factors))
		copy(fs, m.factors)
		fs[i] = m.factors[i].Diff(varName)
		terms[i] = MulOf(fs...)
	}
	return AddOf(terms...)
}

func (m *Mul) Eval() (*Num, bool) {
	acc := N(1)
	for _, f := range m.factors {
		v, ok := f.Eval()
		if !ok {
			return nil, false
		}
		acc = numMul(acc, v)
	}
	return acc, true
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	return ok && equalAll(m.factors, o.factors)
}

func (m *Mul) Factors() []Expr { return m.factors }

func (m *Mul) compile(varName string) (func(float64) float64, error) {
	fs, err := compileAll(m.factors, varName)
	if err != nil {
		return nil, err
	}
	return func(x float64) float64 {
		p := 1.0
		for _, f := range fs {
			p *= f(x)
		}
		return p
	}, nil
}

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }
func SqrtOf(arg Expr) Expr      { return PowOf(arg, F(1, 2)) }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expNum := exp.(*Num)
	if expNum && en.IsZero() {
		return N(1)
	}
	if expNum && en.IsOne() {
		return base
	}
	if bn, ok := base.(*Num); ok {
		if bn.IsOne() {
			return N(1)
		}
		if expNum && en.IsInteger() && !(bn.IsZero() && en.IsNegative()) {
			e := en.val.Num().Int64()
			if e >= -20 && e <= 20 {
				r := N(1)
				for i := int64(0); i < abs64(e); i++ {
					r = numMul(r, bn)
				}
				if e < 0 {
					return numRecip(r)
				}
				return r
			}
		}
	}
	// (b^m)^n = b^(m*n) only holds for integer n.
	if inner, ok := base.(*Pow); ok && expNum && en.IsInteger() {
		return PowOf(inner.base, MulOf(inner.exp, exp))
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	b := p.base.String()
	switch p.base.(type) {
	case *Add, *Mul:
		b = "(" + b + ")"
	}
	return b + "^" + p.exp.String()
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	if _, ok := p.exp.(*Num); ok {
		return MulOf(p.exp, PowOf(p.base, AddOf(p.exp, N(-1))), du)
	}
	dv := p.exp.Diff(varName)
	if _, ok := p.base.(*Num); ok {
		return MulOf(p, LnOf(p.base), dv)
	}
	return MulOf(p, AddOf(MulOf(dv, LnOf(p.base)), MulOf(p.exp, du, PowOf(p.base, N(-1)))))
}

func (p *Pow) Eval() (*Num, bool) {
	b, ok1 := p.base.Eval()
	e, ok2 := p.exp.Eval()
	if !ok1 || !ok2 {
		return nil, false
	}
	v := math.Pow(b.Float64(), e.Float64())
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return NFloat(v), true
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

func (p *Pow) compile(varName string) (func(float64) float64, error) {
	b, err := p.base.compile(varName)
	if err != nil {
		return nil, err
	}
	if en, ok := p.exp.(*Num); ok {
		if en.IsInteger() && en.val.Num().IsInt64() {
			k := en.val.Num().Int64()
			if k >= 0 && k <= 8 {
				return func(x float64) float64 {
					v, r := b(x), 1.0
					for i := int64(0); i < k; i++ {
						r *= v
					}
					return r
				}, nil
			}
		}
		if en.Equal(F(1, 2)) {
			return func(x float64) float64 { return math.Sqrt(b(x)) }, nil
		}
		e := en.Float64()
		return func(x float64) float64 { return math.Pow(b(x), e) }, nil
	}
	e, err := p.exp.compile(varName)
	if err != nil {
		return nil, err
	}
	return func(x float64) float64 { return math.Pow(b(x), e(x)) }, nil
}

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

var funcTable = map[string]func(float64) float64{
	"sin":  math.Sin,
	"cos":  math.Cos,
	"exp":  math.Exp,
	"ln":   math.Log,
	"abs":  math.Abs,
	"cosh": math.Cosh,
	"sinh": math.Sinh,
	"sign": sign,
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func SinOf(arg Expr) Expr  { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr  { return funcOf("cos", arg).Simplify() }
func ExpOf(arg Expr) Expr  { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr   { return funcOf("ln", arg).Simplify() }
func AbsOf(arg Expr) Expr  { return funcOf("abs", arg).Simplify() }
func CoshOf(arg Expr) Expr { return funcOf("cosh", arg).Simplify() }
func SinhOf(arg Expr) Expr { return funcOf("sinh", arg).Simplify() }
func SignOf(arg Expr) Expr { return funcOf("sign", arg).Simplify() }

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	if n, ok := arg.(*Num); ok {
		switch f.name {
		case "abs":
			if n.IsNegative() {
				return numMul(N(-1), n)
			}
			return n
		case "sign":
			return N(int64(n.val.Sign()))
		case "exp", "cos", "cosh":
			if n.IsZero() {
				return N(1)
			}
		case "sin", "sinh":
			if n.IsZero() {
				return N(0)
			}
		case "ln":
			if n.IsOne() {
				return N(0)
			}
		}
	}
	if f.name == "abs" {
		if inner, ok := arg.(*Func); ok && inner.name == "abs" {
			return inner
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "exp":
		outer = ExpOf(f.arg)
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "abs":
		outer = SignOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "sinh":
		outer = CoshOf(f.arg)
	case "sign":
		// Zero almost everywhere.
		return N(0)
	default:
		return MulOf(funcOf("D["+f.name+"]", f.arg), du)
	}
	return MulOf(outer, du)
}

func (f *Func) Eval() (*Num, bool) {
	n, ok := f.arg.Eval()
	if !ok {
		return nil, false
	}
	fn, ok := funcTable[f.name]
	if !ok {
		return nil, false
	}
	v := fn(n.Float64())
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return NFloat(v), true
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

func (f *Func) compile(varName string) (func(float64) float64, error) {
	fn, ok := funcTable[f.name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, f.name)
	}
	a, err := f.arg.compile(varName)
	if err != nil {
		return nil, err
	}
	return func(x float64) float64 { return fn(a(x)) }, nil
}

// ============================================================
// Public helpers
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }

func Sub(expr Expr, varName string, value Expr) Expr { return expr.Sub(varName, value).Simplify() }
func Diff(expr Expr, varName string) Expr             { return expr.Diff(varName).Simplify() }

// Compile returns a closure evaluating e at a value of varName. Any other
// free symbol is an error.
func Compile(e Expr, varName string) (func(float64) float64, error) {
	return e.Simplify().compile(varName)
}

// EvalAt substitutes x and evaluates. It is the slow path; use Compile in
// loops.
func EvalAt(e Expr, varName string, x float64) (float64, bool) {
	n, ok := Sub(e, varName, NFloat(x)).Eval()
	if !ok {
		return math.NaN(), false
	}
	return n.Float64(), true
}

// ============================================================
// Polynomial utilities
// ============================================================

// Degree reports the polynomial degree of expr in varName, or -1 when expr
// is not a polynomial in varName.
func Degree(expr Expr, varName string) int {
	switch v := expr.Simplify().(type) {
	case *Num:
		return 0
	case *Sym:
		if v.name == varName {
			return 1
		}
		return 0
	case *Pow:
		if !dependsOn(v, varName) {
			return 0
		}
		if sym, ok := v.base.(*Sym); ok && sym.name == varName {
			if n, ok := v.exp.(*Num); ok && n.IsInteger() && !n.IsNegative() {
				return int(n.val.Num().Int64())
			}
		}
		return -1
	case *Add:
		maxDeg := 0
		for _, t := range v.terms {
			d := Degree(t, varName)
			if d < 0 {
				return -1
			}
			if d > maxDeg {
				maxDeg = d
			}
		}
		return maxDeg
	case *Mul:
		total := 0
		for _, f := range v.factors {
			d := Degree(f, varName)
			if d < 0 {
				return -1
			}
			total += d
		}
		return total
	case *Func:
		if dependsOn(v, varName) {
			return -1
		}
		return 0
	}
	return -1
}

// PolyCoeffs maps degree to numeric coefficient. ok is false when expr is
// not a polynomial in varName with numeric coefficients.
func PolyCoeffs(expr Expr, varName string) (coeffs map[int]*Num, ok bool) {
	if Degree(expr, varName) < 0 {
		return nil, false
	}
	coeffs = map[int]*Num{}
	var terms []Expr
	if a, isAdd := expr.Simplify().(*Add); isAdd {
		terms = a.terms
	} else {
		terms = []Expr{expr.Simplify()}
	}
	for _, t := range terms {
		deg := Degree(t, varName)
		c, body := splitCoeff(t)
		if deg == 0 {
			n, ok := t.Eval()
			if !ok {
				return nil, false
			}
			c = n
		} else if !isMonomial(body, varName) {
			return nil, false
		}
		if prev, seen := coeffs[deg]; seen {
			c = numAdd(prev, c)
		}
		coeffs[deg] = c
	}
	return coeffs, true
}

// SolveQuadratic returns the real roots of a*x^2 + b*x + c in ascending
// order.
func SolveQuadratic(a, b, c float64) ([]float64, error) {
	if a == 0 {
		if b == 0 {
			return nil, fmt.Errorf("%w: degenerate quadratic", ErrNoRoot)
		}
		return []float64{-c / b}, nil
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil, fmt.Errorf("%w: complex roots %g ± %gi", ErrNoRoot, -b/(2*a), math.Sqrt(-disc)/(2*a))
	}
	sq := math.Sqrt(disc)
	// Avoids cancellation when b and sq are close.
	q := -0.5 * (b + math.Copysign(sq, b))
	var r1, r2 float64
	if q == 0 {
		r1, r2 = 0, 0
	} else {
		r1, r2 = q/a, c/q
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return []float64{r1, r2}, nil
}

// FreeSymbols returns the names of all symbols in e.
func FreeSymbols(e Expr) map[string]struct{} {
	out := map[string]struct{}{}
	collectSymbols(e, out)
	return out
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

func dependsOn(e Expr, varName string) bool {
	_, ok := FreeSymbols(e)[varName]
	return ok
}

func isMonomial(e Expr, varName string) bool {
	switch v := e.(type) {
	case *Sym:
		return v.name == varName
	case *Pow:
		return Degree(v, varName) > 0
	case *Mul:
		for _, f := range v.factors {
			if !isMonomial(f, varName) {
				return false
			}
		}
		return true
	}
	return false
}

// splitCoeff separates the leading numeric factor of a term.
func splitCoeff(e Expr) (*Num, Expr) {
	m, ok := e.(*Mul)
	if !ok || len(m.factors) == 0 {
		return N(1), e
	}
	c, ok := m.factors[0].(*Num)
	if !ok {
		return N(1), e
	}
	rest := m.factors[1:]
	if len(rest) == 1 {
		return c, rest[0]
	}
	return c, &Mul{factors: rest}
}

func compileAll(es []Expr, varName string) ([]func(float64) float64, error) {
	fs := make([]func(float64) float64, len(es))
	for i, e := range es {
		f, err := e.compile(varName)
		if err != nil {
			return nil, err
		}
		fs[i] = f
	}
	return fs, nil
}

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
