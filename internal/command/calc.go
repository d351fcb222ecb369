package command

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// calcFunctions maps function names to their implementations.
// Multi-argument functions take the extra arguments from args[1:].
var calcFunctions = map[string]func(args []float64) (float64, error){
	"sqrt":  unaryFn(math.Sqrt),
	"sin":   unaryFn(math.Sin),
	"cos":   unaryFn(math.Cos),
	"tan":   unaryFn(math.Tan),
	"asin":  unaryFn(math.Asin),
	"acos":  unaryFn(math.Acos),
	"atan":  unaryFn(math.Atan),
	"log":   unaryFn(math.Log),
	"log2":  unaryFn(math.Log2),
	"log10": unaryFn(math.Log10),
	"exp":   unaryFn(math.Exp),
	"abs":   unaryFn(math.Abs),
	"floor": unaryFn(math.Floor),
	"ceil":  unaryFn(math.Ceil),
	"round": unaryFn(math.Round),
	"pow": func(args []float64) (float64, error) {
		if len(args) != 2 {
			return 0, fmt.Errorf("pow expects 2 arguments, got %d", len(args))
		}
		return math.Pow(args[0], args[1]), nil
	},
}

// calcConstants maps constant names to their values.
var calcConstants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"tau": 2 * math.Pi,
}

func unaryFn(f func(float64) float64) func([]float64) (float64, error) {
	return func(args []float64) (float64, error) {
		if len(args) != 1 {
			return 0, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return f(args[0]), nil
	}
}

// CalcUnit evaluates arithmetic expressions.
type CalcUnit struct{}

// NewCalc creates the builtin calculator unit.
func NewCalc() *CalcUnit { return &CalcUnit{} }

func (c *CalcUnit) Descriptor() Descriptor {
	return Descriptor{
		Name:            "calc",
		Aliases:         []string{"math"},
		Description:     "Evaluate arithmetic expressions with functions and constants",
		Category:        CategoryMath,
		ContextProvider: true,
		MachineCallable: true,
	}
}

func (c *CalcUnit) Execute(_ context.Context, arg string, _ *Env) *Result {
	arg = strings.TrimSpace(arg)

	// Empty input and the help verbs answer with usage, not an error.
	switch strings.ToLower(arg) {
	case "", "help", "?":
		return Usage(calcUsage)
	case "functions":
		return Success("functions_list", listCalcFunctions(), nil)
	case "constants":
		return Success("constants_list", listCalcConstants(), nil)
	}

	value, err := EvalExpression(arg)
	if err != nil {
		return Failuref("cannot evaluate %q: %v", arg, err)
	}

	return Success("calculation",
		fmt.Sprintf("%s = %s", arg, formatNumber(value)),
		map[string]any{
			"expression": arg,
			"result":     value,
		})
}

const calcUsage = `calc evaluates arithmetic expressions.

Usage:
  calc: <expression>

Examples:
  calc: 2 + 3 * 4
  calc: sqrt(16) + sin(pi/2)
  calc: 2^8
  calc: log10(1000)

Sub-commands:
  calc: functions    list available functions
  calc: constants    list available constants`

func listCalcFunctions() string {
	names := make([]string, 0, len(calcFunctions))
	for name := range calcFunctions {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available functions:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s(x)\n", name)
	}
	return b.String()
}

func listCalcConstants() string {
	names := make([]string, 0, len(calcConstants))
	for name := range calcConstants {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available constants:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s = %v\n", name, calcConstants[name])
	}
	return b.String()
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', 12, 64)
}

// EvalExpression evaluates an arithmetic expression supporting
// + - * / ^ (and ** as a power alias), unary minus, parentheses,
// function calls and named constants.
func EvalExpression(expr string) (float64, error) {
	p := &exprParser{src: strings.ReplaceAll(expr, "**", "^")}
	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return 0, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("result is not a finite number")
	}
	return v, nil
}

// exprParser is a small recursive-descent parser over a byte offset.
type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case '%':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpace()
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	if p.peek() == '+' {
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (float64, error) {
	base, err := p.parseAtom()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.peek() == '^' {
		p.pos++
		// Right-associative: 2^3^2 == 2^(3^2)
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) parseAtom() (float64, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0, fmt.Errorf("unexpected end of expression")
	}

	ch := p.src[p.pos]

	if ch == '(' {
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}

	if ch >= '0' && ch <= '9' || ch == '.' {
		return p.parseNumber()
	}

	if isIdentStart(rune(ch)) {
		return p.parseIdent()
	}

	return 0, fmt.Errorf("unexpected %q at position %d", ch, p.pos)
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch >= '0' && ch <= '9' || ch == '.' || ch == 'e' || ch == 'E' {
			p.pos++
			continue
		}
		// Exponent sign directly after e/E
		if (ch == '+' || ch == '-') && p.pos > start {
			prev := p.src[p.pos-1]
			if prev == 'e' || prev == 'E' {
				p.pos++
				continue
			}
		}
		break
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", p.src[start:p.pos])
	}
	return v, nil
}

func (p *exprParser) parseIdent() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(rune(p.src[p.pos])) {
		p.pos++
	}
	name := strings.ToLower(p.src[start:p.pos])

	p.skipSpace()
	if p.peek() == '(' {
		fn, ok := calcFunctions[name]
		if !ok {
			return 0, fmt.Errorf("unknown function %q", name)
		}
		p.pos++
		args, err := p.parseArgs()
		if err != nil {
			return 0, err
		}
		return fn(args)
	}

	if v, ok := calcConstants[name]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("unknown identifier %q", name)
}

func (p *exprParser) parseArgs() ([]float64, error) {
	var args []float64
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
		return args, nil
	}
	for {
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, fmt.Errorf("missing closing parenthesis in function call")
		}
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
