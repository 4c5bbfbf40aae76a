package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// Evaluator is a small, dependency-free condition evaluator.
//
// Supported syntax:
// - truthiness: `moving`
// - comparisons: `service == "gas"`, `units >= 2`, `consent != false`, `x == null`
// - composition: `a && (b || !c)`
//
// Values are read from Context.Values (with dot-path traversal) and
// Context.Extras (via the `extras.` prefix). Compiled expressions
// are cached per rule string.
type Evaluator struct {
	cache sync.Map
}

// Context provides the inputs an expression is evaluated against. Values
// holds the current form values while Extras carries caller supplied data
// such as user roles or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// New returns an Evaluator.
func New() *Evaluator { return &Evaluator{} }

// Eval compiles rule (once) and evaluates it against ctx.
func (e *Evaluator) Eval(_ string, rule string, ctx Context) (bool, error) {
	key := strings.TrimSpace(rule)
	if cached, ok := e.cache.Load(key); ok {
		return Evaluate(cached.(Node), ctx), nil
	}
	node, err := Compile(key)
	if err != nil {
		return false, err
	}
	e.cache.Store(key, node)
	return Evaluate(node, ctx), nil
}

// Compile parses rule into a Node. An empty rule compiles to Always().
func Compile(rule string) (Node, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return Always(), nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return Node{}, err
	}
	if len(tokens) == 0 {
		return Always(), nil
	}

	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return Node{}, err
	}
	if stream.pos < len(stream.tokens) {
		return Node{}, fmt.Errorf("visibility/expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

// MustCompile panics when rule cannot be compiled.
func MustCompile(rule string) Node {
	node, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return node
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	default:
		return false
	}
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	peek := func() byte {
		if i >= len(input) {
			return 0
		}
		return input[i]
	}

	for i < len(input) {
		ch := input[i]
		switch ch {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		case '(':
			i++
			tokens = append(tokens, token{kind: tokenLParen, raw: "("})
			continue
		case ')':
			i++
			tokens = append(tokens, token{kind: tokenRParen, raw: ")"})
			continue
		case '!':
			i++
			if peek() == '=' {
				i++
				tokens = append(tokens, token{kind: tokenNeq, raw: "!="})
				continue
			}
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
			continue
		case '=':
			i++
			if peek() != '=' {
				return nil, errors.New("visibility/expr: unexpected '='; use '=='")
			}
			i++
			tokens = append(tokens, token{kind: tokenEq, raw: "=="})
			continue
		case '<', '>':
			i++
			orEqual := peek() == '='
			if orEqual {
				i++
			}
			switch {
			case ch == '<' && orEqual:
				tokens = append(tokens, token{kind: tokenLte, raw: "<="})
			case ch == '<':
				tokens = append(tokens, token{kind: tokenLt, raw: "<"})
			case orEqual:
				tokens = append(tokens, token{kind: tokenGte, raw: ">="})
			default:
				tokens = append(tokens, token{kind: tokenGt, raw: ">"})
			}
			continue
		case '&':
			i++
			if peek() != '&' {
				return nil, errors.New("visibility/expr: unexpected '&'; use '&&'")
			}
			i++
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
			continue
		case '|':
			i++
			if peek() != '|' {
				return nil, errors.New("visibility/expr: unexpected '|'; use '||'")
			}
			i++
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
			continue
		case '"', '\'':
			value, next, err := readString(input, i)
			if err != nil {
				return nil, err
			}
			i = next
			tokens = append(tokens, token{kind: tokenString, raw: value})
			continue
		}

		start := i
		for i < len(input) && !isDelimiter(input[i]) {
			i++
		}
		raw := input[start:i]
		switch strings.ToLower(raw) {
		case "true", "false":
			tokens = append(tokens, token{kind: tokenBool, raw: strings.ToLower(raw)})
		case "null", "nil":
			tokens = append(tokens, token{kind: tokenNull, raw: "null"})
		case "and":
			tokens = append(tokens, token{kind: tokenAnd, raw: "&&"})
		case "or":
			tokens = append(tokens, token{kind: tokenOr, raw: "||"})
		case "not":
			tokens = append(tokens, token{kind: tokenNot, raw: "!"})
		default:
			if looksLikeNumber(raw) {
				tokens = append(tokens, token{kind: tokenNumber, raw: raw})
			} else {
				tokens = append(tokens, token{kind: tokenIdentifier, raw: raw})
			}
		}
	}

	return tokens, nil
}

// readString scans a quoted literal starting at input[start] and returns the
// unescaped value plus the index after the closing quote.
func readString(input string, start int) (string, int, error) {
	quote := input[start]
	var b strings.Builder
	for i := start + 1; i < len(input); i++ {
		c := input[i]
		switch {
		case c == '\\' && i+1 < len(input):
			i++
			switch input[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(input[i])
			}
		case c == quote:
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, errors.New("visibility/expr: unterminated string literal")
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+' || ch == '.'
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseOr(stream *tokenStream) (Node, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return Node{}, err
	}
	args := []Node{left}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return Node{}, err
		}
		args = append(args, right)
	}
	if len(args) == 1 {
		return left, nil
	}
	return Node{Op: OpOr, Args: args}, nil
}

func parseAnd(stream *tokenStream) (Node, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return Node{}, err
	}
	args := []Node{left}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return Node{}, err
		}
		args = append(args, right)
	}
	if len(args) == 1 {
		return left, nil
	}
	return Node{Op: OpAnd, Args: args}, nil
}

func parseUnary(stream *tokenStream) (Node, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return Node{}, err
		}
		return Node{Op: OpNot, Args: []Node{inner}}, nil
	}
	return parsePrimary(stream)
}

var comparisonOps = map[tokenKind]string{
	tokenEq:  "==",
	tokenNeq: "!=",
	tokenLt:  "<",
	tokenLte: "<=",
	tokenGt:  ">",
	tokenGte: ">=",
}

func parsePrimary(stream *tokenStream) (Node, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return Node{}, err
		}
		if !stream.match(tokenRParen) {
			return Node{}, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	if tok, ok := stream.consume(tokenBool); ok {
		return Node{Op: OpConst, Lit: &Literal{Kind: LitBool, Value: tok.raw == "true"}}, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return Node{}, errors.New("visibility/expr: empty expression")
		}
		return Node{}, fmt.Errorf("visibility/expr: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}

	if stream.pos < len(stream.tokens) {
		if op, isCmp := comparisonOps[stream.tokens[stream.pos].kind]; isCmp {
			stream.pos++
			lit, err := stream.consumeLiteral()
			if err != nil {
				return Node{}, err
			}
			if op != "==" && op != "!=" && (lit.Kind == LitBool || lit.Kind == LitNull) {
				return Node{}, fmt.Errorf("visibility/expr: unsupported operator %q for %s literal", op, lit.Kind)
			}
			return Node{Op: OpCmp, Var: ident.raw, Cmp: op, Lit: &lit}, nil
		}
	}

	return Node{Op: OpTruthy, Var: ident.raw}, nil
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (Literal, error) {
	if s.pos >= len(s.tokens) {
		return Literal{}, errors.New("visibility/expr: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString:
		return Literal{Kind: LitString, Value: tok.raw}, nil
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
			return Literal{}, fmt.Errorf("visibility/expr: invalid number literal %q", tok.raw)
		}
		return Literal{Kind: LitNumber, Value: value}, nil
	case tokenBool:
		return Literal{Kind: LitBool, Value: tok.raw == "true"}, nil
	case tokenNull:
		return Literal{Kind: LitNull}, nil
	case tokenIdentifier:
		// Bare words compare as strings: `service == gas`.
		return Literal{Kind: LitString, Value: tok.raw}, nil
	default:
		return Literal{}, fmt.Errorf("visibility/expr: expected literal, got %q", tok.raw)
	}
}
