package rule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Parse decodes a JSON document into a Rule. Objects become operations
// keyed by their first property; additional properties are ignored rather
// than rejected, matching the leniency of common JSONLogic tooling. A
// single bare operand is kept distinct from a one-element operand array.
func Parse(data []byte) (*Rule, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	r, err := decodeValue(dec)
	if err != nil {
		return nil, NewError(ErrCodeParse, "malformed rule document").WithCause(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, NewError(ErrCodeParse, "trailing content after rule document")
	}
	return r, nil
}

// ParseJSONC decodes a rule document that may carry // line and /* block */
// comments. Comments are blanked out before decoding so byte offsets in
// parse errors still line up with the source.
func ParseJSONC(data []byte) (*Rule, error) {
	return Parse(StripComments(data))
}

// ParseString is a convenience wrapper over ParseJSONC.
func ParseString(src string) (*Rule, error) {
	return ParseJSONC([]byte(src))
}

// FromInterface converts a decoded JSON value (nil, bool, float64,
// json.Number, string, []any, map[string]any) into a Rule. Object operands
// follow the same first-key rule as Parse, with Go map iteration order
// replaced by a deterministic smallest-key pick.
func FromInterface(v any) (*Rule, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Boolean(t), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, NewErrorf(ErrCodeParse, "invalid number %q", t.String()).WithCause(err)
		}
		return Number(f), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case string:
		return String(t), nil
	case []any:
		items := make([]*Rule, len(t))
		for i, el := range t {
			r, err := FromInterface(el)
			if err != nil {
				return nil, err
			}
			items[i] = r
		}
		return &Rule{Kind: KindList, Items: items}, nil
	case map[string]any:
		if len(t) == 0 {
			return EmptyObject(), nil
		}
		op := ""
		for k := range t {
			if op == "" || k < op {
				op = k
			}
		}
		return operationFrom(op, t[op])
	}
	return nil, NewErrorf(ErrCodeParse, "unsupported value type %T", v)
}

func operationFrom(op string, operand any) (*Rule, error) {
	if list, ok := operand.([]any); ok {
		args := make([]*Rule, len(list))
		for i, el := range list {
			r, err := FromInterface(el)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return &Rule{Kind: KindOperation, Op: op, Args: args, ArgList: true}, nil
	}
	arg, err := FromInterface(operand)
	if err != nil {
		return nil, err
	}
	return &Rule{Kind: KindOperation, Op: op, Args: []*Rule{arg}}, nil
}

// decodeValue consumes exactly one JSON value from the token stream.
// Working on the stream keeps the first-key-wins rule exact: map decoding
// would lose source key order.
func decodeValue(dec *json.Decoder) (*Rule, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Boolean(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			return decodeList(dec)
		case '{':
			return decodeOperation(dec)
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeList(dec *json.Decoder) (*Rule, error) {
	items := []*Rule{}
	for dec.More() {
		el, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, el)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return &Rule{Kind: KindList, Items: items}, nil
}

func decodeOperation(dec *json.Decoder) (*Rule, error) {
	var (
		first *Rule
		op    string
		seen  int
	)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		if seen == 0 {
			op = key
			first = val
		}
		seen++
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if seen == 0 {
		return EmptyObject(), nil
	}
	if first.Kind == KindList {
		return &Rule{Kind: KindOperation, Op: op, Args: first.Items, ArgList: true}, nil
	}
	return &Rule{Kind: KindOperation, Op: op, Args: []*Rule{first}}, nil
}

// StripComments blanks // line comments and /* block */ comments from a
// JSONC document, leaving string contents and newlines untouched.
func StripComments(src []byte) []byte {
	const (
		stateCode = iota
		stateString
		stateStringEscape
		stateLineComment
		stateBlockComment
	)
	out := make([]byte, len(src))
	copy(out, src)
	state := stateCode
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case stateCode:
			switch {
			case c == '"':
				state = stateString
			case c == '/' && i+1 < len(src) && src[i+1] == '/':
				state = stateLineComment
				out[i] = ' '
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				state = stateBlockComment
				out[i] = ' '
			}
		case stateString:
			switch c {
			case '\\':
				state = stateStringEscape
			case '"':
				state = stateCode
			}
		case stateStringEscape:
			state = stateString
		case stateLineComment:
			if c == '\n' {
				state = stateCode
			} else {
				out[i] = ' '
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateCode
			} else if c != '\n' {
				out[i] = ' '
			}
		}
	}
	return out
}
