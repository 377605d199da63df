package mixin

// OptionValue is one occurrence of a header option together with the span
// of its `key = "value"` pair.
type OptionValue struct {
	Value string
	Span  Span
}

// Options is a multimap of header options. Values keep their source order
// per key and keys keep the order of their first occurrence.
type Options struct {
	keys   []string
	values map[string][]OptionValue
}

func NewOptions() *Options {
	return &Options{values: map[string][]OptionValue{}}
}

func (o *Options) Add(key, value string, span Span) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = append(o.values[key], OptionValue{Value: value, Span: span})
}

// Get returns every occurrence of key in source order.
func (o *Options) Get(key string) []OptionValue {
	if o == nil {
		return nil
	}
	return o.values[key]
}

// Values returns the string values for key in source order.
func (o *Options) Values(key string) []string {
	occ := o.Get(key)
	out := make([]string, len(occ))
	for i, v := range occ {
		out[i] = v.Value
	}
	return out
}

// Single returns the value of a key that may appear at most once. ok is
// false when the key is absent or repeated.
func (o *Options) Single(key string) (OptionValue, bool) {
	occ := o.Get(key)
	if len(occ) != 1 {
		return OptionValue{}, false
	}
	return occ[0], true
}

func (o *Options) Has(key string) bool {
	return len(o.Get(key)) > 0
}

// Keys returns the distinct keys in first-occurrence order.
func (o *Options) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// ParseOptions parses the tokens between a header's braces. The grammar is
//
//	options := [ entry { "," entry } [ "," ] ]
//	entry   := IDENT "=" STRING
//
// A malformed entry is reported and skipped up to the next comma so that
// every bad entry gets its own diagnostic. If any entry was malformed the
// result is nil and the error wraps ErrInvalidOptions.
func ParseOptions(tokens []Token, r Reporter) (*Options, error) {
	p := optionParser{toks: tokens}
	opts := NewOptions()
	failed := false

	for !p.atEOF() {
		key := p.peek()
		if key.Kind != Ident {
			errorf(r, key.Span, "expected an option name, found %s", key.Describe())
			failed = true
			p.skipEntry()
			continue
		}
		p.bump()

		eq := p.peek()
		if eq.Kind != Assign {
			errorf(r, eq.Span, "expected `=` after option `%s`, found %s", key.Text, eq.Describe())
			failed = true
			p.skipEntry()
			continue
		}
		p.bump()

		value := p.valueTokens()
		switch {
		case len(value) == 0:
			errorf(r, key.Span.To(eq.Span), "option `%s` is missing a value", key.Text)
			failed = true
		case len(value) != 1 || value[0].Kind != String:
			errorf(r, value[0].Span.To(value[len(value)-1].Span),
				"value of option `%s` must be a single string literal", key.Text)
			failed = true
		default:
			opts.Add(key.Text, value[0].Value, key.Span.To(value[0].Span))
		}
		p.skipEntry()
	}

	if failed {
		return nil, ErrInvalidOptions
	}
	return opts, nil
}

type optionParser struct {
	toks []Token
	pos  int
}

func (p *optionParser) atEOF() bool {
	return p.pos >= len(p.toks) || p.toks[p.pos].Kind == EOF
}

func (p *optionParser) peek() Token {
	if p.atEOF() {
		var span Span
		if n := len(p.toks); n > 0 {
			last := p.toks[n-1].Span
			span = Span{Filename: last.Filename, Line: last.Line, Column: last.Column, Offset: last.End, End: last.End}
		}
		return Token{Kind: EOF, Span: span}
	}
	return p.toks[p.pos]
}

func (p *optionParser) bump() {
	if !p.atEOF() {
		p.pos++
	}
}

// valueTokens consumes everything up to the next comma.
func (p *optionParser) valueTokens() []Token {
	start := p.pos
	for !p.atEOF() && p.toks[p.pos].Kind != Comma {
		p.pos++
	}
	return p.toks[start:p.pos]
}

// skipEntry advances past the next comma, or to the end.
func (p *optionParser) skipEntry() {
	for !p.atEOF() {
		k := p.toks[p.pos].Kind
		p.pos++
		if k == Comma {
			return
		}
	}
}
