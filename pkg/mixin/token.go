package mixin

// TokenKind classifies the tokens the engine needs to understand. Anything
// the engine does not care about is Other.
type TokenKind int

const (
	EOF TokenKind = iota
	Ident
	String
	Assign
	Comma
	Semicolon
	LBrace
	RBrace
	Other
)

var tokenKindNames = [...]string{
	EOF:       "EOF",
	Ident:     "identifier",
	String:    "string literal",
	Assign:    "`=`",
	Comma:     "`,`",
	Semicolon: "`;`",
	LBrace:    "`{`",
	RBrace:    "`}`",
	Other:     "token",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return "token"
}

// Token is one host token. Text is the token as written; for String tokens
// Value holds the decoded literal.
type Token struct {
	Kind  TokenKind
	Text  string
	Value string
	Span  Span
}

// Describe renders the token for use inside a diagnostic message.
func (t Token) Describe() string {
	if t.Kind == EOF {
		return "end of input"
	}
	return "`" + t.Text + "`"
}
