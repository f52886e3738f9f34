package sqldump

import (
	"bufio"
	"io"

	"github.com/wikihop/wikihop/internal/wikierr"
)

// lexer wraps a buffered byte stream with the small set of primitives the
// reader's state machine needs: peek-without-consuming, consume, and
// absolute byte offset tracking for diagnostics. It never buffers more
// than the underlying bufio.Reader's fixed window plus whatever a single
// in-progress token (string or number) accumulates.
type lexer struct {
	br     *bufio.Reader
	table  string
	offset int64
}

func newLexer(r io.Reader, table string, bufSize int) *lexer {
	return &lexer{br: bufio.NewReaderSize(r, bufSize), table: table}
}

func (l *lexer) parseErr(msg string) error {
	return &wikierr.ParseError{Table: l.table, Offset: l.offset, Msg: msg}
}

func (l *lexer) peekByte() (byte, error) {
	b, err := l.br.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (l *lexer) consumeByte() {
	l.br.Discard(1)
	l.offset++
}

func (l *lexer) readByte() (byte, error) {
	b, err := l.br.ReadByte()
	if err != nil {
		return 0, err
	}
	l.offset++
	return b, nil
}

func (l *lexer) skipWhitespace() {
	for {
		b, err := l.peekByte()
		if err != nil {
			return
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			l.consumeByte()
			continue
		}
		return
	}
}

func isWordStart(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '_'
}

func isWordChar(b byte) bool {
	return isWordStart(b) || (b >= '0' && b <= '9') || b == '$'
}

// readWord reads a maximal run of word characters. The caller must have
// already peeked a word-start byte.
func (l *lexer) readWord() (string, error) {
	var buf []byte
	for {
		b, err := l.peekByte()
		if err != nil {
			break
		}
		if !isWordChar(b) {
			break
		}
		buf = append(buf, b)
		l.consumeByte()
	}
	if len(buf) == 0 {
		return "", l.parseErr("expected identifier or keyword")
	}
	return string(buf), nil
}

// readBackquotedIdent reads a `...` identifier, after the opening
// backtick has already been consumed. A doubled backtick inside is a
// literal backtick, mirroring MySQL identifier quoting.
func (l *lexer) readBackquotedIdent() (string, error) {
	var buf []byte
	for {
		b, err := l.readByte()
		if err != nil {
			return "", l.parseErr("unterminated quoted identifier")
		}
		if b == '`' {
			nb, peekErr := l.peekByte()
			if peekErr == nil && nb == '`' {
				l.consumeByte()
				buf = append(buf, '`')
				continue
			}
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// readIdentifierToken reads either a bare word or a backquoted
// identifier, whichever comes next.
func (l *lexer) readIdentifierToken() (string, error) {
	l.skipWhitespace()
	b, err := l.peekByte()
	if err != nil {
		return "", err
	}
	if b == '`' {
		l.consumeByte()
		return l.readBackquotedIdent()
	}
	if isWordStart(b) {
		return l.readWord()
	}
	return "", l.parseErr("expected identifier")
}

// expectWord consumes whitespace then a keyword, case-insensitively.
func (l *lexer) expectWord(word string) error {
	l.skipWhitespace()
	b, err := l.peekByte()
	if err != nil {
		return err
	}
	if !isWordStart(b) {
		return l.parseErr("expected keyword " + word)
	}
	got, err := l.readWord()
	if err != nil {
		return err
	}
	if !equalFold(got, word) {
		return l.parseErr("expected keyword " + word + ", got " + got)
	}
	return nil
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// readQuotedString reads a MySQL binary-safe string literal, after the
// opening quote has already been consumed. Implements the IN_STRING /
// IN_STRING_ESCAPE states of spec.md §4.1's tokenization invariant: `''`
// is a literal quote, `\x` escapes map through the documented table, and
// any other `\x` degrades to the literal byte `x`. Bytes are preserved
// verbatim; no charset conversion is performed.
func (l *lexer) readQuotedString() ([]byte, error) {
	buf := make([]byte, 0, 32)
	for {
		b, err := l.readByte()
		if err != nil {
			return nil, l.parseErr("unterminated string literal")
		}
		switch b {
		case '\\':
			e, err := l.readByte()
			if err != nil {
				return nil, l.parseErr("unterminated escape sequence")
			}
			switch e {
			case '\\':
				buf = append(buf, '\\')
			case '\'':
				buf = append(buf, '\'')
			case '"':
				buf = append(buf, '"')
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case '0':
				buf = append(buf, 0x00)
			case 'b':
				buf = append(buf, 0x08)
			case 'Z':
				buf = append(buf, 0x1A)
			default:
				buf = append(buf, e)
			}
		case '\'':
			nb, peekErr := l.peekByte()
			if peekErr == nil && nb == '\'' {
				l.consumeByte()
				buf = append(buf, '\'')
				continue
			}
			return buf, nil
		default:
			buf = append(buf, b)
		}
	}
}

// readNumber reads an integer or floating-point literal (IN_NUMBER),
// returning a Value already classified by kind. Integer literals are
// parsed as 64-bit signed; overflow is a ParseError, per spec.md §4.1.
func (l *lexer) readNumber() (Value, error) {
	start := l.offset
	var buf []byte
	if b, err := l.peekByte(); err == nil && b == '-' {
		buf = append(buf, b)
		l.consumeByte()
	}
	isFloat := false
	for {
		b, err := l.peekByte()
		if err != nil {
			break
		}
		if b >= '0' && b <= '9' {
			buf = append(buf, b)
			l.consumeByte()
			continue
		}
		if b == '.' && !isFloat {
			isFloat = true
			buf = append(buf, b)
			l.consumeByte()
			continue
		}
		if b == 'e' || b == 'E' {
			isFloat = true
			buf = append(buf, b)
			l.consumeByte()
			if b2, err2 := l.peekByte(); err2 == nil && (b2 == '+' || b2 == '-') {
				buf = append(buf, b2)
				l.consumeByte()
			}
			continue
		}
		break
	}
	if len(buf) == 0 || (len(buf) == 1 && buf[0] == '-') {
		return Value{}, &wikierr.ParseError{Table: l.table, Offset: start, Msg: "invalid numeric literal"}
	}
	if isFloat {
		f, err := parseFloat(buf)
		if err != nil {
			return Value{}, &wikierr.ParseError{Table: l.table, Offset: start, Msg: "invalid float literal"}
		}
		return Value{Kind: KindFloat, Float: f}, nil
	}
	i, err := parseInt(buf)
	if err != nil {
		return Value{}, &wikierr.ParseError{Table: l.table, Offset: start, Msg: "integer literal overflows 64 bits"}
	}
	return Value{Kind: KindInt, Int: i}, nil
}
