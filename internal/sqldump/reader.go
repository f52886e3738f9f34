// Package sqldump streams tuples out of `INSERT INTO ... VALUES (...),(...);`
// statements in a MySQL logical dump, in O(1) memory relative to file or
// statement size (spec.md §4.1). It is a small hand-written state machine —
// no regular expression engine, no buffering of whole statements — moving
// between the conceptual states OUTSIDE, SEEN_INSERT, IN_VALUES, IN_TUPLE,
// IN_STRING, IN_STRING_ESCAPE, IN_NUMBER and DONE as it consumes bytes.
// Everything outside a matching INSERT INTO <target> VALUES clause is
// skipped; rows belonging to other tables in the same dump are skipped
// whole. The reader is agnostic to the target table's column shape —
// schema binding is left to the caller.
package sqldump

import (
	"io"
)

// DefaultBufferSize is the size of the fixed I/O buffer backing a Reader.
// Memory use is this buffer plus the largest single tuple, independent of
// statement or file size (spec.md §4.1).
const DefaultBufferSize = 64 * 1024

// Reader yields the tuples of every `INSERT INTO <table> VALUES (...);`
// statement addressed to one table name, in input order.
type Reader struct {
	lex      *lexer
	table    string
	inValues bool // positioned just after a matching VALUES keyword
	done     bool
}

// NewReader builds a Reader over r that yields rows written to table.
// Table name comparisons are case-sensitive and ignore backtick quoting,
// matching how mysqldump always emits MediaWiki's lowercase table names.
func NewReader(r io.Reader, table string) *Reader {
	return &Reader{
		lex:   newLexer(r, table, DefaultBufferSize),
		table: table,
	}
}

// Next returns the next tuple for the target table, or io.EOF once the
// stream is exhausted. It never buffers more than one tuple at a time.
func (r *Reader) Next() (Tuple, error) {
	if r.done {
		return nil, io.EOF
	}
	for {
		if !r.inValues {
			if err := r.seekToTargetValues(); err != nil {
				r.done = true
				return nil, err
			}
			r.inValues = true
		}
		tuple, end, err := r.readTupleOrEnd()
		if err != nil {
			r.done = true
			return nil, err
		}
		if end {
			r.inValues = false
			continue
		}
		return tuple, nil
	}
}

// seekToTargetValues scans forward, skipping any content that is not part
// of an `INSERT INTO <target> VALUES` clause, including entire INSERT
// statements addressed to other tables. Returns io.EOF when the stream
// ends without another match.
func (r *Reader) seekToTargetValues() error {
	for {
		r.lex.skipWhitespace()
		b, err := r.lex.peekByte()
		if err != nil {
			return err
		}
		switch {
		case b == '\'':
			r.lex.consumeByte()
			if _, err := r.lex.readQuotedString(); err != nil {
				return err
			}
		case b == '`':
			r.lex.consumeByte()
			if _, err := r.lex.readBackquotedIdent(); err != nil {
				return err
			}
		case isWordStart(b):
			word, err := r.lex.readWord()
			if err != nil {
				return err
			}
			if equalFold(word, "INSERT") {
				if err := r.lex.expectWord("INTO"); err != nil {
					return err
				}
				table, err := r.lex.readIdentifierToken()
				if err != nil {
					return err
				}
				if err := r.lex.expectWord("VALUES"); err != nil {
					return err
				}
				if table == r.table {
					return nil
				}
				if err := r.skipStatement(); err != nil {
					return err
				}
			}
		default:
			r.lex.consumeByte()
		}
	}
}

// skipStatement discards an INSERT statement's VALUES list (for a table
// we are not interested in) up to its terminating semicolon. String
// literals are still tokenized properly so an embedded `;` inside a
// string cannot be mistaken for the statement end.
func (r *Reader) skipStatement() error {
	for {
		r.lex.skipWhitespace()
		b, err := r.lex.peekByte()
		if err != nil {
			return err
		}
		switch b {
		case '\'':
			r.lex.consumeByte()
			if _, err := r.lex.readQuotedString(); err != nil {
				return err
			}
		case ';':
			r.lex.consumeByte()
			return nil
		default:
			r.lex.consumeByte()
		}
	}
}

// readTupleOrEnd reads one `(v1,v2,...)` tuple, or detects the `;` that
// ends the statement's VALUES list.
func (r *Reader) readTupleOrEnd() (Tuple, bool, error) {
	r.lex.skipWhitespace()
	b, err := r.lex.peekByte()
	if err != nil {
		return nil, false, err
	}
	if b == ';' {
		r.lex.consumeByte()
		return nil, true, nil
	}
	if b == ',' {
		r.lex.consumeByte()
		r.lex.skipWhitespace()
		b, err = r.lex.peekByte()
		if err != nil {
			return nil, false, err
		}
	}
	if b != '(' {
		return nil, false, r.lex.parseErr("expected '(' to start a tuple")
	}
	r.lex.consumeByte()

	var tuple Tuple
	for {
		r.lex.skipWhitespace()
		b, err := r.lex.peekByte()
		if err != nil {
			return nil, false, err
		}
		var v Value
		switch {
		case b == '\'':
			r.lex.consumeByte()
			s, err := r.lex.readQuotedString()
			if err != nil {
				return nil, false, err
			}
			v = Value{Kind: KindString, Str: s}
		case b == 'N' || b == 'n':
			word, err := r.lex.readWord()
			if err != nil {
				return nil, false, err
			}
			if !equalFold(word, "NULL") {
				return nil, false, r.lex.parseErr("unexpected identifier in tuple: " + word)
			}
			v = Value{Kind: KindNull}
		case b == '-' || b == '.' || (b >= '0' && b <= '9'):
			v, err = r.lex.readNumber()
			if err != nil {
				return nil, false, err
			}
		default:
			return nil, false, r.lex.parseErr("unexpected byte in tuple")
		}
		tuple = append(tuple, v)

		r.lex.skipWhitespace()
		b, err = r.lex.peekByte()
		if err != nil {
			return nil, false, err
		}
		if b == ',' {
			r.lex.consumeByte()
			continue
		}
		if b == ')' {
			r.lex.consumeByte()
			break
		}
		return nil, false, r.lex.parseErr("expected ',' or ')' in tuple")
	}
	return tuple, false, nil
}
