// Package resultline recognises RESULT lines and splits them into key/value
// tokens.
//
// A RESULT line starts with "RESULT", "// RESULT" or "# RESULT" followed by
// a blank and carries separator delimited tokens, each either key=value or a
// bare flag:
//
//	RESULT algo=sort n=1048576 time=0.731 stable
//
// The separator is TAB when the line contains one, SPACE otherwise. Keys are
// made unique within one line by appending 1, 2, ... to repeated names.
package resultline

import (
	"strconv"
	"strings"
)

var prefixes = []string{"RESULT", "// RESULT", "# RESULT"}

// IsResultLine returns the offset of the first token after the RESULT
// prefix, or 0 if the line is not a RESULT line.
func IsResultLine(line string) int {
	for _, p := range prefixes {
		if len(line) > len(p) && strings.HasPrefix(line, p) && isBlank(line[len(p)]) {
			return len(p) + 1
		}
	}
	return 0
}

// Accept reports whether a line should be imported. In all-lines mode every
// line is accepted.
func Accept(line string, allLines bool) bool {
	return allLines || IsResultLine(line) != 0
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// Separator returns the token separator of a line.
func Separator(line string) byte {
	if strings.IndexByte(line, '\t') >= 0 {
		return '\t'
	}
	return ' '
}

// Split splits a line into raw tokens at its separator, skipping the RESULT
// prefix. Empty tokens are dropped.
func Split(line string) []string {
	sep := Separator(line)
	rest := line[IsResultLine(line):]

	out := make([]string, 0, strings.Count(rest, string(sep))+1)
	last := 0
	for i := 0; i < len(rest); i++ {
		if rest[i] != sep {
			continue
		}
		if last != i {
			out = append(out, rest[last:i])
		}
		last = i + 1
	}
	if last != len(rest) {
		out = append(out, rest[last:])
	}
	return out
}

// SplitKeyValue splits a token at its first '='. Tokens without '=' become
// col<col> with the token as value when colNums is set, otherwise a flag
// column named by the token with value "1".
func SplitKeyValue(field string, col int, colNums bool) (key, value string) {
	eq := strings.IndexByte(field, '=')
	if eq < 0 {
		if colNums {
			return "col" + strconv.Itoa(col), field
		}
		return field, "1"
	}
	return field[:eq], field[eq+1:]
}

// KeySet tracks the keys already used within one line.
type KeySet map[string]struct{}

// Dedup returns key if unused, otherwise the first unused key<N> for
// N = 1, 2, ...; the returned key is marked as used.
func (ks KeySet) Dedup(key string) string {
	if _, ok := ks[key]; !ok {
		ks[key] = struct{}{}
		return key
	}
	for num := 1; ; num++ {
		nkey := key + strconv.Itoa(num)
		if _, ok := ks[nkey]; !ok {
			ks[nkey] = struct{}{}
			return nkey
		}
	}
}

// Token is one key/value pair of a line. Values are untyped.
type Token struct {
	Key   string
	Value string
}

// Tokenizer turns lines into tokens with unique keys.
type Tokenizer struct {
	// ColumnNumbers names key-less tokens col<N>
	ColumnNumbers bool
}

// Tokenize splits a line and deduplicates its keys, preserving token order.
func (t Tokenizer) Tokenize(line string) []Token {
	fields := Split(line)
	tokens := make([]Token, 0, len(fields))
	keys := make(KeySet, len(fields))

	for col, field := range fields {
		key, value := SplitKeyValue(field, col, t.ColumnNumbers)
		tokens = append(tokens, Token{Key: keys.Dedup(key), Value: value})
	}
	return tokens
}

// Keys returns the keys of tokens in order.
func Keys(tokens []Token) []string {
	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = tok.Key
	}
	return keys
}
