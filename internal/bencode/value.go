package bencode

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	default:
		return "invalid"
	}
}

// Value is a single document node. The zero Value is invalid and encodes to
// nothing; build values with String, Int, List, or DictValue.
type Value struct {
	kind Kind
	str  string
	num  int64
	list []Value
	dict *Dict
}

// String returns a byte-string node.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bytes returns a byte-string node holding a copy of b.
func Bytes(b []byte) Value { return Value{kind: KindString, str: string(b)} }

// Int returns an integer node.
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// List returns a list node holding items in order.
func List(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindList, list: out}
}

// DictValue wraps d as a dictionary node. A nil d becomes an empty dictionary.
func DictValue(d *Dict) Value {
	if d == nil {
		d = NewDict()
	}
	return Value{kind: KindDict, dict: d}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Str returns the byte-string payload and whether v is a string node.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Int64 returns the integer payload and whether v is an integer node.
func (v Value) Int64() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.num, true
}

// Items returns the list elements and whether v is a list node. The returned
// slice aliases the node; use List to build a replacement.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Dict returns the dictionary and whether v is a dictionary node.
func (v Value) Dict() (*Dict, bool) {
	if v.kind != KindDict {
		return nil, false
	}
	return v.dict, true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		out := make([]Value, len(v.list))
		for i, item := range v.list {
			out[i] = item.Clone()
		}
		return Value{kind: KindList, list: out}
	case KindDict:
		return Value{kind: KindDict, dict: v.dict.Clone()}
	default:
		return v
	}
}

// Equal reports whether v and other hold the same tree, including dictionary
// key order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.num == other.num
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindDict:
		return v.dict.Equal(other.dict)
	default:
		return true
	}
}

// GoString renders v in a compact debug form, used by test failure output.
func (v Value) GoString() string {
	var b strings.Builder
	v.writeDebug(&b)
	return b.String()
}

// LogValue renders v for structured logs.
func (v Value) LogValue() slog.Value {
	return slog.StringValue(v.GoString())
}

func (v Value) writeDebug(b *strings.Builder) {
	switch v.kind {
	case KindString:
		b.WriteString(strconv.Quote(v.str))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.num, 10))
	case KindList:
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteString(", ")
			}
			item.writeDebug(b)
		}
		b.WriteByte(']')
	case KindDict:
		b.WriteByte('{')
		for i, e := range v.dict.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "%q: ", e.Key)
			e.Value.writeDebug(b)
		}
		b.WriteByte('}')
	default:
		b.WriteString("<invalid>")
	}
}
