package bencode

import (
	"fmt"
	"strconv"
)

// MaxDepth bounds list/dictionary nesting accepted by Decode.
const MaxDepth = 512

// Decode parses a complete document from data. Trailing bytes after the root
// value are a syntax error.
func Decode(data []byte) (Value, error) {
	d := decoder{data: data}
	v, err := d.value(0)
	if err != nil {
		return Value{}, err
	}
	if d.pos != len(d.data) {
		return Value{}, d.errorf("trailing data after root value")
	}
	return v, nil
}

// DecodeDict parses data and requires the root node to be a dictionary.
func DecodeDict(data []byte) (*Dict, error) {
	v, err := Decode(data)
	if err != nil {
		return nil, err
	}
	dict, ok := v.Dict()
	if !ok {
		return nil, &SyntaxError{Offset: 0, Msg: fmt.Sprintf("root node is a %s, want dict", v.Kind())}
	}
	return dict, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: d.pos, Msg: fmt.Sprintf(format, args...)}
}

func (d *decoder) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, d.errorf("nesting deeper than %d", MaxDepth)
	}
	if d.pos >= len(d.data) {
		return Value{}, d.errorf("unexpected end of input")
	}
	switch c := d.data[d.pos]; {
	case c == 'i':
		n, err := d.integer()
		if err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case c == 'l':
		return d.list(depth)
	case c == 'd':
		return d.dict(depth)
	case isDigit(c):
		s, err := d.str()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	default:
		return Value{}, d.errorf("unexpected byte %q", c)
	}
}

func (d *decoder) str() (string, error) {
	start := d.pos
	end := start
	for end < len(d.data) && isDigit(d.data[end]) {
		end++
	}
	if end == start {
		return "", d.errorf("string length is not numeric")
	}
	if end >= len(d.data) || d.data[end] != ':' {
		d.pos = end
		return "", d.errorf("missing ':' after string length")
	}
	digits := d.data[start:end]
	if len(digits) > 1 && digits[0] == '0' {
		return "", d.errorf("string length has leading zero")
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return "", d.errorf("string length out of range")
	}
	d.pos = end + 1
	if n > len(d.data)-d.pos {
		return "", d.errorf("string payload shorter than declared length %d", n)
	}
	s := string(d.data[d.pos : d.pos+n])
	d.pos += n
	return s, nil
}

func (d *decoder) integer() (int64, error) {
	d.pos++ // 'i'
	start := d.pos
	end := start
	for end < len(d.data) && d.data[end] != 'e' {
		end++
	}
	if end >= len(d.data) {
		return 0, d.errorf("unterminated integer")
	}
	body := d.data[start:end]
	digits := body
	if len(digits) > 0 && digits[0] == '-' {
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return 0, d.errorf("empty integer")
	}
	for _, c := range digits {
		if !isDigit(c) {
			return 0, d.errorf("integer is not numeric")
		}
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, d.errorf("integer has leading zero")
	}
	if len(body) != len(digits) && digits[0] == '0' {
		return 0, d.errorf("negative zero")
	}
	n, err := strconv.ParseInt(string(body), 10, 64)
	if err != nil {
		return 0, d.errorf("integer out of range")
	}
	d.pos = end + 1
	return n, nil
}

func (d *decoder) list(depth int) (Value, error) {
	d.pos++ // 'l'
	items := []Value{}
	for {
		if d.pos >= len(d.data) {
			return Value{}, d.errorf("unterminated list")
		}
		if d.data[d.pos] == 'e' {
			d.pos++
			return Value{kind: KindList, list: items}, nil
		}
		item, err := d.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
}

func (d *decoder) dict(depth int) (Value, error) {
	d.pos++ // 'd'
	out := NewDict()
	for {
		if d.pos >= len(d.data) {
			return Value{}, d.errorf("unterminated dict")
		}
		if d.data[d.pos] == 'e' {
			d.pos++
			return DictValue(out), nil
		}
		if !isDigit(d.data[d.pos]) {
			return Value{}, d.errorf("dict key must be a byte string")
		}
		keyPos := d.pos
		key, err := d.str()
		if err != nil {
			return Value{}, err
		}
		if out.Has(key) {
			return Value{}, &SyntaxError{Offset: keyPos, Msg: fmt.Sprintf("duplicate dict key %q", key)}
		}
		val, err := d.value(depth + 1)
		if err != nil {
			return Value{}, err
		}
		out.Set(key, val)
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
