package bencode

import (
	"errors"
	"strconv"
)

// ErrInvalidValue reports an attempt to encode the zero Value.
var ErrInvalidValue = errors.New("bencode: invalid value")

// Encode returns the canonical encoding of v. Dictionary keys are written in
// stored order, not re-sorted.
func Encode(v Value) ([]byte, error) {
	return Append(nil, v)
}

// EncodeDict encodes d as a root dictionary.
func EncodeDict(d *Dict) ([]byte, error) {
	return Encode(DictValue(d))
}

// Append appends the encoding of v to dst.
func Append(dst []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindString:
		return appendString(dst, v.str), nil
	case KindInt:
		dst = append(dst, 'i')
		dst = strconv.AppendInt(dst, v.num, 10)
		return append(dst, 'e'), nil
	case KindList:
		dst = append(dst, 'l')
		for _, item := range v.list {
			var err error
			if dst, err = Append(dst, item); err != nil {
				return nil, err
			}
		}
		return append(dst, 'e'), nil
	case KindDict:
		dst = append(dst, 'd')
		if v.dict != nil {
			for _, e := range v.dict.entries {
				dst = appendString(dst, e.Key)
				var err error
				if dst, err = Append(dst, e.Value); err != nil {
					return nil, err
				}
			}
		}
		return append(dst, 'e'), nil
	default:
		return nil, ErrInvalidValue
	}
}

func appendString(dst []byte, s string) []byte {
	dst = strconv.AppendInt(dst, int64(len(s)), 10)
	dst = append(dst, ':')
	return append(dst, s...)
}
