package bencode_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"qbtmigrate/internal/bencode"
)

func sampleDocument() bencode.Value {
	inner := bencode.NewDict()
	inner.Set("zeta", bencode.Int(-42))
	inner.Set("alpha", bencode.String("nested"))

	root := bencode.NewDict()
	root.Set("save_path", bencode.String("/some/test/path"))
	root.Set("qBt-savePath", bencode.String("/some/test/path"))
	root.Set("active_time", bencode.Int(1234567890123))
	root.Set("mapped_files", bencode.List(
		bencode.String("/some/test/path/a.mkv"),
		bencode.String("relative/b.nfo"),
	))
	root.Set("pieces", bencode.Bytes([]byte{0x00, 0xff, 0x10, ':', 'e'}))
	root.Set("inner", bencode.DictValue(inner))
	root.Set("empty_list", bencode.List())
	root.Set("mixed", bencode.List(bencode.Int(0), bencode.String(""), bencode.DictValue(nil)))
	return bencode.DictValue(root)
}

func TestRoundTripValue(t *testing.T) {
	doc := sampleDocument()

	encoded, err := bencode.Encode(doc)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := bencode.Decode(encoded)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if diff := cmp.Diff(doc, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTripBytesPreservesKeyOrder(t *testing.T) {
	// Keys deliberately out of lexical order.
	input := "d12:qBt-savePath4:/b/c9:save_path4:/b/c4:abcdi-7e12:mapped_filesl3:x/y0:ee"

	decoded, err := bencode.Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	dict, ok := decoded.Dict()
	if !ok {
		t.Fatalf("expected dict root, got %s", decoded.Kind())
	}
	want := []string{"qBt-savePath", "save_path", "abcd", "mapped_files"}
	if diff := cmp.Diff(want, dict.Keys()); diff != "" {
		t.Fatalf("key order mismatch (-want +got):\n%s", diff)
	}

	encoded, err := bencode.Encode(decoded)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(encoded) != input {
		t.Fatalf("re-encoded bytes differ:\n got %q\nwant %q", encoded, input)
	}
}

func TestEncodeCanonicalForms(t *testing.T) {
	cases := []struct {
		name  string
		value bencode.Value
		want  string
	}{
		{"string", bencode.String("spam"), "4:spam"},
		{"empty string", bencode.String(""), "0:"},
		{"multibyte string counts bytes", bencode.String("é"), "2:é"},
		{"positive int", bencode.Int(3), "i3e"},
		{"negative int", bencode.Int(-3), "i-3e"},
		{"zero", bencode.Int(0), "i0e"},
		{"list", bencode.List(bencode.String("a"), bencode.Int(1)), "l1:ai1ee"},
		{"empty dict", bencode.DictValue(nil), "de"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := bencode.Encode(tc.value)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestEncodeRejectsZeroValue(t *testing.T) {
	if _, err := bencode.Encode(bencode.List(bencode.Value{})); !errors.Is(err, bencode.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"non-numeric length", "x:abc"},
		{"missing colon", "3abc"},
		{"short payload", "10:abc"},
		{"length leading zero", "03:abc"},
		{"unterminated list", "l1:a"},
		{"unterminated dict", "d1:ai1e"},
		{"non-numeric integer", "i12xe"},
		{"empty integer", "ie"},
		{"unterminated integer", "i12"},
		{"integer leading zero", "i012e"},
		{"negative zero", "i-0e"},
		{"integer overflow", "i99999999999999999999e"},
		{"non-string key", "di1ei2ee"},
		{"dict missing value", "d1:ae"},
		{"duplicate key", "d1:ai1e1:ai2ee"},
		{"trailing data", "i1ei2e"},
		{"unknown sentinel", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := bencode.Decode([]byte(tc.input))
			if !errors.Is(err, bencode.ErrMalformed) {
				t.Fatalf("expected ErrMalformed for %q, got %v", tc.input, err)
			}
			var syntaxErr *bencode.SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
		})
	}
}

func TestDecodeDepthLimit(t *testing.T) {
	deep := strings.Repeat("l", bencode.MaxDepth+2) + strings.Repeat("e", bencode.MaxDepth+2)
	if _, err := bencode.Decode([]byte(deep)); !errors.Is(err, bencode.ErrMalformed) {
		t.Fatalf("expected depth error, got %v", err)
	}

	ok := strings.Repeat("l", bencode.MaxDepth) + strings.Repeat("e", bencode.MaxDepth)
	if _, err := bencode.Decode([]byte(ok)); err != nil {
		t.Fatalf("expected nesting at the limit to decode, got %v", err)
	}
}

func TestDecodeDictRequiresDictRoot(t *testing.T) {
	if _, err := bencode.DecodeDict([]byte("l1:ae")); !errors.Is(err, bencode.ErrMalformed) {
		t.Fatalf("expected ErrMalformed for list root, got %v", err)
	}
	dict, err := bencode.DecodeDict([]byte("d1:k1:ve"))
	if err != nil {
		t.Fatalf("DecodeDict failed: %v", err)
	}
	if v, _ := dict.Get("k"); !v.Equal(bencode.String("v")) {
		t.Fatalf("unexpected value: %#v", v)
	}
}

func TestDecodeNegativeAndLargeIntegers(t *testing.T) {
	v, err := bencode.Decode([]byte("li-9223372036854775808ei9223372036854775807ee"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	items, _ := v.Items()
	lo, _ := items[0].Int64()
	hi, _ := items[1].Int64()
	if lo != -9223372036854775808 || hi != 9223372036854775807 {
		t.Fatalf("unexpected bounds: %d %d", lo, hi)
	}
}
