// Package bencode decodes and encodes the length-prefixed document format used
// by qBittorrent resume files.
//
// Documents are trees of four node kinds: byte strings, integers, lists, and
// dictionaries. Value is a tagged union over those kinds and Dict keeps its
// entries in their original order, so Encode(Decode(b)) reproduces canonical
// input byte for byte. Byte strings are held in Go strings and may carry
// arbitrary, non-UTF-8 bytes.
//
// Decoding is strict: redundant leading zeros, negative zero, duplicate
// dictionary keys, and trailing data after the root value are rejected with a
// *SyntaxError that matches ErrMalformed.
package bencode
