package bencode

// Entry is one key/value pair of a Dict.
type Entry struct {
	Key   string
	Value Value
}

// Dict is an insertion-ordered dictionary. Keys are byte strings. Set on an
// existing key replaces the value in place and keeps its position.
type Dict struct {
	entries []Entry
	index   map[string]int
}

// NewDict returns an empty dictionary.
func NewDict() *Dict {
	return &Dict{index: make(map[string]int)}
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	i, ok := d.index[key]
	if !ok {
		return Value{}, false
	}
	return d.entries[i].Value, true
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Set stores value under key, appending new keys at the end.
func (d *Dict) Set(key string, value Value) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = value
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: key, Value: value})
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key string) bool {
	if d == nil {
		return false
	}
	i, ok := d.index[key]
	if !ok {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, key)
	for j := i; j < len(d.entries); j++ {
		d.index[d.entries[j].Key] = j
	}
	return true
}

// Keys returns the keys in stored order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in stored order.
func (d *Dict) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Clone returns a deep copy of d.
func (d *Dict) Clone() *Dict {
	out := NewDict()
	if d == nil {
		return out
	}
	out.entries = make([]Entry, len(d.entries))
	for i, e := range d.entries {
		out.entries[i] = Entry{Key: e.Key, Value: e.Value.Clone()}
		out.index[e.Key] = i
	}
	return out
}

// Equal reports whether d and other hold the same entries in the same order.
func (d *Dict) Equal(other *Dict) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i := 0; i < d.Len(); i++ {
		a, b := d.entries[i], other.entries[i]
		if a.Key != b.Key || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}
