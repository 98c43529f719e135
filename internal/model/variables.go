package model

type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Variables is a string mapping that remembers the order keys were first set in.
// The zero value is an empty mapping.
type Variables struct {
	keys   []string
	values map[string]string
}

func (v *Variables) Set(key, value string) {
	if v.values == nil {
		v.values = make(map[string]string)
	}
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
}

func (v Variables) Get(key string) (string, bool) {
	val, ok := v.values[key]
	return val, ok
}

func (v Variables) Len() int {
	return len(v.keys)
}

func (v Variables) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Map returns a copy of the mapping without ordering.
func (v Variables) Map() map[string]string {
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Equal reports whether both mappings hold the same keys and values, ignoring order.
func (v Variables) Equal(other Variables) bool {
	if v.Len() != other.Len() {
		return false
	}
	for k, val := range v.values {
		if ov, ok := other.values[k]; !ok || ov != val {
			return false
		}
	}
	return true
}

// ToMapping builds Variables from key/value pairs. Later duplicates overwrite
// earlier values.
func ToMapping(list []KeyValue) Variables {
	var v Variables
	for _, kv := range list {
		v.Set(kv.Key, kv.Value)
	}
	return v
}

// ToList returns the pairs of v in insertion order.
func ToList(v Variables) []KeyValue {
	out := make([]KeyValue, 0, len(v.keys))
	for _, k := range v.keys {
		out = append(out, KeyValue{Key: k, Value: v.values[k]})
	}
	return out
}
