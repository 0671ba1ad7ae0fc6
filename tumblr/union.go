package tumblr

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// requireFields fails if any of keys is absent from the JSON object in data.
// An explicit null counts as present.
func requireFields(data []byte, what string, keys ...string) error {
	var fields map[string]json.RawMessage
	err := json.Unmarshal(data, &fields)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("%s: missing field %q", what, key)
		}
	}
	return nil
}

// decodeVariant decodes one member of a tagged union.
// The discriminant is read from the given key and handed to newVariant,
// which returns a pointer to decode the object into.
func decodeVariant[T any](data []byte, union, key string, newVariant func(tag string) (T, bool)) (T, error) {
	var zero T

	var fields map[string]json.RawMessage
	err := json.Unmarshal(data, &fields)
	if err != nil {
		return zero, err
	}

	raw, ok := fields[key]
	if !ok {
		return zero, fmt.Errorf("%s: missing field %q", union, key)
	}

	var tag string
	err = json.Unmarshal(raw, &tag)
	if err != nil {
		return zero, fmt.Errorf("%s: field %q: %w", union, key, err)
	}

	v, ok := newVariant(tag)
	if !ok {
		return zero, &UnknownVariantError{Union: union, Type: tag}
	}

	err = json.Unmarshal(data, v)
	if err != nil {
		return zero, fmt.Errorf("%s %q: %w", union, tag, err)
	}

	return v, nil
}

func decodeVariants[T any](data []byte, union, key string, newVariant func(tag string) (T, bool)) ([]T, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}

	var raws []json.RawMessage
	err := json.Unmarshal(data, &raws)
	if err != nil {
		return nil, err
	}

	vs := make([]T, 0, len(raws))
	for idx, raw := range raws {
		v, err := decodeVariant(raw, union, key, newVariant)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", idx, err)
		}
		vs = append(vs, v)
	}
	return vs, nil
}

// encodeVariant encodes v as a JSON object and prepends the discriminant.
func encodeVariant(key, tag string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("variant %q did not encode as an object", tag)
	}

	buf := &bytes.Buffer{}
	buf.Grow(len(key) + len(tag) + len(body) + 8)
	buf.WriteByte('{')
	writeJSONString(buf, key)
	buf.WriteByte(':')
	writeJSONString(buf, tag)
	if len(body) > 2 {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])
	return buf.Bytes(), nil
}

func encodeVariants[T any](key string, vs []T, tagOf func(T) string) ([]byte, error) {
	if vs == nil {
		return []byte("null"), nil
	}

	buf := &bytes.Buffer{}
	buf.WriteByte('[')
	for idx, v := range vs {
		if idx != 0 {
			buf.WriteByte(',')
		}
		b, err := encodeVariant(key, tagOf(v), v)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
