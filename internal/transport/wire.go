package transport

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var errWireType = errors.New("unexpected wire type")

// message is implemented by every request and response exchanged with the
// replay service. Encoding follows api/replay/v1/replay.proto.
type message interface {
	marshal(b []byte) []byte
	unmarshal(b []byte) error
}

// Codec encodes replay messages in protobuf wire format.
type Codec struct{}

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(message)
	if !ok {
		return nil, fmt.Errorf("replay codec: cannot marshal %T", v)
	}
	return m.marshal(nil), nil
}

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(message)
	if !ok {
		return fmt.Errorf("replay codec: cannot unmarshal into %T", v)
	}
	return m.unmarshal(data)
}

// Name implements encoding.Codec.
func (Codec) Name() string { return "proto" }

// fieldFunc consumes the value of one field and reports how many bytes it
// used. Returning 0 marks the field as unknown so it is skipped.
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func consumeFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		m, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if m == 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

func appendVarintField(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendBoolField(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendDoubleField(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 && !math.Signbit(v) {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendPackedDoubles(b []byte, num protowire.Number, vs []float64) []byte {
	if len(vs) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(8*len(vs)))
	for _, v := range vs {
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}
	return b
}

func appendPackedInts(b []byte, num protowire.Number, vs []int) []byte {
	if len(vs) == 0 {
		return b
	}
	var payload []byte
	for _, v := range vs {
		payload = protowire.AppendVarint(payload, uint64(int64(v)))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

func appendMessageField(b []byte, num protowire.Number, m message) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.marshal(nil))
}

func consumeVarint(typ protowire.Type, b []byte, dst *int64) (int, error) {
	if typ != protowire.VarintType {
		return 0, errWireType
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = int64(v)
	return n, nil
}

func consumeBool(typ protowire.Type, b []byte, dst *bool) (int, error) {
	var v int64
	n, err := consumeVarint(typ, b, &v)
	if err != nil {
		return 0, err
	}
	*dst = protowire.DecodeBool(uint64(v))
	return n, nil
}

func consumeDouble(typ protowire.Type, b []byte, dst *float64) (int, error) {
	if typ != protowire.Fixed64Type {
		return 0, errWireType
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = math.Float64frombits(v)
	return n, nil
}

// consumeDoubles accepts both packed and unpacked encodings.
func consumeDoubles(typ protowire.Type, b []byte, dst *[]float64) (int, error) {
	if typ == protowire.Fixed64Type {
		var v float64
		n, err := consumeDouble(typ, b, &v)
		if err != nil {
			return 0, err
		}
		*dst = append(*dst, v)
		return n, nil
	}
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	payload, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	for len(payload) > 0 {
		v, m := protowire.ConsumeFixed64(payload)
		if m < 0 {
			return 0, protowire.ParseError(m)
		}
		*dst = append(*dst, math.Float64frombits(v))
		payload = payload[m:]
	}
	return n, nil
}

// consumeInts accepts both packed and unpacked encodings.
func consumeInts(typ protowire.Type, b []byte, dst *[]int) (int, error) {
	if typ == protowire.VarintType {
		var v int64
		n, err := consumeVarint(typ, b, &v)
		if err != nil {
			return 0, err
		}
		*dst = append(*dst, int(v))
		return n, nil
	}
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	payload, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	for len(payload) > 0 {
		v, m := protowire.ConsumeVarint(payload)
		if m < 0 {
			return 0, protowire.ParseError(m)
		}
		*dst = append(*dst, int(int64(v)))
		payload = payload[m:]
	}
	return n, nil
}

func consumeMessage(typ protowire.Type, b []byte, m message) (int, error) {
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	payload, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	if err := m.unmarshal(payload); err != nil {
		return 0, err
	}
	return n, nil
}
