package record

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// CoderVersion is written by EncodeWith. InitWith accepts versions 1 and 2.
const CoderVersion = 2

// Coder is the map form of a record used by serializers.
type Coder map[string]any

// Coder keys.
const (
	CoderAttributes = "attributes"
	CoderNewRecord  = "new_record"
	CoderVersionKey = "coder_version"
	CoderClass      = "class"
)

// EncodeWith writes the record into c.
func (r *Record) EncodeWith(c Coder) {
	c[CoderClass] = r.class.name
	c[CoderAttributes] = r.attributes.Values()
	c[CoderNewRecord] = r.newRecord
	c[CoderVersionKey] = CoderVersion
}

// InitWith rebuilds a record from a coder. The load hooks run, then the
// initialize hooks.
func (c *Class) InitWith(ctx context.Context, coder Coder) (*Record, error) {
	version, err := coderVersion(coder[CoderVersionKey])
	if err != nil {
		return nil, &CoderError{Class: c.name, Reason: err.Error()}
	}
	if version < 1 || version > CoderVersion {
		return nil, &CoderError{Class: c.name, Reason: fmt.Sprintf("unsupported coder version %d", version)}
	}

	values, ok := coder[CoderAttributes].(map[string]any)
	if !ok && coder[CoderAttributes] != nil {
		return nil, &CoderError{Class: c.name, Reason: fmt.Sprintf("attributes must be a map, got %T", coder[CoderAttributes])}
	}

	attrs := c.DefaultAttributes()
	for _, name := range attrs.Keys() {
		v, ok := values[name]
		if !ok {
			continue
		}
		if err := attrs.Load(name, v); err != nil {
			return nil, &CoderError{Class: c.name, Reason: err.Error()}
		}
	}

	newRecord, _ := coder[CoderNewRecord].(bool)
	r := c.allocate(attrs, newRecord)

	if err := c.runHooks(ctx, HookLoad, r); err != nil {
		return nil, err
	}
	if err := c.runHooks(ctx, HookInitialize, r); err != nil {
		return nil, err
	}
	return r, nil
}

func coderVersion(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 1, nil
	case int:
		return t, nil
	case int8:
		return int(t), nil
	case int16:
		return int(t), nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case uint8:
		return int(t), nil
	case uint16:
		return int(t), nil
	case uint32:
		return int(t), nil
	case uint64:
		return int(t), nil
	}
	return 0, fmt.Errorf("coder version must be an integer, got %T", v)
}

// MarshalBinary encodes the record coder with msgpack.
func (r *Record) MarshalBinary() ([]byte, error) {
	c := Coder{}
	r.EncodeWith(c)
	return msgpack.Marshal(map[string]any(c))
}

// UnmarshalRecord decodes a MarshalBinary payload. The payload class must be c
// or one of its descendants; the record is rebuilt as that class.
func (c *Class) UnmarshalRecord(ctx context.Context, data []byte) (*Record, error) {
	var coder map[string]any
	if err := msgpack.Unmarshal(data, &coder); err != nil {
		return nil, &CoderError{Class: c.name, Reason: err.Error()}
	}

	target := c
	if name, _ := coder[CoderClass].(string); name != "" && name != c.name {
		k, ok := c.registry.Lookup(name)
		if !ok || !k.IsA(c) {
			return nil, &CoderError{Class: c.name, Reason: fmt.Sprintf("payload holds a %s", name)}
		}
		target = k
	}
	return target.InitWith(ctx, Coder(coder))
}
