package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-record-finder/attribute"
)

func TestRecord_EncodeWith(t *testing.T) {
	class := newUserClass(t)
	r := loadUser(t, class, 3, "a@example.com")

	coder := Coder{}
	r.EncodeWith(coder)

	assert.Equal(t, "User", coder[CoderClass])
	assert.Equal(t, false, coder[CoderNewRecord])
	assert.Equal(t, CoderVersion, coder[CoderVersionKey])
	assert.Equal(t, map[string]any{"id": int64(3), "email": "a@example.com", "tags": []any{"new"}}, coder[CoderAttributes])
}

func TestClass_InitWith(t *testing.T) {
	ctx := context.Background()
	class := newUserClass(t)

	var points []HookPoint
	class.On(HookLoad, func(ctx context.Context, r *Record) error {
		points = append(points, HookLoad)
		return nil
	})
	class.On(HookInitialize, func(ctx context.Context, r *Record) error {
		points = append(points, HookInitialize)
		return nil
	})

	r, err := class.InitWith(ctx, Coder{
		CoderAttributes: map[string]any{"id": 4, "email": "b@example.com"},
		CoderNewRecord:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, []HookPoint{HookLoad, HookInitialize}, points)
	assert.True(t, r.IsNewRecord())
	assert.Equal(t, int64(4), r.ID())

	_, err = class.InitWith(ctx, Coder{CoderVersionKey: 3})
	var coderErr *CoderError
	assert.True(t, errors.As(err, &coderErr))

	_, err = class.InitWith(ctx, Coder{CoderAttributes: "nope"})
	assert.True(t, errors.As(err, &coderErr))
}

func TestRecord_MarshalBinaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	class := reg.MustRegister(Definition{
		Name:       "Document",
		PrimaryKey: "id",
		Columns: []attribute.Column{
			{Name: "id", Type: attribute.Integer{}},
			{Name: "title", Type: attribute.String{}},
			{Name: "body", Type: attribute.Binary{}},
			{Name: "published_at", Type: attribute.Time{}},
			{Name: "draft", Type: attribute.Boolean{}},
		},
	})

	published := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	r, err := class.Load(ctx, map[string]any{
		"id": 10, "title": "Hello", "body": []byte{1, 2}, "published_at": published, "draft": false,
	})
	require.NoError(t, err)

	data, err := r.MarshalBinary()
	require.NoError(t, err)

	back, err := class.UnmarshalRecord(ctx, data)
	require.NoError(t, err)

	assert.True(t, r.Equal(back))
	assert.True(t, r.Attributes().Equal(back.Attributes()))
	assert.False(t, back.IsNewRecord())
}

func TestClass_UnmarshalRecordSubclass(t *testing.T) {
	ctx := context.Background()
	_, vehicle, car, _ := vehicleRegistry(t)

	r, err := car.New(ctx, map[string]any{"id": 1})
	require.NoError(t, err)
	data, err := r.MarshalBinary()
	require.NoError(t, err)

	back, err := vehicle.UnmarshalRecord(ctx, data)
	require.NoError(t, err)
	assert.Same(t, car, back.Class())

	v, err := vehicle.New(ctx, map[string]any{"id": 2})
	require.NoError(t, err)
	data, err = v.MarshalBinary()
	require.NoError(t, err)
	_, err = car.UnmarshalRecord(ctx, data)
	var coderErr *CoderError
	assert.True(t, errors.As(err, &coderErr))

	_, err = car.UnmarshalRecord(ctx, []byte{0xc1})
	assert.True(t, errors.As(err, &coderErr))
}
