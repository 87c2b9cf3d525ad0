package finder

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-record-finder/attribute"
	"github.com/goliatone/go-record-finder/pkg/testsupport"
	"github.com/goliatone/go-record-finder/record"
	"github.com/goliatone/go-record-finder/statement"
)

type harness struct {
	finder  *Finder
	users   *record.Class
	conn    *testsupport.MemoryConnection
	builder *testsupport.CountingBuilder
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	reg := record.NewRegistry()
	users, err := reg.Register(record.Definition{
		Name:       "User",
		PrimaryKey: "id",
		Columns: []attribute.Column{
			{Name: "id", Type: attribute.Integer{}},
			{Name: "email", Type: attribute.String{}},
			{Name: "name", Type: attribute.String{}},
		},
	})
	require.NoError(t, err)

	conn := testsupport.NewMemoryConnection()
	conn.Insert("users", testsupport.LoadRows(t, testsupport.FixturePath("users.json"))...)
	builder := testsupport.NewCountingBuilder()

	return &harness{
		finder:  New(conn, builder, opts...),
		users:   users,
		conn:    conn,
		builder: builder,
	}
}

func TestFindByPrimaryKey_Found(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rec, err := h.finder.FindByPrimaryKey(ctx, h.users, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID())
	assert.Equal(t, "ada@example.com", rec.Get("email"))
	assert.False(t, rec.IsNewRecord())

	again, err := h.finder.FindByPrimaryKey(ctx, h.users, int32(1))
	require.NoError(t, err)
	assert.True(t, rec.Equal(again))

	assert.Equal(t, 1, h.builder.Calls(), "template is reused")
	assert.Equal(t, 2, h.conn.Executes())
	assert.Equal(t, 0, h.conn.Selects())
	assert.Equal(t, 1, h.users.FinderCache().Len(true))
}

func TestFindByPrimaryKey_NotFound(t *testing.T) {
	h := newHarness(t)

	_, err := h.finder.FindByPrimaryKey(context.Background(), h.users, 42)
	require.Error(t, err)

	var nf *RecordNotFound
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "User", nf.Model)
	assert.Equal(t, "id", nf.PrimaryKey)
	assert.Equal(t, 42, nf.ID)
	assert.False(t, nf.OutOfRange)
	assert.Equal(t, "Couldn't find User with 'id'=42", err.Error())
	assert.True(t, goerrors.IsNotFound(err))
	assert.True(t, IsRecordNotFound(err))
}

func TestFindByPrimaryKey_OutOfRange(t *testing.T) {
	huge, ok := new(big.Int).SetString("99999999999999999999", 10)
	require.True(t, ok)

	tests := []struct {
		name string
		id   any
	}{
		{name: "string literal", id: "99999999999999999999"},
		{name: "big int", id: huge},
		{name: "uint64 above int64", id: uint64(1) << 63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			_, err := h.finder.FindByPrimaryKey(context.Background(), h.users, tt.id)

			var nf *RecordNotFound
			require.True(t, errors.As(err, &nf))
			assert.True(t, nf.OutOfRange)
			assert.Equal(t, "Couldn't find User with an out of range value for 'id'", err.Error())
			assert.Equal(t, 0, h.conn.Executes(), "nothing is sent for an unbindable key")
		})
	}
}

func TestFindByPrimaryKey_TypeMismatch(t *testing.T) {
	h := newHarness(t)

	_, err := h.finder.FindByPrimaryKey(context.Background(), h.users, "abc")

	var si *StatementInvalid
	require.True(t, errors.As(err, &si))
	assert.ErrorIs(t, err, attribute.ErrTypeMismatch)
	assert.Contains(t, si.SQL, `"users"`)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))
}

func TestFindBy_ConnectionErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	attrs := By(map[string]any{"email": "ada@example.com"})

	h.conn.ExecuteErr = fmt.Errorf("driver: %w", attribute.ErrTypeMismatch)
	_, err := h.finder.FindBy(ctx, h.users, attrs)
	assert.True(t, IsStatementInvalid(err), "type mismatch signals are translated")

	down := errors.New("connection refused")
	h.conn.ExecuteErr = down
	_, err = h.finder.FindBy(ctx, h.users, attrs)
	assert.ErrorIs(t, err, down)
	assert.False(t, IsStatementInvalid(err))
}

func TestFindByPrimaryKey_NeverReturnsOtherKey(t *testing.T) {
	h := newHarness(t)
	h.conn.Insert("users", statement.Row{"id": int64(50), "email": "x"})

	for _, id := range []any{50, int64(50), "50", 50.0} {
		rec, err := h.finder.FindByPrimaryKey(context.Background(), h.users, id)
		require.NoError(t, err, "%T", id)
		assert.Equal(t, int64(50), rec.ID())
	}

	_, err := h.finder.FindByPrimaryKey(context.Background(), h.users, 51)
	assert.True(t, IsRecordNotFound(err))
}

func TestFindByPrimaryKey_ConcurrentFirstUse(t *testing.T) {
	for _, n := range []int{2, 32} {
		h := newHarness(t)
		h.builder.Delay = 20 * time.Millisecond

		var wg sync.WaitGroup
		results := make([]*record.Record, n)
		errs := make([]error, n)
		start := make(chan struct{})
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				results[i], errs[i] = h.finder.FindByPrimaryKey(context.Background(), h.users, 7)
			}(i)
		}
		close(start)
		wg.Wait()

		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			assert.True(t, results[0].Equal(results[i]))
			assert.Equal(t, results[0].Hash(), results[i].Hash())
		}
		assert.Equal(t, 1, h.builder.Calls(), "template built exactly once for %d callers", n)
		assert.Equal(t, 1, h.users.FinderCache().Len(true))
	}
}

func TestFindByPrimaryKey_BuildFailureIsNotCached(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("builder rejected shape")
	h.builder.FailNext(1, boom)

	_, err := h.finder.FindByPrimaryKey(context.Background(), h.users, 1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, h.users.FinderCache().Len(true))

	rec, err := h.finder.FindByPrimaryKey(context.Background(), h.users, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID())
	assert.Equal(t, 2, h.builder.Calls())
}

func TestFindByPrimaryKey_ModePolledPerCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.finder.FindByPrimaryKey(ctx, h.users, 1)
	require.NoError(t, err)

	h.conn.SetPreparedStatements(false)
	_, err = h.finder.FindByPrimaryKey(ctx, h.users, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, h.builder.Calls())
	assert.Equal(t, 1, h.users.FinderCache().Len(true))
	assert.Equal(t, 1, h.users.FinderCache().Len(false))

	tmpl, ok := h.users.FinderCache().Lookup(false, statement.Signature{"id"})
	require.True(t, ok)
	assert.False(t, tmpl.Prepared())
}

func TestFindByPrimaryKey_GenericShapes(t *testing.T) {
	tests := []struct {
		name    string
		ctx     func() context.Context
		id      any
		wantID  any
		wantErr func(t *testing.T, err error)
	}{
		{
			name:   "scoped",
			ctx:    func() context.Context { return WithScope(context.Background(), statement.Condition{Column: "name", Value: "Ada"}) },
			id:     1,
			wantID: int64(1),
		},
		{
			name: "scoped miss",
			ctx:  func() context.Context { return WithScope(context.Background(), statement.Condition{Column: "name", Value: "Ken"}) },
			id:   1,
			wantErr: func(t *testing.T, err error) {
				assert.Equal(t, "Couldn't find User with 'id'=1", err.Error())
			},
		},
		{
			name:   "single element slice",
			ctx:    context.Background,
			id:     []int{2},
			wantID: int64(2),
		},
		{
			name: "nil id",
			ctx:  context.Background,
			id:   nil,
			wantErr: func(t *testing.T, err error) {
				assert.Equal(t, "Couldn't find User without an ID", err.Error())
			},
		},
		{
			name: "several ids",
			ctx:  context.Background,
			id:   []int{1, 2},
			wantErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrExpectedSingleID)
			},
		},
		{
			name: "out of range in slice",
			ctx:  context.Background,
			id:   []string{"99999999999999999999"},
			wantErr: func(t *testing.T, err error) {
				var nf *RecordNotFound
				require.True(t, errors.As(err, &nf))
				assert.True(t, nf.OutOfRange)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec, err := h.finder.FindByPrimaryKey(tt.ctx(), h.users, tt.id)
			if tt.wantErr != nil {
				require.Error(t, err)
				tt.wantErr(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, rec.ID())
			}
			assert.Equal(t, 0, h.builder.Calls(), "generic lookups never build templates")
			assert.Equal(t, 0, h.conn.Executes())
		})
	}
}

func TestFindByPrimaryKey_Keyless(t *testing.T) {
	reg := record.NewRegistry()
	events := reg.MustRegister(record.Definition{
		Name:    "Event",
		Columns: []attribute.Column{{Name: "payload", Type: attribute.String{}}},
	})
	f := New(testsupport.NewMemoryConnection(), testsupport.NewCountingBuilder())

	_, err := f.FindByPrimaryKey(context.Background(), events, 1)
	assert.ErrorIs(t, err, ErrNoPrimaryKey)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryBadInput))

	_, err = f.Find(context.Background(), events, 1, 2)
	assert.ErrorIs(t, err, ErrNoPrimaryKey)
}

func TestFind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	recs, err := h.finder.Find(ctx, h.users, 7)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(7), recs[0].ID())
	assert.Equal(t, 1, h.conn.Executes(), "a single id uses the cached path")

	recs, err = h.finder.Find(ctx, h.users, 2, []int{1, 2}, nil, int64(7))
	require.NoError(t, err)
	ids := make([]any, len(recs))
	for i, r := range recs {
		ids[i] = r.ID()
	}
	assert.Equal(t, []any{int64(2), int64(1), int64(7)}, ids, "request order, duplicates removed")

	_, err = h.finder.Find(ctx, h.users)
	assert.Equal(t, "Couldn't find User without an ID", err.Error())

	_, err = h.finder.Find(ctx, h.users, []int{1, 99})
	assert.Equal(t, "Couldn't find all Users with 'id': (1, 99) (found 1 results, but was looking for 2)", err.Error())
	assert.True(t, goerrors.IsNotFound(err))

	_, err = h.finder.Find(ctx, h.users, []int{42})
	assert.Equal(t, "Couldn't find User with 'id'=42", err.Error())

	_, err = h.finder.Find(ctx, h.users, []any{1, "99999999999999999999"})
	assert.Equal(t, "Couldn't find all Users with 'id': (1, 99999999999999999999) (found 1 results, but was looking for 2)", err.Error())

	_, err = h.finder.Find(ctx, h.users, []any{1, "abc"})
	assert.True(t, IsStatementInvalid(err))
}

func TestFind_PassesInConditionToConnection(t *testing.T) {
	h := newHarness(t)

	_, err := h.finder.Find(context.Background(), h.users, 3, 1)
	require.NoError(t, err)

	queries := h.conn.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, statement.Query{
		Model:      "User",
		Table:      "users",
		Conditions: []statement.Condition{{Column: "id", Value: []any{int64(3), int64(1)}}},
	}, queries[0])
}

func TestFindBy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rec, err := h.finder.FindBy(ctx, h.users, By(map[string]any{"email": "grace@example.com"}))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(2), rec.ID())

	rec, err = h.finder.FindBy(ctx, h.users, By(map[string]any{"email": "x@example.com"}))
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = h.finder.FindByOrRaise(ctx, h.users, By(map[string]any{"email": "x@example.com"}))
	var nf *RecordNotFound
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "User", nf.Model)
	assert.Equal(t, "Couldn't find User", err.Error())

	rec, err = h.finder.FindByOrRaise(ctx, h.users, Attributes{{Column: "name", Value: "Ken"}, {Column: "id", Value: "7"}})
	require.NoError(t, err)
	assert.Equal(t, "ken@example.com", rec.Get("email"))

	assert.Equal(t, 2, h.builder.Calls(), "one template per signature")
	assert.Equal(t, 0, h.conn.Selects())
}

func TestFindBy_SignatureOrderMatters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.finder.FindBy(ctx, h.users, Attributes{{Column: "email", Value: "a"}, {Column: "name", Value: "b"}})
	require.NoError(t, err)
	_, err = h.finder.FindBy(ctx, h.users, Attributes{{Column: "name", Value: "b"}, {Column: "email", Value: "a"}})
	require.NoError(t, err)
	_, err = h.finder.FindBy(ctx, h.users, By(map[string]any{"name": "b", "email": "a"}))
	require.NoError(t, err)

	assert.Equal(t, 2, h.builder.Calls())
}

func TestFindBy_OutOfRangeIsAMiss(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rec, err := h.finder.FindBy(ctx, h.users, By(map[string]any{"id": "99999999999999999999"}))
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = h.finder.FindBy(WithScope(ctx, statement.Condition{Column: "name", Value: "Ada"}), h.users,
		By(map[string]any{"id": "99999999999999999999"}))
	require.NoError(t, err)
	assert.Nil(t, rec, "generic path agrees")
}

func TestFindBy_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.finder.FindBy(ctx, h.users, By(map[string]any{"id": "abc"}))
	assert.True(t, IsStatementInvalid(err))
	assert.ErrorIs(t, err, attribute.ErrTypeMismatch)

	_, err = h.finder.FindBy(ctx, h.users, By(map[string]any{"nickname": "x"}))
	assert.True(t, IsStatementInvalid(err))
	assert.ErrorIs(t, err, attribute.ErrUnknownAttribute)

	_, err = h.finder.FindBy(ctx, h.users, By(map[string]any{"email": map[string]any{"like": "%a%"}}))
	assert.True(t, IsStatementInvalid(err))

	assert.Equal(t, 0, h.conn.Executes()+h.conn.Selects(), "nothing reaches the connection")
}

func TestFindBy_GenericShapes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rec, err := h.finder.FindBy(ctx, h.users, By(map[string]any{"name": nil}))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(3), rec.ID(), "nil matches NULL")

	rec, err = h.finder.FindBy(ctx, h.users, By(map[string]any{"id": []int{99, 7}}))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(7), rec.ID())

	rec, err = h.finder.FindBy(ctx, h.users, Attributes{{Column: "id", Value: 1}, {Column: "id", Value: 2}})
	require.NoError(t, err)
	assert.Nil(t, rec, "repeated columns are ANDed")

	rec, err = h.finder.FindBy(ctx, h.users, nil)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(1), rec.ID(), "no conditions takes the first row")

	assert.Equal(t, 0, h.builder.Calls())
	assert.Equal(t, 4, h.conn.Selects())
}

func TestRawSQLPolicy(t *testing.T) {
	raw := statement.Condition{Value: statement.Raw{SQL: "length(email) > ?", Args: []any{3}}}

	tests := []struct {
		policy  RawSQLPolicy
		wantErr bool
	}{
		{policy: RawSQLAllow},
		{policy: RawSQLWarn},
		{policy: RawSQLDeny, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			h := newHarness(t, WithRawSQLPolicy(tt.policy))
			ctx := WithScope(context.Background(), raw)

			rec, err := h.finder.FindByPrimaryKey(ctx, h.users, 1)
			if tt.wantErr {
				assert.True(t, goerrors.IsCategory(err, goerrors.CategoryValidation))
				assert.Equal(t, 0, h.conn.Selects())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), rec.ID())
			assert.Equal(t, []statement.Condition{raw, {Column: "id", Value: int64(1)}}, h.conn.Queries()[0].Conditions)
		})
	}

	h := newHarness(t, WithRawSQLPolicy(RawSQLDeny))
	_, err := h.finder.FindBy(context.Background(), h.users, Attributes{{Column: "email", Value: statement.Raw{SQL: "lower(email) = 'a'"}}})
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryValidation), "raw values are unbindable and checked too")
}

func TestParseRawSQLPolicy(t *testing.T) {
	for in, want := range map[string]RawSQLPolicy{"": RawSQLWarn, "ALLOW": RawSQLAllow, " deny ": RawSQLDeny, "warn": RawSQLWarn} {
		got, err := ParseRawSQLPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseRawSQLPolicy("sometimes")
	assert.Error(t, err)
}

func TestWithScopeAccumulates(t *testing.T) {
	ctx := WithScope(context.Background(), statement.Condition{Column: "a", Value: 1})
	ctx = WithScope(ctx, statement.Condition{Column: "b", Value: 2})
	assert.Equal(t, []statement.Condition{{Column: "a", Value: 1}, {Column: "b", Value: 2}}, ScopeFrom(ctx))

	assert.Same(t, ctx, WithScope(ctx))
	assert.Nil(t, ScopeFrom(context.Background()))
}
