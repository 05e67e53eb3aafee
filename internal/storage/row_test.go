package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowAccessors(t *testing.T) {
	day := time.Date(2012, 3, 9, 0, 0, 0, 0, time.UTC)
	row := NewRow(
		[]string{"store", "dept", "date", "weekly_sales", "is_holiday", "type", "markdown1", "sales"},
		[]any{int32(4), int64(7), day, 24924.5, true, "A", nil, "261.96"},
	)

	store, err := row.Int("store")
	require.NoError(t, err)
	assert.Equal(t, int64(4), store)

	sales, err := row.Float("weekly_sales")
	require.NoError(t, err)
	assert.Equal(t, 24924.5, sales)

	asFloat, err := row.Float("dept")
	require.NoError(t, err)
	assert.Equal(t, 7.0, asFloat)

	holiday, err := row.Bool("is_holiday")
	require.NoError(t, err)
	assert.True(t, holiday)

	date, err := row.Time("date")
	require.NoError(t, err)
	assert.Equal(t, day, date)

	typ, err := row.String("type")
	require.NoError(t, err)
	assert.Equal(t, "A", typ)

	markdown, err := row.NullFloat("markdown1")
	require.NoError(t, err)
	assert.Nil(t, markdown)

	money, err := row.Decimal("sales")
	require.NoError(t, err)
	assert.True(t, money.Equal(decimal.RequireFromString("261.96")))

	assert.Equal(t, []string{"store", "dept", "date", "weekly_sales", "is_holiday", "type", "markdown1", "sales"}, row.Columns())
}

func TestRowAccessorErrors(t *testing.T) {
	row := NewRow([]string{"name", "missing_value"}, []any{"Store 1", nil})

	_, err := row.Int("name")
	var typeErr *TypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "name", typeErr.Column)

	_, err = row.Float("missing_value")
	assert.ErrorIs(t, err, ErrNullValue)

	_, err = row.Time("nope")
	assert.ErrorIs(t, err, ErrColumnNotFound)

	_, err = row.Bool("name")
	assert.Error(t, err)
}

func TestRowParsesTextualValues(t *testing.T) {
	row := NewRow([]string{"date", "flag", "count"}, []any{"2010-02-05", "TRUE", "12"})

	date, err := row.Time("date")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2010, 2, 5, 0, 0, 0, 0, time.UTC), date)

	flag, err := row.Bool("flag")
	require.NoError(t, err)
	assert.True(t, flag)

	count, err := row.Int("count")
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}
