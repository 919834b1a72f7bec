package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinuteOfDay(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"09:05": 545,
		"13:30": 810,
		"23:59": 1439,
	}
	for value, want := range cases {
		got, err := MinuteOfDay(value)
		require.NoError(t, err, value)
		assert.Equal(t, want, got, value)
	}
}

func TestMinuteOfDay_Invalid(t *testing.T) {
	for _, value := range []string{"", "9:00am", "25:00", "10:61", "1030"} {
		_, err := MinuteOfDay(value)
		assert.Error(t, err, value)
	}
}

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{Page: 0, PageSize: 0}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 15, p.PageSize)
	assert.Equal(t, 0, p.Offset())

	p = Pagination{Page: 3, PageSize: 500}
	p.Normalize()
	assert.Equal(t, 15, p.PageSize)
	assert.Equal(t, 30, p.Offset())
}
