package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/models"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"12.5", "12.50", true},
		{"12,50", "12.50", true},
		{"0", "0.00", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true},
		{" 2.50 ", "2.50", true},
		{"100.50", "100.50", true},
		{"-5.00", "", false},
		{"-0.01", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"   ", "", false},
		{"9999999999.99", "9999999999.99", true},
		{"9999999999.994", "9999999999.99", true},
		{"9999999999.995", "", false},
		{"10000000000", "", false},
		{"100000000000000000", "", false},
		{"184467440737095516.17", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if !tc.ok {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.out, Format(got))
		})
	}
}

func TestCentsRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("12.50")
	cents, err := ToCents(d)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), cents)
	assert.True(t, FromCents(1250).Equal(d))
	assert.Equal(t, "12.50", Format(FromCents(1250)))
}

func TestSumIsExact(t *testing.T) {
	amounts := make([]decimal.Decimal, 0, 10)
	for i := 0; i < 10; i++ {
		amounts = append(amounts, decimal.RequireFromString("0.10"))
	}
	assert.Equal(t, "1.00", Format(Sum(amounts)))
	assert.Equal(t, "0.00", Format(Sum(nil)))
}

func TestToCentsRange(t *testing.T) {
	cents, err := ToCents(Max)
	require.NoError(t, err)
	assert.Equal(t, int64(999_999_999_999), cents)

	cents, err = ToCents(decimal.RequireFromString("-5"))
	require.NoError(t, err, "sign is checked by the store")
	assert.Equal(t, int64(-500), cents)

	for _, in := range []string{"10000000000", "184467440737095516.17", "-100000000000000000"} {
		_, err := ToCents(decimal.RequireFromString(in))
		assert.ErrorIs(t, err, models.ErrValidation, in)
	}
}

func TestNormalizeLargeValues(t *testing.T) {
	d := decimal.RequireFromString("184467440737095516.175")
	assert.Equal(t, "184467440737095516.18", Format(Normalize(d)))
}
