package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUSD(t *testing.T) {
	cases := []struct {
		in   string
		want Cents
	}{
		{"3300", 330000},
		{"3300.00", 330000},
		{"$3300", 330000},
		{" $3300.00 ", 330000},
		{"100.01", 10001},
		{"0.01", 1},
		{".5", 50},
		{"25.5", 2550},
		{"-10", -1000},
	}
	for _, tc := range cases {
		got, err := ParseUSD(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseUSDRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "1.001", "1.2.3"} {
		_, err := ParseUSD(in)
		require.Error(t, err, "input %q", in)
	}
}

func TestString(t *testing.T) {
	require.Equal(t, "3300.00", Cents(330000).String())
	require.Equal(t, "100.01", Cents(10001).String())
	require.Equal(t, "-0.05", Cents(-5).String())
	require.Equal(t, "$0.01", Cents(1).USD())
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Cents(10001))
	require.NoError(t, err)
	require.Equal(t, `"100.01"`, string(data))

	var c Cents
	require.NoError(t, json.Unmarshal([]byte(`"3300.00"`), &c))
	require.Equal(t, Cents(330000), c)

	require.Error(t, json.Unmarshal([]byte(`250`), &c), "bare numbers are rejected")
	require.Error(t, json.Unmarshal([]byte(`100.10`), &c), "floats are rejected")
}

// Sums of many small amounts must be exact; this is the drift case that
// motivates integer cents over float64 dollar math.
func TestExactSummation(t *testing.T) {
	var sum Cents
	for range 1000 {
		c, err := ParseUSD("0.10")
		require.NoError(t, err)
		sum += c
	}
	require.Equal(t, Cents(10000), sum)
	require.Equal(t, "100.00", sum.String())
}
