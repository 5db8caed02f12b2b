package provider_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"marketdash/internal/provider"
)

func TestScalar_Unmarshal(t *testing.T) {
	t.Parallel()

	var v struct {
		A provider.Scalar `json:"a"`
		B provider.Scalar `json:"b"`
		C provider.Scalar `json:"c"`
		D provider.Scalar `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":" 12.5 ","b":3e10,"c":null}`), &v))

	require.Equal(t, provider.S("12.5"), v.A)
	require.Equal(t, provider.S("3e10"), v.B)
	require.False(t, v.C.Valid)
	require.False(t, v.D.Valid)
}

func TestScalar_KeepsCompositeAsText(t *testing.T) {
	t.Parallel()

	// Arrange
	var v struct {
		Price provider.Scalar `json:"price"`
		Rank  provider.Scalar `json:"rank"`
	}

	// Act
	err := json.Unmarshal([]byte(`{"price":{"usd":"1"},"rank":[1]}`), &v)

	// Assert: the payload still decodes; the values are present but not numeric.
	require.NoError(t, err)
	require.True(t, v.Price.Valid)
	require.Equal(t, `{"usd":"1"}`, v.Price.Text)
	require.Equal(t, `[1]`, v.Rank.Text)
}

func TestScalar_RoundTripKeepsNull(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal([]provider.Scalar{provider.S("1.5"), {}})
	require.NoError(t, err)
	require.JSONEq(t, `["1.5", null]`, string(b))
}
