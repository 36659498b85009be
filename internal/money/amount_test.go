package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_UnmarshalNumberAndStringRenderIdentically(t *testing.T) {
	t.Parallel()

	var fromString, fromNumber struct {
		Price Amount `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price":"144900.00"}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"price":144900}`), &fromNumber))

	assert.True(t, fromString.Price.Equal(fromNumber.Price))
	assert.Equal(t, "₹1,44,900", Format(fromString.Price))
	assert.Equal(t, Format(fromString.Price), Format(fromNumber.Price))
}

func TestAmount_UnmarshalNull(t *testing.T) {
	t.Parallel()

	var v struct {
		MRP Amount `json:"mrp"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mrp":null}`), &v))
	assert.False(t, v.MRP.Valid)

	require.NoError(t, json.Unmarshal([]byte(`{}`), &v))
	assert.False(t, v.MRP.Valid)
}

func TestAmount_UnmarshalRejectsGarbage(t *testing.T) {
	t.Parallel()

	var v struct {
		Price Amount `json:"price"`
	}
	err := json.Unmarshal([]byte(`{"price":"abc"}`), &v)
	require.Error(t, err)
}

func TestAmount_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(MustParse("99.50"))
	require.NoError(t, err)
	assert.Equal(t, `"99.5"`, string(b))

	b, err = json.Marshal(Amount{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestAmount_Compare(t *testing.T) {
	t.Parallel()

	assert.True(t, MustParse("1000").GreaterThan(MustParse("999.99")))
	assert.False(t, Amount{}.GreaterThan(MustParse("1")))
	assert.True(t, MustParse("10.0").Equal(FromInt(10)))
	assert.True(t, FromMinor(14490000).Equal(FromInt(144900)))
}
