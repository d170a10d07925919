package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAmount(t *testing.T) {
	cases := map[string]string{
		"":        "0.00",
		"  ":      "0.00",
		"20":      "20.00",
		"12.5":    "12.50",
		" 0.105 ": "0.11",
		"100.00":  "100.00",
	}
	for in, want := range cases {
		got, err := NormalizeAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"abc", "-1", "1,50"} {
		_, err := NormalizeAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestDisplayAmount(t *testing.T) {
	assert.Equal(t, "20.00", DisplayAmount("20"))
	assert.Equal(t, "52.50", DisplayAmount("52.5"))
	assert.Equal(t, "0.00", DisplayAmount("n/a"))
}

func TestNumericText(t *testing.T) {
	var body struct {
		A NumericText `json:"a"`
		B NumericText `json:"b"`
		C NumericText `json:"c"`
		D NumericText `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.50","b":12.5,"c":null}`), &body))
	assert.Equal(t, NumericText("12.50"), body.A)
	assert.Equal(t, NumericText("12.5"), body.B)
	assert.Equal(t, NumericText(""), body.C)
	assert.Equal(t, NumericText(""), body.D)

	var n NumericText
	assert.Error(t, json.Unmarshal([]byte(`true`), &n))
}
