package domain

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Year
	}{
		{`1965`, 1965},
		{`"1965"`, 1965},
		{`"August 1, 1965"`, 1965},
		{`"Unknown"`, 0},
		{`null`, 0},
		{`-4`, 0},
	}
	for _, tc := range tests {
		var y Year
		require.NoError(t, json.Unmarshal([]byte(tc.in), &y), tc.in)
		assert.Equal(t, tc.want, y, tc.in)
	}

	var y Year
	assert.Error(t, json.Unmarshal([]byte(`{"year":1}`), &y))

	out, err := json.Marshal(struct {
		A Year `json:"a"`
		B Year `json:"b"`
	}{A: 1999})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1999,"b":"Unknown"}`, string(out))
}

func TestFlexibleBool(t *testing.T) {
	var v struct {
		A FlexibleBool `json:"a"`
		B FlexibleBool `json:"b"`
		C FlexibleBool `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":true,"b":"true","c":"false"}`), &v))
	assert.True(t, bool(v.A))
	assert.True(t, bool(v.B))
	assert.False(t, bool(v.C))

	assert.Error(t, json.Unmarshal([]byte(`{"a":"maybe"}`), &v))
}

func TestText(t *testing.T) {
	var w WorkDetail
	require.NoError(t, json.Unmarshal([]byte(`{"description":{"type":"/type/text","value":"typed"}}`), &w))
	assert.Equal(t, Text("typed"), w.Description)

	require.NoError(t, json.Unmarshal([]byte(`{"description":"plain"}`), &w))
	assert.Equal(t, Text("plain"), w.Description)
}

func TestBookRecordHelpers(t *testing.T) {
	b := BookRecord{AuthorName: "Ann Leckie, Ted Chiang", PublicScan: true}
	assert.Equal(t, []string{"Ann Leckie", "Ted Chiang"}, b.Authors())
	assert.True(t, b.AvailableOnline())

	b = BookRecord{AuthorName: UnknownText}
	assert.Nil(t, b.Authors())
	assert.False(t, b.AvailableOnline())
}
