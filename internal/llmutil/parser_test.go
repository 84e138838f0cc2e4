package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"store_name":"Voltive"}`,
			want: `{"store_name":"Voltive"}`,
		},
		{
			name: "fenced object with language tag",
			in:   "```json\n{\"store_name\":\"Voltive\"}\n```",
			want: `{"store_name":"Voltive"}`,
		},
		{
			name: "fenced object without language tag",
			in:   "```\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "fenced array",
			in:   "```json\n[1,2,3]\n```",
			want: `[1,2,3]`,
		},
		{
			name: "prose around object",
			in:   `Sure! Here is the brand identity you asked for: {"store_name":"Voltive"} Hope that helps.`,
			want: `{"store_name":"Voltive"}`,
		},
		{
			name: "prose around array",
			in:   `The products are: ["lamp","rug"] as requested.`,
			want: `["lamp","rug"]`,
		},
		{
			name: "no json at all",
			in:   "  I cannot answer that.  ",
			want: "I cannot answer that.",
		},
		{
			name: "nested braces survive narrowing",
			in:   `Result: {"palette":{"primary":"#FF00AA"}} done`,
			want: `{"palette":{"primary":"#FF00AA"}}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSON(tc.in))
		})
	}
}

func TestValidateJSON(t *testing.T) {
	assert.NoError(t, ValidateJSON(`{"ok":true}`))
	assert.NoError(t, ValidateJSON("```json\n[1,2]\n```"))
	assert.Error(t, ValidateJSON(""))
	assert.Error(t, ValidateJSON("not json at all"))
	assert.Error(t, ValidateJSON(`{"unterminated":`))
}

func TestDecode(t *testing.T) {
	type identity struct {
		StoreName string `json:"store_name"`
		Tagline   string `json:"tagline"`
	}

	got, err := Decode[identity]("```json\n{\"store_name\":\"Voltive\",\"tagline\":\"Light up\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Voltive", got.StoreName)
	assert.Equal(t, "Light up", got.Tagline)

	_, err = Decode[identity](`the model refused`)
	assert.Error(t, err)

	_, err = Decode[identity]("")
	assert.Error(t, err)
}
