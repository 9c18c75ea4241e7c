package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAfter(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		want   string
		offset int
		ok     bool
	}{
		{
			name:   "object after marker",
			raw:    `2024-06-18 INFO Received data: {"data":{"a":1}} trailing`,
			want:   `{"data":{"a":1}}`,
			offset: 31,
			ok:     true,
		},
		{
			name: "braces inside strings",
			raw:  `Received data: {"msg":"a } b { c","n":{"x":"\"}"}}`,
			want: `{"msg":"a } b { c","n":{"x":"\"}"}}`,
			ok:   true,
			// offset checked below
			offset: 15,
		},
		{
			name:   "no marker",
			raw:    `{"data":{}} without the marker`,
			offset: -1,
		},
		{
			name:   "unterminated object",
			raw:    `Received data: {"data":{"a":1}`,
			offset: -1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, off, ok := ExtractAfter(tc.raw, "Received data:")
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.offset, off)
		})
	}
}

func TestExtractObjectWithoutMarker(t *testing.T) {
	got, off, ok := ExtractObject(`prefix {"a":[1,2,{"b":3}]} suffix`)
	assert.True(t, ok)
	assert.Equal(t, 7, off)
	assert.Equal(t, `{"a":[1,2,{"b":3}]}`, got)
}
