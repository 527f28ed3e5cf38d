package apm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeaders(t *testing.T) {
	h := parseHeaders("x-honeycomb-team=abc, api-key=k=v,broken,")

	assert.Equal(t, "abc", h["x-honeycomb-team"])
	assert.Equal(t, "k=v", h["api-key"])
	assert.Len(t, h, 2)
}
