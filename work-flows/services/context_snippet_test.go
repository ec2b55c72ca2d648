package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestContextSnippet(t *testing.T) {
	page := func() string { return "page text" }
	custom := func() string { return "editor buffer" }

	assert.Equal(t, "editor buffer", ContextSnippet(custom, page))
	assert.Equal(t, "page text", ContextSnippet(nil, page))
	assert.Equal(t, "", ContextSnippet(nil, nil))
}

func TestContextSnippet_Truncates(t *testing.T) {
	long := strings.Repeat("a", MaxContextChars+100)
	got := ContextSnippet(func() string { return long }, nil)
	assert.Len(t, got, MaxContextChars)

	exact := strings.Repeat("b", MaxContextChars)
	assert.Equal(t, exact, ContextSnippet(func() string { return exact }, nil))
}

func TestContextSnippet_CountsCharactersNotBytes(t *testing.T) {
	long := strings.Repeat("é", MaxContextChars+5)
	got := ContextSnippet(func() string { return long }, nil)
	assert.Equal(t, MaxContextChars, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
}
