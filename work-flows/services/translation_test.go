package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslator(t *testing.T) {
	tr := NewTranslator("en", "vi")
	tr.translate = func(text, source, target string) (string, error) {
		assert.Equal(t, "en", source)
		assert.Equal(t, "vi", target)
		return "xin chào", nil
	}

	got, err := tr.Translate("hello")
	require.NoError(t, err)
	assert.Equal(t, "xin chào", got)
	assert.Equal(t, "vi", tr.TargetLanguage())
}

func TestTranslator_BlankInputSkipsCall(t *testing.T) {
	tr := NewTranslator("en", "vi")
	tr.translate = func(string, string, string) (string, error) {
		t.Fatal("translate should not be called")
		return "", nil
	}

	got, err := tr.Translate("   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTranslator_WrapsError(t *testing.T) {
	cause := errors.New("rate limited")
	tr := NewTranslator("en", "vi")
	tr.translate = func(string, string, string) (string, error) { return "", cause }

	_, err := tr.Translate("hello")
	require.ErrorIs(t, err, cause)
}
