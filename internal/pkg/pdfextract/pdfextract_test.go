package pdfextract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPages(t *testing.T) {
	pages := []string{
		"  First page has enough text.  ",
		"12",
		"",
		"\n\tSecond real page here\n",
		"tiny page",
	}

	assert.Equal(t, "First page has enough text.\n\nSecond real page here", JoinPages(pages))
}

func TestJoinPages_CountsCharacters(t *testing.T) {
	assert.Equal(t, "ééééééééé!", JoinPages([]string{"ééééééééé!"}))
	assert.Empty(t, JoinPages([]string{"ééééééééé"}))
}

func TestJoinPages_Empty(t *testing.T) {
	assert.Empty(t, JoinPages(nil))
}

func TestExtractText_EmptyInput(t *testing.T) {
	text, err := ExtractText(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractText_NotAPDF(t *testing.T) {
	_, err := ExtractText(strings.NewReader("this is plain text, not a pdf document"))
	assert.Error(t, err)
}
