package runtime

import (
	"social-chat/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)

	// Given two dictionaries sharing a word and a file that is not a dictionary
	files := fstest.MapFS{
		"censored/en.txt":    {Data: []byte("badger\r\nsnake\n\n")},
		"censored/fr.txt":    {Data: []byte("  blaireau \nbadger\n")},
		"censored/README.md": {Data: []byte("ignored")},
	}

	// When loading the folder
	data, err := NewCensoredLoader(files).LoadAll("censored")
	req.NoError(err)

	// Then words are trimmed and unique
	req.ElementsMatch([]string{"badger", "snake", "blaireau"}, data.Words)
	req.ElementsMatch([]string{"en", "fr"}, data.Languages)
}

func TestCensoredLoader_Empty(t *testing.T) {
	req := require.New(t)
	files := fstest.MapFS{"censored/en.txt": {Data: []byte("\n \n")}}

	_, err := NewCensoredLoader(files).LoadAll("censored")
	req.ErrorIs(err, errors.ErrEmptyWords)

	_, err = NewCensoredLoader(files).LoadAll("missing")
	req.Error(err)
}
