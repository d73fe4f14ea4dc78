package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("  Buyer.One@Example.com "))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("no-at-sign"))
	assert.Error(t, ValidateEmail("a@b"))
}

func TestNormalizeSkills_DropsDuplicatesAndBlanks(t *testing.T) {
	skills, err := NormalizeSkills([]string{"Go", " go ", "", "SQL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, skills)
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Secret123"))
	assert.Error(t, ValidatePassword("short1A"))
	assert.Error(t, ValidatePassword("alllowercase1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
}

func TestValidateExternalLink(t *testing.T) {
	assert.NoError(t, ValidateExternalLink(""))
	assert.NoError(t, ValidateExternalLink("https://example.com/result.zip"))
	assert.Error(t, ValidateExternalLink("ftp://example.com"))
}
