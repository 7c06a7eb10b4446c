package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fallback string
		casing   Casing
		expected string
	}{
		{"snake plain", "Users", "t", Snake, "users"},
		{"snake camel source", "createdAt", "c", Snake, "created_at"},
		{"snake spaces and punctuation", "  Order  Items!! ", "t", Snake, "order_items"},
		{"snake diacritics", "Café Menü", "t", Snake, "cafe_menu"},
		{"snake acronym", "HTTPCode", "t", Snake, "httpcode"},
		{"snake leading digit", "2fa codes", "t", Snake, "n_2fa_codes"},
		{"snake empty uses fallback", "   ", "untitled_table", Snake, "untitled_table"},
		{"snake symbols only", "$$$", "column_1", Snake, "column_1"},
		{"snake underscore key", "_id", "c", Snake, "id"},
		{"pascal", "blog post", "Model", Pascal, "BlogPost"},
		{"pascal from snake", "user_profile", "Model", Pascal, "UserProfile"},
		{"pascal keeps word breaks", "userProfile", "Model", Pascal, "UserProfile"},
		{"pascal leading digit", "3d models", "Model", Pascal, "N3dModels"},
		{"camel", "Author ID", "field", Camel, "authorID"},
		{"camel from snake", "author_id", "field", Camel, "authorId"},
		{"pascal keeps acronyms", "HTTPServer", "Model", Pascal, "HTTPServer"},
		{"camel leading digit", "1st place", "field", Camel, "n1stPlace"},
		{"key keeps casing", "firstName", "field", Key, "firstName"},
		{"key replaces spaces", "first name", "field", Key, "first_name"},
		{"key keeps inner underscores", "__v", "field", Key, "__v"},
		{"key keeps underscore runs as written", "a__b", "field", Key, "a__b"},
		{"key collapses replaced runs", "a - b", "field", Key, "a_b"},
		{"key leading digit", "9lives", "field", Key, "_9lives"},
		{"nothing usable anywhere", "", "", Pascal, "Model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ToIdentifier(tt.raw, tt.fallback, tt.casing))
		})
	}
}

func TestToIdentifierIdempotent(t *testing.T) {
	inputs := []string{
		"", "Users", "createdAt", "HTTPServer", "2fa", "Café Menü", "a--b__c",
		"  spaced out  ", "ALLCAPS", "mixed123Case", "9", "ünïcödé", "x_1_y", "$ref",
	}
	for _, c := range []Casing{Snake, Pascal, Camel, Key} {
		for _, in := range inputs {
			once := ToIdentifier(in, "fallback", c)
			twice := ToIdentifier(once, "fallback", c)
			assert.Equal(t, once, twice, "casing %d input %q", c, in)
			assert.NotEmpty(t, once)
			assert.False(t, once[0] >= '0' && once[0] <= '9', "leading digit in %q", once)
		}
	}
}

func TestRegistryUnique(t *testing.T) {
	snake := NewRegistry(Snake)
	assert.Equal(t, "name", snake.Unique("name"))
	assert.Equal(t, "name_2", snake.Unique("name"))
	assert.Equal(t, "name_3", snake.Unique("name"))

	snake.Reserve("id_2")
	assert.Equal(t, "id", snake.Unique("id"))
	assert.Equal(t, "id_3", snake.Unique("id"))
	assert.True(t, snake.Has("id_3"))
	assert.False(t, snake.Has("id_4"))

	pascal := NewRegistry(Pascal)
	assert.Equal(t, "User", pascal.Unique("User"))
	assert.Equal(t, "User2", pascal.Unique("User"))
}

func TestRegistryPairwiseDistinct(t *testing.T) {
	reg := NewRegistry(Snake)
	seen := make(map[string]bool)
	for range 50 {
		name := reg.Unique(ToIdentifier("Email Address", "column", Snake))
		assert.False(t, seen[name], "duplicate %s", name)
		seen[name] = true
	}
}
