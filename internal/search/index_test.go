package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexSearch(t *testing.T) {
	ix := NewIndex()
	ix.Update("1", Fields{Title: "Buy groceries", Category: "Shopping"})
	ix.Update("2", Fields{Title: "Book flights", Description: "to Lisbon", Category: "Travel"})
	ix.Update("3", Fields{Title: "Buy train tickets", Category: "Travel"})

	assert.Equal(t, []string{"1", "3"}, ix.Search("buy"))
	assert.Equal(t, []string{"3"}, ix.Search("buy travel"))
	assert.Equal(t, []string{"2"}, ix.Search("LIS"))
	assert.Empty(t, ix.Search("nothing"))
	assert.Nil(t, ix.Search("   "))
}

func TestIndexUpdateReplaces(t *testing.T) {
	ix := NewIndex()
	ix.Update("1", Fields{Title: "Old title"})
	ix.Update("1", Fields{Title: "New title"})

	assert.Empty(t, ix.Search("old"))
	assert.Equal(t, []string{"1"}, ix.Search("new"))
	assert.Equal(t, 1, ix.Len())
}

func TestIndexRemove(t *testing.T) {
	ix := NewIndex()
	ix.Update("1", Fields{Title: "Walk dog"})
	ix.Remove("1")
	ix.Remove("1")

	assert.Empty(t, ix.Search("walk"))
	assert.Equal(t, 0, ix.Len())
}
