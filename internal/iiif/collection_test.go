package iiif

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFieldString(t *testing.T) {
	assert.Equal(t, "a field: a value", NewMetadataField("a field", "a value").String())
}

func TestCollectionPreservesInsertionOrder(t *testing.T) {
	c := NewMetadataCollection()
	c.Add(NewMetadataField("b", "2"))
	c.Add(NewMetadataField("a", "1"))
	c.Add(NewMetadataField("b", "2"))

	assert.Equal(t, []MetadataField{{"b", "2"}, {"a", "1"}, {"b", "2"}}, c.Fields())

	var labels []string
	for _, f := range c.All() {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"b", "a", "b"}, labels)
}

func TestCollectionFind(t *testing.T) {
	c := NewMetadataCollection(
		NewMetadataField("Subject", "Maps"),
		NewMetadataField("Subject", "Atlases"),
		NewMetadataField("Subject", "Maps"),
		NewMetadataField("Location", "Maps"),
	)

	assert.Len(t, c.Find("Subject", "Maps"), 2)
	assert.Equal(t, []int{0, 2}, c.Index("Subject", "Maps"))
	assert.Equal(t, []MetadataField{{"Subject", "Atlases"}}, c.Find("Subject", "Atlases"))
	assert.Empty(t, c.Find("Subject", "maps"))
	assert.Equal(t, 4, c.Len())
}

func TestCollectionDoesNotAliasInput(t *testing.T) {
	fields := []MetadataField{{"a", "1"}}
	c := NewMetadataCollection(fields...)
	fields[0].Value = "changed"

	got, _ := c.At(0)
	assert.Equal(t, "1", got.Value)

	out := c.Fields()
	out[0].Value = "changed"
	got, _ = c.At(0)
	assert.Equal(t, "1", got.Value)
}

func TestCollectionReplaceValue(t *testing.T) {
	c := NewMetadataCollection(NewMetadataField("a", "1"), NewMetadataField("b", "2"))

	require.NoError(t, c.ReplaceValue(1, "3"))
	assert.Equal(t, []MetadataField{{"a", "1"}, {"b", "3"}}, c.Fields())

	assert.ErrorIs(t, c.ReplaceValue(2, "x"), ErrFieldNotFound)
	assert.ErrorIs(t, c.ReplaceValue(-1, "x"), ErrFieldNotFound)
	assert.Equal(t, []MetadataField{{"a", "1"}, {"b", "3"}}, c.Fields())
}

func TestCollectionRemove(t *testing.T) {
	c := NewMetadataCollection(NewMetadataField("a", "1"), NewMetadataField("b", "2"), NewMetadataField("c", "3"))

	require.NoError(t, c.Remove(1))
	assert.Equal(t, []MetadataField{{"a", "1"}, {"c", "3"}}, c.Fields())

	assert.ErrorIs(t, c.Remove(5), ErrFieldNotFound)
	assert.Equal(t, 2, c.Len())
}

func TestCollectionFirstByLabel(t *testing.T) {
	c := NewMetadataCollection(NewMetadataField("a", "1"), NewMetadataField("b", "2"), NewMetadataField("b", "3"))

	f, ok := c.FirstByLabel("b")
	require.True(t, ok)
	assert.Equal(t, "2", f.Value)

	_, ok = c.FirstByLabel("z")
	assert.False(t, ok)
}

func TestLookupTable(t *testing.T) {
	assert.True(t, DefaultLookup.IsTitleTag("245"))
	assert.False(t, DefaultLookup.IsTitleTag("300"))
	assert.True(t, DefaultLookup.IsDescriptionTag("300"))

	label, ok := DefaultLookup.LabelFor("856")
	require.True(t, ok)
	assert.Equal(t, ElectronicLocationLabel, label)

	label, ok = DefaultLookup.LabelFor("690")
	require.True(t, ok)
	assert.Equal(t, "Local Subject", label)

	_, ok = DefaultLookup.LabelFor("245")
	assert.False(t, ok)
	_, ok = DefaultLookup.LabelFor("001")
	assert.False(t, ok)
}

func TestLookupTableClassificationIsExclusive(t *testing.T) {
	for _, tag := range DefaultTitleTags {
		_, generic := DefaultLabels[tag]
		assert.False(t, generic, "title tag %s is also generic", tag)
		assert.False(t, DefaultLookup.IsDescriptionTag(tag))
	}
	for _, tag := range DefaultDescriptionTags {
		_, generic := DefaultLabels[tag]
		assert.False(t, generic, "description tag %s is also generic", tag)
	}

	_, err := NewLookupTable([]string{"245"}, nil, map[string]string{"245": "Title"})
	assert.Error(t, err)
	_, err = NewLookupTable(nil, []string{"300"}, map[string]string{"300": "Physical"})
	assert.Error(t, err)
	_, err = NewLookupTable([]string{"245"}, []string{"245"}, nil)
	assert.Error(t, err)
}

func TestLookupTableCopiesLabels(t *testing.T) {
	labels := map[string]string{"650": "Subject"}
	lookup, err := NewLookupTable(nil, nil, labels)
	require.NoError(t, err)

	labels["650"] = "changed"
	got, _ := lookup.LabelFor("650")
	assert.Equal(t, "Subject", got)
}
