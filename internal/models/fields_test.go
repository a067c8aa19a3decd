package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSectionFields(t *testing.T) {
	doc := sampleDocument()

	f, ok := doc.SectionFields(SectionHero)
	require.True(t, ok)
	*f.Text["title"] = "Z"
	assert.Equal(t, "Z", doc.Hero.Title)

	_, ok = doc.SectionFields("footer")
	assert.False(t, ok)
}

func TestItemFields_Bounds(t *testing.T) {
	doc := sampleDocument()

	_, ok := doc.ItemFields(SectionServices, "items", 0)
	assert.True(t, ok)
	_, ok = doc.ItemFields(SectionServices, "items", 1)
	assert.False(t, ok)
	_, ok = doc.ItemFields(SectionServices, "items", -1)
	assert.False(t, ok)
	_, ok = doc.ItemFields(SectionServices, "points", 0)
	assert.False(t, ok)
	_, ok = doc.ItemFields(SectionHero, "items", 0)
	assert.False(t, ok)
}

func TestItemFields_ProjectLists(t *testing.T) {
	doc := sampleDocument()

	f, ok := doc.ItemFields(SectionProjects, "items", 0)
	require.True(t, ok)
	*f.Lists["technologies"] = []string{"CFD", "FEA"}
	*f.Text["testimonial.author"] = "R. Okafor"

	assert.Equal(t, []string{"CFD", "FEA"}, doc.Projects.Items[0].Technologies)
	assert.Equal(t, "R. Okafor", doc.Projects.Items[0].Testimonial.Author)
	assert.Contains(t, f.Names(), "additionalImages")
}

func TestPruneEmptyTestimonial(t *testing.T) {
	doc := &Document{Projects: Projects{Items: []Project{
		{Title: "x"},
		{Title: "y", Testimonial: &ProjectTestimonial{}},
	}}}
	require.False(t, doc.HasProjectTestimonial(0))

	_, ok := doc.ItemFields(SectionProjects, "items", 0)
	require.True(t, ok)
	require.True(t, doc.HasProjectTestimonial(0))

	doc.PruneEmptyTestimonial(0)
	assert.Nil(t, doc.Projects.Items[0].Testimonial)
	assert.NotNil(t, doc.Projects.Items[1].Testimonial, "other projects are left alone")

	doc.PruneEmptyTestimonial(7)
	assert.False(t, doc.HasProjectTestimonial(-1))
}

func TestAppendAndRemoveItem(t *testing.T) {
	doc := sampleDocument()

	require.True(t, doc.AppendItem(SectionMission, "points"))
	require.True(t, doc.AppendItem(SectionServices, "items"))
	assert.Len(t, doc.Mission.Points, 1)
	assert.Len(t, doc.Services.Items, 2)

	require.True(t, doc.RemoveItem(SectionServices, "items", 0))
	assert.Len(t, doc.Services.Items, 1)
	assert.Equal(t, "", doc.Services.Items[0].Title)

	assert.False(t, doc.RemoveItem(SectionServices, "items", 5))
	assert.False(t, doc.AppendItem(SectionContact, "items"))
}
