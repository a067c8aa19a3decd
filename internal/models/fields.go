package models

import "sort"

// Fields exposes the editable values of one entity by name. Text entries
// point at scalar strings; List entries point at string lists such as a
// project's technologies.
type Fields struct {
	Text  map[string]*string
	Lists map[string]*[]string
}

// Names returns every field name, sorted.
func (f Fields) Names() []string {
	names := make([]string, 0, len(f.Text)+len(f.Lists))
	for k := range f.Text {
		names = append(names, k)
	}
	for k := range f.Lists {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Collections returns the list-valued members of a section.
func Collections(section string) []string {
	switch section {
	case SectionServices, SectionProjects, SectionTestimonials, SectionSkills:
		return []string{"items"}
	case SectionMission:
		return []string{"points"}
	}
	return nil
}

// SectionFields returns the scalar fields that sit directly on a section.
func (d *Document) SectionFields(section string) (Fields, bool) {
	var text map[string]*string
	switch section {
	case SectionHero:
		h := &d.Hero
		text = map[string]*string{
			"title":           &h.Title,
			"subtitle":        &h.Subtitle,
			"ctaText":         &h.CTAText,
			"ctaLink":         &h.CTALink,
			"backgroundImage": &h.BackgroundImage,
		}
	case SectionServices:
		text = map[string]*string{"heading": &d.Services.Heading, "intro": &d.Services.Intro}
	case SectionMission:
		text = map[string]*string{"heading": &d.Mission.Heading, "statement": &d.Mission.Statement}
	case SectionContact:
		c := &d.Contact
		text = map[string]*string{
			"heading": &c.Heading,
			"email":   &c.Email,
			"phone":   &c.Phone,
			"address": &c.Address,
		}
	case SectionProjects:
		text = map[string]*string{"heading": &d.Projects.Heading}
	case SectionTestimonials:
		text = map[string]*string{"heading": &d.Testimonials.Heading}
	case SectionSkills:
		text = map[string]*string{"heading": &d.Skills.Heading}
	default:
		return Fields{}, false
	}
	return Fields{Text: text}, true
}

// ItemCount reports the length of a collection, and false when the section
// has no such collection.
func (d *Document) ItemCount(section, collection string) (int, bool) {
	if !hasCollection(section, collection) {
		return 0, false
	}
	switch section {
	case SectionServices:
		return len(d.Services.Items), true
	case SectionMission:
		return len(d.Mission.Points), true
	case SectionProjects:
		return len(d.Projects.Items), true
	case SectionTestimonials:
		return len(d.Testimonials.Items), true
	case SectionSkills:
		return len(d.Skills.Items), true
	}
	return 0, false
}

// ItemFields returns the fields of one list entry. It reports false for an
// unknown collection or an index out of range.
func (d *Document) ItemFields(section, collection string, index int) (Fields, bool) {
	n, ok := d.ItemCount(section, collection)
	if !ok || index < 0 || index >= n {
		return Fields{}, false
	}
	switch section {
	case SectionServices:
		s := &d.Services.Items[index]
		return Fields{Text: map[string]*string{"title": &s.Title, "description": &s.Description}}, true
	case SectionMission:
		p := &d.Mission.Points[index]
		return Fields{Text: map[string]*string{"title": &p.Title, "text": &p.Text}}, true
	case SectionProjects:
		return projectFields(&d.Projects.Items[index]), true
	case SectionTestimonials:
		t := &d.Testimonials.Items[index]
		return Fields{Text: map[string]*string{
			"quote":    &t.Quote,
			"author":   &t.Author,
			"role":     &t.Role,
			"company":  &t.Company,
			"imageSrc": &t.ImageSrc,
		}}, true
	case SectionSkills:
		s := &d.Skills.Items[index]
		return Fields{Text: map[string]*string{"name": &s.Name, "level": &s.Level}}, true
	}
	return Fields{}, false
}

// AppendItem adds a zero-valued entry to a collection.
func (d *Document) AppendItem(section, collection string) bool {
	if !hasCollection(section, collection) {
		return false
	}
	switch section {
	case SectionServices:
		d.Services.Items = append(d.Services.Items, ServiceCard{})
	case SectionMission:
		d.Mission.Points = append(d.Mission.Points, MissionPoint{})
	case SectionProjects:
		d.Projects.Items = append(d.Projects.Items, Project{})
	case SectionTestimonials:
		d.Testimonials.Items = append(d.Testimonials.Items, Testimonial{})
	case SectionSkills:
		d.Skills.Items = append(d.Skills.Items, Skill{})
	}
	return true
}

// RemoveItem deletes one entry, keeping the order of the rest.
func (d *Document) RemoveItem(section, collection string, index int) bool {
	n, ok := d.ItemCount(section, collection)
	if !ok || index < 0 || index >= n {
		return false
	}
	switch section {
	case SectionServices:
		d.Services.Items = removeAt(d.Services.Items, index)
	case SectionMission:
		d.Mission.Points = removeAt(d.Mission.Points, index)
	case SectionProjects:
		d.Projects.Items = removeAt(d.Projects.Items, index)
	case SectionTestimonials:
		d.Testimonials.Items = removeAt(d.Testimonials.Items, index)
	case SectionSkills:
		d.Skills.Items = removeAt(d.Skills.Items, index)
	}
	return true
}

// projectFields includes the nested testimonial under dotted names. The
// testimonial is allocated on first access so a setter can always land.
func projectFields(p *Project) Fields {
	if p.Testimonial == nil {
		p.Testimonial = &ProjectTestimonial{}
	}
	return Fields{
		Text: map[string]*string{
			"title":              &p.Title,
			"description":        &p.Description,
			"imageSrc":           &p.ImageSrc,
			"challenge":          &p.Challenge,
			"solution":           &p.Solution,
			"results":            &p.Results,
			"testimonial.quote":  &p.Testimonial.Quote,
			"testimonial.author": &p.Testimonial.Author,
			"testimonial.role":   &p.Testimonial.Role,
		},
		Lists: map[string]*[]string{
			"technologies":     &p.Technologies,
			"additionalImages": &p.AdditionalImages,
		},
	}
}

// HasProjectTestimonial reports whether project index carries a testimonial.
func (d *Document) HasProjectTestimonial(index int) bool {
	if index < 0 || index >= len(d.Projects.Items) {
		return false
	}
	return d.Projects.Items[index].Testimonial != nil
}

// PruneEmptyTestimonial drops the testimonial of project index when it
// carries no text. Other projects are not touched.
func (d *Document) PruneEmptyTestimonial(index int) {
	if index < 0 || index >= len(d.Projects.Items) {
		return
	}
	t := d.Projects.Items[index].Testimonial
	if t != nil && *t == (ProjectTestimonial{}) {
		d.Projects.Items[index].Testimonial = nil
	}
}

func hasCollection(section, collection string) bool {
	for _, c := range Collections(section) {
		if c == collection {
			return true
		}
	}
	return false
}

func removeAt[T any](in []T, i int) []T {
	out := make([]T, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...)
}
