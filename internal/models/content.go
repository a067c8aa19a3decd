package models

import (
	"strings"
	"time"
	"unicode"
)

// Section names of the content document. The set is closed: display pages
// and the editor both depend on exactly these keys.
const (
	SectionHero         = "hero"
	SectionServices     = "services"
	SectionMission      = "mission"
	SectionContact      = "contact"
	SectionProjects     = "projects"
	SectionTestimonials = "testimonials"
	SectionSkills       = "skills"
)

// SectionNames lists every section in display order.
func SectionNames() []string {
	return []string{
		SectionHero,
		SectionServices,
		SectionMission,
		SectionContact,
		SectionProjects,
		SectionTestimonials,
		SectionSkills,
	}
}

// IsSection reports whether name is a known top-level section.
func IsSection(name string) bool {
	for _, s := range SectionNames() {
		if s == name {
			return true
		}
	}
	return false
}

// Document is the single content document that backs every page of the site.
type Document struct {
	Hero         Hero         `json:"hero" firestore:"hero" yaml:"hero"`
	Services     Services     `json:"services" firestore:"services" yaml:"services"`
	Mission      Mission      `json:"mission" firestore:"mission" yaml:"mission"`
	Contact      Contact      `json:"contact" firestore:"contact" yaml:"contact"`
	Projects     Projects     `json:"projects" firestore:"projects" yaml:"projects"`
	Testimonials Testimonials `json:"testimonials" firestore:"testimonials" yaml:"testimonials"`
	Skills       Skills       `json:"skills" firestore:"skills" yaml:"skills"`
}

type Hero struct {
	Title           string `json:"title" firestore:"title" yaml:"title"`
	Subtitle        string `json:"subtitle" firestore:"subtitle" yaml:"subtitle"`
	CTAText         string `json:"ctaText" firestore:"ctaText" yaml:"ctaText"`
	CTALink         string `json:"ctaLink" firestore:"ctaLink" yaml:"ctaLink"`
	BackgroundImage string `json:"backgroundImage" firestore:"backgroundImage" yaml:"backgroundImage"`
}

type Services struct {
	Heading string        `json:"heading" firestore:"heading" yaml:"heading"`
	Intro   string        `json:"intro" firestore:"intro" yaml:"intro"`
	Items   []ServiceCard `json:"items" firestore:"items" yaml:"items"`
}

type ServiceCard struct {
	Title       string `json:"title" firestore:"title" yaml:"title"`
	Description string `json:"description" firestore:"description" yaml:"description"`
}

type Mission struct {
	Heading   string         `json:"heading" firestore:"heading" yaml:"heading"`
	Statement string         `json:"statement" firestore:"statement" yaml:"statement"`
	Points    []MissionPoint `json:"points" firestore:"points" yaml:"points"`
}

type MissionPoint struct {
	Title string `json:"title" firestore:"title" yaml:"title"`
	Text  string `json:"text" firestore:"text" yaml:"text"`
}

type Contact struct {
	Heading string `json:"heading" firestore:"heading" yaml:"heading"`
	Email   string `json:"email" firestore:"email" yaml:"email"`
	Phone   string `json:"phone" firestore:"phone" yaml:"phone"`
	Address string `json:"address" firestore:"address" yaml:"address"`
}

type Projects struct {
	Heading string    `json:"heading" firestore:"heading" yaml:"heading"`
	Items   []Project `json:"items" firestore:"items" yaml:"items"`
}

// Project is one case study. Description is the canonical narrative field;
// older payloads that used "summary" are migrated on decode.
type Project struct {
	Title            string              `json:"title" firestore:"title" yaml:"title"`
	Description      string              `json:"description" firestore:"description" yaml:"description"`
	Technologies     []string            `json:"technologies" firestore:"technologies" yaml:"technologies"`
	ImageSrc         string              `json:"imageSrc" firestore:"imageSrc" yaml:"imageSrc"`
	Challenge        string              `json:"challenge" firestore:"challenge" yaml:"challenge"`
	Solution         string              `json:"solution" firestore:"solution" yaml:"solution"`
	Results          string              `json:"results" firestore:"results" yaml:"results"`
	AdditionalImages []string            `json:"additionalImages" firestore:"additionalImages" yaml:"additionalImages"`
	Testimonial      *ProjectTestimonial `json:"testimonial,omitempty" firestore:"testimonial,omitempty" yaml:"testimonial,omitempty"`
}

type ProjectTestimonial struct {
	Quote  string `json:"quote" firestore:"quote" yaml:"quote"`
	Author string `json:"author" firestore:"author" yaml:"author"`
	Role   string `json:"role" firestore:"role" yaml:"role"`
}

// Slug is the URL segment used by project detail pages.
func (p Project) Slug() string {
	return Slugify(p.Title)
}

type Testimonials struct {
	Heading string        `json:"heading" firestore:"heading" yaml:"heading"`
	Items   []Testimonial `json:"items" firestore:"items" yaml:"items"`
}

type Testimonial struct {
	Quote    string `json:"quote" firestore:"quote" yaml:"quote"`
	Author   string `json:"author" firestore:"author" yaml:"author"`
	Role     string `json:"role" firestore:"role" yaml:"role"`
	Company  string `json:"company" firestore:"company" yaml:"company"`
	ImageSrc string `json:"imageSrc" firestore:"imageSrc" yaml:"imageSrc"`
}

type Skills struct {
	Heading string  `json:"heading" firestore:"heading" yaml:"heading"`
	Items   []Skill `json:"items" firestore:"items" yaml:"items"`
}

type Skill struct {
	Name  string `json:"name" firestore:"name" yaml:"name"`
	Level string `json:"level" firestore:"level" yaml:"level"`
}

// ContentRecord is the stored row: the document plus its write timestamp.
type ContentRecord struct {
	Content   Document  `firestore:"content"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// Clone returns a deep copy that shares no slices with d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Services.Items = cloneSlice(d.Services.Items)
	c.Mission.Points = cloneSlice(d.Mission.Points)
	c.Testimonials.Items = cloneSlice(d.Testimonials.Items)
	c.Skills.Items = cloneSlice(d.Skills.Items)
	if d.Projects.Items != nil {
		c.Projects.Items = make([]Project, len(d.Projects.Items))
		for i, p := range d.Projects.Items {
			p.Technologies = cloneSlice(p.Technologies)
			p.AdditionalImages = cloneSlice(p.AdditionalImages)
			if p.Testimonial != nil {
				t := *p.Testimonial
				p.Testimonial = &t
			}
			c.Projects.Items[i] = p
		}
	}
	return &c
}

// FindProject returns the first project whose slug matches. Titles are not
// unique, so a duplicated title always resolves to the earlier entry.
func (d *Document) FindProject(slug string) (Project, bool) {
	for _, p := range d.Projects.Items {
		if p.Slug() == slug {
			return p, true
		}
	}
	return Project{}, false
}

// Slugify lowercases s and collapses every run of non-alphanumerics to "-".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
