package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Lllllllleong/consultancysite/internal/models"
)

// ErrUnknownPath is returned for an edit addressed at a field the document
// does not have. The edit is dropped and the document is left untouched.
var ErrUnknownPath = errors.New("unknown field path")

// Path addresses one editable value: a section field such as hero.title, or a
// field of a list entry such as projects.items.2.title.
type Path struct {
	Section  string
	Field    string
	Index    int
	HasIndex bool
	SubField string
}

// FieldPath addresses a scalar directly on a section.
func FieldPath(section, field string) Path {
	return Path{Section: section, Field: field}
}

// ItemPath addresses a field of one entry of a section's collection.
func ItemPath(section, collection string, index int, subField string) Path {
	return Path{Section: section, Field: collection, Index: index, HasIndex: true, SubField: subField}
}

// ParsePath parses the dotted form. Everything after the index is the
// sub-field, so projects.items.0.testimonial.quote is accepted.
func ParsePath(s string) (Path, error) {
	parts := strings.Split(s, ".")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return FieldPath(parts[0], parts[1]), nil
	case len(parts) >= 4:
		idx, err := strconv.Atoi(parts[2])
		if err != nil {
			return Path{}, fmt.Errorf("%w: %q: index %q is not a number", ErrUnknownPath, s, parts[2])
		}
		sub := strings.Join(parts[3:], ".")
		if parts[0] == "" || parts[1] == "" || sub == "" {
			break
		}
		return ItemPath(parts[0], parts[1], idx, sub), nil
	}
	return Path{}, fmt.Errorf("%w: %q", ErrUnknownPath, s)
}

func (p Path) String() string {
	if !p.HasIndex {
		return p.Section + "." + p.Field
	}
	return fmt.Sprintf("%s.%s.%d.%s", p.Section, p.Field, p.Index, p.SubField)
}

// apply writes value at p inside doc. doc must already be a private copy.
func apply(doc *models.Document, p Path, value string) error {
	if !p.HasIndex {
		fields, ok := doc.SectionFields(p.Section)
		if !ok {
			return fmt.Errorf("%w: no section %q", ErrUnknownPath, p.Section)
		}
		ptr, ok := fields.Text[p.Field]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPath, p)
		}
		*ptr = value
		return nil
	}

	// ItemFields gives every project a testimonial to address. Take it back
	// off the edited project if the edit left it empty, unless it was
	// already stored and this edit did not touch it.
	if p.Section == models.SectionProjects &&
		(!doc.HasProjectTestimonial(p.Index) || strings.HasPrefix(p.SubField, "testimonial.")) {
		defer doc.PruneEmptyTestimonial(p.Index)
	}
	fields, ok := doc.ItemFields(p.Section, p.Field, p.Index)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, p)
	}
	if ptr, ok := fields.Text[p.SubField]; ok {
		*ptr = value
		return nil
	}
	if ptr, ok := fields.Lists[p.SubField]; ok {
		*ptr = SplitList(value)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownPath, p)
}

// SplitList turns a comma or newline separated value into a list, dropping
// blanks.
func SplitList(value string) []string {
	out := []string{}
	for _, line := range strings.Split(value, "\n") {
		for _, item := range strings.Split(line, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// Entry is one editable value of a document, as shown by the admin page.
type Entry struct {
	Path  Path
	Value string
	List  bool
}

// Entries enumerates every editable value of doc in section order.
func Entries(doc *models.Document) []Entry {
	if doc == nil {
		return nil
	}
	work := doc.Clone()
	var out []Entry
	for _, section := range models.SectionNames() {
		fields, _ := work.SectionFields(section)
		for _, name := range fields.Names() {
			out = append(out, Entry{Path: FieldPath(section, name), Value: *fields.Text[name]})
		}
		for _, coll := range models.Collections(section) {
			n, _ := work.ItemCount(section, coll)
			for i := 0; i < n; i++ {
				item, _ := work.ItemFields(section, coll, i)
				out = append(out, itemEntries(section, coll, i, item)...)
			}
		}
	}
	return out
}

func itemEntries(section, coll string, i int, item models.Fields) []Entry {
	names := item.Names()
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		p := ItemPath(section, coll, i, name)
		if ptr, ok := item.Text[name]; ok {
			out = append(out, Entry{Path: p, Value: *ptr})
			continue
		}
		out = append(out, Entry{Path: p, Value: strings.Join(*item.Lists[name], ", "), List: true})
	}
	return out
}
