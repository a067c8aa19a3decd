package models

import (
	"bytes"
	"encoding/json"

	"github.com/Lllllllleong/consultancysite/internal/apperr"
)

// SectionUpdate is the single-section write shape: {"section": ..., "data": ...}.
type SectionUpdate struct {
	Section string          `json:"section"`
	Data    json.RawMessage `json:"data"`
}

// ParseWrite classifies a write body. It returns either a full document or a
// section update. Anything that is not a JSON object is a validation error.
func ParseWrite(raw []byte) (*Document, *SectionUpdate, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, nil, err
	}
	if isSectionUpdate(obj) {
		var upd SectionUpdate
		if err := json.Unmarshal(raw, &upd); err != nil {
			return nil, nil, apperr.Validation("section update: %v", err)
		}
		if !IsSection(upd.Section) {
			return nil, nil, apperr.Validation("unknown section %q", upd.Section)
		}
		if obj["data"] == nil {
			return nil, nil, apperr.Validation("section %q: data must be an object", upd.Section)
		}
		return nil, &upd, nil
	}
	doc, err := decodeMigrated(obj)
	if err != nil {
		return nil, nil, err
	}
	return doc, nil, nil
}

// DecodeDocument decodes and migrates a full content document.
func DecodeDocument(raw []byte) (*Document, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	return decodeMigrated(obj)
}

// ReplaceSection decodes data as the named section and swaps it into d.
// The other sections are left as they are.
func (d *Document) ReplaceSection(section string, data json.RawMessage) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return apperr.Validation("section %q: %v", section, err)
	}
	if v == nil {
		return apperr.Validation("section %q: data must be an object", section)
	}
	decoded, err := decodeMigrated(map[string]any{section: v})
	if err != nil {
		return err
	}
	switch section {
	case SectionHero:
		d.Hero = decoded.Hero
	case SectionServices:
		d.Services = decoded.Services
	case SectionMission:
		d.Mission = decoded.Mission
	case SectionContact:
		d.Contact = decoded.Contact
	case SectionProjects:
		d.Projects = decoded.Projects
	case SectionTestimonials:
		d.Testimonials = decoded.Testimonials
	case SectionSkills:
		d.Skills = decoded.Skills
	default:
		return apperr.Validation("unknown section %q", section)
	}
	return nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, apperr.Validation("empty payload")
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, apperr.Validation("payload is not valid JSON: %v", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.Validation("payload must be a JSON object")
	}
	return obj, nil
}

func isSectionUpdate(obj map[string]any) bool {
	if len(obj) != 2 {
		return false
	}
	_, hasSection := obj["section"].(string)
	_, hasData := obj["data"]
	return hasSection && hasData
}

// decodeMigrated brings older document shapes up to the current schema and
// then decodes into the typed document.
func decodeMigrated(obj map[string]any) (*Document, error) {
	if err := migrate(obj); err != nil {
		return nil, err
	}
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil, apperr.Validation("re-encode payload: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, apperr.Validation("payload does not match the content schema: %v", err)
	}
	return &doc, nil
}

func migrate(obj map[string]any) error {
	for name, v := range obj {
		if !IsSection(name) {
			return apperr.Validation("unknown section %q", name)
		}
		// Bare arrays were how list sections used to be stored.
		if arr, ok := v.([]any); ok {
			colls := Collections(name)
			if len(colls) == 0 {
				return apperr.Validation("section %q must be an object", name)
			}
			obj[name] = map[string]any{colls[0]: arr}
			continue
		}
		if _, ok := v.(map[string]any); !ok && v != nil {
			return apperr.Validation("section %q must be an object", name)
		}
	}

	projects, ok := obj[SectionProjects].(map[string]any)
	if !ok {
		return nil
	}
	items, ok := projects["items"].([]any)
	if !ok {
		return nil
	}
	for _, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		summary, ok := item["summary"]
		if !ok {
			continue
		}
		if desc, _ := item["description"].(string); desc == "" {
			item["description"] = summary
		}
		delete(item, "summary")
	}
	return nil
}
