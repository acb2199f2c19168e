package chart

import (
	"context"
	"fmt"

	"github.com/newsroom-cloud/analytics/internal/directory"
)

// Translation maps one field to its display title and key name lookup.
type Translation struct {
	Title string
	Names map[string]string
}

// Translations holds the loaded field translations, keyed by field id.
type Translations map[string]Translation

// Title returns the display title for a field, falling back to the field
// id itself.
func (t Translations) Title(field string) string {
	if tr, ok := t[field]; ok && tr.Title != "" {
		return tr.Title
	}
	return field
}

// Name returns the display name for a key of a field, falling back to the
// key itself.
func (t Translations) Name(field, key string) string {
	if tr, ok := t[field]; ok {
		if name, ok := tr.Names[key]; ok && name != "" {
			return name
		}
	}
	return key
}

// stateNames is the fixed label map for content states.
var stateNames = map[string]string{
	"published": "Published",
	"killed":    "Killed",
	"corrected": "Corrected",
	"updated":   "Updated",
}

// operationNames is the fixed label table for timeline operations.
var operationNames = map[string]string{
	"create":                    "Create",
	"fetch":                     "Fetch",
	"duplicated_from":           "Duplicated From",
	"update":                    "Save",
	"publish":                   "Publish",
	"publish_scheduled":         "Publish Scheduled",
	"deschedule":                "Deschedule",
	"publish_embargo":           "Publish Embargo",
	"rewrite":                   "Rewrite",
	"correct":                   "Correct",
	"link":                      "Link",
	"unlink":                    "Unlink",
	"kill":                      "Kill",
	"takedown":                  "Takedown",
	"spike":                     "Spike",
	"unspike":                   "Unspike",
	"move":                      "Move",
	"duplicate":                 "Duplicate",
	"item_lock":                 "Lock",
	"item_unlock":               "Unlock",
	"mark":                      "Mark",
	"unmark":                    "Unmark",
	"export_highlight":          "Export Highlight",
	"create_highlight":          "Create Highlight",
	"add_featuremedia":          "Add Featuremedia",
	"change_image_poi":          "Change Image POI",
	"update_featuremedia_poi":   "Update Featuremedia POI",
	"remove_featuremedia":       "Remove Featuremedia",
	"update_featuremedia_image": "Update Featuremedia Image",
}

// Lookups bundles the directory collaborators translation loading needs.
type Lookups struct {
	Vocabularies directory.Vocabularies
	Desks        directory.Desks
	Users        directory.Users
}

// Load resolves translations for the given fields. Unknown fields are left
// untranslated so their keys render verbatim.
func Load(ctx context.Context, lookups Lookups, fields ...string) (Translations, error) {
	translations := Translations{}

	for _, field := range fields {
		if field == "" {
			continue
		}
		if _, done := translations[field]; done {
			continue
		}

		switch field {
		case "task.desk":
			desks, err := lookups.Desks.Desks(ctx)
			if err != nil {
				return nil, fmt.Errorf("load desk translations: %w", err)
			}
			names := make(map[string]string, len(desks))
			for _, desk := range desks {
				names[desk.ID] = desk.Name
			}
			translations[field] = Translation{Title: "Desk", Names: names}

		case "task.user", "authors.parent":
			users, err := lookups.Users.Users(ctx)
			if err != nil {
				return nil, fmt.Errorf("load user translations: %w", err)
			}
			names := make(map[string]string, len(users))
			for _, user := range users {
				names[user.ID] = user.DisplayName
			}
			title := "User"
			if field == "authors.parent" {
				title = "Author"
			}
			translations[field] = Translation{Title: title, Names: names}

		case "anpa_category.qcode", "anpa_category.name":
			if err := loadVocabulary(ctx, lookups, translations, field, "categories", "Category"); err != nil {
				return nil, err
			}

		case "genre.qcode":
			if err := loadVocabulary(ctx, lookups, translations, field, "genre", "Genre"); err != nil {
				return nil, err
			}

		case "subject.qcode":
			if err := loadVocabulary(ctx, lookups, translations, field, "subject", "Subject"); err != nil {
				return nil, err
			}

		case "urgency":
			if err := loadVocabulary(ctx, lookups, translations, field, "urgency", "Urgency"); err != nil {
				return nil, err
			}

		case "state":
			translations[field] = Translation{Title: "State", Names: stateNames}

		case "source":
			translations[field] = Translation{Title: "Source"}

		case "operation":
			translations[field] = Translation{Title: "Operation", Names: operationNames}
		}
	}

	return translations, nil
}

func loadVocabulary(ctx context.Context, lookups Lookups, translations Translations, field, vocabularyID, title string) error {
	vocabulary, err := lookups.Vocabularies.Vocabulary(ctx, vocabularyID)
	if err != nil {
		return fmt.Errorf("load %s translations: %w", vocabularyID, err)
	}
	translations[field] = Translation{Title: title, Names: vocabulary.Names()}
	return nil
}
