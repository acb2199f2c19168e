// Package directory defines the collaborator lookups report generation
// depends on: controlled vocabularies, desk and user rosters, and stage
// visibility. Implementations live in the surrounding platform.
package directory

import "context"

// VocabularyItem is one controlled-vocabulary term.
type VocabularyItem struct {
	QCode    string `json:"qcode"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

// Vocabulary is a controlled vocabulary such as categories, genre or
// urgency.
type Vocabulary struct {
	ID    string           `json:"_id"`
	Items []VocabularyItem `json:"items"`
}

// ActiveItems returns the vocabulary's active items in declared order.
func (v *Vocabulary) ActiveItems() []VocabularyItem {
	if v == nil {
		return nil
	}
	items := make([]VocabularyItem, 0, len(v.Items))
	for _, item := range v.Items {
		if item.IsActive {
			items = append(items, item)
		}
	}
	return items
}

// Names maps qcode to display name over all items.
func (v *Vocabulary) Names() map[string]string {
	if v == nil {
		return map[string]string{}
	}
	names := make(map[string]string, len(v.Items))
	for _, item := range v.Items {
		names[item.QCode] = item.Name
	}
	return names
}

// Desk is one editorial desk.
type Desk struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// User is one platform user.
type User struct {
	ID          string `json:"_id"`
	DisplayName string `json:"display_name"`
}

// Vocabularies looks up controlled vocabularies by id.
type Vocabularies interface {
	Vocabulary(ctx context.Context, id string) (*Vocabulary, error)
}

// Desks lists the desk roster.
type Desks interface {
	Desks(ctx context.Context) ([]Desk, error)
}

// Users lists platform users.
type Users interface {
	Users(ctx context.Context) ([]User, error)
}

// Stages reports which stages are hidden from global readers.
type Stages interface {
	HiddenStageIDs(ctx context.Context) ([]string, error)
}
