package chart

import (
	"context"
	"testing"

	"github.com/newsroom-cloud/analytics/internal/directory"
)

type stubDirectory struct {
	vocabularies map[string]*directory.Vocabulary
	desks        []directory.Desk
	users        []directory.User
}

func (s *stubDirectory) Vocabulary(_ context.Context, id string) (*directory.Vocabulary, error) {
	return s.vocabularies[id], nil
}

func (s *stubDirectory) Desks(context.Context) ([]directory.Desk, error) {
	return s.desks, nil
}

func (s *stubDirectory) Users(context.Context) ([]directory.User, error) {
	return s.users, nil
}

func stubLookups() Lookups {
	stub := &stubDirectory{
		vocabularies: map[string]*directory.Vocabulary{
			"categories": {Items: []directory.VocabularyItem{
				{QCode: "a", Name: "Advisories", IsActive: true},
			}},
			"urgency": {Items: []directory.VocabularyItem{
				{QCode: "1", Name: "Urgent", IsActive: true},
			}},
		},
		desks: []directory.Desk{{ID: "d1", Name: "Politics"}},
		users: []directory.User{{ID: "u1", DisplayName: "First User"}},
	}
	return Lookups{Vocabularies: stub, Desks: stub, Users: stub}
}

func TestLoad(t *testing.T) {
	translations, err := Load(context.Background(), stubLookups(),
		"task.desk", "task.user", "authors.parent", "anpa_category.qcode",
		"urgency", "state", "source", "operation", "custom.field", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	testCases := []struct {
		field     string
		key       string
		wantTitle string
		wantName  string
	}{
		{"task.desk", "d1", "Desk", "Politics"},
		{"task.user", "u1", "User", "First User"},
		{"authors.parent", "u1", "Author", "First User"},
		{"anpa_category.qcode", "a", "Category", "Advisories"},
		{"urgency", "1", "Urgency", "Urgent"},
		{"state", "killed", "State", "Killed"},
		{"source", "AAP", "Source", "AAP"},
		{"operation", "item_lock", "Operation", "Lock"},
		{"custom.field", "x", "custom.field", "x"},
	}

	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			if got := translations.Title(tc.field); got != tc.wantTitle {
				t.Errorf("Title(%s) = %q, want %q", tc.field, got, tc.wantTitle)
			}
			if got := translations.Name(tc.field, tc.key); got != tc.wantName {
				t.Errorf("Name(%s, %s) = %q, want %q", tc.field, tc.key, got, tc.wantName)
			}
		})
	}
}
