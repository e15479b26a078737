package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPerson(t *testing.T) {
	person := NewPerson("Sir Lancelot", "contact@host.tld")

	assert.Equal(t, "Sir Lancelot", person.Name)
	assert.Equal(t, "contact@host.tld", person.Email)
	assert.Nil(t, person.AlternateNames)
	assert.Nil(t, person.AlternateNameList())
}

func TestAddAlternateName(t *testing.T) {
	testCases := []struct {
		name     string
		existing []string
		add      string
		changed  bool
		expected string
	}{
		{
			name:     "Primary name is not added",
			add:      "A",
			changed:  false,
			expected: "",
		},
		{
			name:     "First alternate",
			add:      "B",
			changed:  true,
			expected: "B",
		},
		{
			name:     "Second alternate keeps order",
			existing: []string{"B"},
			add:      "C",
			changed:  true,
			expected: "B, C",
		},
		{
			name:     "Known alternate is not repeated",
			existing: []string{"B", "C"},
			add:      "B",
			changed:  false,
			expected: "B, C",
		},
		{
			name:     "Last alternate is not repeated",
			existing: []string{"B", "C"},
			add:      "C",
			changed:  false,
			expected: "B, C",
		},
		{
			// Whole-name comparison: a prefix of a stored alternate is a new name.
			name:     "Substring of alternate is a distinct name",
			existing: []string{"Bobby"},
			add:      "Bob",
			changed:  true,
			expected: "Bobby, Bob",
		},
		{
			name:     "Superstring of alternate is a distinct name",
			existing: []string{"Bob"},
			add:      "Bobby",
			changed:  true,
			expected: "Bob, Bobby",
		},
		{
			name:     "Comparison is case sensitive",
			existing: []string{"bob"},
			add:      "Bob",
			changed:  true,
			expected: "bob, Bob",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			person := NewPerson("A", "e@x.com")
			for _, alt := range tc.existing {
				person.AddAlternateName(alt)
			}

			changed := person.AddAlternateName(tc.add)

			assert.Equal(t, tc.changed, changed)
			if tc.expected == "" {
				assert.Nil(t, person.AlternateNames)
			} else {
				if assert.NotNil(t, person.AlternateNames) {
					assert.Equal(t, tc.expected, *person.AlternateNames)
				}
			}
		})
	}
}

func TestKnowsName(t *testing.T) {
	alts := "Robin, Brave Sir Robin"
	person := &Person{Name: "Sir Robin", Email: "robin@camelot.tld", AlternateNames: &alts}

	assert.True(t, person.KnowsName("Sir Robin"))
	assert.True(t, person.KnowsName("Robin"))
	assert.True(t, person.KnowsName("Brave Sir Robin"))
	assert.False(t, person.KnowsName("Brave"))
	assert.False(t, person.KnowsName("Rob"))
	assert.Equal(t, []string{"Robin", "Brave Sir Robin"}, person.AlternateNameList())
}
