package models

import (
	"strings"
	"time"
)

// AlternateNameSeparator joins the names stored in Person.AlternateNames.
const AlternateNameSeparator = ", "

// Person is a contact identity, unique by exact email match.
type Person struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	AlternateNames *string   `json:"alternate_names"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewPerson creates an unsaved Person with no alternate names
func NewPerson(name, email string) *Person {
	return &Person{
		Name:  name,
		Email: email,
	}
}

// KnowsName reports whether name is the primary name or one of the stored
// alternates. Alternates are compared as whole entries of the separated list,
// so "Bob" is not considered known because "Bobby" is. A stored name that
// itself contains the separator reads as several entries.
func (p *Person) KnowsName(name string) bool {
	if name == p.Name {
		return true
	}
	if p.AlternateNames == nil || *p.AlternateNames == "" {
		return false
	}
	list := AlternateNameSeparator + *p.AlternateNames + AlternateNameSeparator
	return strings.Contains(list, AlternateNameSeparator+name+AlternateNameSeparator)
}

// AddAlternateName appends name to the alternates unless it is already known.
// It reports whether the person changed.
func (p *Person) AddAlternateName(name string) bool {
	if p.KnowsName(name) {
		return false
	}

	alternates := name
	if p.AlternateNames != nil && *p.AlternateNames != "" {
		alternates = *p.AlternateNames + AlternateNameSeparator + name
	}
	p.AlternateNames = &alternates
	return true
}

// AlternateNameList returns the alternates in insertion order.
func (p *Person) AlternateNameList() []string {
	if p.AlternateNames == nil || *p.AlternateNames == "" {
		return nil
	}
	return strings.Split(*p.AlternateNames, AlternateNameSeparator)
}
