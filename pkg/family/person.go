package family

import (
	"strings"

	"github.com/google/uuid"

	errs "github.com/matzehuels/familytree/pkg/errors"
)

// Gender of a person. The empty value means unknown.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is a known gender or unset.
func (g Gender) Valid() bool {
	return g == "" || g == GenderMale || g == GenderFemale
}

// Person is one individual in the tree. Dates are kept as the strings the
// client sent (YYYY, YYYY-MM or YYYY-MM-DD).
type Person struct {
	ID        string `json:"id" bson:"id"`
	FirstName string `json:"firstName" bson:"firstName"`
	LastName  string `json:"lastName" bson:"lastName"`
	Gender    Gender `json:"gender,omitempty" bson:"gender,omitempty"`
	BirthDate string `json:"birthDate,omitempty" bson:"birthDate,omitempty"`
	DeathDate string `json:"deathDate,omitempty" bson:"deathDate,omitempty"`
	PhotoURL  string `json:"photoUrl,omitempty" bson:"photoUrl,omitempty"`
	Biography string `json:"biography,omitempty" bson:"biography,omitempty"`
}

// FullName returns "First Last", trimmed.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PersonInput is the client-supplied data for a new person.
type PersonInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    Gender `json:"gender,omitempty"`
	BirthDate string `json:"birthDate,omitempty"`
	DeathDate string `json:"deathDate,omitempty"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	Biography string `json:"biography,omitempty"`
}

// Validate checks required names, gender and date formats.
func (in PersonInput) Validate() error {
	if err := errs.ValidateName("firstName", in.FirstName); err != nil {
		return err
	}
	if err := errs.ValidateName("lastName", in.LastName); err != nil {
		return err
	}
	if !in.Gender.Valid() {
		return errs.New(errs.ErrCodeInvalidInput, "gender must be male or female")
	}
	if err := errs.ValidateDate("birthDate", in.BirthDate); err != nil {
		return err
	}
	return errs.ValidateDate("deathDate", in.DeathDate)
}

// NewPerson validates in and returns a person with a fresh ID.
func NewPerson(in PersonInput) (Person, error) {
	if err := in.Validate(); err != nil {
		return Person{}, err
	}
	return Person{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Gender:    in.Gender,
		BirthDate: in.BirthDate,
		DeathDate: in.DeathDate,
		PhotoURL:  in.PhotoURL,
		Biography: in.Biography,
	}, nil
}

// PersonPatch is a partial update. Nil fields are left untouched; a non-nil
// pointer to an empty string clears an optional field.
type PersonPatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Gender    *Gender `json:"gender,omitempty"`
	BirthDate *string `json:"birthDate,omitempty"`
	DeathDate *string `json:"deathDate,omitempty"`
	PhotoURL  *string `json:"photoUrl,omitempty"`
	Biography *string `json:"biography,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PersonPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Gender == nil &&
		p.BirthDate == nil && p.DeathDate == nil && p.PhotoURL == nil && p.Biography == nil
}

// Validate checks the fields that are set.
func (p PersonPatch) Validate() error {
	if p.FirstName != nil {
		if err := errs.ValidateName("firstName", *p.FirstName); err != nil {
			return err
		}
	}
	if p.LastName != nil {
		if err := errs.ValidateName("lastName", *p.LastName); err != nil {
			return err
		}
	}
	if p.Gender != nil && !p.Gender.Valid() {
		return errs.New(errs.ErrCodeInvalidInput, "gender must be male or female")
	}
	if p.BirthDate != nil {
		if err := errs.ValidateDate("birthDate", *p.BirthDate); err != nil {
			return err
		}
	}
	if p.DeathDate != nil {
		if err := errs.ValidateDate("deathDate", *p.DeathDate); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the set fields of p onto person.
func (p PersonPatch) Apply(person *Person) {
	if p.FirstName != nil {
		person.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		person.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Gender != nil {
		person.Gender = *p.Gender
	}
	if p.BirthDate != nil {
		person.BirthDate = *p.BirthDate
	}
	if p.DeathDate != nil {
		person.DeathDate = *p.DeathDate
	}
	if p.PhotoURL != nil {
		person.PhotoURL = *p.PhotoURL
	}
	if p.Biography != nil {
		person.Biography = *p.Biography
	}
}
