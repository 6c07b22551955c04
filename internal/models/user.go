package models

import (
	"time"

	"heartbridge/internal/docstore"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// BirthDate is a calendar date without a time zone.
type BirthDate struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// IsZero reports whether no birth date was recorded.
func (b BirthDate) IsZero() bool {
	return b.Year == 0 && b.Month == 0 && b.Day == 0
}

// Valid reports whether b names a real calendar day.
func (b BirthDate) Valid() bool {
	if b.Year < 1900 || b.Month < 1 || b.Month > 12 || b.Day < 1 {
		return false
	}
	t := time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
	return t.Year() == b.Year && int(t.Month()) == b.Month && t.Day() == b.Day
}

// User is a member profile stored under users/{uid}.
type User struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	Phone       string    `json:"phone,omitempty"`
	BirthDate   BirthDate `json:"birth_date"`
	AgeRange    string    `json:"age_range"`
	Interests   []string  `json:"interests"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Theme returns the theme matching the user's role.
func (u *User) Theme() Theme {
	if u == nil {
		return ThemeNeutral
	}
	return ThemeForRole(u.Role)
}

// UserFromDocument decodes and validates a stored profile.
func UserFromDocument(doc docstore.Document) (*User, error) {
	r := newFieldReader(CollectionUsers, doc)
	u := &User{
		UID:         doc.ID,
		Email:       r.str("email", true),
		DisplayName: r.str("displayName", true),
		Role:        Role(r.str("role", true)),
		Phone:       r.str("phone", false),
		AgeRange:    r.str("ageRange", false),
		Interests:   r.strings("interest"),
		CreatedAt:   r.time("createAt", false),
		UpdatedAt:   r.time("updateAt", false),
	}
	if uid := r.str("uid", false); uid != "" && uid != doc.ID {
		r.fail("uid", "does not match document id %q", doc.ID)
	}
	if m, ok := r.object("birthDate"); ok {
		b := r.nested("birthDate", m)
		u.BirthDate = BirthDate{
			Year:  int(b.integer("year")),
			Month: int(b.integer("month")),
			Day:   int(b.integer("day")),
		}
	}

	ageRanges := make([]any, len(AgeRanges))
	for i, a := range AgeRanges {
		ageRanges[i] = a
	}
	err := validation.ValidateStruct(u,
		validation.Field(&u.Email, validation.Required, is.EmailFormat),
		validation.Field(&u.DisplayName, validation.Required, validation.By(trimmedRuneLength(1, 50))),
		validation.Field(&u.Role, validation.Required, validation.In(RoleParent, RoleTeen)),
		validation.Field(&u.AgeRange, validation.In(ageRanges...)),
		validation.Field(&u.Interests, validation.Length(0, 10), validation.Each(validation.RuneLength(1, 30))),
		validation.Field(&u.BirthDate, validation.By(func(any) error {
			if u.BirthDate.IsZero() || u.BirthDate.Valid() {
				return nil
			}
			return validation.NewError("validation_birth_date", "must be a valid calendar date")
		})),
	)
	if err := r.finish(err); err != nil {
		return nil, err
	}
	return u, nil
}

// Fields encodes the profile for storage.
func (u *User) Fields() docstore.Fields {
	f := docstore.Fields{
		"uid":         u.UID,
		"email":       u.Email,
		"displayName": u.DisplayName,
		"role":        string(u.Role),
		"ageRange":    u.AgeRange,
		"interest":    append([]string{}, u.Interests...),
		"createAt":    u.CreatedAt,
		"updateAt":    u.UpdatedAt,
	}
	if u.Phone != "" {
		f["phone"] = u.Phone
	}
	if !u.BirthDate.IsZero() {
		f["birthDate"] = map[string]any{
			"year":  int64(u.BirthDate.Year),
			"month": int64(u.BirthDate.Month),
			"day":   int64(u.BirthDate.Day),
		}
	}
	return f
}
