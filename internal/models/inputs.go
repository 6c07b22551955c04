package models

// ArticleInput is the article form submitted by an author.
type ArticleInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// ProfileInput is the registration profile form.
type ProfileInput struct {
	DisplayName string   `json:"display_name"`
	Phone       string   `json:"phone,omitempty"`
	AgeRange    string   `json:"age_range"`
	BirthYear   int      `json:"birth_year"`
	BirthMonth  int      `json:"birth_month"`
	BirthDay    int      `json:"birth_day"`
	Interests   []string `json:"interests"`
}

// BirthDate returns the entered birth date.
func (p ProfileInput) BirthDate() BirthDate {
	return BirthDate{Year: p.BirthYear, Month: p.BirthMonth, Day: p.BirthDay}
}
