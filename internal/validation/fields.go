package validation

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"heartbridge/internal/models"
)

var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	// Taiwan mobile (09xxxxxxxx) or landline with area code
	phoneRegex     = regexp.MustCompile(`^(?:09\d{8}|0[2-8]\d{7,8})$`)
	phoneSeparator = regexp.MustCompile(`[-\s]`)
	chineseRegex   = regexp.MustCompile(`[\x{4E00}-\x{9FA5}]`)
)

// IsValidEmail checks basic email shape: something@something.something.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidUsername accepts 3-20 letters, digits or underscores.
func IsValidUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// IsValidDisplayName accepts 1-50 characters after trimming.
func IsValidDisplayName(name string) bool {
	return IsValidLength(name, 1, models.DisplayNameMaxLength)
}

// IsValidPhoneNumber accepts Taiwan numbers, ignoring dashes and spaces.
func IsValidPhoneNumber(phone string) bool {
	return phoneRegex.MatchString(phoneSeparator.ReplaceAllString(phone, ""))
}

// IsValidURL reports whether raw parses as an absolute URL.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

// ContainsChinese reports whether text contains a CJK unified ideograph.
func ContainsChinese(text string) bool {
	return chineseRegex.MatchString(text)
}

// IsValidLength reports whether the trimmed text has between min and max
// characters, inclusive.
func IsValidLength(text string, min, max int) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	return n >= min && n <= max
}

// IsValidInteger reports whether value is a whole number.
func IsValidInteger(value string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsInf(f, 0) {
		return false
	}
	return f == math.Trunc(f)
}

// IsValidAgeRange reports whether ageRange is one of the offered buckets.
func IsValidAgeRange(ageRange string) bool {
	for _, r := range models.AgeRanges {
		if r == ageRange {
			return true
		}
	}
	return false
}

// IsValidRole reports whether role is parent or teen.
func IsValidRole(role string) bool {
	return models.Role(role).Valid()
}

// IsValidInterests accepts at most 10 interests of 1-30 characters each.
func IsValidInterests(interests []string) bool {
	if len(interests) > models.MaxInterests {
		return false
	}
	for _, interest := range interests {
		if !IsValidLength(interest, 1, models.MaxInterestLength) {
			return false
		}
	}
	return true
}

// CleanTags lower-cases and trims tags, drops empty or over-long ones,
// removes duplicates keeping the first occurrence, and keeps at most 10.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		n := utf8.RuneCountInString(tag)
		if n == 0 || n > models.MaxTagLength {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > models.MaxTags {
		out = out[:models.MaxTags]
	}
	return out
}

// IsValidArticleTitle checks the 5-200 character title limit.
func IsValidArticleTitle(title string) bool {
	return IsValidLength(title, models.ArticleTitleMin, models.ArticleTitleMax)
}

// IsValidArticleContent checks the 20-10000 character content limit.
func IsValidArticleContent(content string) bool {
	return IsValidLength(content, models.ArticleContentMin, models.ArticleContentMax)
}

// IsValidCommentContent checks the 1-2000 character comment limit.
func IsValidCommentContent(content string) bool {
	return IsValidLength(content, models.CommentContentMin, models.CommentContentMax)
}

// IsValidDate reports whether year/month/day is a real calendar day.
func IsValidDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	// day 0 of the next month is the last day of this one
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return day <= last
}
