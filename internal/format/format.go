// Package format turns stored values into display strings.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"heartbridge/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.MustParse("zh-TW"))

// RoleName localizes a member role.
func RoleName(role models.Role) string {
	if role == models.RoleParent {
		return "家長"
	}
	return "青少年"
}

var ageRangeLabels = map[string]string{
	"13-15": "13-15 歲",
	"16-18": "16-18 歲",
	"19-25": "19-25 歲",
	"26-35": "26-35 歲",
	"36-50": "36-50 歲",
	"50+":   "50 歲以上",
}

// AgeRange returns the label for an age bucket, or the bucket itself when
// it is unknown.
func AgeRange(ageRange string) string {
	if label, ok := ageRangeLabels[ageRange]; ok {
		return label
	}
	return ageRange
}

// SeverityLevel localizes a moderation severity.
func SeverityLevel(s models.Severity) string {
	switch s {
	case models.SeverityLow:
		return "低"
	case models.SeverityMedium:
		return "中"
	case models.SeverityHigh:
		return "高"
	}
	return string(s)
}

// avatarPalette is indexed by the first UTF-16 code unit of a name.
var avatarPalette = []string{
	"#8B7D9E",
	"#5B7A92",
	"#A88968",
	"#4CAF50",
	"#2196F3",
	"#FF9800",
	"#E91E63",
	"#009688",
}

// AvatarColor picks a background colour deterministically from name.
func AvatarColor(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return avatarPalette[0]
	}
	unit := r
	if r > 0xFFFF {
		hi, _ := utf16.EncodeRune(r)
		unit = hi
	}
	return avatarPalette[int(unit)%len(avatarPalette)]
}

// Initials returns the upper-cased first letters of the first two
// space-separated parts of name.
func Initials(name string) string {
	var out []rune
	for _, part := range strings.Split(name, " ") {
		r, size := utf8.DecodeRuneInString(part)
		if size == 0 {
			continue
		}
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// Truncate cuts text to length characters and appends suffix when it was
// longer.
func Truncate(text string, length int, suffix string) string {
	runes := []rune(text)
	if len(runes) <= length {
		return text
	}
	return string(runes[:length]) + suffix
}

// CapitalizeFirst upper-cases the first character.
func CapitalizeFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

var (
	upperLetter = regexp.MustCompile(`[A-Z]`)
	snakeLetter = regexp.MustCompile(`_[a-z]`)
)

// CamelToSnake converts createAt to create_at.
func CamelToSnake(s string) string {
	return upperLetter.ReplaceAllStringFunc(s, func(m string) string {
		return "_" + strings.ToLower(m)
	})
}

// SnakeToCamel converts create_at to createAt.
func SnakeToCamel(s string) string {
	return snakeLetter.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[1:])
	})
}

// Number formats n with thousands separators.
func Number(n float64) string {
	return printer.Sprint(number.Decimal(n, number.MaxFractionDigits(3)))
}

// CompactNumber abbreviates large counts: 1.2K, 3.4M.
func CompactNumber(n float64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", n/1_000)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

var byteUnits = []string{"Bytes", "KB", "MB", "GB"}

// Bytes renders a byte count in binary units, rounded to decimals places.
func Bytes(bytes int64, decimals int) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	if decimals < 0 {
		decimals = 0
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	scale := math.Pow(10, float64(decimals))
	v := math.Round(float64(bytes)/math.Pow(1024, float64(i))*scale) / scale
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}
