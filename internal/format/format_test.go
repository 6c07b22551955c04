package format

import (
	"testing"
	"time"

	"heartbridge/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRelativeTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"seconds", 30 * time.Second, "剛剛"},
		{"future", -time.Hour, "剛剛"},
		{"minutes", 5 * time.Minute, "5 分鐘前"},
		{"just under an hour", 59*time.Minute + 59*time.Second, "59 分鐘前"},
		{"hours", 3 * time.Hour, "3 小時前"},
		{"days", 6 * 24 * time.Hour, "6 天前"},
		{"absolute", 10 * 24 * time.Hour, "2024-06-05"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), now))
		})
	}
}

func TestDateHelpers(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC) // Saturday
	assert.Equal(t, "2024-06-15", Date(now))
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), Today(now))
	assert.Equal(t, time.Date(2024, 6, 9, 12, 30, 0, 0, time.UTC), WeekStart(now))
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), MonthStart(now))

	assert.Equal(t, 14, CalculateAge(2010, 6, 15, now))
	assert.Equal(t, 13, CalculateAge(2010, 6, 16, now))
	assert.Equal(t, 13, CalculateAge(2010, 7, 1, now))
}

func TestLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "家長", RoleName(models.RoleParent))
	assert.Equal(t, "青少年", RoleName(models.RoleTeen))
	assert.Equal(t, "50 歲以上", AgeRange("50+"))
	assert.Equal(t, "13-15 歲", AgeRange("13-15"))
	assert.Equal(t, "unknown", AgeRange("unknown"))
	assert.Equal(t, "高", SeverityLevel(models.SeverityHigh))
	assert.Equal(t, "critical", SeverityLevel("critical"))
}

func TestAvatar(t *testing.T) {
	t.Parallel()

	// 'A' is 65, 65 % 8 == 1
	assert.Equal(t, "#5B7A92", AvatarColor("Alice"))
	assert.Equal(t, AvatarColor("Alice"), AvatarColor("Amy"))
	// '小' is U+5C0F, 0x5C0F % 8 == 7
	assert.Equal(t, "#009688", AvatarColor("小明"))
	assert.Equal(t, "#8B7D9E", AvatarColor(""))

	assert.Equal(t, "JD", Initials("john doe"))
	assert.Equal(t, "AB", Initials("ann bee cat"))
	assert.Equal(t, "小", Initials("小明"))
	assert.Equal(t, "", Initials(""))
}

func TestStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", Truncate("hello", 10, "..."))
	assert.Equal(t, "親子溝...", Truncate("親子溝通術", 3, "..."))
	assert.Equal(t, "Hello", CapitalizeFirst("hello"))
	assert.Equal(t, "", CapitalizeFirst(""))
	assert.Equal(t, "create_at", CamelToSnake("createAt"))
	assert.Equal(t, "createAt", SnakeToCamel("create_at"))
}

func TestNumbers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1,234,567", Number(1234567))
	assert.Equal(t, "999", Number(999))
	assert.Equal(t, "1.5K", CompactNumber(1500))
	assert.Equal(t, "2.0M", CompactNumber(2_000_000))
	assert.Equal(t, "999", CompactNumber(999))

	assert.Equal(t, "0 Bytes", Bytes(0, 2))
	assert.Equal(t, "1 KB", Bytes(1024, 2))
	assert.Equal(t, "1.5 KB", Bytes(1536, 2))
	assert.Equal(t, "2 MB", Bytes(2*1024*1024, 2))
}

func TestHTMLHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bold text", StripHTML("<b>bold</b> text"))
	assert.Equal(t, "&lt;a href=&quot;x&quot;&gt;Tom&#039;s &amp; co&lt;/a&gt;", EscapeHTML(`<a href="x">Tom's & co</a>`))
	assert.Equal(t, "<mark>Go</mark> and <mark>go</mark>", HighlightKeyword("Go and go", "go"))
	assert.Equal(t, "a+b", HighlightKeyword("a+b", ""))
	assert.Equal(t, "1 <mark>+</mark> 1", HighlightKeyword("1 + 1", "+"))
	assert.Equal(t, "你是 *** 嗎", CensorSensitiveWords("你是 笨蛋 嗎", []string{"笨蛋"}, "***"))
	assert.Equal(t, "a<br />b", NewlinesToBr("a\nb"))
}

func TestExtractors(t *testing.T) {
	t.Parallel()

	text := "看看 https://example.com/a 和 http://x.y @mom @dad_1 #family #週末"
	assert.Equal(t, []string{"https://example.com/a", "http://x.y"}, ExtractURLs(text))
	assert.Equal(t, []string{"mom", "dad_1"}, ExtractMentions(text))
	assert.Equal(t, []string{"family"}, ExtractHashtags(text))
	assert.Equal(t, []string{}, ExtractURLs("nothing"))
	assert.Equal(t, []string{}, ExtractMentions("nothing"))
}
