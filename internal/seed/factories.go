package seed

import (
	"fmt"
	"time"

	"heartbridge/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	parentNames = []string{"小美媽媽", "阿德爸爸", "安安媽咪", "老陳", "Grace 媽", "志明爸", "小芸媽媽", "大熊爸爸"}
	teenNames   = []string{"小明", "阿哲", "芊芊", "Kevin", "小宇", "語晴", "阿凱", "米米"}

	topics = []string{"睡前手機", "補習班", "零用錢", "交朋友", "升學壓力", "打電動", "門禁時間", "家事分工", "社群網站", "穿著打扮"}

	parentTitles = []string{
		"孩子的%s，大家怎麼處理？",
		"關於%s，想聽聽青少年的想法",
		"%s讓我們家每天吵架",
		"我是不是對%s太嚴格了",
	}
	teenTitles = []string{
		"爸媽一直管%s好煩",
		"想跟家人好好談%s",
		"%s真的有那麼嚴重嗎",
		"大家家裡的%s規則是什麼",
	}

	parentOpenings = []string{
		"最近為了%s跟孩子起了好幾次衝突，",
		"我知道孩子長大了，可是關於%s還是很擔心，",
		"每次提到%s，家裡的氣氛就變得很僵，",
	}
	teenOpenings = []string{
		"我覺得我已經夠大了，可以自己決定%s，",
		"每次跟爸媽談%s都會變成吵架，",
		"其實我也想好好處理%s，",
	}
	closings = []string{
		"想知道其他家庭都是怎麼溝通的，謝謝大家分享。",
		"有沒有人有類似的經驗可以給點建議？",
		"希望能找到一個大家都能接受的方法。",
		"不知道該怎麼開口，想先聽聽大家的看法。",
	}
	middles = []string{
		"我們試過訂規則，但總是維持不久。",
		"說了很多次，對方好像都沒有真的聽進去。",
		"我不想一直用命令的方式，可是好像也沒有別的辦法。",
		"有時候只是想被理解，而不是被說教。",
	}

	parentReplies = []string{
		"我們家也有一樣的狀況，後來改成一起討論規則，有好一點。",
		"可以試著先聽孩子說完再表達自己的擔心。",
		"謝謝分享，讓我想到要多給孩子一點空間。",
		"一起訂個時間表，大家都遵守，包括大人。",
	}
	teenReplies = []string{
		"站在青少年的角度，我們其實只是希望被信任。",
		"如果爸媽願意先問我的想法，我會比較願意配合。",
		"我跟家人約好彼此退一步，現在好多了。",
		"有時候被禁止反而更想做，好好講比較有用。",
	}
)

// ageBounds maps an age range to the youngest and oldest age it covers.
var ageBounds = map[string][2]int{
	"13-15": {13, 15},
	"16-18": {16, 18},
	"19-25": {19, 25},
	"26-35": {26, 35},
	"36-50": {36, 50},
	"50+":   {51, 65},
}

// Factory builds members, articles and comments with plausible content. It
// does not persist anything; Seeder does.
type Factory struct {
	faker   *gofakeit.Faker
	now     time.Time
	maxDays int
}

// NewFactory creates a Factory. The same randSeed yields the same content.
func NewFactory(randSeed int64, maxDays int, now time.Time) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{faker: gofakeit.New(randSeed), now: now, maxDays: maxDays}
}

func (f *Factory) pick(list []string) string {
	return f.faker.RandomString(list)
}

// Email returns the sign-in address of the n-th seeded member with role.
func Email(role models.Role, n int) string {
	return fmt.Sprintf("%s%02d@example.com", role, n)
}

// BuildUser returns a completed profile for a member with the given role.
func (f *Factory) BuildUser(uid, email string, role models.Role, overrides ...func(*models.User)) *models.User {
	names, ranges := parentNames, []string{"26-35", "36-50", "50+"}
	if role == models.RoleTeen {
		names, ranges = teenNames, []string{"13-15", "16-18"}
	}
	ageRange := f.pick(ranges)
	bounds := ageBounds[ageRange]
	age := f.faker.Number(bounds[0], bounds[1])

	created := f.pastTime(f.now)
	user := &models.User{
		UID:         uid,
		Email:       email,
		DisplayName: fmt.Sprintf("%s%d", f.pick(names), f.faker.Number(1, 99)),
		Role:        role,
		BirthDate: models.BirthDate{
			Year:  f.now.Year() - age - 1,
			Month: f.faker.Number(1, 12),
			Day:   f.faker.Number(1, 28),
		},
		AgeRange:  ageRange,
		Interests: uniqueStrings(f.faker, topics, f.faker.Number(1, 3)),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildArticle returns an article by author, created some time after the
// author joined.
func (f *Factory) BuildArticle(author *models.User, overrides ...func(*models.Article)) *models.Article {
	topic := f.pick(topics)
	titles, openings := parentTitles, parentOpenings
	if author.Role == models.RoleTeen {
		titles, openings = teenTitles, teenOpenings
	}

	created := f.timeAfter(author.CreatedAt)
	article := &models.Article{
		AuthorID:   author.UID,
		AuthorRole: author.Role,
		Title:      fmt.Sprintf(f.pick(titles), topic),
		Content:    fmt.Sprintf(f.pick(openings), topic) + f.pick(middles) + f.pick(closings),
		Tags:       append([]string{topic}, uniqueStrings(f.faker, topics, f.faker.Number(0, 2))...),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	article.Tags = dedupe(article.Tags)
	for _, override := range overrides {
		override(article)
	}
	return article
}

// BuildComment returns a reply by author on article.
func (f *Factory) BuildComment(article *models.Article, author *models.User, overrides ...func(*models.Comment)) *models.Comment {
	replies := parentReplies
	if author.Role == models.RoleTeen {
		replies = teenReplies
	}
	created := f.timeAfter(article.CreatedAt)
	comment := &models.Comment{
		ArticleID:  article.ID,
		AuthorID:   author.UID,
		AuthorName: author.DisplayName,
		AuthorRole: author.Role,
		Content:    f.pick(replies),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, override := range overrides {
		override(comment)
	}
	return comment
}

// pastTime returns a moment within maxDays before t.
func (f *Factory) pastTime(t time.Time) time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return t.Add(-back)
}

// timeAfter returns a moment between t and now.
func (f *Factory) timeAfter(t time.Time) time.Time {
	span := int(f.now.Sub(t) / time.Minute)
	if span <= 0 {
		return f.now
	}
	return t.Add(time.Duration(f.faker.Number(0, span)) * time.Minute)
}

func uniqueStrings(faker *gofakeit.Faker, pool []string, n int) []string {
	shuffled := append([]string(nil), pool...)
	faker.ShuffleStrings(shuffled)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
