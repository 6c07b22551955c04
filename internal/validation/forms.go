package validation

import (
	"fmt"
	"strings"

	"heartbridge/internal/models"
)

// Form messages shown inline next to the offending field.
var (
	MsgTitleLength       = fmt.Sprintf("標題長度必須在 %d-%d 個字符之間", models.ArticleTitleMin, models.ArticleTitleMax)
	MsgContentLength     = fmt.Sprintf("內容長度必須在 %d-%d 個字符之間", models.ArticleContentMin, models.ArticleContentMax)
	MsgCommentLength     = fmt.Sprintf("留言長度必須在 %d-%d 個字符之間", models.CommentContentMin, models.CommentContentMax)
	MsgRequiredFields    = "請填入所有必填欄位"
	MsgDisplayNameLength = fmt.Sprintf("顯示名稱長度必須在 1-%d 個字符之間", models.DisplayNameMaxLength)
	MsgAgeRange          = "請選擇有效的年齡範圍"
	MsgBirthDate         = "出生日期無效"
	MsgInterests         = fmt.Sprintf("興趣最多 %d 項，每項 1-%d 個字符", models.MaxInterests, models.MaxInterestLength)
	MsgPhone             = "電話號碼格式不正確"
	MsgEmail             = "電子郵件格式不正確"
	MsgPassword          = "密碼至少 8 個字符，且須包含大小寫字母與數字"
	MsgCredentials       = "請填入電子郵件和密碼"
	MsgRole              = "請選擇身份"
)

// ValidateArticleInput trims the title and content, cleans the tags and
// checks the length limits.
func ValidateArticleInput(in models.ArticleInput) (models.ArticleInput, error) {
	out := models.ArticleInput{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
		Tags:    CleanTags(in.Tags),
	}
	if !IsValidArticleTitle(out.Title) {
		return out, models.NewValidationError(MsgTitleLength)
	}
	if !IsValidArticleContent(out.Content) {
		return out, models.NewValidationError(MsgContentLength)
	}
	return out, nil
}

// ValidateArticlePatch applies the article rules to the fields a patch sets.
func ValidateArticlePatch(p models.ArticlePatch) (models.ArticlePatch, error) {
	var out models.ArticlePatch
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if !IsValidArticleTitle(title) {
			return out, models.NewValidationError(MsgTitleLength)
		}
		out.Title = &title
	}
	if p.Content != nil {
		content := strings.TrimSpace(*p.Content)
		if !IsValidArticleContent(content) {
			return out, models.NewValidationError(MsgContentLength)
		}
		out.Content = &content
	}
	if p.Tags != nil {
		tags := CleanTags(*p.Tags)
		out.Tags = &tags
	}
	return out, nil
}

// ValidateCommentInput trims and checks comment content.
func ValidateCommentInput(content string) (string, error) {
	content = strings.TrimSpace(content)
	if !IsValidCommentContent(content) {
		return content, models.NewValidationError(MsgCommentLength)
	}
	return content, nil
}

// ValidateProfileInput checks the registration profile form and returns it
// with trimmed text fields and interests.
func ValidateProfileInput(in models.ProfileInput) (models.ProfileInput, error) {
	out := in
	out.DisplayName = strings.TrimSpace(in.DisplayName)
	out.Phone = strings.TrimSpace(in.Phone)
	out.Interests = make([]string, 0, len(in.Interests))
	for _, interest := range in.Interests {
		if interest = strings.TrimSpace(interest); interest != "" {
			out.Interests = append(out.Interests, interest)
		}
	}

	if out.DisplayName == "" || out.AgeRange == "" || in.BirthYear == 0 || in.BirthMonth == 0 || in.BirthDay == 0 {
		return out, models.NewValidationError(MsgRequiredFields)
	}
	if !IsValidDisplayName(out.DisplayName) {
		return out, models.NewValidationError(MsgDisplayNameLength)
	}
	if !IsValidAgeRange(out.AgeRange) {
		return out, models.NewValidationError(MsgAgeRange)
	}
	if !IsValidDate(in.BirthYear, in.BirthMonth, in.BirthDay) || !in.BirthDate().Valid() {
		return out, models.NewValidationError(MsgBirthDate)
	}
	if !IsValidInterests(out.Interests) {
		return out, models.NewValidationError(MsgInterests)
	}
	if out.Phone != "" && !IsValidPhoneNumber(out.Phone) {
		return out, models.NewValidationError(MsgPhone)
	}
	return out, nil
}

// ValidateCredentials checks a sign-in form before it reaches the auth
// service.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.NewValidationError(MsgCredentials)
	}
	if !IsValidEmail(email) {
		return models.NewValidationError(MsgEmail)
	}
	return nil
}

// ValidateRegistration checks a new account's email and password.
func ValidateRegistration(email, password string) error {
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	if !IsValidPassword(password) {
		return models.NewValidationError(MsgPassword)
	}
	return nil
}
