package wizard

import (
	"fmt"
	"strings"

	"talent-diagnosis/internal/models"
)

// FieldError is a step-local validation failure. It blocks the forward
// transition and is always recoverable in place.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// mobilePrefixes are the accepted Japanese mobile number prefixes.
var mobilePrefixes = []string{"070", "080", "090"}

// ValidateEmail checks the minimal shape the form requires: an @ with a
// dot somewhere after it.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 {
		return &FieldError{Field: "email", Message: "メールアドレスの形式が正しくありません"}
	}
	if !strings.Contains(email[at:], ".") {
		return &FieldError{Field: "email", Message: "メールアドレスの形式が正しくありません"}
	}
	return nil
}

// ValidatePhone accepts 11-digit Japanese mobile numbers starting with
// 070, 080 or 090. Hyphens and spaces are ignored.
func ValidatePhone(phone string) error {
	digits := strings.NewReplacer("-", "", " ", "", "　", "").Replace(phone)
	if len(digits) != 11 {
		return &FieldError{Field: "phone", Message: "電話番号の形式が正しくありません"}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return &FieldError{Field: "phone", Message: "電話番号の形式が正しくありません"}
		}
	}
	for _, prefix := range mobilePrefixes {
		if strings.HasPrefix(digits, prefix) {
			return nil
		}
	}
	return &FieldError{Field: "phone", Message: "携帯電話番号(070/080/090)を入力してください"}
}

func validateTerms(in *models.FormInput) error {
	if !in.TermsAccepted {
		return &FieldError{Field: "termsAccepted", Message: "利用規約への同意が必要です"}
	}
	return nil
}

func validateIndustry(in *models.FormInput) error {
	if in.Industry == "" {
		return &FieldError{Field: "industry", Message: "業種を選択してください"}
	}
	if !models.ValidIndustry(in.Industry) {
		return &FieldError{Field: "industry", Message: "業種の選択肢にありません"}
	}
	return nil
}

func validateAudience(in *models.FormInput) error {
	if in.TargetSegment == "" {
		return &FieldError{Field: "targetSegment", Message: "ターゲット層を選択してください"}
	}
	if !models.ValidTargetSegment(in.TargetSegment) {
		return &FieldError{Field: "targetSegment", Message: "ターゲット層の選択肢にありません"}
	}
	return nil
}

func validatePurpose(in *models.FormInput) error {
	// "その他" arrives with free text appended, so membership is only
	// required for the fixed prefix.
	if strings.TrimSpace(in.Purpose) == "" {
		return &FieldError{Field: "purpose", Message: "起用目的を入力してください"}
	}
	return nil
}

func validateBudget(in *models.FormInput) error {
	if in.Budget == "" {
		return &FieldError{Field: "budget", Message: "予算を選択してください"}
	}
	if !models.ValidBudget(in.Budget) {
		return &FieldError{Field: "budget", Message: "予算の選択肢にありません"}
	}
	return nil
}

func validateCompanyInfo(in *models.FormInput) error {
	if strings.TrimSpace(in.CompanyName) == "" {
		return &FieldError{Field: "companyName", Message: "会社名を入力してください"}
	}
	if strings.TrimSpace(in.ContactName) == "" {
		return &FieldError{Field: "contactName", Message: "担当者名を入力してください"}
	}
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := ValidatePhone(in.Phone); err != nil {
		return err
	}
	if in.HasGenrePreference == models.GenrePreferenceYes && len(in.Genres) == 0 {
		return &FieldError{Field: "genres", Message: "ジャンルを1つ以上選択してください"}
	}
	return nil
}

func validatePrivacy(in *models.FormInput) error {
	if !in.PrivacyAccepted {
		return &FieldError{Field: "privacyAccepted", Message: "プライバシーポリシーへの同意が必要です"}
	}
	return nil
}
