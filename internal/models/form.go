package models

// FormInput is the record accumulated across the diagnosis wizard steps.
// It is append-only within a session: steps add fields, nothing rolls a
// field back short of a full reset.
type FormInput struct {
	TermsAccepted      bool     `json:"termsAccepted"`
	Industry           string   `json:"industry"`
	TargetSegment      string   `json:"targetSegment"`
	Purpose            string   `json:"purpose"`
	Budget             string   `json:"budget"`
	CompanyName        string   `json:"companyName"`
	ContactName        string   `json:"contactName"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	HasGenrePreference string   `json:"hasGenrePreference,omitempty"`
	Genres             []string `json:"genres,omitempty"`
	PrivacyAccepted    bool     `json:"privacyAccepted"`
}

// Genre preference values for HasGenrePreference.
const (
	GenrePreferenceYes = "yes"
	GenrePreferenceNo  = "no"
)

// PurposeOther is the hiring-purpose catalog entry that allows appended
// free text.
const PurposeOther = "その他"

// Industries is the fixed industry catalog presented on the industry step.
var Industries = []string{
	"食品",
	"飲料",
	"美容・化粧品",
	"ファッション",
	"金融・保険",
	"不動産・住宅",
	"IT・通信",
	"自動車",
	"医療・ヘルスケア",
	"教育",
	"エンタメ",
	"小売・流通",
	"旅行・レジャー",
	PurposeOther,
}

// TargetSegments is the fixed target-audience catalog.
var TargetSegments = []string{
	"男性13-19歳",
	"男性20-34歳",
	"男性35-49歳",
	"男性50歳以上",
	"女性13-19歳",
	"女性20-34歳",
	"女性35-49歳",
	"女性50歳以上",
	"全年代男女",
}

// Purposes is the fixed hiring-purpose catalog. PurposeOther accepts
// appended free text.
var Purposes = []string{
	"商品サービスの知名度アップ",
	"認知度向上",
	"ブランドイメージ向上",
	"新商品・新サービスのPR",
	"企業イメージ向上",
	PurposeOther,
}

// Budgets is the fixed budget-bracket catalog.
var Budgets = []string{
	"500万円以下",
	"500万円〜1,000万円",
	"1,000万円〜3,000万円",
	"3,000万円〜5,000万円",
	"5,000万円以上",
	"未定",
}

// Genres is the fixed genre-tag catalog for the optional preference.
var Genres = []string{
	"俳優",
	"女優",
	"タレント",
	"モデル",
	"アーティスト",
	"お笑い芸人",
	"アスリート",
	"文化人",
}

func contains(catalog []string, v string) bool {
	for _, c := range catalog {
		if c == v {
			return true
		}
	}
	return false
}

// ValidIndustry reports whether v is a catalog industry.
func ValidIndustry(v string) bool { return contains(Industries, v) }

// ValidTargetSegment reports whether v is a catalog audience segment.
func ValidTargetSegment(v string) bool { return contains(TargetSegments, v) }

// ValidBudget reports whether v is a catalog budget bracket.
func ValidBudget(v string) bool { return contains(Budgets, v) }

// ValidGenre reports whether v is a catalog genre tag.
func ValidGenre(v string) bool { return contains(Genres, v) }
