package domain

// Choice is a value/label pair of a fixed profile category.
type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

const (
	ChoiceLanguage = "language"
	ChoiceCountry  = "country"
	ChoiceCurrency = "currency"
	ChoiceTimezone = "timezone"
)

const (
	DefaultLanguage = "EN"
	DefaultTimezone = "UTC+0"
	DefaultCurrency = "USD"
)

var (
	LanguageChoices = []Choice{
		{Value: "EN", Label: "English"},
		{Value: "ES", Label: "Spanish"},
		{Value: "PT", Label: "Portuguese"},
	}
	TimezoneChoices = []Choice{
		{Value: "UTC-11", Label: "(GMT-11:00) International Date Line West"},
		{Value: "UTC+0", Label: "(GMT+0:00) Coordinated Universal Time"},
		{Value: "UTC+3", Label: "(GMT+3:00) Moscow, St. Petersburg"},
	}
	CurrencyChoices = []Choice{
		{Value: "USD", Label: "US Dollar"},
		{Value: "EUR", Label: "Euro"},
		{Value: "BRL", Label: "Brazilian Real"},
	}
	CountryChoices = []Choice{
		{Value: "BR", Label: "Brazil"},
		{Value: "US", Label: "United States"},
		{Value: "ES", Label: "Spain"},
		{Value: "PT", Label: "Portugal"},
	}
)

// ChoicesFor returns the pairs of the requested category.
// Unknown categories fall back to languages.
func ChoicesFor(kind string) []Choice {
	switch kind {
	case ChoiceCountry:
		return CountryChoices
	case ChoiceCurrency:
		return CurrencyChoices
	case ChoiceTimezone:
		return TimezoneChoices
	default:
		return LanguageChoices
	}
}

// ValidChoice reports whether value belongs to choices.
func ValidChoice(choices []Choice, value string) bool {
	for _, c := range choices {
		if c.Value == value {
			return true
		}
	}
	return false
}
