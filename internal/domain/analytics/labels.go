package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

var monthsPT = [...]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}

var monthsEN = [...]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"}

var labelMatcher = language.NewMatcher([]language.Tag{language.BrazilianPortuguese, language.English})

// MonthLabel formats "janeiro de 2025" (pt-BR, the default) or
// "January 2025" for English locales.
func MonthLabel(t time.Time, locale string) string {
	month := int(t.Month()) - 1
	if isEnglish(locale) {
		return fmt.Sprintf("%s %d", monthsEN[month], t.Year())
	}
	return fmt.Sprintf("%s de %d", monthsPT[month], t.Year())
}

func isEnglish(locale string) bool {
	if locale == "" {
		return false
	}
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return false
	}
	_, index, confidence := labelMatcher.Match(tags...)
	return confidence != language.No && index == 1
}

func mean(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	v, _ := decimal.NewFromFloat(sum).Div(decimal.NewFromInt(int64(count))).Round(2).Float64()
	return v
}

func round2(v float64) float64 {
	out, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return out
}

func labelOr(name string) string {
	if name == "" {
		return Unassigned
	}
	return name
}
