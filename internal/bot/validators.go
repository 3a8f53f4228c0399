package bot

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"print3d-bot/internal/session"
)

var (
	emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)
)

// ValidateName accepts 2-50 characters of letters (any alphabet),
// spaces, hyphens and apostrophes.
func ValidateName(name string) bool {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) < 2 || len(runes) > 50 {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

// ValidateEmail checks the standard local@domain.tld shape.
func ValidateEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

// ValidatePhone accepts an empty string (phone is optional) or 7-15
// digits with an optional leading plus; separators are stripped first.
func ValidatePhone(phone string) bool {
	if phone == "" {
		return true
	}
	return phoneRe.MatchString(NormalizePhone(phone))
}

// NormalizePhone strips everything except digits and a leading plus.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if unicode.IsDigit(r) || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateAddress is a minimal heuristic: at least 10 characters.
func ValidateAddress(address string) bool {
	return len([]rune(strings.TrimSpace(address))) >= 10
}

// validateOrderData re-validates the whole session right before
// submission. Per-step checks are not enough because backward
// navigation can leave revisited steps inconsistent. Returns an empty
// string when the session is submittable, otherwise a field-specific
// message.
func validateOrderData(s *session.OrderSession) string {
	if len([]rune(strings.TrimSpace(s.CustomerName))) < 2 {
		return "Имя клиента должно содержать минимум 2 символа"
	}

	if !ValidateEmail(s.CustomerEmail) {
		return "Некорректный email адрес"
	}

	if s.ServiceID == nil {
		return "Не выбрана услуга"
	}

	if len(s.Files) == 0 {
		return "Необходимо загрузить хотя бы один файл"
	}

	if s.CustomerPhone != nil && *s.CustomerPhone != "" && !ValidatePhone(*s.CustomerPhone) {
		return "Некорректный номер телефона"
	}

	if len(s.Specifications) == 0 {
		return "Не указаны параметры печати"
	}
	for _, spec := range []string{session.SpecMaterial, session.SpecQuality, session.SpecInfill} {
		if s.Specifications[spec] == "" {
			return fmt.Sprintf("Не указан параметр: %s", spec)
		}
	}

	if s.DeliveryNeeded == nil {
		return "Не выбран способ получения заказа"
	}
	if *s.DeliveryNeeded && s.DeliveryDetails == "" {
		return "Не указан адрес доставки"
	}

	return ""
}
