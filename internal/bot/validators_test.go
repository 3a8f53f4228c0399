package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"print3d-bot/internal/session"
)

func TestValidateName(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"simple", "Иван Петров", true},
		{"latin", "John Smith", true},
		{"hyphenated", "Anne-Marie O'Brien", true},
		{"single rune", "И", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"digits", "Ivan123", false},
		{"too long", string(make([]rune, 51)), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidateName(tc.input))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("first.last+tag@sub.domain.org"))
	assert.True(t, ValidateEmail("  padded@example.com  "))

	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("missing@tld"))
	assert.False(t, ValidateEmail("@example.com"))
	assert.False(t, ValidateEmail("user@.com"))
	assert.False(t, ValidateEmail(""))
}

func TestValidatePhone(t *testing.T) {
	// optional field: empty passes
	assert.True(t, ValidatePhone(""))

	assert.True(t, ValidatePhone("+79001234567"))
	assert.True(t, ValidatePhone("+7 900 123-45-67"))
	assert.True(t, ValidatePhone("8 (900) 123-45-67"))
	assert.True(t, ValidatePhone("1234567"))

	assert.False(t, ValidatePhone("123456"))        // too short
	assert.False(t, ValidatePhone("+0123456789"))   // leading zero
	assert.False(t, ValidatePhone("abc"))           // no digits
	assert.False(t, ValidatePhone("+7900123456789012")) // too long
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+79001234567", NormalizePhone("+7 (900) 123-45-67"))
	assert.Equal(t, "89001234567", NormalizePhone("8 900 123 45 67"))
	assert.Equal(t, "+711", NormalizePhone(" +7-1-1 "))
}

func TestValidateAddress(t *testing.T) {
	assert.True(t, ValidateAddress("ул. Ленина, д. 1, кв. 2"))
	assert.False(t, ValidateAddress("короткий"))
	assert.False(t, ValidateAddress("         "))
}

func TestValidateOrderData(t *testing.T) {
	complete := func() *session.OrderSession {
		serviceID := int64(3)
		phone := "+79001234567"
		needed := true
		return &session.OrderSession{
			UserID:        42,
			ServiceID:     &serviceID,
			ServiceName:   "3D печать",
			CustomerName:  "Иван Петров",
			CustomerEmail: "ivan@example.com",
			CustomerPhone: &phone,
			Files: []session.FileInfo{
				{Filename: "model.stl", Size: 1024},
			},
			Specifications: map[string]string{
				session.SpecMaterial: "pla",
				session.SpecQuality:  "standard",
				session.SpecInfill:   "30",
			},
			DeliveryNeeded:  &needed,
			DeliveryDetails: "ул. Ленина, д. 1, кв. 2",
		}
	}

	t.Run("complete session passes", func(t *testing.T) {
		assert.Empty(t, validateOrderData(complete()))
	})

	t.Run("skipped phone passes", func(t *testing.T) {
		s := complete()
		skipped := ""
		s.CustomerPhone = &skipped
		assert.Empty(t, validateOrderData(s))
	})

	t.Run("missing infill reports the field", func(t *testing.T) {
		s := complete()
		delete(s.Specifications, session.SpecInfill)
		assert.Equal(t, "Не указан параметр: infill", validateOrderData(s))
	})

	t.Run("cleared specs after back navigation", func(t *testing.T) {
		s := complete()
		s.ClearSpecs(session.SpecQuality, session.SpecInfill)
		assert.Equal(t, "Не указан параметр: quality", validateOrderData(s))
	})

	t.Run("empty specs map", func(t *testing.T) {
		s := complete()
		s.Specifications = map[string]string{}
		assert.Equal(t, "Не указаны параметры печати", validateOrderData(s))
	})

	t.Run("no files", func(t *testing.T) {
		s := complete()
		s.Files = nil
		assert.Equal(t, "Необходимо загрузить хотя бы один файл", validateOrderData(s))
	})

	t.Run("no service", func(t *testing.T) {
		s := complete()
		s.ServiceID = nil
		assert.Equal(t, "Не выбрана услуга", validateOrderData(s))
	})

	t.Run("bad email", func(t *testing.T) {
		s := complete()
		s.CustomerEmail = "not-an-email"
		assert.Equal(t, "Некорректный email адрес", validateOrderData(s))
	})

	t.Run("shipping without address", func(t *testing.T) {
		s := complete()
		s.DeliveryDetails = ""
		assert.Equal(t, "Не указан адрес доставки", validateOrderData(s))
	})

	t.Run("no delivery choice", func(t *testing.T) {
		s := complete()
		s.DeliveryNeeded = nil
		assert.Equal(t, "Не выбран способ получения заказа", validateOrderData(s))
	})
}
