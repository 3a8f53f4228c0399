package session

import (
	"fmt"
	"strings"
	"time"

	"print3d-bot/pkg/api"
)

// OrderStep is the current stage of the order workflow.
type OrderStep string

const (
	StepStart            OrderStep = "start"
	StepServiceSelection OrderStep = "service_selection"
	StepContactInfo      OrderStep = "contact_info"
	StepFileUpload       OrderStep = "file_upload"
	StepSpecifications   OrderStep = "specifications"
	StepDelivery         OrderStep = "delivery"
	StepConfirmation     OrderStep = "confirmation"
	StepCompleted        OrderStep = "completed"
)

// Specification keys that must all be chosen before leaving the
// specifications step.
const (
	SpecMaterial = "material"
	SpecQuality  = "quality"
	SpecInfill   = "infill"
)

// OrderSource tags every submitted order with the originating channel.
// The backend depends on the exact values.
const (
	OrderSource    = "TELEGRAM"
	OrderSourceBot = "telegram_bot"
)

// ContactStage tells the controller which contact field to ask for next.
type ContactStage int

const (
	AwaitingName ContactStage = iota
	AwaitingEmail
	AwaitingPhone
	ContactsDone
)

// SpecStage tells the controller which print parameter to ask for next.
type SpecStage int

const (
	AwaitingMaterial SpecStage = iota
	AwaitingQuality
	AwaitingInfill
	SpecsDone
)

// FileInfo describes one uploaded model file. Insertion order is the
// display and removal order.
type FileInfo struct {
	Filename       string `json:"filename"`
	Size           int64  `json:"size"`
	TelegramFileID string `json:"telegram_file_id"`
	StoredID       string `json:"stored_id,omitempty"`
}

// OrderSession holds everything collected from one user during order
// intake. It is owned by the Store for its whole lifetime; the workflow
// controller mutates it one inbound action at a time.
type OrderSession struct {
	UserID      int64
	Step        OrderStep
	ServiceID   *int64
	ServiceName string

	CustomerName  string
	CustomerEmail string
	// nil means the phone was never asked for, empty string means the
	// user explicitly skipped it.
	CustomerPhone *string

	Files          []FileInfo
	Specifications map[string]string

	DeliveryNeeded  *bool
	DeliveryDetails string

	CreatedAt time.Time
}

// ContactStage derives the contact sub-step from field population
// instead of keeping a second enum in sync with the data.
func (s *OrderSession) ContactStage() ContactStage {
	switch {
	case s.CustomerName == "":
		return AwaitingName
	case s.CustomerEmail == "":
		return AwaitingEmail
	case s.CustomerPhone == nil:
		return AwaitingPhone
	default:
		return ContactsDone
	}
}

// SpecStage derives the specification sub-step the same way.
func (s *OrderSession) SpecStage() SpecStage {
	switch {
	case s.Specifications[SpecMaterial] == "":
		return AwaitingMaterial
	case s.Specifications[SpecQuality] == "":
		return AwaitingQuality
	case s.Specifications[SpecInfill] == "":
		return AwaitingInfill
	default:
		return SpecsDone
	}
}

// AddFile appends an uploaded file. Files keep upload order.
func (s *OrderSession) AddFile(f FileInfo) {
	s.Files = append(s.Files, f)
}

// RemoveLastFile pops the newest file entry. Returns the removed entry
// and false when there was nothing to remove.
func (s *OrderSession) RemoveLastFile() (FileInfo, bool) {
	if len(s.Files) == 0 {
		return FileInfo{}, false
	}
	last := s.Files[len(s.Files)-1]
	s.Files = s.Files[:len(s.Files)-1]
	return last, true
}

// SetSpec records one print parameter choice.
func (s *OrderSession) SetSpec(key, value string) {
	if s.Specifications == nil {
		s.Specifications = make(map[string]string)
	}
	s.Specifications[key] = value
}

// ClearSpecs drops the given parameter choices, used by backward
// navigation (going back to material clears quality and infill).
func (s *OrderSession) ClearSpecs(keys ...string) {
	for _, k := range keys {
		delete(s.Specifications, k)
	}
}

// IsComplete reports whether the minimum data for an order exists:
// name, email, service and at least one file. It is intentionally
// weaker than the confirmation-time validation in the controller; the
// two predicates have different scopes and are not interchangeable.
func (s *OrderSession) IsComplete() bool {
	return s.CustomerName != "" &&
		s.CustomerEmail != "" &&
		s.ServiceID != nil &&
		len(s.Files) > 0
}

// OrderPayload assembles the backend submission payload. Field names
// and the string-typed delivery_needed are part of the backend
// contract.
func (s *OrderSession) OrderPayload() api.OrderRequest {
	specs := make(map[string]any, len(s.Specifications)+4)
	for k, v := range s.Specifications {
		specs[k] = v
	}
	specs["files_info"] = s.Files
	specs["order_source"] = OrderSourceBot
	specs["bot_user_id"] = s.UserID
	if s.CustomerPhone != nil && *s.CustomerPhone != "" {
		specs["customer_phone"] = *s.CustomerPhone
	}

	var serviceID int64
	if s.ServiceID != nil {
		serviceID = *s.ServiceID
	}

	req := api.OrderRequest{
		CustomerName:   s.CustomerName,
		CustomerEmail:  s.CustomerEmail,
		CustomerPhone:  s.CustomerPhone,
		ServiceID:      serviceID,
		Source:         OrderSource,
		Specifications: specs,
		// Legacy alias the backend still reads.
		CustomerContact: s.CustomerEmail,
	}

	if s.DeliveryNeeded != nil {
		if *s.DeliveryNeeded {
			req.DeliveryNeeded = "true"
			if s.DeliveryDetails != "" {
				req.DeliveryDetails = s.DeliveryDetails
			}
		} else {
			req.DeliveryNeeded = "false"
		}
	}

	return req
}

// Summary renders every populated field for the confirmation message.
func (s *OrderSession) Summary() string {
	var b strings.Builder

	b.WriteString("📋 Резюме заказа:\n\n")
	fmt.Fprintf(&b, "👤 Имя: %s\n", orDefault(s.CustomerName, "Не указано"))
	fmt.Fprintf(&b, "📧 Email: %s\n", orDefault(s.CustomerEmail, "Не указан"))

	phone := "Не указан"
	if s.CustomerPhone != nil && *s.CustomerPhone != "" {
		phone = *s.CustomerPhone
	}
	fmt.Fprintf(&b, "📱 Телефон: %s\n", phone)
	fmt.Fprintf(&b, "🛍️ Услуга: %s\n", orDefault(s.ServiceName, "Не выбрана"))
	fmt.Fprintf(&b, "📁 Файлов: %d\n", len(s.Files))

	if len(s.Specifications) > 0 {
		b.WriteString("\n⚙️ Параметры:\n")
		for _, key := range []string{SpecMaterial, SpecQuality, SpecInfill} {
			if v, ok := s.Specifications[key]; ok {
				fmt.Fprintf(&b, "  • %s: %s\n", key, v)
			}
		}
	}

	if s.DeliveryNeeded != nil {
		b.WriteString("\n")
		if *s.DeliveryNeeded {
			b.WriteString("🚚 Доставка: Требуется\n")
			if s.DeliveryDetails != "" {
				fmt.Fprintf(&b, "📍 Адрес: %s\n", s.DeliveryDetails)
			}
		} else {
			b.WriteString("🏪 Доставка: Самовывоз\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// Export returns a read-only snapshot for diagnostics and logging.
func (s *OrderSession) Export() map[string]any {
	return map[string]any{
		"user_id":         s.UserID,
		"step":            string(s.Step),
		"service_id":      s.ServiceID,
		"service_name":    s.ServiceName,
		"customer_name":   s.CustomerName,
		"customer_email":  s.CustomerEmail,
		"customer_phone":  s.CustomerPhone,
		"files_count":     len(s.Files),
		"specifications":  s.Specifications,
		"delivery_needed": s.DeliveryNeeded,
		"created_at":      s.CreatedAt.Format(time.RFC3339),
		"is_complete":     s.IsComplete(),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
