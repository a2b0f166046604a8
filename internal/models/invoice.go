// Package models содержит доменные структуры счета (invoice),
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "time"

// Статусы жизненного цикла счета.
const (
	StatusDraft   = "draft"
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// Address — адресный блок отправителя или клиента, хранится в JSONB.
type Address struct {
	Street   string `json:"street,omitempty"`
	City     string `json:"city,omitempty"`
	PostCode string `json:"postCode,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Item — строка счета, хранится в JSONB массивом.
type Item struct {
	Name     string  `json:"name,omitempty"`
	Quantity int     `json:"quantity,omitempty"`
	Price    float64 `json:"price,omitempty"`
	Total    float64 `json:"total,omitempty"`
}

// Invoice представляет собой основную модель счета,
// используемую в бизнес-логике и хранилище.
//
// OwnerUID назначается один раз при создании и далее не меняется.
// PaymentDue может быть nil — это означает, что дата оплаты не вычислена
// (не заданы CreatedAt или PaymentTerms).
type Invoice struct {
	ID            int        `json:"id"`
	OrderCode     string     `json:"orderCode"`               // Сгенерированный код заказа, формат AA0000
	CreatedAt     *time.Time `json:"createdAt,omitempty"`     // Дата выставления счета
	PaymentDue    *time.Time `json:"paymentDue,omitempty"`    // CreatedAt + PaymentTerms дней
	Description   string     `json:"description,omitempty"`   // Назначение счета
	PaymentTerms  int        `json:"paymentTerms,omitempty"`  // Срок оплаты в днях
	ClientName    string     `json:"clientName,omitempty"`    // Имя клиента
	ClientEmail   string     `json:"clientEmail,omitempty"`   // Почта клиента
	Status        string     `json:"status"`                  // draft, pending или paid
	SenderAddress *Address   `json:"senderAddress,omitempty"` // Адрес отправителя
	ClientAddress *Address   `json:"clientAddress,omitempty"` // Адрес клиента
	Items         []Item     `json:"items,omitempty"`         // Строки счета
	Total         float64    `json:"total"`                   // Итоговая сумма
	OwnerUID      string     `json:"ownerId,omitempty"`       // Владелец счета
}

// DummyInvoice используется для приёма данных счета из JSON-запроса,
// прежде чем конвертировать их в Invoice. Дата приходит строкой,
// чтобы её можно было валидировать и парсить вручную.
//
// Строгость валидации задаётся обработчиком: конечная точка создания
// требует все поля, черновик принимает любые подмножества.
type DummyInvoice struct {
	CreatedAt     string   `json:"createdAt" validate:"omitempty,datetime=2006-01-02"` // Дата в формате 2006-01-02
	Description   string   `json:"description" validate:"omitempty"`
	PaymentTerms  int      `json:"paymentTerms" validate:"omitempty,gte=0"`
	ClientName    string   `json:"clientName" validate:"omitempty"`
	ClientEmail   string   `json:"clientEmail" validate:"omitempty,email"`
	SenderAddress *Address `json:"senderAddress" validate:"omitempty"`
	ClientAddress *Address `json:"clientAddress" validate:"omitempty"`
	Items         []Item   `json:"items" validate:"omitempty,dive"`
	Total         float64  `json:"total" validate:"omitempty,gte=0"`
}

// StrictInvoice — вариант DummyInvoice с обязательными полями
// для конечной точки создания счета (не черновика).
type StrictInvoice struct {
	CreatedAt     string   `json:"createdAt" validate:"required,datetime=2006-01-02"`
	Description   string   `json:"description" validate:"required"`
	PaymentTerms  int      `json:"paymentTerms" validate:"required,gt=0"`
	ClientName    string   `json:"clientName" validate:"required"`
	ClientEmail   string   `json:"clientEmail" validate:"required,email"`
	SenderAddress *Address `json:"senderAddress" validate:"required"`
	ClientAddress *Address `json:"clientAddress" validate:"required"`
	Items         []Item   `json:"items" validate:"required,min=1,dive"`
	Total         float64  `json:"total" validate:"omitempty,gte=0"`
}

// Dummy конвертирует строгий DTO в общий, чтобы оба входа создания
// проходили через единый путь бизнес-логики.
func (s StrictInvoice) Dummy() DummyInvoice {
	return DummyInvoice{
		CreatedAt:     s.CreatedAt,
		Description:   s.Description,
		PaymentTerms:  s.PaymentTerms,
		ClientName:    s.ClientName,
		ClientEmail:   s.ClientEmail,
		SenderAddress: s.SenderAddress,
		ClientAddress: s.ClientAddress,
		Items:         s.Items,
		Total:         s.Total,
	}
}
