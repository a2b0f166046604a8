// Package models содержит структуры фильтрации для выборки счетов.
package models

// InvoiceFilter представляет параметры фильтрации, которые передаются
// в слой доступа к данным при выборке счетов пользователя.
//
// Statuses — набор статусов с семантикой IN, пустой срез означает
// отсутствие фильтра. Limit и Offset применяются независимо друг от друга,
// нулевые значения означают отсутствие ограничения или смещения —
// верхнюю границу задаёт вызывающая сторона.
type InvoiceFilter struct {
	Statuses []string
	Limit    int
	Offset   int
}
