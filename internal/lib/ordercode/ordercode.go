// Package ordercode генерирует случайные коды заказов для счетов.
//
// Формат кода: две заглавные латинские буквы и четыре цифры, например RT6003.
package ordercode

import (
	"math/rand/v2"
	"strings"
)

const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const digits = "0123456789"

// Generate возвращает новый случайный код заказа формата AA0000.
func Generate() string {
	var b strings.Builder
	b.Grow(6)
	for range 2 {
		b.WriteByte(letters[rand.IntN(len(letters))])
	}
	for range 4 {
		b.WriteByte(digits[rand.IntN(len(digits))])
	}
	return b.String()
}
