package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const maskPrefix = "************"

// MaskCardNumber renders a card number as twelve mask characters followed
// by the last four digits, e.g. "************1234".
func MaskCardNumber(lastFourDigits string) string {
	return maskPrefix + lastFourDigits
}

// LastFourDigits extracts the last four digits of a card number
func LastFourDigits(cardNumber string) string {
	return cardNumber[len(cardNumber)-4:]
}

// ValidCardNumber reports whether the card number is 16 digits
func ValidCardNumber(cardNumber string) bool {
	if len(cardNumber) != 16 {
		return false
	}
	for _, r := range cardNumber {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// GenerateCardNumber generates a card number with the specified prefix and
// length. The final digit is the Luhn check digit.
func GenerateCardNumber(prefix string, length int) (string, error) {
	if length <= len(prefix) || length > 19 {
		return "", fmt.Errorf("invalid card number length: %d", length)
	}

	// Generate random digits for everything but the check digit
	digits := make([]byte, length-len(prefix)-1)
	if _, err := rand.Read(digits); err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}

	var builder strings.Builder
	builder.WriteString(prefix)
	for _, b := range digits {
		builder.WriteByte(b%10 + '0')
	}
	partial := builder.String()

	return partial + string(luhnCheckDigit(partial)+'0'), nil
}

// luhnCheckDigit computes the Luhn check digit for the partial number
func luhnCheckDigit(partial string) byte {
	sum := 0
	double := true
	for i := len(partial) - 1; i >= 0; i-- {
		digit := int(partial[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit = digit%10 + digit/10
			}
		}
		sum += digit
		double = !double
	}
	return byte((10 - sum%10) % 10)
}
