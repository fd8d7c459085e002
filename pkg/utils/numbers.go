package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParsePrice parses user-entered amounts such as "$1,200" or "180.50"
func ParsePrice(input string) (float64, bool) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// ParseDays parses a positive whole number of days
func ParseDays(input string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// FormatPrice renders a price with two decimals and its currency
func FormatPrice(price float64, currency string) string {
	return strconv.FormatFloat(price, 'f', 2, 64) + " " + currency
}
