package service

import "math"

// toCents converts an amount to integer cents for balance arithmetic.
// Summing float64 amounts directly can drift a hair past the invoice total
// even when the decimal figures match it exactly, which would misreport a
// correct remaining-balance payment as an overpayment.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
