package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatINRIndianGrouping(t *testing.T) {
	assert.Equal(t, "₹250.00", Format(25000, "INR"))
	assert.Equal(t, "₹70,000.00", Format(7000000, "INR"))
	assert.Equal(t, "₹3,00,000.00", Format(30000000, "INR"))
	assert.Equal(t, "₹12,34,567.00", Format(123456700, "INR"))
	assert.Equal(t, "₹1,00,00,000.50", Format(1000000050, "INR"))
}

func TestFormatUSDThousandsGrouping(t *testing.T) {
	assert.Equal(t, "$1,234.50", Format(123450, "USD"))
	assert.Equal(t, "$999.99", Format(99999, "USD"))
	assert.Equal(t, "$1,000,000.00", Format(100000000, "USD"))
}

func TestFormatNegative(t *testing.T) {
	assert.Equal(t, "-₹70,000.00", Format(-7000000, "INR"))
}

func TestFormatUnknownCurrencyFallsBackToCode(t *testing.T) {
	assert.Equal(t, "EUR 1,250.00", Format(125000, "eur"))
}
