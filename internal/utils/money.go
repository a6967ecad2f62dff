package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatUSD renders an amount as "$1,234" (cents only when non-zero).
func FormatUSD(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := int64(math.Floor(amount))
	cents := int64(math.Round((amount - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	if cents == 0 {
		return fmt.Sprintf("%s$%s", sign, formatThousand(whole))
	}
	return fmt.Sprintf("%s$%s.%02d", sign, formatThousand(whole), cents)
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
