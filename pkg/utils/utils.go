// pkg/utils/utils.go
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatDuration форматирует продолжительность в читаемый вид
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dч %dм", hours, minutes)
	}
	return fmt.Sprintf("%dм", minutes)
}

// FormatEventTime форматирует время события с точностью до минуты
func FormatEventTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

// FormatRelativeTime форматирует время относительно текущего момента
func FormatRelativeTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return fmt.Sprintf("%d сек. назад", int(diff.Seconds()))
	} else if diff < time.Hour {
		return fmt.Sprintf("%d мин. назад", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%d ч. назад", int(diff.Hours()))
	}
	return t.Format("2006-01-02 15:04")
}

// FormatCount форматирует счетчик логинов с разделителями тысяч
func FormatCount(value float64) string {
	n := int64(math.Round(value))

	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return sign + digits
	}

	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	return sign + strings.Join(groups, " ")
}

// FormatPercent форматирует процентное значение
func FormatPercent(value float64) string {
	if value > 0 {
		return fmt.Sprintf("+%.2f%%", value)
	}
	return fmt.Sprintf("%.2f%%", value)
}
