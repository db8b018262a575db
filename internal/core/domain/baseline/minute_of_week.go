// internal/core/domain/baseline/minute_of_week.go
package baseline

import (
	"time"
)

const (
	// MinutesPerDay минут в сутках
	MinutesPerDay = 1440

	// MinutesPerWeek минут в неделе, диапазон ключей бакетов [0, 10079]
	MinutesPerWeek = 10080
)

// MinuteOfWeek возвращает периодический ключ бакета для метки времени:
// weekday*1440 + hour*60 + minute, где weekday 0=понедельник..6=воскресенье.
// Календарная дата не участвует: одна и та же минута недели любой даты
// попадает в один бакет.
func MinuteOfWeek(t time.Time) int {
	// time.Weekday считает воскресенье нулем, здесь неделя начинается с понедельника
	weekday := (int(t.Weekday()) + 6) % 7
	return weekday*MinutesPerDay + t.Hour()*60 + t.Minute()
}
