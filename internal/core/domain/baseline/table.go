// internal/core/domain/baseline/table.go
package baseline

// BucketStats статистика одного бакета минуты недели
type BucketStats struct {
	Mean    float64
	StdDev  float64
	Samples int
}

// Table - таблица статистик по минутам недели. Строится один раз
// агрегатором и дальше не изменяется. Отсутствующий бакет означает
// "активность не ожидается": Lookup возвращает (0, 0), а не ошибку.
type Table struct {
	buckets map[int]BucketStats
}

// Lookup возвращает (mean, stddev) бакета, (0, 0) если бакета нет
func (t *Table) Lookup(minuteOfWeek int) (mean, stdDev float64) {
	if stats, ok := t.buckets[minuteOfWeek]; ok {
		return stats.Mean, stats.StdDev
	}
	return 0, 0
}

// Stats возвращает полную статистику бакета и признак его наличия
func (t *Table) Stats(minuteOfWeek int) (BucketStats, bool) {
	stats, ok := t.buckets[minuteOfWeek]
	return stats, ok
}

// Size возвращает количество заполненных бакетов
func (t *Table) Size() int {
	if t == nil {
		return 0
	}
	return len(t.buckets)
}

// IsEmpty сообщает, пуста ли таблица
func (t *Table) IsEmpty() bool {
	return t.Size() == 0
}
