// internal/core/domain/alerting/window.go
package alerting

import (
	"login-activity-monitor/internal/types"
)

// lookbackWindow - кольцевой буфер последних вердиктов. Хранит ровно
// столько, сколько нужно для отката к первой точке квалифицирующего
// стрика, полный ряд в памяти не удерживается.
type lookbackWindow struct {
	slots []types.Verdict
	count int // сколько слотов заполнено
	head  int // индекс следующей записи
}

func newLookbackWindow(capacity int) *lookbackWindow {
	return &lookbackWindow{slots: make([]types.Verdict, capacity)}
}

// Push добавляет вердикт, вытесняя самый старый при заполненном буфере
func (w *lookbackWindow) Push(verdict types.Verdict) {
	w.slots[w.head] = verdict
	w.head = (w.head + 1) % len(w.slots)
	if w.count < len(w.slots) {
		w.count++
	}
}

// At возвращает вердикт на расстоянии distance от последнего (0 = последний)
func (w *lookbackWindow) At(distance int) (types.Verdict, bool) {
	if distance < 0 || distance >= w.count {
		return types.Verdict{}, false
	}
	idx := (w.head - 1 - distance + 2*len(w.slots)) % len(w.slots)
	return w.slots[idx], true
}

// Oldest возвращает самый старый удержанный вердикт
func (w *lookbackWindow) Oldest() (types.Verdict, bool) {
	if w.count == 0 {
		return types.Verdict{}, false
	}
	return w.At(w.count - 1)
}

// Len возвращает количество удержанных вердиктов
func (w *lookbackWindow) Len() int {
	return w.count
}
