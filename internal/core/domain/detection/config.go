// internal/core/domain/detection/config.go
package detection

// Config - конфигурация классификатора аномалий
type Config struct {
	StdDevThreshold       float64 // множитель сигмы для границ допустимого коридора
	BaselineZeroThreshold float64 // минимальное базовое среднее, при котором ноль считается пропаданием трафика
	StdDevEpsilon         float64 // нижний порог сигмы: бакеты без наблюдаемого разброса не дают отклонений
}

// DefaultConfig - конфигурация по умолчанию
var DefaultConfig = Config{
	StdDevThreshold:       3.0,
	BaselineZeroThreshold: 200.0,
	StdDevEpsilon:         1e-6,
}
