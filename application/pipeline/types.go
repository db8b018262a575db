// application/pipeline/types.go
package pipeline

import (
	"time"
)

// RunSummary итог одного прогона измеренного ряда через монитор
type RunSummary struct {
	PointsProcessed int           `json:"points_processed"`
	Anomalies       int           `json:"anomalies"`
	AlertsStarted   int           `json:"alerts_started"`
	AlertsResolved  int           `json:"alerts_resolved"`
	StillActive     bool          `json:"still_active"`
	Elapsed         time.Duration `json:"elapsed"`
}
