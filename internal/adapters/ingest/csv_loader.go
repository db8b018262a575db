// internal/adapters/ingest/csv_loader.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"login-activity-monitor/internal/types"
	"login-activity-monitor/internal/types/analysis"
	"login-activity-monitor/pkg/logger"
)

// Форматы меток времени, принимаемые загрузчиком
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// CSVLoader - загрузчик рядов измерений из CSV-файлов.
// Формат: строка заголовка, затем записи "метка времени, количество".
// Нечисловые и отрицательные количества заменяются нулем с предупреждением,
// результат сортируется по времени.
type CSVLoader struct{}

// NewCSVLoader создает новый загрузчик
func NewCSVLoader() *CSVLoader {
	return &CSVLoader{}
}

// LoadSeries читает ряд измерений из файла. Возвращает точки в
// хронологическом порядке и сводку по загрузке.
func (l *CSVLoader) LoadSeries(path string) ([]types.MeasurementPoint, *types.SeriesInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	points, coerced, err := l.readRecords(file)
	if err != nil {
		return nil, nil, err
	}
	if len(points) == 0 {
		return nil, nil, analysis.NewDataError("file %s contains no data rows", path)
	}

	if coerced > 0 {
		logger.Warn("⚠️ %s: %d значений заменено нулем (нечисловые или отрицательные)", path, coerced)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	info := &types.SeriesInfo{
		Source:      path,
		Points:      len(points),
		CoercedRows: coerced,
		FirstPoint:  points[0].Timestamp,
		LastPoint:   points[len(points)-1].Timestamp,
	}

	logger.Info("📥 Загружен ряд %s: %d точек (%s - %s)",
		path, info.Points,
		info.FirstPoint.Format("2006-01-02 15:04"),
		info.LastPoint.Format("2006-01-02 15:04"))

	return points, info, nil
}

// readRecords разбирает CSV: заголовок, затем записи
func (l *CSVLoader) readRecords(r io.Reader) ([]types.MeasurementPoint, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, analysis.ErrEmptySeries.WithContext("csv load")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) < 2 {
		return nil, 0, analysis.NewDataError("csv must have at least 2 columns (timestamp, count), got %d", len(header))
	}

	var points []types.MeasurementPoint
	coerced := 0
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read csv record: %w", err)
		}
		line++

		timestamp, err := parseTimestamp(record[0])
		if err != nil {
			return nil, 0, analysis.NewDataError("unparseable timestamp %q at line %d", record[0], line)
		}

		value, ok := parseCount(record)
		if !ok {
			coerced++
		}

		points = append(points, types.MeasurementPoint{Timestamp: timestamp, Value: value})
	}

	return points, coerced, nil
}

// parseTimestamp пробует известные форматы меток времени
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no known layout matches %q", raw)
}

// parseCount извлекает количество из записи. Отсутствующее, нечисловое,
// нефинитное или отрицательное значение заменяется нулем; второй результат
// сообщает, было ли значение принято как есть.
func parseCount(record []string) (float64, bool) {
	if len(record) < 2 {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	if value < 0 {
		return 0, false
	}
	return value, true
}
