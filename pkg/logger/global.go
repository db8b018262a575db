// pkg/logger/global.go
package logger

import "time"

var globalLogger *Logger

func InitGlobal(logPath, logLevel string, debug bool, rotation RotationConfig) error {
	var err error
	globalLogger, err = NewLogger(logPath, logLevel, debug, rotation)
	return err
}

func GetLogger() *Logger {
	return globalLogger
}

// Глобальные методы для удобства
func Debug(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Debug(format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Info(format, v...)
	}
}

func Warn(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Warn(format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Error(format, v...)
	}
}

func Fatal(format string, v ...interface{}) {
	if globalLogger != nil {
		globalLogger.Fatal(format, v...)
	}
}

func Alert(kind string, detectedAt time.Time, value, mean float64) {
	if globalLogger != nil {
		globalLogger.Alert(kind, detectedAt, value, mean)
	}
}

func Close() {
	if globalLogger != nil {
		globalLogger.Close()
	}
}
