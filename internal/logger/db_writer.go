package logger

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "bulk-webhook/internal/common/models"

	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level   zapcore.Level
	Message string
	Caller  string
	Webhook string
	User    string
	Fields  map[string]interface{}
}

// LogSink persists log records; satisfied by a mongo collection
type LogSink interface {
	InsertOne(ctx context.Context, document interface{}) error
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	sink    LogSink
	logChan chan LogEntry
	appId   string
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewDBLogWriter starts the background worker immediately
func NewDBLogWriter(sink LogSink, appId string) *DBLogWriter {
	writer := &DBLogWriter{
		sink:    sink,
		logChan: make(chan LogEntry, 1000),
		appId:   appId,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go writer.processLogs()

	return writer
}

// AddLog is called by the zap core. Entries after Close are dropped.
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case <-w.stop:
		return
	default:
	}

	select {
	case w.logChan <- entry:
	default:
		// Channel full: drop rather than block the caller
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

// Close stops accepting entries, drains the buffer and waits for the worker.
// logChan stays open since the zap core keeps logging during shutdown.
func (w *DBLogWriter) Close() {
	w.once.Do(func() { close(w.stop) })
	<-w.done
}

func (w *DBLogWriter) processLogs() {
	defer close(w.done)
	for {
		select {
		case entry := <-w.logChan:
			w.write(entry)
		case <-w.stop:
			for {
				select {
				case entry := <-w.logChan:
					w.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (w *DBLogWriter) write(entry LogEntry) {
	logRecord := common_models.Log{
		AppID:        w.appId,
		LogLevelId:   mapLevelToInt(entry.Level),
		Message:      entry.Message,
		Caller:       entry.Caller,
		Webhook:      entry.Webhook,
		User:         entry.User,
		Fields:       entry.Fields,
		CreatedOnUtc: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Errors are ignored to keep the app running
	_ = w.sink.InsertOne(ctx, logRecord)
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
