package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

const serviceName = "ancestra-api"

var (
	loggerOnce sync.Once
	logger     *log.Logger
)

// Logger returns the shared line-oriented logger. Every line the service
// writes is a single JSON object; callers either go through LogRequest or
// marshal their own entry and Println it.
func Logger() *log.Logger {
	loggerOnce.Do(func() {
		logger = log.New(os.Stdout, "", 0)
	})
	return logger
}

// RequestEntry is the per-request record written by the HTTP layer once a
// request completes.
type RequestEntry struct {
	Time       time.Time `json:"-"`
	RequestID  string    `json:"request_id,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	DurationMS int64     `json:"duration_ms"`
	Remote     string    `json:"remote,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// LogRequest emits the completed-request line wrapped in the service
// envelope (ts, level, msg, service).
func LogRequest(e RequestEntry) {
	payload := struct {
		TS      string `json:"ts"`
		Level   string `json:"level"`
		Msg     string `json:"msg"`
		Service string `json:"service"`
		RequestEntry
	}{
		TS:           e.Time.UTC().Format(time.RFC3339Nano),
		Level:        "info",
		Msg:          "request_complete",
		Service:      serviceName,
		RequestEntry: e,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		Logger().Printf(`{"ts":%q,"level":"error","msg":"log marshal failed","service":%q}`,
			payload.TS, serviceName)
		return
	}
	Logger().Println(string(data))
}
