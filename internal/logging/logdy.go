package logging

import (
	"fmt"
	"strconv"

	"github.com/logdyhq/logdy-core/logdy"
)

// logdyWriter forwards raw JSON lines to the embedded Logdy UI.
type logdyWriter struct {
	logger logdy.Logdy
}

func (w *logdyWriter) Write(p []byte) (n int, err error) {
	w.logger.LogString(string(p))
	return len(p), nil
}

// startLogdy starts the embedded Logdy web UI and returns a writer to tee
// logs into, plus the UI URL.
func startLogdy(host string, port int) (*logdyWriter, string) {
	portStr := strconv.Itoa(port)
	ld := logdy.InitializeLogdy(logdy.Config{
		ServerIp:   host,
		ServerPort: portStr,
	}, nil)

	return &logdyWriter{logger: ld}, fmt.Sprintf("http://%s:%s", host, portStr)
}
