package events

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"
)

// LogSink returns a Subscriber that renders progress events as slog lines.
// Raw output chunks are summarized by size, not echoed; OutputSink handles
// forwarding.
func LogSink(logger *slog.Logger) Subscriber {
	logger = logger.With("component", "events")
	return func(ev Event) {
		switch ev.Type {
		case TypeUnitDiscovered:
			logger.Info("unit discovered", "unit_id", ev.UnitID, "detail", ev.Detail)
		case TypeDependencyInvalid:
			logger.Warn("unit excluded (unknown dependency)", "unit_id", ev.UnitID, "depends_on", ev.Detail)
		case TypeUnitReady:
			logger.Info("unit ready", "unit_id", ev.UnitID)
		case TypeUnitStarted:
			logger.Info("unit running", "unit_id", ev.UnitID, "command", ev.Detail)
		case TypeUnitFinished:
			attrs := []any{"unit_id", ev.UnitID}
			if ev.ExitCode != nil {
				attrs = append(attrs, "exit_code", *ev.ExitCode)
			}
			logger.Info("unit finished", attrs...)
		case TypeUnitLaunchFailed:
			logger.Error("unit launch failed", "unit_id", ev.UnitID, "error", ev.Detail)
		case TypeUnitOutput:
			logger.Debug("unit output", "unit_id", ev.UnitID, "stream", ev.Stream,
				"size", humanize.Bytes(uint64(len(ev.Output))))
		case TypeTickSummary:
			if ev.Counts != nil {
				logger.Info("tick",
					"queued", ev.Counts.Queued,
					"ready", ev.Counts.Ready,
					"running", ev.Counts.Running,
					"finished", ev.Counts.Finished)
			}
		case TypeRunCompleted:
			logger.Info("no tasks left")
		}
	}
}

// OutputSink returns a Subscriber that forwards raw unit output to w, each
// line attributed to its unit id. Partial lines are buffered per unit/stream
// until a newline arrives, so interleaved chunks from concurrent processes
// stay readable.
func OutputSink(w io.Writer) Subscriber {
	var mu sync.Mutex
	partial := make(map[string]*bytes.Buffer)

	return func(ev Event) {
		if ev.Type != TypeUnitOutput || len(ev.Output) == 0 {
			return
		}

		mu.Lock()
		defer mu.Unlock()

		key := ev.UnitID + "/" + ev.Stream
		buf, ok := partial[key]
		if !ok {
			buf = &bytes.Buffer{}
			partial[key] = buf
		}
		buf.Write(ev.Output)

		for {
			line, err := buf.ReadString('\n')
			if err != nil {
				// Incomplete line: keep for the next chunk.
				buf.Reset()
				buf.WriteString(line)
				break
			}
			marker := ""
			if ev.Stream == "stderr" {
				marker = "!"
			}
			fmt.Fprintf(w, "%s%s | %s", ev.UnitID, marker, line)
		}
	}
}
