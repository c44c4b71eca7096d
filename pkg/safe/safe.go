package safe

import (
	"log/slog"
	"runtime/debug"
)

// Run executes fn and logs any panic with its stack instead of letting it
// take down the handling goroutine.
func Run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered",
				slog.Any("recover", r),
				slog.String("component", "safe.Run"),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	fn()
}
