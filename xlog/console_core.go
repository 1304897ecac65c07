package xlog

import (
	"io"
	"os"

	"go.uber.org/zap/zapcore"
)

// newConsoleCore writes to stderr unless w is set, stdout belongs to
// the interactive session.
func newConsoleCore(w io.Writer) xLogCoreConstructor {
	return func(
		lvlEnabler zapcore.LevelEnabler,
		encoder logEncoderType,
		lvlEnc zapcore.LevelEncoder,
		tsEnc zapcore.TimeEncoder,
	) xLogCore {
		if w == nil {
			w = os.Stderr
		}
		return newCommonCore(
			lvlEnabler,
			encoder,
			lvlEnc,
			tsEnc,
			zapcore.Lock(zapcore.AddSync(w)),
			defaultCoreEncoderCfg(),
		)
	}
}
