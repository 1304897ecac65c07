package xlog

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
)

type FileCoreConfig struct {
	FilePath string `json:"filePath" yaml:"filePath" mapstructure:"filePath"`
	Filename string `json:"filename" yaml:"filename" mapstructure:"filename"`
	// FileMaxSize enables the rotation, e.g. "10MB". Empty keeps
	// appending to a single file.
	FileMaxSize      string `json:"fileMaxSize" yaml:"fileMaxSize" mapstructure:"fileMaxSize"`
	FileMaxAge       string `json:"fileMaxAge" yaml:"fileMaxAge" mapstructure:"fileMaxAge"`
	FileMaxBackups   int    `json:"fileMaxBackups" yaml:"fileMaxBackups" mapstructure:"fileMaxBackups"`
	FileCompressible bool   `json:"fileCompressible" yaml:"fileCompressible" mapstructure:"fileCompressible"`
	FileZipName      string `json:"fileZipName" yaml:"fileZipName" mapstructure:"fileZipName"`
}

// fileCore keeps its writer to be closed along with the logger.
type fileCore struct {
	*commonCore
	closer io.Closer
}

// newFileWriter picks the rotate log if a max size is set.
func newFileWriter(cfg *FileCoreConfig) (io.WriteCloser, error) {
	if cfg.Filename == "" {
		cfg.Filename = filepath.Base(os.Args[0]) + "_xlog.log"
	}
	if cfg.FileMaxSize != "" {
		return newRotateLog(cfg)
	}
	return &singleLog{
		filename: cfg.Filename,
		filePath: cfg.FilePath,
	}, nil
}

func newFileCore(w io.WriteCloser) xLogCoreConstructor {
	return func(
		lvlEnabler zapcore.LevelEnabler,
		encoder logEncoderType,
		lvlEnc zapcore.LevelEncoder,
		tsEnc zapcore.TimeEncoder,
	) xLogCore {
		encCfg := defaultCoreEncoderCfg()
		encCfg.NameKey = coreKeyIgnored
		return &fileCore{
			commonCore: newCommonCore(
				lvlEnabler,
				encoder,
				lvlEnc,
				tsEnc,
				zapcore.Lock(zapcore.AddSync(w)),
				encCfg,
			),
			closer: w,
		}
	}
}
