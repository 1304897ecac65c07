package xlog

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/safeopen"

	"github.com/benz9527/xtree/lib/infra"
)

var _ io.WriteCloser = (*singleLog)(nil)

// singleLog appends to one file, opened on the first write.
// It is not thread-safe, the core wraps it by zapcore.Lock.
type singleLog struct {
	filePath    string
	filename    string
	wroteSize   uint64
	mkdirOnce   sync.Once
	currentFile *os.File
}

func (log *singleLog) Write(p []byte) (n int, err error) {
	if log.currentFile == nil {
		if err := log.openOrCreate(); err != nil {
			return 0, err
		}
	}
	n, err = log.currentFile.Write(p)
	log.wroteSize += uint64(n)
	return
}

func (log *singleLog) Sync() error {
	if log.currentFile == nil {
		return nil
	}
	return log.currentFile.Sync()
}

func (log *singleLog) Close() error {
	if log.currentFile == nil {
		return nil
	}
	if err := log.currentFile.Close(); err != nil {
		return infra.WrapErrorStack(err, "failed to close the log file")
	}
	log.currentFile = nil
	return nil
}

func (log *singleLog) openOrCreate() error {
	if err := log.mkdir(); err != nil {
		return err
	}

	pathToLog := filepath.Join(log.filePath, log.filename)
	info, err := os.Stat(pathToLog)
	if os.IsNotExist(err) {
		return log.create(pathToLog)
	} else if err != nil {
		return infra.WrapErrorStack(err, "failed to stat the log file")
	}

	if info.IsDir() {
		return infra.NewErrorStack("log file <" + pathToLog + "> is a dir")
	}

	f, err := safeopen.OpenFileBeneath(log.filePath, log.filename, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStack(err, "failed to open an exists log file")
	}
	log.currentFile = f
	log.wroteSize = uint64(info.Size())
	return nil
}

func (log *singleLog) mkdir() error {
	var err error
	log.mkdirOnce.Do(func() {
		if log.filePath == "" {
			log.filePath = os.TempDir()
		}
		if log.filePath == os.TempDir() {
			return
		}
		err = os.MkdirAll(log.filePath, 0o755)
	})
	return infra.WrapErrorStack(err, "failed to create the log dir")
}

func (log *singleLog) create(pathToLog string) error {
	f, err := safeopen.OpenFileBeneath(log.filePath, log.filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return infra.WrapErrorStack(err, "unable to create new log file: "+pathToLog)
	}
	log.currentFile = f
	log.wroteSize = 0
	return nil
}
