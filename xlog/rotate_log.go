package xlog

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/google/safearchive/zip"
	"github.com/google/safeopen"
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

const (
	backupDateTimeFormat = "2006_01_02T15_04_05.000000000"
	day                  = 24 * time.Hour
	maxFileAge           = 14 * day
	defaultZipSuffix     = "_backups.zip"
)

var fileAgeRegexp = regexp.MustCompile(`^(\d+)(s|[mM]in|[hH]|[dD])$`)

// ParseFileSize accepts the humanized sizes like "512KB" or "10MiB".
func ParseFileSize(size string) (uint64, error) {
	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, infra.WrapErrorStack(err, "[XLogger] invalid file size "+size)
	}
	if n <= 0 {
		return 0, infra.NewErrorStack("[XLogger] zero file size")
	}
	return n, nil
}

// ParseFileAge accepts "30s", "15min", "12h" or "7d", capped at two weeks.
func ParseFileAge(age string) (time.Duration, error) {
	res := fileAgeRegexp.FindStringSubmatch(age)
	if len(res) != 3 {
		return 0, infra.NewErrorStack("[XLogger] invalid file age " + age)
	}
	num, _ := strconv.ParseInt(res[1], 10, 64)
	var unit time.Duration
	switch strings.ToLower(res[2]) {
	case "s":
		unit = time.Second
	case "min":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = day
	}
	return min(time.Duration(num)*unit, maxFileAge), nil
}

var _ io.WriteCloser = (*rotateLog)(nil)

/*
rotateLog renames the current file to <name>_<utc ts><ext> once the next
write would exceed maxSize, then appends to a new file.
A fsnotify watcher on the dir reacts to the new backups: the ones older
than maxAge and the oldest beyond maxBackups are either removed or moved
into a single zip.
Writes are not thread-safe, the core wraps it by zapcore.Lock.
*/
type rotateLog struct {
	*singleLog
	maxSize    uint64
	maxAge     time.Duration
	maxBackups int
	compress   bool
	zipName    string
	watcher    *fsnotify.Watcher
	watchOnce  sync.Once
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

func newRotateLog(cfg *FileCoreConfig) (*rotateLog, error) {
	size, err := ParseFileSize(cfg.FileMaxSize)
	if err != nil {
		return nil, err
	}
	var age time.Duration
	if cfg.FileMaxAge != "" {
		if age, err = ParseFileAge(cfg.FileMaxAge); err != nil {
			return nil, err
		}
	}
	if cfg.FileMaxBackups < 0 {
		return nil, infra.NewErrorStack("[XLogger] negative max backups")
	}
	log := &rotateLog{
		singleLog: &singleLog{
			filePath: cfg.FilePath,
			filename: cfg.Filename,
		},
		maxSize:    size,
		maxAge:     age,
		maxBackups: cfg.FileMaxBackups,
		compress:   cfg.FileCompressible,
		zipName:    cfg.FileZipName,
	}
	if log.zipName == "" {
		log.zipName = log.namePrefix() + defaultZipSuffix
	}
	return log, nil
}

func (log *rotateLog) namePrefix() string {
	return strings.TrimSuffix(log.filename, filepath.Ext(log.filename))
}

func (log *rotateLog) Write(p []byte) (n int, err error) {
	if log.currentFile == nil {
		if err = log.openOrCreate(); err != nil {
			return 0, err
		}
		log.watch()
	}
	if log.wroteSize > 0 && log.wroteSize+uint64(len(p)) > log.maxSize {
		if err = log.backup(); err != nil {
			return 0, err
		}
	}
	return log.singleLog.Write(p)
}

// backup closes and renames the current file, the next write creates a
// new one.
func (log *rotateLog) backup() error {
	if err := log.singleLog.Close(); err != nil {
		return err
	}
	ext := filepath.Ext(log.filename)
	ts := time.Now().UTC().Format(backupDateTimeFormat)
	pathToLog := filepath.Join(log.filePath, log.filename)
	pathToBackup := filepath.Join(log.filePath, log.namePrefix()+"_"+ts+ext)
	if err := os.Rename(pathToLog, pathToBackup); err != nil {
		return infra.WrapErrorStack(err, "failed to backup the log file "+pathToLog)
	}
	return nil
}

// watch starts the archiver once the dir exists.
func (log *rotateLog) watch() {
	log.watchOnce.Do(func() {
		if log.maxAge <= 0 && log.maxBackups <= 0 {
			return
		}
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			handleRotateError(infra.WrapErrorStack(err, "failed to create the file watcher"))
			return
		}
		if err = watcher.Add(log.filePath); err != nil {
			handleRotateError(infra.WrapErrorStack(err, "failed to watch the log dir"))
			_ = watcher.Close()
			return
		}
		log.watcher = watcher
		log.wg.Add(1)
		go log.watchAndArchive()
	})
}

func (log *rotateLog) watchAndArchive() {
	defer log.wg.Done()
	for {
		select {
		case event, ok := <-log.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if _, ok := log.backupTime(filepath.Base(event.Name)); ok {
				handleRotateError(log.archive(time.Now().UTC()))
			}
		case err, ok := <-log.watcher.Errors:
			if !ok {
				return
			}
			handleRotateError(err)
		}
	}
}

// backupTime parses the timestamp of a backup filename.
func (log *rotateLog) backupTime(filename string) (time.Time, bool) {
	ext := filepath.Ext(log.filename)
	prefix := log.namePrefix() + "_"
	if !strings.HasPrefix(filename, prefix) || !strings.HasSuffix(filename, ext) {
		return time.Time{}, false
	}
	ts := strings.TrimSuffix(strings.TrimPrefix(filename, prefix), ext)
	t, err := time.Parse(backupDateTimeFormat, ts)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type backupFile struct {
	name string
	ts   time.Time
}

// expiredBackups returns the backups older than maxAge plus the oldest
// ones beyond maxBackups, oldest first.
func (log *rotateLog) expiredBackups(now time.Time) ([]string, error) {
	entries, err := os.ReadDir(log.filePath)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "failed to read the log dir")
	}
	backups := make([]backupFile, 0, 16)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ts, ok := log.backupTime(entry.Name()); ok {
			backups = append(backups, backupFile{name: entry.Name(), ts: ts})
		}
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ts.Before(backups[j].ts)
	})

	expired := make([]string, 0, len(backups))
	rest := backups[:0:0]
	for _, b := range backups {
		if log.maxAge > 0 && now.Sub(b.ts) > log.maxAge {
			expired = append(expired, b.name)
		} else {
			rest = append(rest, b)
		}
	}
	if redundant := len(rest) - log.maxBackups; log.maxBackups > 0 && redundant > 0 {
		for _, b := range rest[:redundant] {
			expired = append(expired, b.name)
		}
	}
	return expired, nil
}

func (log *rotateLog) archive(now time.Time) error {
	expired, err := log.expiredBackups(now)
	if err != nil || len(expired) <= 0 {
		return err
	}
	if log.compress {
		return compressBackups(log.filePath, log.zipName, expired)
	}
	for _, name := range expired {
		if rmErr := os.Remove(filepath.Join(log.filePath, name)); rmErr != nil && !os.IsNotExist(rmErr) {
			err = multierr.Append(err, rmErr)
		}
	}
	return err
}

func (log *rotateLog) Close() error {
	err := log.singleLog.Close()
	log.closeOnce.Do(func() {
		if log.watcher != nil {
			err = multierr.Append(err, log.watcher.Close())
			log.wg.Wait()
		}
	})
	return err
}

func handleRotateError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("[XLogger] rotate log file error: " + err.Error() + "\n")
	}
}

// compressBackups moves the backups into the zip, keeping the entries of
// a previous zip. The zip is rebuilt beside and then renamed.
func compressBackups(dir, zipName string, backups []string) (err error) {
	tmpName := zipName + ".tmp"
	out, err := safeopen.OpenFileBeneath(dir, tmpName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return infra.WrapErrorStack(err, "failed to create the backup zip")
	}
	zw := zip.NewWriter(out)
	defer func() {
		err = multierr.Combine(err, zw.Close(), out.Close())
		if err == nil {
			err = os.Rename(filepath.Join(dir, tmpName), filepath.Join(dir, zipName))
		} else {
			_ = os.Remove(filepath.Join(dir, tmpName))
		}
	}()

	if prev, openErr := zip.OpenReader(filepath.Join(dir, zipName)); openErr == nil {
		prev.SetSecurityMode(prev.GetSecurityMode() | zip.MaximumSecurityMode)
		for _, f := range prev.File {
			if f.Mode().IsDir() {
				continue
			}
			if err = copyZipEntry(zw, f); err != nil {
				_ = prev.Close()
				return err
			}
		}
		_ = prev.Close()
	}

	for _, name := range backups {
		if err = addZipEntry(zw, dir, name); err != nil {
			return err
		}
	}
	return nil
}

func copyZipEntry(zw *zip.Writer, f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return infra.WrapErrorStack(err, "failed to read the zip entry "+f.Name)
	}
	defer func() {
		_ = r.Close()
	}()
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   f.Name,
		Method: f.Method,
	})
	if err != nil {
		return infra.WrapErrorStack(err, "failed to copy the zip entry "+f.Name)
	}
	_, err = io.Copy(w, r)
	return err
}

func addZipEntry(zw *zip.Writer, dir, name string) error {
	f, err := safeopen.OpenBeneath(dir, name)
	if err != nil {
		return infra.WrapErrorStack(err, "failed to open the backup "+name)
	}
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	})
	if err == nil {
		_, err = io.Copy(w, f)
	}
	_ = f.Close()
	if err != nil {
		return infra.WrapErrorStack(err, "failed to zip the backup "+name)
	}
	return os.Remove(filepath.Join(dir, name))
}
