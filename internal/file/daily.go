// Copyright (c) 2025 Neomantra Corp

package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/neomantra/ymdflag"
)

///////////////////////////////////////////////////////////////////////////////

// dailyFile is one daily-rotated append-mode output file, named
// "<dir>/YYYYMMDD<suffix>".  Rotation is checked at save time: when the
// system date no longer matches the open file's date, the file is
// closed and the next day's is opened.  Re-opening an existing file
// appends rather than truncates, so mid-day restarts are safe.
type dailyFile struct {
	dir     string
	suffix  string // e.g. "_quotes.csv"
	nowFunc func() time.Time

	file *os.File
	ymd  int // date baked into the open file's name
}

func newDailyFile(dir string, suffix string, nowFunc func() time.Time) *dailyFile {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &dailyFile{dir: dir, suffix: suffix, nowFunc: nowFunc}
}

// ensure opens or rotates the file for the current date.
// fresh is true when the file was newly created (zero length), which is
// when a header row belongs.
func (d *dailyFile) ensure() (w *os.File, fresh bool, err error) {
	ymd := ymdflag.TimeToYMD(d.nowFunc())
	if d.file != nil && d.ymd == ymd {
		return d.file, false, nil
	}
	if d.file != nil {
		d.file.Close()
		d.file = nil
	}

	name := filepath.Join(d.dir, fmt.Sprintf("%08d%s", ymd, d.suffix))
	file, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open '%s': %w", name, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, false, err
	}
	d.file = file
	d.ymd = ymd
	return d.file, info.Size() == 0, nil
}

// Close closes the current file, if open.
func (d *dailyFile) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}
