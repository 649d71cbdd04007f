// Copyright (c) 2025 Neomantra Corp
//
// Capture files are raw NFCAST datagrams written back to back, scanned
// again with PacketScanner.  A ".zst"/".zstd" suffix (or the force flag)
// routes through zstd.

package nfcast

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

///////////////////////////////////////////////////////////////////////////////

func isZstdName(filename string) bool {
	return strings.HasSuffix(filename, ".zst") || strings.HasSuffix(filename, ".zstd")
}

// OpenCaptureWriter returns a writer for the given capture filename, or
// os.Stdout if filename is "-", plus a closing function to defer.
func OpenCaptureWriter(filename string, forceZstd bool) (io.Writer, func(), error) {
	var writer io.Writer = os.Stdout
	var file *os.File
	if filename != "-" {
		var err error
		if file, err = os.Create(filename); err != nil {
			return nil, nil, err
		}
		writer = file
	}
	fileCloser := func() {
		if file != nil {
			file.Close()
		}
	}

	if !forceZstd && !isZstdName(filename) {
		return writer, fileCloser, nil
	}

	zstdWriter, err := zstd.NewWriter(writer)
	if err != nil {
		fileCloser()
		return nil, nil, err
	}
	return zstdWriter, func() {
		zstdWriter.Close()
		fileCloser()
	}, nil
}

// OpenCaptureReader returns a reader for the given capture filename, or
// os.Stdin if filename is "-", plus a closing function to defer.
func OpenCaptureReader(filename string, forceZstd bool) (io.Reader, func(), error) {
	var reader io.Reader = os.Stdin
	var file *os.File
	if filename != "-" {
		var err error
		if file, err = os.Open(filename); err != nil {
			return nil, nil, err
		}
		reader = file
	}
	fileCloser := func() {
		if file != nil {
			file.Close()
		}
	}

	if !forceZstd && !isZstdName(filename) {
		return reader, fileCloser, nil
	}

	zstdReader, err := zstd.NewReader(reader)
	if err != nil {
		fileCloser()
		return nil, nil, err
	}
	return zstdReader, func() {
		zstdReader.Close()
		fileCloser()
	}, nil
}
