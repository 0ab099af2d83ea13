package process

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// isArchiveFile checks if file is a zip archive, by extension first and then
// by content.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// 262 bytes is enough for all filetype matchers
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

func isReportName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xml")
}

// isReportFile checks that file looks like report definition: xml with
// <report> root element somewhere at the beginning.
func isReportFile(path string) (bool, error) {
	if !isReportName(path) {
		return false, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	return looksLikeReport(f)
}

func looksLikeReport(r io.Reader) (bool, error) {
	head := make([]byte, 1024)
	n, err := io.ReadFull(bufio.NewReader(r), head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return bytes.Contains(head[:n], []byte("<report")), nil
}
