// File: pkg/classify/binary.go
package classify

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sniffLen is how many leading bytes are inspected for binary content.
const sniffLen = 512

// binaryRatio is the share of non-printable bytes above which content is binary.
const binaryRatio = 0.3

// BinaryExtensions lists extensions rejected without reading the file.
var BinaryExtensions = map[string]bool{
	// images
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".tif": true, ".tiff": true, ".webp": true, ".psd": true, ".heic": true,
	// audio and video
	".mp3": true, ".wav": true, ".flac": true, ".ogg": true, ".mp4": true, ".mov": true,
	".avi": true, ".mkv": true, ".webm": true,
	// archives
	".zip": true, ".tar": true, ".gz": true, ".tgz": true, ".bz2": true, ".xz": true,
	".7z": true, ".rar": true, ".zst": true, ".jar": true, ".war": true,
	// compiled objects and executables
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true,
	".obj": true, ".lib": true, ".class": true, ".pyc": true, ".pyo": true, ".wasm": true,
	".bin": true,
	// documents and fonts
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true,
	".pptx": true, ".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,
	// databases
	".db": true, ".sqlite": true, ".sqlite3": true,
}

// isBinaryFile reports whether the file looks binary: it contains a NUL byte in
// its first sniffLen bytes, or more than binaryRatio of them are non-printable.
func isBinaryFile(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	buffer := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buffer)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return isBinaryContent(buffer[:n]), nil
}

// isBinaryContent applies the sniffing heuristic to a content prefix.
func isBinaryContent(buffer []byte) bool {
	if len(buffer) == 0 {
		return false
	}
	if bytes.IndexByte(buffer, 0) >= 0 {
		return true
	}

	nonPrintable := 0
	for _, b := range buffer {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(len(buffer)) > binaryRatio
}

// isPrintable treats ASCII text, common whitespace and any byte of a
// multi-byte UTF-8 sequence as printable.
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b == '\f' || b >= 0x80
}

// isCommonBinaryExtension checks if the file has a known binary extension.
func isCommonBinaryExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return BinaryExtensions[ext]
}
