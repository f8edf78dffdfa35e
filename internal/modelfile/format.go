// Package modelfile saves fitted cascade models to disk and loads them back.
//
// A V2 model file is a plain JSON header line followed by a gzip-compressed
// JSON payload. The header carries a SHA-256 checksum of the compressed
// bytes and enough metadata to list a file without decompressing it.
// V1 files are the uncompressed payload on its own and are still readable.
package modelfile

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nvandessel/mina/internal/cascade"
)

// Format versions.
const (
	FormatV1 = 1
	FormatV2 = 2
)

// MaxPayloadSize bounds the decompressed payload (16MB).
const MaxPayloadSize = 16 * 1024 * 1024

// File is a saved model together with where it came from.
type File struct {
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	Name      string         `json:"name,omitempty"`
	Source    string         `json:"source,omitempty"`
	Model     *cascade.Model `json:"model"`
}

// Header is the first line of a V2 file.
type Header struct {
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	Checksum   string    `json:"checksum"`
	Name       string    `json:"name,omitempty"`
	Levels     int       `json:"levels"`
	Increments int       `json:"increments"`
	Root       float64   `json:"root"`
	Compressed bool      `json:"compressed"`
}

// DetectFormat reports whether path holds a V1 or V2 model file.
func DetectFormat(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading first line: %w", err)
	}
	first := strings.TrimSpace(string(line))
	if first == "" {
		return 0, fmt.Errorf("file is empty")
	}

	var h Header
	if err := json.Unmarshal([]byte(first), &h); err == nil && h.Version == FormatV2 && h.Checksum != "" {
		return FormatV2, nil
	}
	if first[0] == '{' {
		return FormatV1, nil
	}
	return 0, fmt.Errorf("unrecognized model file format")
}

// Write saves mf to path in V2 format, creating parent directories.
func Write(path string, mf *File) error {
	if mf.Model == nil {
		return fmt.Errorf("model file has no model")
	}
	mf.Version = FormatV2
	if mf.CreatedAt.IsZero() {
		mf.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(mf)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(payload); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	header := Header{
		Version:    FormatV2,
		CreatedAt:  mf.CreatedAt,
		Checksum:   checksum(compressed.Bytes()),
		Name:       mf.Name,
		Levels:     mf.Model.Depth(),
		Increments: mf.Model.Increments(),
		Root:       mf.Model.Root(),
		Compressed: true,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.Write(headerBytes)
	w.WriteByte('\n')
	w.Write(compressed.Bytes())
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing model file: %w", err)
	}
	return f.Close()
}

// Read loads a model file of either format. V2 checksums are verified.
func Read(path string) (*File, error) {
	version, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	if version == FormatV1 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		var mf File
		if err := json.Unmarshal(data, &mf); err != nil {
			return nil, fmt.Errorf("parsing model file: %w", err)
		}
		if mf.Model == nil {
			return nil, fmt.Errorf("model file has no model")
		}
		mf.Version = FormatV1
		return &mf, nil
	}

	_, compressed, err := readV2(path)
	if err != nil {
		return nil, err
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	payload, err := io.ReadAll(io.LimitReader(gzr, MaxPayloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("decompressed payload exceeds maximum size of %d bytes", MaxPayloadSize)
	}

	var mf File
	if err := json.Unmarshal(payload, &mf); err != nil {
		return nil, fmt.Errorf("parsing model file: %w", err)
	}
	if mf.Model == nil {
		return nil, fmt.Errorf("model file has no model")
	}
	return &mf, nil
}

// ReadHeader returns the header of a V2 file without decompressing it.
func ReadHeader(path string) (*Header, error) {
	h, _, err := readV2(path)
	return h, err
}

// readV2 reads the header and the checksum-verified compressed payload.
func readV2(path string) (*Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header line: %w", err)
	}

	var h Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return nil, nil, fmt.Errorf("parsing header: %w", err)
	}
	if h.Version != FormatV2 {
		return nil, nil, fmt.Errorf("expected V2 format, got version %d", h.Version)
	}

	compressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading compressed payload: %w", err)
	}
	if got := checksum(compressed); got != h.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: expected %s, got %s", h.Checksum, got)
	}
	return &h, compressed, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
