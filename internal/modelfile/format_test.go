package modelfile

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/mina/internal/cascade"
)

func testModel(t *testing.T) *cascade.Model {
	t.Helper()
	m, err := cascade.Fit([]float64{1, 3, 3, 1, 1, 1, 2, 6, 4})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return m
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models", "web.mina")
	m := testModel(t)

	if err := Write(path, &File{Name: "web", Source: "trace.txt", Model: m}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	version, err := DetectFormat(path)
	if err != nil {
		t.Fatalf("DetectFormat() error = %v", err)
	}
	if version != FormatV2 {
		t.Errorf("DetectFormat() = %d, want %d", version, FormatV2)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Name != "web" || got.Source != "trace.txt" {
		t.Errorf("metadata = %q/%q, want web/trace.txt", got.Name, got.Source)
	}
	if got.Model.Root() != m.Root() || got.Model.Depth() != m.Depth() {
		t.Errorf("model root=%v depth=%d, want root=%v depth=%d",
			got.Model.Root(), got.Model.Depth(), m.Root(), m.Depth())
	}
	for k := 1; k <= m.Depth(); k++ {
		if got.Model.Level(k) != m.Level(k) {
			t.Errorf("level %d = %+v, want %+v", k, got.Model.Level(k), m.Level(k))
		}
	}
}

func TestReadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.mina")
	m := testModel(t)
	if err := Write(path, &File{Name: "h", Model: m}); err != nil {
		t.Fatal(err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.Levels != m.Depth() || h.Increments != 9 || h.Root != m.Root() || !h.Compressed {
		t.Errorf("header = %+v", h)
	}
	if !strings.HasPrefix(h.Checksum, "sha256:") {
		t.Errorf("checksum %q lacks sha256 prefix", h.Checksum)
	}
}

func TestRead_ChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.mina")
	if err := Write(path, &File{Model: testModel(t)}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xff
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	_, err = Read(path)
	if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("Read() error = %v, want checksum mismatch", err)
	}
}

func TestRead_V1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v1.json")
	data, err := json.MarshalIndent(&File{Version: FormatV1, Name: "legacy", Model: testModel(t)}, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	version, err := DetectFormat(path)
	if err != nil {
		t.Fatalf("DetectFormat() error = %v", err)
	}
	if version != FormatV1 {
		t.Errorf("DetectFormat() = %d, want %d", version, FormatV1)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.Name != "legacy" || got.Version != FormatV1 {
		t.Errorf("got name=%q version=%d", got.Name, got.Version)
	}
}

func TestRead_InvalidModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	content := `{"version": 1, "model": {"root": 3, "increments": 3, "levels": []}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Read(path)
	if !errors.Is(err, cascade.ErrInsufficientData) {
		t.Errorf("Read() error = %v, want ErrInsufficientData", err)
	}
}

func TestDetectFormat_Errors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty")
	if err := os.WriteFile(empty, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := DetectFormat(empty); err == nil {
		t.Error("expected error for empty file")
	}

	garbage := filepath.Join(dir, "garbage")
	if err := os.WriteFile(garbage, []byte("not a model\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := DetectFormat(garbage); err == nil {
		t.Error("expected error for unrecognized file")
	}
}

func TestWrite_NoModel(t *testing.T) {
	if err := Write(filepath.Join(t.TempDir(), "x"), &File{}); err == nil {
		t.Error("expected error for missing model")
	}
}
