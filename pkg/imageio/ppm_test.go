package imageio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

func TestToByte(t *testing.T) {
	tests := []struct {
		input    float64
		expected uint8
	}{
		{0.0, 0},
		{1.0, 255},
		{0.5, 127},
		{-0.2, 0},
		{1.5, 255},
	}

	for _, tt := range tests {
		if got := ToByte(tt.input); got != tt.expected {
			t.Errorf("ToByte(%f) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}

func TestPPMWriter_P3(t *testing.T) {
	var buf bytes.Buffer
	pw, err := NewPPMWriter(&buf, 2, 2, false)
	if err != nil {
		t.Fatalf("NewPPMWriter failed: %v", err)
	}

	rows := [][]core.Vec3{
		{core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0)},
		{core.NewVec3(0, 0, 1), core.NewVec3(1, 1, 1)},
	}
	for i, row := range rows {
		if err := pw.WriteRow(i, row); err != nil {
			t.Fatalf("WriteRow(%d) failed: %v", i, err)
		}
	}
	if err := pw.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	expected := "P3\n2 2\n255\n255 0 0\n0 255 0\n0 0 255\n255 255 255\n"
	if buf.String() != expected {
		t.Errorf("Unexpected PPM output:\n%q\nwant\n%q", buf.String(), expected)
	}
}

func TestPPMWriter_P6(t *testing.T) {
	var buf bytes.Buffer
	pw, err := NewPPMWriter(&buf, 1, 1, true)
	if err != nil {
		t.Fatalf("NewPPMWriter failed: %v", err)
	}
	if err := pw.WriteRow(0, []core.Vec3{core.NewVec3(1, 0.5, 0)}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := pw.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	expected := append([]byte("P6\n1 1\n255\n"), 255, 127, 0)
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Errorf("Unexpected P6 output %v, want %v", buf.Bytes(), expected)
	}
}

func TestPPMWriter_RejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		row  int
		n    int
	}{
		{"out of order", 1, 2},
		{"wrong width", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pw, err := NewPPMWriter(&bytes.Buffer{}, 2, 2, false)
			if err != nil {
				t.Fatalf("NewPPMWriter failed: %v", err)
			}

			err = pw.WriteRow(tt.row, make([]core.Vec3, tt.n))
			var we *WriteError
			if !errors.As(err, &we) || we.Op != "row" {
				t.Errorf("Expected row WriteError, got %v", err)
			}
		})
	}
}

func TestPPMWriter_IncompleteFlush(t *testing.T) {
	pw, err := NewPPMWriter(&bytes.Buffer{}, 1, 2, false)
	if err != nil {
		t.Fatalf("NewPPMWriter failed: %v", err)
	}
	if err := pw.WriteRow(0, []core.Vec3{{}}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := pw.Flush(); err == nil {
		t.Error("Expected Flush to report the missing row")
	}
}

// failingWriter fails every write
type failingWriter struct{}

var errWriteFailed = errors.New("write failed")

func (failingWriter) Write([]byte) (int, error) { return 0, errWriteFailed }

func TestPPMWriter_StreamFailure(t *testing.T) {
	pw, err := NewPPMWriter(failingWriter{}, 1, 1, false)
	if err != nil {
		t.Fatalf("Header should be buffered, got %v", err)
	}
	if err := pw.WriteRow(0, []core.Vec3{{}}); err != nil {
		t.Fatalf("Row should be buffered, got %v", err)
	}

	err = pw.Flush()
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("Expected WriteError, got %v", err)
	}
	if !errors.Is(err, errWriteFailed) {
		t.Errorf("Expected the underlying error to be wrapped, got %v", err)
	}
}

func TestCreatePPMFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.ppm")
	pf, err := CreatePPMFile(path, 1, 1, false)
	if err != nil {
		t.Fatalf("CreatePPMFile failed: %v", err)
	}
	if err := pf.WriteRow(0, []core.Vec3{core.NewVec3(0, 0, 0)}); err != nil {
		t.Fatalf("WriteRow failed: %v", err)
	}
	if err := pf.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "P3\n1 1\n255\n") {
		t.Errorf("Unexpected file contents %q", data)
	}
}

func TestCreatePPMFile_BadDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := CreatePPMFile(filepath.Join(blocker, "out.ppm"), 1, 1, false)
	var we *WriteError
	if !errors.As(err, &we) || we.Op != "create" {
		t.Fatalf("Expected create WriteError, got %v", err)
	}
	if we.Path == "" {
		t.Error("Expected the path to be recorded")
	}
}
