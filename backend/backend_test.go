package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner records the invocation and optionally creates output
// files to mimic the tool's side effects.
type fakeRunner struct {
	name   string
	args   []string
	stderr string
	err    error
	// create lists files to write under dir before returning, so the
	// wrapper's output discovery has something to find.
	create []string
	dir    string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.name = name
	f.args = args
	for _, name := range f.create {
		path := filepath.Join(f.dir, name)
		if err := os.WriteFile(path, []byte("out"), 0o600); err != nil {
			return "", err
		}
	}
	return f.stderr, f.err
}

func TestOfficeToPDF(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{create: []string{"report.pdf"}, dir: dir}
	office := &Office{Binary: "/usr/bin/soffice", Runner: runner}

	out, err := office.ToPDF(context.Background(), "/in/report.docx", dir)
	if err != nil {
		t.Fatalf("ToPDF: %v", err)
	}
	if out != filepath.Join(dir, "report.pdf") {
		t.Errorf("output path = %q", out)
	}
	if runner.name != "/usr/bin/soffice" {
		t.Errorf("ran %q", runner.name)
	}
	joined := strings.Join(runner.args, " ")
	for _, want := range []string{"--headless", "--convert-to pdf", "--outdir " + dir, "/in/report.docx"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestOfficeToPDFNoOutput(t *testing.T) {
	dir := t.TempDir()
	office := &Office{Binary: "soffice", Runner: &fakeRunner{dir: dir}}

	_, err := office.ToPDF(context.Background(), "/in/report.docx", dir)
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("error %v, want *Error", err)
	}
	if be.Timeout {
		t.Error("Timeout set on a non-timeout failure")
	}
}

func TestOfficeToPDFToolFailure(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{stderr: "Error: source file could not be loaded", err: errors.New("exit status 1")}
	office := &Office{Binary: "soffice", Runner: runner}

	_, err := office.ToPDF(context.Background(), "/in/broken.docx", dir)
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("error %v, want *Error", err)
	}
	if !strings.Contains(be.Error(), "source file could not be loaded") {
		t.Errorf("stderr not surfaced: %v", be)
	}
}

func TestOfficeTimeout(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{err: context.DeadlineExceeded}
	office := &Office{Binary: "soffice", Runner: runner}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := office.ToPDF(ctx, "/in/report.docx", dir)
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("error %v, want *Error", err)
	}
	if !be.Timeout {
		t.Error("Timeout not set for deadline expiry")
	}
}

func TestRasterRender(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{create: []string{"page-1.png", "page-2.png", "page-3.png"}, dir: dir}
	raster := &Raster{Binary: "/usr/bin/pdftoppm", Runner: runner}

	files, err := raster.Render(context.Background(), RenderRequest{
		Input:  "/in/doc.pdf",
		OutDir: dir,
		Format: "png",
		DPI:    150,
		First:  1,
		Last:   3,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	for i, f := range files {
		if filepath.Base(f) != "page-"+string(rune('1'+i))+".png" {
			t.Errorf("file %d = %q, out of order", i, f)
		}
	}
	joined := strings.Join(runner.args, " ")
	for _, want := range []string{"-r 150", "-png", "-f 1", "-l 3", "/in/doc.pdf"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestRasterRenderJPEG(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{create: []string{"page-1.jpg"}, dir: dir}
	raster := &Raster{Binary: "pdftoppm", Runner: runner}

	files, err := raster.Render(context.Background(), RenderRequest{
		Input: "/in/doc.pdf", OutDir: dir, Format: "jpeg", DPI: 96,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(files) != 1 || filepath.Ext(files[0]) != ".jpg" {
		t.Errorf("files = %v", files)
	}
	if joined := strings.Join(runner.args, " "); !strings.Contains(joined, "-jpeg") {
		t.Errorf("args %q missing -jpeg", joined)
	}
}

func TestRasterRenderNoImages(t *testing.T) {
	dir := t.TempDir()
	raster := &Raster{Binary: "pdftoppm", Runner: &fakeRunner{dir: dir}}

	_, err := raster.Render(context.Background(), RenderRequest{
		Input: "/in/doc.pdf", OutDir: dir, Format: "png", DPI: 150,
	})
	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("error %v, want *Error", err)
	}
}
