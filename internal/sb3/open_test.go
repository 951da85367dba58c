package sb3

import (
	"archive/zip"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scratchc/internal/diag"
)

const tinyDoc = `{"targets":[{"isStage":true,"name":"Stage","variables":{},"blocks":{}}]}`

func writeArchive(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_Archive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.sb3")
	writeArchive(t, path, map[string]string{
		"project.json":                         tinyDoc,
		"83a9787d4cb6f3b7632b4ddfebf74367.wav": "RIFF",
	})

	src, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(src.JSON) != tinyDoc {
		t.Fatalf("extracted %q", src.JSON)
	}
	if src.Digest != sha256.Sum256([]byte(tinyDoc)) {
		t.Fatalf("digest must cover the project document only")
	}
	p, err := src.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(p.Targets) != 1 {
		t.Fatalf("targets = %d", len(p.Targets))
	}
}

func TestOpen_BareJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	if err := os.WriteFile(path, []byte(tinyDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	p, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !p.Targets[0].IsStage {
		t.Fatalf("stage flag lost")
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	noProject := filepath.Join(dir, "empty.sb3")
	writeArchive(t, noProject, map[string]string{"costume.svg": "<svg/>"})

	notZip := filepath.Join(dir, "broken.sb3")
	if err := os.WriteFile(notZip, []byte("not a zip"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		code diag.Code
	}{
		{name: "missing_file", path: filepath.Join(dir, "nope.sb3"), code: diag.LoadMalformed},
		{name: "no_project_json", path: noProject, code: diag.LoadMissingProject},
		{name: "not_zip", path: notZip, code: diag.LoadMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path)
			var de *diag.Error
			if !errors.As(err, &de) {
				t.Fatalf("expected *diag.Error, got %T: %v", err, err)
			}
			if de.Code != tt.code || de.Where.File != tt.path {
				t.Fatalf("error = %+v", de)
			}
		})
	}
}
