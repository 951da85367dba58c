package sb3

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"scratchc/internal/diag"
)

const projectEntry = "project.json"

// Source is the raw project document together with its content digest.
type Source struct {
	Path   string
	JSON   []byte
	Digest [sha256.Size]byte
}

// Read loads the project document from path. Files with the .sb3 extension
// are opened as zip archives and project.json is extracted; anything else is
// read as a bare project.json.
func Read(p string) (*Source, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, diag.Wrap(diag.LoadMalformed, diag.Location{File: p}, err, "cannot read project")
	}
	doc := data
	if strings.EqualFold(filepath.Ext(p), ".sb3") {
		doc, err = extractProject(data, p)
		if err != nil {
			return nil, err
		}
	}
	return &Source{Path: p, JSON: doc, Digest: sha256.Sum256(doc)}, nil
}

// Decode parses the document held by s.
func (s *Source) Decode() (*Project, error) {
	return decode(s.JSON, s.Path)
}

// Open reads and decodes the project at path.
func Open(p string) (*Project, error) {
	src, err := Read(p)
	if err != nil {
		return nil, err
	}
	return src.Decode()
}

func extractProject(archive []byte, file string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, diag.Wrap(diag.LoadMalformed, diag.Location{File: file}, err, "not a zip archive")
	}
	for _, f := range zr.File {
		if path.Base(f.Name) != projectEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, diag.Wrap(diag.LoadMalformed, diag.Location{File: file}, err, "cannot open project.json")
		}
		data, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err == nil {
			err = closeErr
		}
		if err != nil {
			return nil, diag.Wrap(diag.LoadMalformed, diag.Location{File: file}, err, "cannot read project.json")
		}
		return data, nil
	}
	return nil, diag.Errorf(diag.LoadMissingProject, diag.Location{File: file}, "archive has no %s", projectEntry)
}
