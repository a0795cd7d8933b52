package ifcloader

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// ErrNoIFCInArchive is returned for an .ifczip without an .ifc entry
var ErrNoIFCInArchive = errors.New("archive contains no .ifc file")

// unpack returns the path of the IFC file to read. Zip archives (.ifczip)
// are extracted into work; plain files are returned unchanged.
func (l *Loader) unpack(path, work string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}

	kind, err := filetype.MatchFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if kind != matchers.TypeZip {
		return path, nil
	}
	return extractIFC(path, work)
}

func extractIFC(archive, work string) (string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".ifc") {
			continue
		}
		// entry names are untrusted, only the base name is used
		dst := filepath.Join(work, filepath.Base(f.Name))
		if err := extractFile(f, dst); err != nil {
			return "", err
		}
		return dst, nil
	}
	return "", ErrNoIFCInArchive
}

func extractFile(f *zip.File, dst string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", f.Name, err)
	}
	return out.Close()
}
