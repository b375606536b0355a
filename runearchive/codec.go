// Package runearchive implements the rune bundle format from spec §6: a ZIP
// archive containing metadata.yaml, rune.yaml, and optional transformers.py/
// rune.py text blobs, round-tripping losslessly through Zip/Unzip.
package runearchive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/contenox/orchestrator/orchestrator"
	"gopkg.in/yaml.v3"
)

const (
	metadataFile     = "metadata.yaml"
	templateFile     = "rune.yaml"
	transformersFile = "transformers.py"
	reactFile        = "rune.py"
)

// LoadDir reads a bundle from an on-disk directory: metadata.yaml and
// rune.yaml are required, transformers.py and rune.py are optional.
func LoadDir(dir string) (*orchestrator.RuneBundle, error) {
	metaBytes, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", orchestrator.ErrIO, metadataFile, err)
	}
	var meta orchestrator.Metadata
	if err := yaml.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", orchestrator.ErrSerialization, metadataFile, err)
	}

	templateBytes, err := os.ReadFile(filepath.Join(dir, templateFile))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", orchestrator.ErrIO, templateFile, err)
	}
	var templates []orchestrator.Template
	if err := yaml.Unmarshal(templateBytes, &templates); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", orchestrator.ErrSerialization, templateFile, err)
	}

	bundle := &orchestrator.RuneBundle{Metadata: meta, Templates: templates}

	if b, err := readOptional(filepath.Join(dir, transformersFile)); err != nil {
		return nil, err
	} else {
		bundle.Transformers = b
	}
	if b, err := readOptional(filepath.Join(dir, reactFile)); err != nil {
		return nil, err
	} else {
		bundle.React = b
	}

	return bundle, nil
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("%w: reading %s: %w", orchestrator.ErrIO, path, err)
	}
	return string(data), nil
}

// Zip serializes a bundle as a ZIP archive with the same four entries LoadDir
// reads, omitting the optional ones when empty.
func Zip(bundle *orchestrator.RuneBundle) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	metaBytes, err := yaml.Marshal(bundle.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}
	if err := writeEntry(w, metadataFile, metaBytes); err != nil {
		return nil, err
	}

	templateBytes, err := yaml.Marshal(bundle.Templates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrSerialization, err)
	}
	if err := writeEntry(w, templateFile, templateBytes); err != nil {
		return nil, err
	}

	if bundle.Transformers != "" {
		if err := writeEntry(w, transformersFile, []byte(bundle.Transformers)); err != nil {
			return nil, err
		}
	}
	if bundle.React != "" {
		if err := writeEntry(w, reactFile, []byte(bundle.React)); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrArchive, err)
	}
	return buf.Bytes(), nil
}

func writeEntry(w *zip.Writer, name string, data []byte) error {
	f, err := w.Create(name)
	if err != nil {
		return fmt.Errorf("%w: %w", orchestrator.ErrArchive, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("%w: %w", orchestrator.ErrArchive, err)
	}
	return nil
}

// Unzip parses a bundle from ZIP bytes produced by Zip (or an equivalent
// archive containing the same entries).
func Unzip(data []byte) (*orchestrator.RuneBundle, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", orchestrator.ErrArchive, err)
	}

	metaBytes, err := readZipEntry(r, metadataFile)
	if err != nil {
		return nil, err
	}
	if metaBytes == nil {
		return nil, fmt.Errorf("%w: archive missing required %s", orchestrator.ErrArchive, metadataFile)
	}
	var meta orchestrator.Metadata
	if err := yaml.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", orchestrator.ErrSerialization, metadataFile, err)
	}

	templateBytes, err := readZipEntry(r, templateFile)
	if err != nil {
		return nil, err
	}
	if templateBytes == nil {
		return nil, fmt.Errorf("%w: archive missing required %s", orchestrator.ErrArchive, templateFile)
	}
	var templates []orchestrator.Template
	if err := yaml.Unmarshal(templateBytes, &templates); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", orchestrator.ErrSerialization, templateFile, err)
	}

	bundle := &orchestrator.RuneBundle{Metadata: meta, Templates: templates}

	transformers, err := readZipEntry(r, transformersFile)
	if err != nil {
		return nil, err
	}
	if transformers != nil {
		bundle.Transformers = string(transformers)
	}

	react, err := readZipEntry(r, reactFile)
	if err != nil {
		return nil, err
	}
	if react != nil {
		bundle.React = string(react)
	}

	return bundle, nil
}

// readZipEntry returns nil, nil if name isn't present in the archive.
func readZipEntry(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %w", orchestrator.ErrArchive, name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", orchestrator.ErrArchive, name, err)
		}
		return data, nil
	}
	return nil, nil
}
