package util

import (
	"io"
	"os"
	"path/filepath"
	"text/template"

	"github.com/pkg/errors"
)

// WriterFunc renders content to a writer
type WriterFunc func(io.Writer) error

// NewTemplateWriter renders a text template with the given funcs
func NewTemplateWriter(input interface{}, name string, text string, funcs template.FuncMap) WriterFunc {
	return func(w io.Writer) error {
		tmpl, err := template.New(name).Funcs(funcs).Parse(text)
		if err != nil {
			return errors.Wrap(err, "Error parsing template")
		}
		if err := tmpl.Execute(w, input); err != nil {
			return errors.Wrap(err, "Error processing template")
		}
		return nil
	}
}

// NewByteWriter writes data as is
func NewByteWriter(data []byte) WriterFunc {
	return func(w io.Writer) error {
		n, err := w.Write(data)
		if err != nil {
			return errors.Wrapf(err, "Could not write data. Wrote %d bytes", n)
		}
		return nil
	}
}

// WriteFile renders into a temporary file next to target and renames it in place,
// so readers never see a half written file. Missing parent folders are created.
func WriteFile(target string, writerFunc WriterFunc) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "Failed to create folder %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return errors.Wrapf(err, "Error creating temporary file for %s", target)
	}
	defer os.Remove(tmp.Name())

	if err := writerFunc(tmp); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "Error writing %s", target)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "Error syncing %s", target)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "Error closing %s", target)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return errors.Wrapf(err, "Error moving report into %s", target)
	}
	return nil
}
