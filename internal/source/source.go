// Package source reads DDL text from files, directories and stdin.
package source

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/zeebo/xxh3"
)

// StdinName is the name given to DDL read from standard input.
const StdinName = "<stdin>"

// Source is one logical DDL input. Err is set when the input could not be
// read; Text is then empty.
type Source struct {
	Name string
	Text []byte
	Err  error
}

// Failed joins the read errors of srcs, or returns nil when every source was
// read.
func Failed(srcs []Source) error {
	var errs []error
	for _, src := range srcs {
		if src.Err != nil {
			errs = append(errs, src.Err)
		}
	}
	return errors.Join(errs...)
}

// Provider resolves paths to sources on a filesystem.
type Provider struct {
	Fs    afero.Fs
	Stdin io.Reader
	// Ext is the file extension collected from directories.
	Ext string
}

// NewProvider returns a provider over the OS filesystem.
func NewProvider(stdin io.Reader) *Provider {
	return &Provider{Fs: afero.NewOsFs(), Stdin: stdin, Ext: ".sql"}
}

// Collect resolves paths in order. "-" or an empty list reads stdin, a
// directory contributes its *.sql files in lexical order (recursively), and
// anything else is read as a file. An input that cannot be read is kept as a
// Source carrying Err so the remaining inputs are still linted.
func (p *Provider) Collect(paths []string) []Source {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	var out []Source
	for _, path := range paths {
		if path == "-" {
			out = append(out, p.ReadStdin())
			continue
		}
		info, err := p.Fs.Stat(path)
		if err != nil {
			out = append(out, Source{Name: path, Err: fmt.Errorf("reading %s: %w", path, err)})
			continue
		}
		if !info.IsDir() {
			out = append(out, p.ReadFile(path))
			continue
		}
		out = append(out, p.ReadDir(path)...)
	}
	return out
}

// ReadFile reads one file.
func (p *Provider) ReadFile(path string) Source {
	data, err := afero.ReadFile(p.Fs, path)
	if err != nil {
		return Source{Name: path, Err: fmt.Errorf("reading %s: %w", path, err)}
	}
	return Source{Name: path, Text: data}
}

// ReadDir reads every file with the provider's extension below dir. A
// directory that cannot be listed yields a single failed Source.
func (p *Provider) ReadDir(dir string) []Source {
	files, err := p.Files(dir)
	if err != nil {
		return []Source{{Name: dir, Err: err}}
	}
	out := make([]Source, 0, len(files))
	for _, path := range files {
		out = append(out, p.ReadFile(path))
	}
	return out
}

// Files lists the DDL files below dir in lexical order.
func (p *Provider) Files(dir string) ([]string, error) {
	var files []string
	err := afero.Walk(p.Fs, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && p.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Matches reports whether path has the provider's extension.
func (p *Provider) Matches(path string) bool {
	ext := p.Ext
	if ext == "" {
		ext = ".sql"
	}
	return strings.EqualFold(filepath.Ext(path), ext)
}

// ReadStdin reads all of standard input.
func (p *Provider) ReadStdin() Source {
	if p.Stdin == nil {
		return Source{Name: StdinName, Err: fmt.Errorf("reading %s: no input attached", StdinName)}
	}
	data, err := io.ReadAll(p.Stdin)
	if err != nil {
		return Source{Name: StdinName, Err: fmt.Errorf("reading %s: %w", StdinName, err)}
	}
	return Source{Name: StdinName, Text: data}
}

// Fingerprint hashes the names and contents of sources in order. Equal
// fingerprints mean nothing a lint run reads has changed.
func Fingerprint(sources []Source) uint64 {
	h := xxh3.New()
	for _, src := range sources {
		_, _ = h.Write([]byte(src.Name))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(src.Text)
		_, _ = h.Write([]byte{0})
		if src.Err != nil {
			_, _ = h.Write([]byte(src.Err.Error()))
		}
	}
	return h.Sum64()
}
