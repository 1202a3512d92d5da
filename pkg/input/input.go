// Package input resolves the files an import reads from.
//
// Arguments are expanded like a shell would: a leading ~ is replaced by the
// home directory and glob patterns, including **, are matched against the
// file system. A pattern that matches nothing is kept literally so the
// failure surfaces when the file is opened. Compressed files are
// decompressed transparently based on their extension. No arguments, or
// "-", read standard input.
package input

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/mitchellh/go-homedir"

	"github.com/ajitpratap0/importdata/pkg/errors"
)

// StdinName names the standard input source.
const StdinName = "-"

// Source is one input stream.
type Source struct {
	// Name is the path, or "-" for standard input
	Name string
	// Compression is detected from the file extension
	Compression Algorithm

	open func() (io.ReadCloser, error)
}

// Open opens the source for reading, decompressing it if needed.
func (s Source) Open() (io.ReadCloser, error) {
	if s.open != nil {
		return s.open()
	}
	return openFile(s.Name, s.Compression)
}

// FromReader wraps an already open stream as a Source. The stream is
// not closed when the returned reader is closed.
func FromReader(name string, r io.Reader) Source {
	return Source{
		Name:        name,
		Compression: None,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		},
	}
}

// Stdin returns the standard input source.
func Stdin() Source {
	return FromReader(StdinName, os.Stdin)
}

// Expand turns command line arguments into sources.
func Expand(args []string) ([]Source, error) {
	if len(args) == 0 {
		return []Source{Stdin()}, nil
	}

	var sources []Source
	for _, arg := range args {
		if arg == StdinName {
			sources = append(sources, Stdin())
			continue
		}

		paths, err := Glob(arg)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			sources = append(sources, Source{Name: p, Compression: DetectAlgorithm(p)})
		}
	}
	return sources, nil
}

// Glob expands ~ and glob metacharacters in pattern. Matches are sorted. A
// pattern without matches is returned as is.
func Glob(pattern string) ([]string, error) {
	expanded, err := homedir.Expand(pattern)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to expand home directory").
			WithDetail("pattern", pattern)
	}

	if !hasMeta(expanded) {
		return []string{expanded}, nil
	}

	matches, err := zglob.Glob(expanded)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to glob").
			WithDetail("pattern", pattern)
	}
	if len(matches) == 0 {
		return []string{expanded}, nil
	}

	sort.Strings(matches)
	return matches, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[{`)
}

// fileReader closes both the decompressor and the file.
type fileReader struct {
	io.ReadCloser
	file *os.File
}

func (f *fileReader) Close() error {
	return errors.Append(f.ReadCloser.Close(), f.file.Close())
}

func openFile(name string, alg Algorithm) (io.ReadCloser, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot open input file").
			WithDetail("file", name)
	}

	r, err := NewReader(file, alg)
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "cannot read input file").
			WithDetail("file", name)
	}
	return &fileReader{ReadCloser: r, file: file}, nil
}
