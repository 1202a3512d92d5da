package input

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/ajitpratap0/importdata/pkg/errors"
)

// Algorithm is the compression of an input file.
type Algorithm string

const (
	// None is a plain text file
	None Algorithm = "none"
	// Gzip is a .gz file
	Gzip Algorithm = "gzip"
	// Zstd is a .zst file
	Zstd Algorithm = "zstd"
	// LZ4 is a .lz4 frame file
	LZ4 Algorithm = "lz4"
	// XZ is a .xz file
	XZ Algorithm = "xz"
	// S2 is a framed snappy (.sz) or s2 (.s2) file
	S2 Algorithm = "s2"
)

var extensions = map[string]Algorithm{
	".gz":   Gzip,
	".gzip": Gzip,
	".zst":  Zstd,
	".zstd": Zstd,
	".lz4":  LZ4,
	".xz":   XZ,
	".sz":   S2,
	".s2":   S2,
}

// DetectAlgorithm picks the decompressor from a file name's extension.
func DetectAlgorithm(name string) Algorithm {
	if alg, ok := extensions[strings.ToLower(filepath.Ext(name))]; ok {
		return alg
	}
	return None
}

// NewReader wraps r with a decompressor. Closing the returned reader does
// not close r.
func NewReader(r io.Reader, alg Algorithm) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(r), nil
	case Gzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "invalid gzip stream")
		}
		return gz, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "invalid zstd stream")
		}
		return dec.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case XZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "invalid xz stream")
		}
		return io.NopCloser(xr), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported compression: %s", alg)
	}
}

// NewWriter wraps w with a compressor. The returned writer must be closed to
// flush the stream; closing it does not close w.
func NewWriter(w io.Writer, alg Algorithm) (io.WriteCloser, error) {
	switch alg {
	case None, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create zstd encoder")
		}
		return enc, nil
	case LZ4:
		return lz4.NewWriter(w), nil
	case XZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to create xz writer")
		}
		return xw, nil
	case S2:
		return s2.NewWriter(w), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported compression: %s", alg)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
