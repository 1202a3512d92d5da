// Package json provides JSON serialization backed by goccy/go-json, used for
// import reports and machine readable output.
package json

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/importdata/pkg/errors"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Encode writes v to w as indented JSON followed by a newline.
func Encode(w io.Writer, v interface{}) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteFile encodes v into path, "-" meaning stdout. The file is written
// to a temporary name first and renamed into place.
func WriteFile(path string, v interface{}) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := Encode(buf, v); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode report")
	}

	if path == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create report").
			WithDetail("path", path)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write report").
			WithDetail("path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write report").
			WithDetail("path", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write report").
			WithDetail("path", path)
	}
	return nil
}
