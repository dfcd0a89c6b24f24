// Package encoding provides text encoding utilities for authoring documents
// written by older tools that do not emit UTF-8.
package encoding

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ErrUnsupportedCharset is returned for an encoding label with no decoder.
var ErrUnsupportedCharset = errors.New("unsupported charset")

// CharsetReader returns a reader that converts input from the named charset
// to UTF-8. Its signature matches xml.Decoder.CharsetReader.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	name := strings.ToLower(strings.TrimSpace(label))
	if name == "" || name == "utf-8" || name == "utf8" {
		return input, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// NormalizePath converts Windows separators so image references written by
// Windows tools resolve on every platform.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
