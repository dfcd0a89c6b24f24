package encoding

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCharsetReader_Latin1(t *testing.T) {
	r, err := CharsetReader("ISO-8859-1", bytes.NewReader([]byte{'h', 0xE9, 'r', 'o'}))
	if err != nil {
		t.Fatalf("CharsetReader failed: %v", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(out) != "héro" {
		t.Errorf("expected 'héro', got %q", out)
	}
}

func TestCharsetReader_UTF8Passthrough(t *testing.T) {
	in := strings.NewReader("héro")
	r, err := CharsetReader("UTF-8", in)
	if err != nil {
		t.Fatalf("CharsetReader failed: %v", err)
	}
	if r != io.Reader(in) {
		t.Error("expected UTF-8 input to be returned unchanged")
	}
}

func TestCharsetReader_Unknown(t *testing.T) {
	_, err := CharsetReader("x-not-a-charset", strings.NewReader(""))
	if !errors.Is(err, ErrUnsupportedCharset) {
		t.Errorf("expected ErrUnsupportedCharset, got %v", err)
	}
}

func TestCharsetReader_EUCKR(t *testing.T) {
	// "한" in EUC-KR
	r, err := CharsetReader("euc-kr", bytes.NewReader([]byte{0xC7, 0xD1}))
	if err != nil {
		t.Fatalf("CharsetReader failed: %v", err)
	}
	out, _ := io.ReadAll(r)
	if string(out) != "한" {
		t.Errorf("expected '한', got %q", out)
	}
}

func TestNormalizePath(t *testing.T) {
	if got := NormalizePath(`hero\head.png`); got != "hero/head.png" {
		t.Errorf("expected hero/head.png, got %s", got)
	}
}
