package model

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// SetGeneratedCode stores content as an lz4 frame. Empty content clears it.
func (f *File) SetGeneratedCode(content string) error {
	if content == "" {
		f.GeneratedCode = nil
		return nil
	}
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("compress generated code: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("compress generated code: %w", err)
	}
	f.GeneratedCode = buf.Bytes()
	return nil
}

// GeneratedContent decompresses the stored content.
func (f *File) GeneratedContent() (string, error) {
	if len(f.GeneratedCode) == 0 {
		return "", nil
	}
	r := lz4.NewReader(bytes.NewReader(f.GeneratedCode))
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompress generated code: %w", err)
	}
	return string(out), nil
}
