// Package barcode decodes the sheet ID barcode printed on scanned answer
// sheets. Decoding is restricted to the single symbology configured for the
// exam type; anything else found in the image is ignored.
package barcode

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Format represents a barcode symbology.
type Format int

const (
	FormatUnknown Format = iota
	FormatCode128
	FormatCode39
	FormatEAN13
	FormatITF
	FormatQR
	FormatDataMatrix
)

// ParseFormat maps a configuration string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "code128":
		return FormatCode128, nil
	case "code39":
		return FormatCode39, nil
	case "ean13":
		return FormatEAN13, nil
	case "itf":
		return FormatITF, nil
	case "qr":
		return FormatQR, nil
	case "datamatrix":
		return FormatDataMatrix, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown barcode format %q", s)
	}
}

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case FormatCode128:
		return "code128"
	case FormatCode39:
		return "code39"
	case FormatEAN13:
		return "ean13"
	case FormatITF:
		return "itf"
	case FormatQR:
		return "qr"
	case FormatDataMatrix:
		return "datamatrix"
	default:
		return "unknown"
	}
}

// Options controls backend decoding behavior.
type Options struct {
	// Format constrains decoding to a single symbology.
	Format Format

	// TryHarder enables more exhaustive search (slower but more robust).
	TryHarder bool
}

// Result represents a decoded barcode.
type Result struct {
	Format Format
	Value  string
}

// Backend is a pluggable barcode decoder implementation.
type Backend interface {
	Decode(ctx context.Context, img image.Image, opts Options) (Result, error)
}

// NewBackend returns the default gozxing-backed decoder.
func NewBackend() Backend { return &gozxingBackend{} }
