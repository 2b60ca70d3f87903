package barcode

import (
	"context"
	"errors"
	"fmt"
	"image"

	gozxing "github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNotFound is returned when no barcode of the requested symbology could
// be decoded from the image.
var ErrNotFound = errors.New("barcode: no barcode found")

type gozxingBackend struct{}

func (b *gozxingBackend) Decode(ctx context.Context, img image.Image, opts Options) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if img == nil {
		return Result{}, errors.New("barcode: nil image")
	}

	reader, err := readerFor(opts.Format)
	if err != nil {
		return Result{}, err
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Result{}, fmt.Errorf("barcode: building bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{}
	if opts.TryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	res, err := reader.Decode(bmp, hints)
	if err != nil {
		// gozxing reports NotFoundException for clean misses and a few
		// format/checksum exceptions for damaged symbols. All of them mean
		// the same thing to the caller.
		return Result{}, ErrNotFound
	}

	return Result{Format: opts.Format, Value: res.GetText()}, nil
}

func readerFor(f Format) (gozxing.Reader, error) {
	switch f {
	case FormatCode128:
		return oned.NewCode128Reader(), nil
	case FormatCode39:
		return oned.NewCode39Reader(), nil
	case FormatEAN13:
		return oned.NewEAN13Reader(), nil
	case FormatITF:
		return oned.NewITFReader(), nil
	case FormatQR:
		return qrcode.NewQRCodeReader(), nil
	case FormatDataMatrix:
		return datamatrix.NewDataMatrixReader(), nil
	default:
		return nil, fmt.Errorf("barcode: unsupported format %v", f)
	}
}
