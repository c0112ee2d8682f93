package container

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Register decoders for the image formats cards are scanned in.
	_ "image/gif"
	_ "image/png"
)

// reencodeJPEG decodes an image and re-encodes it as JPEG at the given
// quality. Export always runs card images through this so archives carry
// a predictable format at a fixed lossy quality.
func reencodeJPEG(data []byte, quality int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// thumbnailQuality and thumbnailMaxDim bound the preview thumbnails
// produced for bundle import.
const (
	thumbnailQuality = 60
	thumbnailMaxDim  = 256
)

// thumbnail produces a small JPEG preview of an image, scaled so the
// long side is at most thumbnailMaxDim pixels.
func thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > thumbnailMaxDim || height > thumbnailMaxDim {
		img = scaleNearest(img, thumbnailMaxDim)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleNearest downscales an image with nearest-neighbor sampling so the
// long side equals maxDim. Good enough for thumbnails; no interpolation.
func scaleNearest(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var dstW, dstH int
	if width >= height {
		dstW = maxDim
		dstH = max(height*maxDim/width, 1)
	} else {
		dstH = maxDim
		dstW = max(width*maxDim/height, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	for y := range dstH {
		srcY := bounds.Min.Y + y*height/dstH
		for x := range dstW {
			srcX := bounds.Min.X + x*width/dstW
			dst.Set(x, y, img.At(srcX, srcY))
		}
	}
	return dst
}
