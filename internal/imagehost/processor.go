package imagehost

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Processor validates uploads and shrinks images larger than MaxDimension.
type Processor struct {
	MaxBytes     int64
	MaxDimension int
}

func NewProcessor(maxBytes int64, maxDimension int) *Processor {
	return &Processor{MaxBytes: maxBytes, MaxDimension: maxDimension}
}

// Prepare checks that file is a decodable image within the size limit and
// returns it, downscaled and re-encoded when either side exceeds MaxDimension.
func (p *Processor) Prepare(file File) (File, error) {
	if len(file.Data) == 0 {
		return File{}, fmt.Errorf("%w: empty file", ErrInvalidImage)
	}
	if p.MaxBytes > 0 && int64(len(file.Data)) > p.MaxBytes {
		return File{}, fmt.Errorf("%w: exceeds %d bytes", ErrInvalidImage, p.MaxBytes)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	file.ContentType = "image/" + format
	if p.MaxDimension <= 0 || (cfg.Width <= p.MaxDimension && cfg.Height <= p.MaxDimension) {
		return file, nil
	}

	img, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	resized := imaging.Fit(img, p.MaxDimension, p.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if format == "png" {
		err = png.Encode(&buf, resized)
		file.ContentType = "image/png"
	} else {
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 90})
		file.ContentType = "image/jpeg"
		file.Name = strings.TrimSuffix(file.Name, path.Ext(file.Name)) + ".jpg"
	}
	if err != nil {
		return File{}, fmt.Errorf("encode resized image: %w", err)
	}
	file.Data = buf.Bytes()
	return file, nil
}
