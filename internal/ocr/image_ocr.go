package ocr

import (
	"context"
	"fmt"
	"strconv"
)

// tesseractOCR transcribes one rendered page image.
func (e *Extractor) tesseractOCR(ctx context.Context, img string) (string, error) {
	// tesseract <file> stdout -l <lang> --psm <n>
	args := []string{img, "stdout", "-l", e.cfg.Lang, "--psm", strconv.Itoa(e.cfg.PSM)}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}
