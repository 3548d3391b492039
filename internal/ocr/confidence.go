package ocr

import (
	"regexp"
	"unicode"
)

// runs of box-drawing glyphs tesseract emits for table borders
var reBoxNoise = regexp.MustCompile(`[\x{2500}-\x{257F}\x{2580}-\x{259F}|]{3,}`)

// IsImageOnly reports whether the extracted pages carry too little text to be
// a digital report, averaged over all pages.
func IsImageOnly(pages []string, minCharsPerPage int) bool {
	if len(pages) == 0 {
		return true
	}
	return textChars(pages) < minCharsPerPage*len(pages)
}

func textChars(pages []string) int {
	n := 0
	for _, p := range pages {
		for _, r := range p {
			if !unicode.IsSpace(r) {
				n++
			}
		}
	}
	return n
}
