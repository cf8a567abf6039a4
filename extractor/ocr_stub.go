//go:build !tesseract

package extractor

// ExtractImage retorna ErrOCRUnavailable quando compilado sem a tag tesseract
func ExtractImage(data []byte) (string, error) {
	return "", ErrOCRUnavailable
}
