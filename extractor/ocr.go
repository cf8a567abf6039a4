package extractor

import "errors"

// ErrOCRUnavailable indica que o binário foi compilado sem suporte a OCR
var ErrOCRUnavailable = errors.New("OCR indisponível nesta compilação")
