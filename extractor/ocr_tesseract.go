//go:build tesseract

package extractor

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// ExtractImage reconhece o texto de uma imagem com o Tesseract em português
func ExtractImage(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage("por"); err != nil {
		return "", fmt.Errorf("erro ao configurar idioma do OCR: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("erro ao carregar imagem: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("erro no OCR: %w", err)
	}
	return cleanText(strings.TrimSpace(text)), nil
}
