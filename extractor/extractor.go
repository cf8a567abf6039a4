package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType indica uma extensão de arquivo não permitida
var ErrUnsupportedType = errors.New("tipo de arquivo não permitido")

// Tipos de documento armazenados em tipo_documento
const (
	TypePDF   = "PDF"
	TypeImage = "IMAGEM"
	TypeXML   = "XML"
	TypeTXT   = "TXT"
)

var allowedExtensions = map[string]string{
	"png":  TypeImage,
	"jpg":  TypeImage,
	"jpeg": TypeImage,
	"gif":  TypeImage,
	"pdf":  TypePDF,
	"xml":  TypeXML,
	"txt":  TypeTXT,
}

// DocumentType retorna o tipo do documento a partir da extensão do arquivo
func DocumentType(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	docType, ok := allowedExtensions[ext]
	if !ok {
		return "", ErrUnsupportedType
	}
	return docType, nil
}

// ContentType retorna o MIME type usado ao armazenar o arquivo
func ContentType(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "pdf":
		return "application/pdf"
	case "xml":
		return "application/xml"
	case "txt":
		return "text/plain; charset=utf-8"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

// Result reúne o texto e os campos extraídos de um documento
type Result struct {
	Type     string
	Text     string
	Value    string
	Date     string
	Category string
	TextErr  error // falha na extração do texto; os demais campos ficam vazios
}

// Extract extrai o texto do arquivo e os campos que podem ser inferidos dele.
// Só retorna erro para extensões não permitidas.
func Extract(filename string, data []byte) (*Result, error) {
	docType, err := DocumentType(filename)
	if err != nil {
		return nil, err
	}

	text, textErr := ExtractText(docType, data)

	result := &Result{
		Type:     docType,
		TextErr:  textErr,
		Text:     text,
		Value:    ExtractValue(text),
		Date:     ExtractDate(text),
		Category: SuggestCategory(text),
	}

	// A NF-e tem campos estruturados, mais confiáveis que as expressões regulares
	if docType == TypeXML {
		if nfe, err := ParseNFe(data); err == nil {
			if nfe.Value != "" {
				result.Value = nfe.Value
			}
			if nfe.Date != "" {
				result.Date = nfe.Date
			}
			result.Category = "nota_fiscal"
		}
	}

	return result, nil
}

// ExtractText extrai o texto conforme o tipo do documento
func ExtractText(docType string, data []byte) (string, error) {
	switch docType {
	case TypePDF:
		return ExtractPDF(data)
	case TypeTXT:
		return ExtractTXT(data)
	case TypeXML:
		return ExtractXML(data)
	case TypeImage:
		return ExtractImage(data)
	default:
		return "", fmt.Errorf("tipo de documento desconhecido: %s", docType)
	}
}
