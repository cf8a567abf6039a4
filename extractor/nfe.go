package extractor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// NFe contém os campos lidos de uma nota fiscal eletrônica
type NFe struct {
	Value         string
	Date          string
	Emitente      string
	Destinatarios []string
}

// ParseNFe lê valor total, data de emissão e nomes de um XML de NF-e
func ParseNFe(data []byte) (*NFe, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("erro ao ler XML: %w", err)
	}

	nfe := &NFe{}
	if el := doc.FindElement("//vNF"); el != nil {
		nfe.Value = strings.TrimSpace(el.Text())
	}

	// dhEmi (NF-e 3.10+) traz data e hora; dEmi é o formato antigo
	if el := doc.FindElement("//dhEmi"); el != nil {
		nfe.Date = datePart(el.Text())
	} else if el := doc.FindElement("//dEmi"); el != nil {
		nfe.Date = datePart(el.Text())
	}

	for i, el := range doc.FindElements("//xNome") {
		name := strings.TrimSpace(el.Text())
		if name == "" {
			continue
		}
		if i == 0 {
			nfe.Emitente = name
		} else {
			nfe.Destinatarios = append(nfe.Destinatarios, name)
		}
	}

	if nfe.Value == "" && nfe.Date == "" && nfe.Emitente == "" {
		return nil, errors.New("XML não parece ser uma NF-e")
	}
	return nfe, nil
}

// ExtractXML produz um texto legível a partir de um XML, destacando os campos da NF-e
func ExtractXML(data []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "", fmt.Errorf("erro ao ler XML: %w", err)
	}

	var b strings.Builder
	if nfe, err := ParseNFe(data); err == nil {
		if nfe.Emitente != "" {
			fmt.Fprintf(&b, "Emitente: %s\n", nfe.Emitente)
		}
		for _, name := range nfe.Destinatarios {
			fmt.Fprintf(&b, "Destinatário: %s\n", name)
		}
		if nfe.Value != "" {
			fmt.Fprintf(&b, "Valor total: %s\n", nfe.Value)
		}
		if nfe.Date != "" {
			fmt.Fprintf(&b, "Data de emissão: %s\n", nfe.Date)
		}
	}

	collectText(doc.Root(), &b)

	text := cleanText(b.String())
	if text == "" {
		return "", errors.New("nenhum texto extraído do XML")
	}
	return text, nil
}

func collectText(el *etree.Element, b *strings.Builder) {
	if el == nil {
		return
	}
	if text := strings.TrimSpace(el.Text()); text != "" {
		b.WriteString(el.Tag)
		b.WriteString(": ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	for _, child := range el.ChildElements() {
		collectText(child, b)
	}
}

func datePart(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 10 {
		return s[:10]
	}
	return s
}
