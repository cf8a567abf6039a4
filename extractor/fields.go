package extractor

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	currencyPattern = regexp.MustCompile(`R\$\s*(\d{1,3}(?:\.\d{3})*,\d{2})`)
	numberPattern   = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})`)

	dateBR     = regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{4})\b`)
	dateDashed = regexp.MustCompile(`\b(\d{2})-(\d{2})-(\d{4})\b`)
	dateISO    = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
)

// ExtractValue retorna o primeiro valor monetário encontrado no texto
func ExtractValue(text string) string {
	if m := currencyPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return numberPattern.FindString(text)
}

// ExtractDate retorna a primeira data do texto no formato YYYY-MM-DD
func ExtractDate(text string) string {
	if m := dateBR.FindStringSubmatch(text); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	if m := dateDashed.FindStringSubmatch(text); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	if m := dateISO.FindStringSubmatch(text); m != nil {
		return m[0]
	}
	return ""
}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"nota_fiscal", []string{"nota fiscal", "nf-e", "nfe", "danfe", "chave de acesso"}},
	{"folha_pagamento", []string{"folha de pagamento", "holerite", "salário", "salario", "inss", "fgts"}},
	{"extrato_bancario", []string{"extrato", "saldo anterior", "saldo final", "agência", "agencia"}},
	{"comprovante_pagamento", []string{"comprovante", "pagamento efetuado", "autenticação", "recibo"}},
}

// SuggestCategory sugere a categoria do documento por palavras-chave
func SuggestCategory(text string) string {
	lower := strings.ToLower(text)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.category
			}
		}
	}
	return "Sem Categoria"
}

// ParseAmount converte um valor extraído, como 1.234,56 ou 1520.30, em decimal
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	if strings.Contains(s, ",") {
		// Padrão brasileiro: ponto separa milhares, vírgula separa decimais
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else if i := strings.LastIndex(s, "."); i >= 0 && len(s)-i-1 != 2 {
		// Apenas separadores de milhar
		s = strings.ReplaceAll(s, ".", "")
	} else if i >= 0 {
		s = strings.ReplaceAll(s[:i], ".", "") + s[i:]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
