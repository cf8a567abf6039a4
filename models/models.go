package models

import "github.com/shopspring/decimal"

func init() {
	// Valores monetários saem como números no JSON
	decimal.MarshalJSONWithoutQuotes = true
}

// All lista os modelos persistidos, na ordem de criação das tabelas
func All() []interface{} {
	return []interface{}{
		&Cliente{},
		&Obrigacao{},
		&Documento{},
		&Mensalidade{},
		&Notificacao{},
		&Operador{},
	}
}
