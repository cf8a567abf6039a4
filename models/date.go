package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout é o formato de data aceito e emitido pela API
const DateLayout = "2006-01-02"

// Date representa uma data de calendário sem horário (coluna SQL date)
type Date struct {
	time.Time
}

// NewDate trunca t para a data de calendário, em UTC
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate interpreta uma data no formato YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("formato de data inválido %q: %w", s, err)
	}
	return NewDate(t), nil
}

// AddDays retorna a data deslocada em n dias
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil retorna quantos dias faltam de d até other (negativo se other for anterior)
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// Before informa se d é anterior a other
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// Equal informa se as duas datas são o mesmo dia
func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// FirstOfMonth retorna o primeiro dia do mês de d
func (d Date) FirstOfMonth() Date {
	return Date{Time: time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)}
}

// MonthRef retorna o mês de referência no formato YYYY-MM
func (d Date) MonthRef() string {
	return d.Format("2006-01")
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON emite a data como "YYYY-MM-DD"
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON aceita "YYYY-MM-DD" ou null
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implementa driver.Valuer
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implementa sql.Scanner
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v)
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("tipo não suportado para Date: %T", value)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	if len(s) < len(DateLayout) {
		return fmt.Errorf("data inválida: %q", s)
	}
	parsed, err := ParseDate(s[:len(DateLayout)])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GormDataType define o tipo da coluna
func (Date) GormDataType() string {
	return "date"
}
