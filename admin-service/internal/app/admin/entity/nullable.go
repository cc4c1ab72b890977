package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// NullString различает три состояния поля JSON для PATCH-запросов:
// поле отсутствует (Set=false), передан null (Set=true, Valid=false),
// передана строка (Set=true, Valid=true)
type NullString struct {
	Set   bool
	Valid bool
	Value string
}

// NewNullString возвращает установленное строковое значение
func NewNullString(value string) NullString {
	return NullString{Set: true, Valid: true, Value: value}
}

// Null возвращает явно переданный null
func Null() NullString {
	return NullString{Set: true}
}

// UnmarshalJSON вызывается только для присутствующих в теле полей
func (n *NullString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Valid = false
		n.Value = ""
		return nil
	}

	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON пишет null для невалидного значения
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Trimmed возвращает значение без пробелов по краям; null дает пустую строку
func (n NullString) Trimmed() string {
	if !n.Valid {
		return ""
	}
	return strings.TrimSpace(n.Value)
}

// Ptr возвращает значение как есть; null дает nil
func (n NullString) Ptr() *string {
	if !n.Valid {
		return nil
	}
	value := n.Value
	return &value
}

// TrimmedPtr сводит null и пустую после trim строку к nil
func (n NullString) TrimmedPtr() *string {
	return TrimToNil(&n.Value, n.Valid)
}

// TrimToNil обрезает строку и возвращает nil для пустого результата
func TrimToNil(value *string, valid bool) *string {
	if value == nil || !valid {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// OptionalString обрезает необязательную строку из запроса
func OptionalString(value *string) *string {
	return TrimToNil(value, true)
}

// StringList список строк, хранимый в колонке jsonb
type StringList []string

// Value сериализует список в JSON; nil хранится как пустой массив
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan читает jsonb, пришедший строкой или байтами
func (l *StringList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", src)
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to decode StringList: %w", err)
	}
	if items == nil {
		items = []string{}
	}
	*l = items
	return nil
}
