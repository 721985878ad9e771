package models

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Komunikaty walidacji zwracane klientom API
const (
	MsgRequired = "This field is required."
	MsgBlank    = "This field may not be blank."
	MsgNegative = "Ensure this value is greater than or equal to 0."
)

// ValidationError zbiera błędy walidacji per pole
type ValidationError struct {
	Fields map[string][]string
}

// Add dodaje komunikat dla pola
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// Empty sprawdza czy nie zebrano żadnych błędów
func (v *ValidationError) Empty() bool {
	return len(v.Fields) == 0
}

// Err zwraca nil gdy nie ma błędów
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(v.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// checkText waliduje wymagane pole tekstowe z limitem długości
func checkText(v *ValidationError, field, value string, max int) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, MsgBlank)
		return
	}
	if utf8.RuneCountInString(value) > max {
		v.Add(field, "Ensure this field has no more than "+strconv.Itoa(max)+" characters.")
	}
}
