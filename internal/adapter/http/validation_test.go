package http

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestDecimalBoundsValidation(t *testing.T) {
	type P struct {
		Amount decimal.Decimal `validate:"gt=0"`
	}
	cv := NewValidator()

	for _, s := range []string{"0.01", "1", "5000000"} {
		if err := cv.Validate(P{Amount: decimal.RequireFromString(s)}); err != nil {
			t.Fatalf("expected %s to pass, got %v", s, err)
		}
	}
	for _, s := range []string{"0", "-0.01", "-100"} {
		err := cv.Validate(P{Amount: decimal.RequireFromString(s)})
		if err == nil {
			t.Fatalf("expected error for %s", s)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "Amount", "greater than 0") {
			t.Fatalf("expected gt message for %s, got %+v", s, fe)
		}
	}
}

func TestDec2Validation(t *testing.T) {
	type P struct {
		Amount decimal.Decimal `validate:"dec2"`
	}
	cv := NewValidator()

	for _, s := range []string{"1.29", "2.00", "0.9", "1000000.01"} {
		if err := cv.Validate(P{Amount: decimal.RequireFromString(s)}); err != nil {
			t.Fatalf("expected dec2 OK for %s, got %v", s, err)
		}
	}
	for _, s := range []string{"1.234", "2.9999", "1000.005"} {
		err := cv.Validate(P{Amount: decimal.RequireFromString(s)})
		if err == nil {
			t.Fatalf("expected dec2 error for %s", s)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "Amount", "at most 2 decimal places") {
			t.Fatalf("expected 'at most 2 decimal places' for %s, got %+v", s, fe)
		}
	}
}

func TestDec6Validation(t *testing.T) {
	type P struct {
		Rate decimal.Decimal `validate:"dec6"`
	}
	cv := NewValidator()

	for _, s := range []string{"0", "0.02", "0.012346", "0.999999"} {
		if err := cv.Validate(P{Rate: decimal.RequireFromString(s)}); err != nil {
			t.Fatalf("expected dec6 OK for %s, got %v", s, err)
		}
	}
	for _, s := range []string{"0.0123456789", "0.0000001"} {
		err := cv.Validate(P{Rate: decimal.RequireFromString(s)})
		if err == nil {
			t.Fatalf("expected dec6 error for %s", s)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "Rate", "at most 6 decimal places") {
			t.Fatalf("expected 'at most 6 decimal places' for %s, got %+v", s, fe)
		}
	}
}

func TestRequiredAndBoundsMapping(t *testing.T) {
	type P struct {
		Name    string          `validate:"required"`
		Min     int             `validate:"gte=10"`
		Max     int             `validate:"lte=5"`
		Rate    decimal.Decimal `validate:"gte=0,lte=1"`
		Profile string          `validate:"oneof=conservative moderate aggressive"`
	}
	cv := NewValidator()

	err := cv.Validate(P{
		Min:     9,
		Max:     6,
		Rate:    decimal.RequireFromString("1.5"),
		Profile: "yolo",
	})
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	fe := ToFieldErrors(err)

	if !containsFieldMsg(fe, "Name", "is required") {
		t.Fatalf("missing 'is required' for Name: %+v", fe)
	}
	if !containsFieldMsg(fe, "Min", "greater than or equal to 10") {
		t.Fatalf("missing gte message for Min: %+v", fe)
	}
	if !containsFieldMsg(fe, "Max", "less than or equal to 5") {
		t.Fatalf("missing lte message for Max: %+v", fe)
	}
	if !containsFieldMsg(fe, "Rate", "less than or equal to 1") {
		t.Fatalf("missing lte message for Rate: %+v", fe)
	}
	if !containsFieldMsg(fe, "Profile", "must be one of") {
		t.Fatalf("missing oneof message for Profile: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	err := errors.New("boom")
	fe := ToFieldErrors(err)
	if len(fe) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fe))
	}
	if fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe[0])
	}
}
