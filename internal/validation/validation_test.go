package validation

import (
	"errors"
	"testing"

	trackpro "github.com/chimerakang/trackpro-go"
)

func TestStruct(t *testing.T) {
	ok := trackpro.SignupUser{
		FirstName: "An", LastName: "Nguyen", Username: "annguyen",
		Password: "secret1", ConfirmPassword: "secret1",
	}
	if err := Struct(ok); err != nil {
		t.Fatalf("Struct(valid) error: %v", err)
	}

	bad := ok
	bad.ConfirmPassword = "other"
	bad.Username = ""
	err := Struct(bad)
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("error = %v, want ErrInvalid", err)
	}
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("error type = %T", err)
	}
	if verr.Fields["ConfirmPassword"] != "eqfield" || verr.Fields["Username"] != "required" {
		t.Errorf("Fields = %v", verr.Fields)
	}
	if got := err.Error(); got != "invalid input: ConfirmPassword (eqfield), Username (required)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestStruct_PaymentAmount(t *testing.T) {
	if err := Struct(trackpro.PaymentCreate{Amount: 0}); !errors.Is(err, ErrInvalid) {
		t.Errorf("zero amount: error = %v, want ErrInvalid", err)
	}
	if err := Struct(trackpro.PaymentCreate{Amount: 1.5}); err != nil {
		t.Errorf("positive amount: %v", err)
	}
}

func TestStruct_ProjectStatus(t *testing.T) {
	p := trackpro.ProjectCreate{UserID: "u1", Name: "Site", Status: "archived"}
	if err := Struct(p); !errors.Is(err, ErrInvalid) {
		t.Errorf("unknown status: error = %v, want ErrInvalid", err)
	}
	p.Status = trackpro.ProjectProgressing
	p.Price = "12.5"
	if err := Struct(p); err != nil {
		t.Errorf("valid project: %v", err)
	}
}
