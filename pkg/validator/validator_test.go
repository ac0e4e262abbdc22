package validator

import "testing"

func TestValidateRegister(t *testing.T) {
	tests := []struct {
		name      string
		inName    string
		email     string
		password  string
		wantField string
	}{
		{"valid", "Alice", "alice@example.com", "Sup3rSecret", ""},
		{"missing name", "", "alice@example.com", "Sup3rSecret", "name"},
		{"short name", "A", "alice@example.com", "Sup3rSecret", "name"},
		{"missing email", "Alice", "", "Sup3rSecret", "email"},
		{"bad email", "Alice", "not-an-email", "Sup3rSecret", "email"},
		{"short password", "Alice", "alice@example.com", "Ab1", "password"},
		{"no uppercase", "Alice", "alice@example.com", "sup3rsecret", "password"},
		{"no digit", "Alice", "alice@example.com", "SuperSecret", "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRegister(tt.inName, tt.email, tt.password)
			if tt.wantField == "" {
				if errs.HasErrors() {
					t.Errorf("expected no errors, got %v", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("expected an error on %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateLogin(t *testing.T) {
	if errs := ValidateLogin("alice@example.com", "whatever"); errs.HasErrors() {
		t.Errorf("expected no errors, got %v", errs)
	}
	if errs := ValidateLogin("", "whatever"); len(errs["email"]) == 0 {
		t.Errorf("expected an email error, got %v", errs)
	}
	if errs := ValidateLogin("alice@example.com", ""); len(errs["password"]) == 0 {
		t.Errorf("expected a password error, got %v", errs)
	}
}
