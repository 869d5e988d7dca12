package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		// Valid emails
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"user123@example.co.uk", true},
		{"a@b.co", true},
		{"user@localhost", true}, // RFC 5322 allows single-label domains

		// Invalid emails - empty/whitespace
		{"", false},
		{"   ", false},

		// Invalid emails - missing parts
		{"user", false},
		{"user@", false},
		{"@example.com", false},

		// Invalid emails - dotted edge cases
		{".user@example.com", false},
		{"user.@example.com", false},
		{"user..name@example.com", false},
		{"user@.example.com", false},
		{"user@example..com", false},

		// Invalid emails - display name format
		{"User Name <user@example.com>", false},

		// Invalid emails - other malformed
		{"user @example.com", false},
		{"user@exam ple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

type createIssueInput struct {
	Title    string `validate:"required,max=200" label:"Title"`
	Status   string `validate:"required,oneof=Abierto En_Progreso" label:"Status"`
	Email    string `validate:"email" label:"Email"`
	Optional string `validate:"max=5" label:"Optional"`
}

func TestValidate_Passes(t *testing.T) {
	res := Validate(createIssueInput{
		Title:  "Crash on login",
		Status: "Abierto",
		Email:  "qa@example.com",
	})
	if res.HasErrors() {
		t.Fatalf("expected no errors, got %q", res.First())
	}
}

func TestValidate_Required(t *testing.T) {
	res := Validate(createIssueInput{Status: "Abierto"})
	if !res.HasErrors() {
		t.Fatal("expected error for missing title")
	}
	if res.First() != "Title is required." {
		t.Errorf("unexpected message: %q", res.First())
	}
}

func TestValidate_Max(t *testing.T) {
	res := Validate(createIssueInput{
		Title:    "ok",
		Status:   "Abierto",
		Optional: "toolong",
	})
	if !res.HasErrors() {
		t.Fatal("expected error for over-length optional field")
	}
}

func TestValidate_OneOf(t *testing.T) {
	res := Validate(createIssueInput{Title: "ok", Status: "Cerrado"})
	if !res.HasErrors() {
		t.Fatal("expected error for status outside oneof set")
	}
	if res.First() != "Status is invalid." {
		t.Errorf("unexpected message: %q", res.First())
	}
}

func TestValidate_EmailOptionalWhenEmpty(t *testing.T) {
	res := Validate(createIssueInput{Title: "ok", Status: "Abierto", Email: ""})
	if res.HasErrors() {
		t.Fatalf("empty optional email should pass, got %q", res.First())
	}
}

func TestValidate_OneFailurePerField(t *testing.T) {
	res := Validate(createIssueInput{})
	// Title and Status both fail, one message each.
	if len(res.All()) != 2 {
		t.Errorf("expected 2 messages, got %d: %v", len(res.All()), res.All())
	}
}
