package pages

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spaceyvirtualera/spacey/internal/templates/layouts"
)

func TestDashboard_EscapesViewer(t *testing.T) {
	ctx := layouts.SetViewer(context.Background(), "<script>alert(1)</script>", "jane@x.com")

	var buf bytes.Buffer
	if err := Dashboard().Render(ctx, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Fatal("viewer name was not escaped")
	}
	if !strings.Contains(out, "jane@x.com") {
		t.Error("expected email in dashboard")
	}
	if !strings.Contains(out, "Sign out") {
		t.Error("expected signed-in navigation")
	}
}

func TestLogin_ReturnTo(t *testing.T) {
	ctx := layouts.SetReturnTo(context.Background(), "/settings?tab=security")

	var buf bytes.Buffer
	if err := Login().Render(ctx, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `data-return-to="/settings?tab=security"`) {
		t.Errorf("expected return-to attribute, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), `href="/signup"`) {
		t.Error("expected anonymous navigation")
	}
}

func TestLogin_DefaultReturnTo(t *testing.T) {
	var buf bytes.Buffer
	if err := Login().Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `data-return-to="/dashboard"`) {
		t.Error("expected dashboard as default return-to")
	}
}

func TestSafeReturnTo(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"/dashboard":           "/dashboard",
		"/settings?tab=a":      "/settings?tab=a",
		"//evil.example/x":     "",
		"/\\evil.example":      "",
		"https://evil.example": "",
		"dashboard":            "",
	}
	for in, want := range tests {
		if got := SafeReturnTo(in); got != want {
			t.Errorf("SafeReturnTo(%q) = %q, want %q", in, got, want)
		}
	}
}
