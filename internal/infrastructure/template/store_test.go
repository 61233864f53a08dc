package template

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewStore_ScaffoldsAndRenders(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	subject, body, err := s.Render(context.Background(), "tracking", map[string]string{
		"shopName":       "テストショップ",
		"orderId":        "ORD-1",
		"customerName":   "山田太郎",
		"carrier":        "ヤマト運輸",
		"trackingNumber": "1234-5678",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if subject == "" || body == "" {
		t.Fatalf("expected non-empty subject/body, got %q / %q", subject, body)
	}
	if want := "ORD-1"; !strings.Contains(subject, want) {
		t.Errorf("subject %q does not contain %q", subject, want)
	}
	if want := "1234-5678"; !strings.Contains(body, want) {
		t.Errorf("body %q does not contain %q", body, want)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	if _, _, err := s.Render(context.Background(), "does_not_exist", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestPolicyBlock_NonEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	block, err := s.PolicyBlock(context.Background())
	if err != nil {
		t.Fatalf("PolicyBlock: %v", err)
	}
	if block == "" {
		t.Fatal("expected non-empty policy block")
	}
}
