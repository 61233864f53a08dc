// Package template is A6: the hot-reloadable table of email templates and
// the assistant policy block. It scaffolds a default template directory on
// first run (never overwriting user edits afterward) and watches it with
// fsnotify so an operator can edit a template file while calls are live.
package template

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/retailvoice/callbridge/internal/domain/repository"
)

// entry is one named email template as stored on disk.
type entry struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// file is the on-disk shape of templates.yaml.
type file struct {
	Policy    string           `yaml:"policy"`
	Templates map[string]entry `yaml:"templates"`
}

// Store is a YAML-backed, fsnotify-reloaded implementation of
// repository.TemplateStore.
type Store struct {
	path   string
	logger *zap.Logger

	mu       sync.RWMutex
	policy   string
	byName   map[string]entry

	watcher *fsnotify.Watcher
}

var _ repository.TemplateStore = (*Store)(nil)

// NewStore scaffolds dir/templates.yaml with default content if missing,
// loads it, and starts watching it for edits. Call Close when done.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create templates dir: %w", err)
	}

	path := filepath.Join(dir, "templates.yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(defaultTemplates), 0644); err != nil {
			return nil, fmt.Errorf("write default templates: %w", err)
		}
		logger.Info("scaffolded default templates", zap.String("path", path))
	}

	s := &Store{
		path:   path,
		logger: logger.With(zap.String("component", "template_store")),
		byName: map[string]entry{},
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	if err := s.watch(); err != nil {
		s.logger.Warn("template hot-reload disabled", zap.Error(err))
	}
	return s, nil
}

func (s *Store) reload() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	s.mu.Lock()
	s.policy = f.Policy
	s.byName = f.Templates
	if s.byName == nil {
		s.byName = map[string]entry{}
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}
	s.watcher = w

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := s.reload(); err != nil {
					s.logger.Warn("template reload failed", zap.Error(err))
					continue
				}
				s.logger.Info("templates reloaded")
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("template watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

// Close stops the hot-reload watcher.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Store) Render(ctx context.Context, name string, params map[string]string) (string, string, error) {
	s.mu.RLock()
	e, ok := s.byName[name]
	s.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", name)
	}
	return expand(e.Subject, params), expand(e.Body, params), nil
}

func (s *Store) PolicyBlock(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.policy == "" {
		return "", fmt.Errorf("policy block not configured")
	}
	return s.policy, nil
}

// expand does simple {{key}} substitution. Templates here are short,
// fixed-shape strings authored by the shop operator, not arbitrary
// user input, so this deliberately skips text/template's control-flow
// machinery.
func expand(s string, params map[string]string) string {
	for k, v := range params {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

const defaultTemplates = `# Auto-generated on first launch. Edit freely; changes hot-reload.

policy: |
  あなたは当店のカスタマーサポート電話窓口を担当するアシスタントです。
  丁寧語で応対し、簡潔に話してください。一度に複数の質問をしないこと。
  注文情報は尋ねられた場合にのみ案内し、個人情報は本人確認が取れた相手にのみ開示してください。
  対応できない要望は、人間のオペレーターへの取次ぎを申し出てください。

templates:
  tracking:
    subject: "【{{shopName}}】ご注文{{orderId}}の配送状況について"
    body: |
      {{customerName}} 様

      お問い合わせいただきましたご注文（注文番号: {{orderId}}）の配送状況をご案内いたします。
      配送業者: {{carrier}}
      追跡番号: {{trackingNumber}}
      追跡URL: {{trackingUrl}}

      {{shopName}}

  return_form:
    subject: "【{{shopName}}】ご返品手続きのご案内（注文{{orderId}}）"
    body: |
      {{customerName}} 様

      ご返品のお手続き用フォームをお送りいたします。注文番号（{{orderId}}）をご記入のうえ、
      商品に同封してご返送ください。

      {{shopName}}

  callback:
    subject: "【{{shopName}}】折り返しご連絡の確認"
    body: |
      {{customerName}} 様

      ご依頼いただきました折り返しのご連絡について承りました。
      担当者より改めてご連絡いたします。

      {{shopName}}
`
