package prompt

import (
	"fmt"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"
	"text/template"

	docerrors "github.com/sweetpotato0/docqa/errors"
)

// TemplateExt marks override files read by LoadFS.
const TemplateExt = ".tmpl"

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// Template is a parsed text/template. Referencing a key the data lacks is
// a render error rather than "<no value>".
type Template struct {
	Name    string
	Content string
	parsed  *template.Template
}

func NewTemplate(name, content string) (*Template, error) {
	parsed, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: prompt %q: %w", docerrors.ErrInvalidInput, name, err)
	}
	return &Template{Name: name, Content: content, parsed: parsed}, nil
}

func (t *Template) Render(data any) (string, error) {
	var b strings.Builder
	if err := t.parsed.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", t.Name, err)
	}
	return b.String(), nil
}

// Manager is a named set of templates, safe for concurrent use.
type Manager struct {
	mu  sync.RWMutex
	set map[string]*Template
}

func NewManager() *Manager {
	return &Manager{set: map[string]*Template{}}
}

// NewDefaultManager holds the answer, revise and critique templates.
func NewDefaultManager() *Manager {
	m := NewManager()
	for name, content := range defaults {
		if err := m.RegisterString(name, content); err != nil {
			panic(err)
		}
	}
	return m
}

func (m *Manager) put(t *Template, replace bool) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("%w: unnamed prompt template", docerrors.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.set[t.Name]; taken && !replace {
		return fmt.Errorf("prompt %q: %w", t.Name, docerrors.ErrAlreadyExists)
	}
	m.set[t.Name] = t
	return nil
}

// Register fails if the name is taken.
func (m *Manager) Register(t *Template) error { return m.put(t, false) }

// Override replaces any template of the same name.
func (m *Manager) Override(t *Template) error { return m.put(t, true) }

func (m *Manager) RegisterString(name, content string) error {
	t, err := NewTemplate(name, content)
	if err != nil {
		return err
	}
	return m.Register(t)
}

// LoadFS overrides templates from every *.tmpl file at the root of fsys;
// answer.tmpl replaces the answer template. It returns the names loaded.
func (m *Manager) LoadFS(fsys fs.FS) ([]string, error) {
	files, err := fs.Glob(fsys, "*"+TemplateExt)
	if err != nil {
		return nil, err
	}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return loaded, fmt.Errorf("read prompt %s: %w", file, err)
		}
		t, err := NewTemplate(strings.TrimSuffix(path.Base(file), TemplateExt), string(content))
		if err != nil {
			return loaded, err
		}
		if err := m.Override(t); err != nil {
			return loaded, err
		}
		loaded = append(loaded, t.Name)
	}
	return loaded, nil
}

func (m *Manager) Get(name string) (*Template, error) {
	m.mu.RLock()
	t, ok := m.set[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("prompt %q: %w", name, docerrors.ErrNotFound)
	}
	return t, nil
}

func (m *Manager) Render(name string, data any) (string, error) {
	t, err := m.Get(name)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}

// List returns the registered names in sorted order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.set))
}
