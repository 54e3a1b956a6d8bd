package markdown

import (
	"context"
	"maps"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	chunktoken "github.com/sweetpotato0/docqa/contrib/chunking/token"
	"github.com/sweetpotato0/docqa/rag/chunking"
	"github.com/sweetpotato0/docqa/rag/document"
	"github.com/sweetpotato0/docqa/rag/tokenizer"
)

// Chunker cuts markdown at headings so each passage stays inside one
// section. Sections over the token budget are windowed by the fallback
// chunker; short sections are merged into the next one.
//
// Every chunk carries a "section" metadata entry holding the heading path,
// for example "Evaluation > Datasets".
type Chunker struct {
	maxHeadingLevel int
	maxTokens       int
	minTokens       int
	fallback        chunking.Chunker
	parser          goldmark.Markdown
}

// Option customises the markdown chunker.
type Option func(*Chunker)

// WithMaxHeadingLevel caps which heading level starts a new section (default 3).
func WithMaxHeadingLevel(level int) Option {
	return func(c *Chunker) {
		if level > 0 {
			c.maxHeadingLevel = level
		}
	}
}

// WithMaxTokens sets the section size above which the fallback chunker is used (default 160).
func WithMaxTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens > 0 {
			c.maxTokens = tokens
		}
	}
}

// WithMinTokens merges sections shorter than tokens into their successor (default 24).
func WithMinTokens(tokens int) Option {
	return func(c *Chunker) {
		if tokens >= 0 {
			c.minTokens = tokens
		}
	}
}

// WithFallbackChunker swaps the chunker used for oversized sections.
func WithFallbackChunker(ch chunking.Chunker) Option {
	return func(c *Chunker) {
		if ch != nil {
			c.fallback = ch
		}
	}
}

// New creates a markdown chunker. The default fallback is a token window
// matching the section budget.
func New(opts ...Option) *Chunker {
	ch := &Chunker{
		maxHeadingLevel: 3,
		maxTokens:       160,
		minTokens:       24,
		parser:          goldmark.New(),
	}
	for _, opt := range opts {
		opt(ch)
	}
	if ch.fallback == nil {
		ch.fallback = chunktoken.New(chunktoken.WithMaxTokens(ch.maxTokens), chunktoken.WithOverlapTokens(ch.maxTokens/8))
	}
	return ch
}

// Chunk implements chunking.Chunker.
func (c *Chunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	doc.EnsureID()

	var chunks []document.Chunk
	emit := func(content string, meta map[string]any) {
		chunks = append(chunks, doc.NewChunk(len(chunks), content, meta))
	}

	for _, sec := range c.mergeShort(c.sections(doc.Content)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta := maps.Clone(doc.Metadata)
		if sec.path != "" {
			if meta == nil {
				meta = make(map[string]any, 1)
			}
			meta["section"] = sec.path
		}
		if sec.tokens <= c.maxTokens {
			emit(sec.body, meta)
			continue
		}
		parts, err := c.fallback.Chunk(ctx, document.Document{ID: doc.ID, Content: sec.body})
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			emit(p.Content, maps.Clone(meta))
		}
	}
	return chunks, nil
}

type section struct {
	path   string
	body   string
	tokens int
}

type heading struct {
	offset int
	level  int
	title  string
}

// sections splits content at headings up to maxHeadingLevel. Text before
// the first heading becomes a section with an empty path.
func (c *Chunker) sections(content string) []section {
	source := []byte(content)
	root := c.parser.Parser().Parse(text.NewReader(source))

	var heads []heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > c.maxHeadingLevel {
			return ast.WalkContinue, nil
		}
		if lines := h.Lines(); lines != nil && lines.Len() > 0 {
			heads = append(heads, heading{
				offset: lineStart(source, lines.At(0).Start),
				level:  h.Level,
				title:  strings.TrimSpace(string(h.Text(source))),
			})
		}
		return ast.WalkSkipChildren, nil
	})

	var out []section
	add := func(path, body string) {
		if body = strings.TrimSpace(body); body != "" {
			out = append(out, section{path: path, body: body, tokens: len(tokenizer.Spans(body))})
		}
	}
	if len(heads) == 0 {
		add("", content)
		return out
	}
	add("", string(source[:heads[0].offset]))

	var trail []heading
	for i, h := range heads {
		for len(trail) > 0 && trail[len(trail)-1].level >= h.level {
			trail = trail[:len(trail)-1]
		}
		trail = append(trail, h)
		end := len(source)
		if i+1 < len(heads) {
			end = heads[i+1].offset
		}
		add(breadcrumb(trail), string(source[h.offset:end]))
	}
	return out
}

// mergeShort folds sections below minTokens into the following section,
// keeping the path of the first one. A short final section stays alone.
func (c *Chunker) mergeShort(in []section) []section {
	if c.minTokens <= 0 || len(in) < 2 {
		return in
	}
	out := make([]section, 0, len(in))
	var pending *section
	for i := range in {
		cur := in[i]
		if pending != nil {
			cur = section{
				path:   pending.path,
				body:   pending.body + "\n\n" + cur.body,
				tokens: pending.tokens + cur.tokens,
			}
			pending = nil
		}
		if cur.tokens < c.minTokens && i < len(in)-1 {
			pending = &cur
			continue
		}
		out = append(out, cur)
	}
	return out
}

func breadcrumb(trail []heading) string {
	titles := make([]string, len(trail))
	for i, h := range trail {
		titles[i] = h.title
	}
	return strings.Join(titles, " > ")
}

// lineStart rewinds offset to the start of its line so ATX markers are kept.
func lineStart(source []byte, offset int) int {
	for offset > 0 && source[offset-1] != '\n' {
		offset--
	}
	return offset
}
