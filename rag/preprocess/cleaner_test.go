package preprocess

import (
	"strings"
	"testing"
)

func TestCleanBasic(t *testing.T) {
	in := "Model\tA  is \u0007fast.\r\n\n\n\n\nIt uses a ﬁlter."
	got := CleanBasic(in)
	want := "Model A is fast.\n\nIt uses a filter."
	if got != want {
		t.Fatalf("CleanBasic() = %q, want %q", got, want)
	}
	if CleanBasic("") != "" {
		t.Fatal("expected empty output for empty input")
	}
}

func TestHTMLToText(t *testing.T) {
	html := `<html><head><style>p{}</style></head><body>
<nav><p>Home</p></nav>
<h1>Models</h1>
<p>Model A is fast.</p>
<ul><li>low latency</li></ul>
<table><tr><th>name</th><th>speed</th></tr><tr><td>A</td><td>fast</td></tr></table>
<script>var x = 1;</script>
</body></html>`

	got, err := HTMLToText(html)
	if err != nil {
		t.Fatalf("HTMLToText error: %v", err)
	}
	for _, want := range []string{"# Models", "Model A is fast.", "- low latency", "| A | fast |"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Home") || strings.Contains(got, "var x") {
		t.Fatalf("expected nav and script to be removed:\n%s", got)
	}
}

func TestPreprocessDropsNoiseAndDuplicates(t *testing.T) {
	raw := "Model A is fast.\n\nCookie Policy | Privacy Policy\n\nModel A is fast.\n\nModel B is accurate."
	got := Preprocess(raw)
	want := "Model A is fast.\n\nModel B is accurate."
	if got != want {
		t.Fatalf("Preprocess() = %q, want %q", got, want)
	}
}
