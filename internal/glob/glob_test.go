package glob

import (
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    bool
	}{
		// Basic wildcards
		{"star matches filename", "*.txt", "file.txt", true},
		{"star doesn't match different extension", "*.txt", "file.md", false},
		{"star matches anything without slash", "*", "anything", true},
		{"star doesn't match path separator", "*", "path/to/file", false},
		{"star matches empty prefix", "*.txt", ".txt", true},

		// Double star
		{"double star matches path", "**", "path/to/file", true},
		{"double star prefix matches deep path", "**/foo", "bar/baz/foo", true},
		{"double star prefix matches immediate", "**/foo", "foo", true},
		{"double star in middle matches nested file", "**/*.txt", "dir/subdir/file.txt", true},
		{"double star between paths matches multiple dirs", "a/**/b", "a/x/y/z/b", true},
		{"double star between paths matches direct", "a/**/b", "a/b", true},
		{"double star only consumes whole segments", "a/**b", "a/x/yb", false},
		{"double star suffix", "a/**", "a/b/c", true},
		{"repeated double star", "**/**/*.js", "x.js", true},
		{"double star backtracks", "**/a/**/a", "a/b/a/c", false},
		{"double star backtracks to match", "**/a/*/a", "x/a/b/a", true},

		// Question mark
		{"question matches one char", "file?.txt", "file1.txt", true},
		{"question needs exactly one", "file?.txt", "file.txt", false},
		{"question doesn't match slash", "a?b", "a/b", false},
		{"question matches multibyte rune", "caf?", "café", true},

		// Character classes
		{"class matches member", "[abc].go", "b.go", true},
		{"class rejects non member", "[abc].go", "d.go", false},
		{"range matches", "file[0-9].txt", "file7.txt", true},
		{"range rejects", "file[0-9].txt", "filex.txt", false},
		{"bang negation", "[!a]*", "bcd", true},
		{"bang negation rejects", "[!a]*", "abc", false},
		{"caret negation", "[^a]*", "abc", false},
		{"leading bracket literal in class", "[]]x", "]x", true},
		{"unclosed bracket is literal", "[abc", "[abc", true},
		{"reversed range is literal", "[z-a]", "[z-a]", true},

		// Braces
		{"brace alternation", "*.{js,ts}", "main.ts", true},
		{"brace alternation rejects", "*.{js,ts}", "main.go", false},
		{"nested braces", "{a,b{c,d}}.txt", "bd.txt", true},
		{"brace spanning segments", "{src/*,lib}/x", "src/foo/x", true},
		{"brace without comma is literal", "{a}.txt", "{a}.txt", true},

		// Escapes and literals
		{"escaped star is literal", `\*.txt`, "*.txt", true},
		{"escaped star rejects", `\*.txt`, "a.txt", false},
		{"regex meta is literal", "a+b(1).txt", "a+b(1).txt", true},
		{"dot is literal", "a.c", "abc", false},
		{"leading dot segment ignored", "./src/*.go", "src/a.go", true},

		{"empty pattern matches nothing", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.pattern, tt.input); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.input, got, tt.want)
			}
		})
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.{js,ts}", []string{"*.js", "*.ts"}},
		{"{a,b}/{c,d}", []string{"a/c", "a/d", "b/c", "b/d"}},
		{"x{a,{b,c}}", []string{"xa", "xb", "xc"}},
		{"{a,}z", []string{"az", "z"}},
		{"no-braces", []string{"no-braces"}},
		{"{unclosed,", []string{"{unclosed,"}},
		{`\{a,b}`, []string{`\{a,b}`}},
		{"{a}{b,c}", []string{"{a}b", "{a}c"}},
	}
	for _, tt := range tests {
		if got := Expand(tt.pattern); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Expand(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestSetMatchReturnsSource(t *testing.T) {
	set := Union(Compile("*.{png,jpg}", false), Compile("**/*.png", false))
	src, ok := set.Match("img/a.png", "/assets/img/a.png")
	if !ok || src != "**/*.png" {
		t.Fatalf("got %q %v", src, ok)
	}
	src, ok = set.Match("a.jpg", "/assets/a.jpg")
	if !ok || src != "*.{png,jpg}" {
		t.Fatalf("got %q %v", src, ok)
	}
}

func TestSetIgnoreCase(t *testing.T) {
	if _, ok := Compile("*.txt", false).Match("FILE.TXT", "/FILE.TXT"); ok {
		t.Fatal("case sensitive set should not match")
	}
	src, ok := Compile("*.TXT", true).Match("file.txt", "/file.txt")
	if !ok || src != "*.TXT" {
		t.Fatalf("case insensitive set: got %q %v", src, ok)
	}
}

func TestAbsolutePatterns(t *testing.T) {
	set := Compile("/assets/**/*.png", false)
	if _, ok := set.Match("x/a.png", "/assets/x/a.png"); !ok {
		t.Fatal("absolute pattern should match the absolute path")
	}
	if _, ok := set.Match("assets/x/a.png", "/other/assets/x/a.png"); ok {
		t.Fatal("absolute pattern should ignore the relative path")
	}
}

func TestMaxDepth(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{"*.js", 1},
		{"a/*/c", 3},
		{"{a,b/c}", 2},
		{"**/x", -1},
		{"/abs/x", -1},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Compile(tt.pattern, false).MaxDepth(); got != tt.want {
			t.Errorf("MaxDepth(%q) = %d, want %d", tt.pattern, got, tt.want)
		}
	}
}

func TestHasMeta(t *testing.T) {
	if HasMeta("plain/path.txt") {
		t.Error("plain path has no meta")
	}
	for _, s := range []string{"*", "a?", "[ab]", "{a,b}", `\x`} {
		if !HasMeta(s) {
			t.Errorf("HasMeta(%q) = false", s)
		}
	}
}

func TestMatchString(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"path=/mnt/*", "path=/mnt/a/b.png", true},
		{"err=*", "err=open /x: ENOENT", true},
		{"db_*", "db_name", true},
		{"db_*", "user", false},
		{"op={read,write}", "op=write", true},
		{"a?c", "a/c", true},
	}
	for _, tt := range tests {
		if got := MatchString(tt.pattern, tt.s); got != tt.want {
			t.Errorf("MatchString(%q, %q) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}
