package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"impactgraph/internal/engine/parser"
	"impactgraph/internal/engine/resolver/drivers"
)

func newTestResolver(paths []string, modulePath string) *Resolver {
	return New(NewFileSet(paths), Options{
		Extensions:   []string{".js", ".ts", ".tsx", ".vue", ".json", ".css", ".scss"},
		IndexFiles:   []string{"index"},
		Roots:        []string{"", "src"},
		Aliases:      []drivers.Alias{{Prefix: "@/*", Target: "src/*"}, {Prefix: "@/components/", Target: "src/ui/"}},
		GoModulePath: modulePath,
	})
}

func static(raw string) parser.ImportReference {
	return parser.ImportReference{Raw: raw, Kind: parser.KindStatic}
}

func style(raw string) parser.ImportReference {
	return parser.ImportReference{Raw: raw, Kind: parser.KindStyleReference}
}

func TestResolveEcma(t *testing.T) {
	r := newTestResolver([]string{
		"src/pages/home.tsx",
		"src/components/button.tsx",
		"src/ui/card.vue",
		"src/utils/index.ts",
		"src/utils/format.ts",
		"src/styles/main.css",
		"src/styles/_mixins.scss",
		"src/api.json",
		"lib/shared.js",
		"config.js",
	}, "")

	cases := []struct {
		name   string
		source string
		imp    parser.ImportReference
		want   []string
	}{
		{"RelativeWithExtension", "src/pages/home.tsx", static("../components/button"), []string{"src/components/button.tsx"}},
		{"RelativeExact", "src/pages/home.tsx", static("../api.json"), []string{"src/api.json"}},
		{"DirectoryIndex", "src/pages/home.tsx", static("../utils"), []string{"src/utils/index.ts"}},
		{"QueryStripped", "src/pages/home.tsx", static("../utils/format?raw"), []string{"src/utils/format.ts"}},
		{"RootAbsolute", "src/pages/home.tsx", static("/lib/shared"), []string{"lib/shared.js"}},
		{"WildcardAlias", "src/pages/home.tsx", static("@/utils/format"), []string{"src/utils/format.ts"}},
		{"LongestAliasWins", "src/pages/home.tsx", static("@/components/card"), []string{"src/ui/card.vue"}},
		{"SrcRoot", "src/pages/home.tsx", static("utils/format"), []string{"src/utils/format.ts"}},
		{"ProjectRoot", "src/pages/home.tsx", static("config"), []string{"config.js"}},
		{"Package", "src/pages/home.tsx", static("react"), nil},
		{"EscapesProject", "src/pages/home.tsx", static("../../../etc/passwd"), nil},
		{"StyleBareRelative", "src/styles/main.css", style("main.css"), []string{"src/styles/main.css"}},
		{"SassPartial", "src/styles/main.css", style("mixins"), []string{"src/styles/_mixins.scss"}},
		{"Missing", "src/pages/home.tsx", static("./nope"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Resolve(tc.source, "tsx", tc.imp))
		})
	}
}

func TestResolvePython(t *testing.T) {
	r := newTestResolver([]string{
		"app/__init__.py",
		"app/main.py",
		"app/models.py",
		"app/core/__init__.py",
		"app/core/engine.py",
		"src/lib/helpers.py",
	}, "")

	cases := []struct {
		source string
		raw    string
		want   []string
	}{
		{"app/main.py", ".models", []string{"app/models.py"}},
		{"app/main.py", ".", []string{"app/__init__.py"}},
		{"app/core/engine.py", "..models", []string{"app/models.py"}},
		{"app/main.py", "app.core", []string{"app/core/__init__.py"}},
		{"app/main.py", "app.core.engine", []string{"app/core/engine.py"}},
		{"app/main.py", "lib.helpers", []string{"src/lib/helpers.py"}},
		{"app/main.py", "os", nil},
		{"app/main.py", "....too.far", nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.Resolve(tc.source, "python", static(tc.raw)), tc.raw)
	}
}

func TestResolveGo(t *testing.T) {
	r := newTestResolver([]string{
		"go.mod",
		"main.go",
		"internal/store/store.go",
		"internal/store/sqlite.go",
		"internal/store/store_test.go",
		"internal/store/README.md",
	}, "example.com/app")

	assert.Equal(t,
		[]string{"internal/store/sqlite.go", "internal/store/store.go"},
		r.Resolve("main.go", "go", static("example.com/app/internal/store")))
	assert.Equal(t, []string{"main.go"}, r.Resolve("internal/store/store.go", "go", static("example.com/app")))
	assert.Nil(t, r.Resolve("main.go", "go", static("fmt")))
	assert.Nil(t, r.Resolve("main.go", "go", static("example.com/application")))

	noModule := newTestResolver([]string{"main.go"}, "")
	assert.Nil(t, noModule.Resolve("main.go", "go", static("example.com/app")))
}

func TestModulePath(t *testing.T) {
	assert.Equal(t, "example.com/app", drivers.ModulePath([]byte("module example.com/app\n\ngo 1.22\n")))
	assert.Equal(t, "", drivers.ModulePath([]byte("go 1.22\n")))
}

func TestResolveJava(t *testing.T) {
	r := newTestResolver([]string{
		"src/main/java/com/acme/App.java",
		"src/main/java/com/acme/Util.java",
		"src/main/java/com/acme/model/User.java",
		"src/main/java/com/acme/model/Order.java",
	}, "")

	assert.Equal(t, []string{"src/main/java/com/acme/Util.java"}, r.Resolve("src/main/java/com/acme/App.java", "java", static("com.acme.Util")))
	assert.Equal(t, []string{"src/main/java/com/acme/Util.java"}, r.Resolve("src/main/java/com/acme/App.java", "java", static("com.acme.Util.helper")))
	assert.Equal(t,
		[]string{"src/main/java/com/acme/model/Order.java", "src/main/java/com/acme/model/User.java"},
		r.Resolve("src/main/java/com/acme/App.java", "java", static("com.acme.model.*")))
	assert.Nil(t, r.Resolve("src/main/java/com/acme/App.java", "java", static("java.util.List")))
}

func TestResolveRust(t *testing.T) {
	r := newTestResolver([]string{
		"src/main.rs",
		"src/config.rs",
		"src/net/mod.rs",
		"src/net/tcp.rs",
	}, "")

	assert.Equal(t, []string{"src/config.rs"}, r.Resolve("src/main.rs", "rust", static("config")))
	assert.Equal(t, []string{"src/net/mod.rs"}, r.Resolve("src/main.rs", "rust", static("net")))
	assert.Equal(t, []string{"src/net/tcp.rs"}, r.Resolve("src/net/mod.rs", "rust", static("tcp")))
	assert.Nil(t, r.Resolve("src/main.rs", "rust", static("missing")))
}

func TestResolveUnknownLanguage(t *testing.T) {
	r := newTestResolver([]string{"a.rb"}, "")
	assert.Nil(t, r.Resolve("a.rb", "ruby", static("./b")))
}

func TestFileSet(t *testing.T) {
	s := NewFileSet([]string{"b.go", "./a.go", "pkg/x.go", "a.go", ""})
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("a.go"))
	assert.Equal(t, []string{"a.go", "b.go"}, s.Dir(""))
	assert.Equal(t, []string{"pkg/x.go"}, s.Dir("pkg"))
}
