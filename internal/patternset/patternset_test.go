package patternset_test

import (
	"testing"

	"github.com/niamster/tgrep/internal/patternset"
	"github.com/niamster/tgrep/internal/testsupport"
)

// root "/r" with a .gitignore containing "foo" and "!bar/foo": "/r/foo"
// and "/r/sub/foo" are excluded, "/r/bar/foo" is whitelisted back in.
func TestIsExcludedWhitelistOverridesBlacklist(t *testing.T) {
	a := testsupport.NewAssert(t)
	p := patternset.CompileIgnoreFile("/r", []string{"foo", "!bar/foo"}, nil)

	a.True(p.IsExcluded("/r/foo", false))
	a.True(p.IsExcluded("/r/sub/foo", false))
	a.False(p.IsExcluded("/r/bar/foo", false))
}

func TestExtendAppliesChildLayersAfterParent(t *testing.T) {
	a := testsupport.NewAssert(t)
	parent := patternset.CompileIgnoreFile("/r", []string{"*.log"}, nil)
	child := patternset.CompileIgnoreFile("/r/keep", []string{"!important.log"}, nil)
	parent.Extend(child)

	a.True(parent.IsExcluded("/r/debug.log", false))
	a.False(parent.IsExcluded("/r/keep/important.log", false))
	a.True(parent.IsExcluded("/r/keep/other.log", false))
}

func TestCloneIsIndependent(t *testing.T) {
	a := testsupport.NewAssert(t)
	base := patternset.CompileIgnoreFile("/r", []string{"*.tmp"}, nil)
	clone := base.Clone()
	clone.Extend(patternset.CompileIgnoreFile("/r", []string{"*.cache"}, nil))

	a.True(clone.IsExcluded("/r/x.cache", false))
	a.False(base.IsExcluded("/r/x.cache", false))
	a.True(base.IsExcluded("/r/x.tmp", false))
}

func TestCompileIgnoreFileSkipsMalformedGlob(t *testing.T) {
	a := testsupport.NewAssert(t)
	p := patternset.CompileIgnoreFile("/r", []string{"broken[unterminated*.go"}, nil)
	a.False(p.IsExcluded("/r/broken[unterminated-main.go", false))
}

func TestBuiltinExcludeAlwaysExcludesGit(t *testing.T) {
	a := testsupport.NewAssert(t)
	p := patternset.BuiltinExclude("/r")
	a.True(p.IsExcluded("/r/.git", true))
	a.False(p.IsExcluded("/r/.gitignore", false))
}

func TestFiltersEmptyMatchesEverything(t *testing.T) {
	a := testsupport.NewAssert(t)
	f := patternset.NewFilters("/r")
	a.True(f.Empty())
	a.True(f.Included("/r/anything.txt", false))
}

func TestFiltersAddGlobRestrictsToMatches(t *testing.T) {
	a := testsupport.NewAssert(t)
	f := patternset.NewFilters("/r")
	f.AddGlob("**/*.go")
	a.False(f.Empty())
	a.True(f.Included("/r/main.go", false))
	a.False(f.Included("/r/main.txt", false))
}

func TestFiltersAddGlobUnionsMultiplePatterns(t *testing.T) {
	a := testsupport.NewAssert(t)
	f := patternset.NewFilters("/r")
	f.AddGlob("**/*.go")
	f.AddGlob("**/*.md")
	a.True(f.Included("/r/README.md", false))
	a.True(f.Included("/r/main.go", false))
	a.False(f.Included("/r/main.py", false))
}
