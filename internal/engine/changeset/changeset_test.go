package changeset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cs := ChangeSet{
		Added:    []string{"./src/b.ts", "src/a.ts", "src/a.ts"},
		Modified: []string{`src\c.ts`},
		Deleted:  []string{"src/d.ts", "src/a.ts"},
		Renamed: []Rename{
			{From: "old/x.ts", To: "new/x.ts"},
			{From: "same.ts", To: "./same.ts"},
		},
		Contents: map[string][]byte{"./src/b.ts": []byte("b")},
	}.Normalize()

	assert.Equal(t, []string{"src/a.ts", "src/b.ts"}, cs.Added)
	assert.Equal(t, []string{"same.ts", "src/c.ts"}, cs.Modified)
	assert.Equal(t, []string{"src/d.ts"}, cs.Deleted, "written paths are not deleted")
	assert.Equal(t, []Rename{{From: "old/x.ts", To: "new/x.ts"}}, cs.Renamed)
	assert.Equal(t, []byte("b"), cs.Contents["src/b.ts"])

	assert.Equal(t, []string{"old/x.ts", "src/d.ts"}, cs.Removed())
	assert.Equal(t, []string{"new/x.ts", "same.ts", "src/a.ts", "src/b.ts", "src/c.ts"}, cs.Written())
	assert.Len(t, cs.Paths(), 7)
	assert.False(t, cs.Empty())
	assert.True(t, ChangeSet{}.Empty())
}

func TestFromPaths(t *testing.T) {
	files := map[string]string{"a.ts": "a", "b.ts": "b"}
	exists := func(p string) bool { _, ok := files[p]; return ok || p == "unreadable.ts" }
	read := func(p string) ([]byte, error) {
		if c, ok := files[p]; ok {
			return []byte(c), nil
		}
		return nil, errors.New("permission denied")
	}

	cs := FromPaths([]string{"b.ts", "a.ts", "gone.ts", "unreadable.ts", "a.ts"}, exists, read)
	assert.Equal(t, []string{"a.ts", "b.ts"}, cs.Modified)
	assert.Equal(t, []string{"gone.ts", "unreadable.ts"}, cs.Deleted)
	assert.Equal(t, []byte("a"), cs.Contents["a.ts"])
}
