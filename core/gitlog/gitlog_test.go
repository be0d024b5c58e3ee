package gitlog

import (
	"testing"

	"github.com/huangsam/tagchurn/internal/contract"
	"github.com/huangsam/tagchurn/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLog = contract.CommitMarker + `2222222222222222222222222222222222222222 1111111111111111111111111111111111111111

diff --git a/f.py b/f.py
index 1111111..2222222 100644
--- a/f.py
+++ b/f.py
@@ -5 +5 @@ def foo():
-    return 1
+    return 2
diff --git a/new dir/n.py b/new dir/n.py
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/new dir/n.py
@@ -0,0 +1 @@
+x = 1
` + contract.CommitMarker + `1111111111111111111111111111111111111111

diff --git a/g.py b/g.py
deleted file mode 100644
index 4444444..0000000
--- a/g.py
+++ /dev/null
@@ -1 +0,0 @@
-y = 2
`

func TestParse(t *testing.T) {
	commits, err := Parse([]byte(sampleLog), contract.CommitMarker)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	first := commits[0]
	assert.Equal(t, 0, first.Seq)
	assert.Equal(t, "2222222222222222222222222222222222222222", first.Hash)
	assert.Equal(t, "1111111111111111111111111111111111111111", first.Parent)
	require.Len(t, first.Files, 2)
	assert.Equal(t, "f.py", first.Files[0].Path)
	assert.Equal(t, schema.FileModified, first.Files[0].Status)
	assert.Contains(t, string(first.Files[0].Diff), "+    return 2\n")
	assert.NotContains(t, string(first.Files[0].Diff), "n.py")
	assert.Equal(t, "new dir/n.py", first.Files[1].Path)
	assert.Equal(t, schema.FileAdded, first.Files[1].Status)

	root := commits[1]
	assert.Equal(t, 1, root.Seq)
	assert.Empty(t, root.Parent)
	require.Len(t, root.Files, 1)
	assert.Equal(t, schema.FileDeleted, root.Files[0].Status)
	assert.True(t, len(root.Files[0].Diff) > 0 && string(root.Files[0].Diff[:11]) == "diff --git ")
}

func TestParse_EmptyAndModeOnly(t *testing.T) {
	commits, err := Parse(nil, contract.CommitMarker)
	require.NoError(t, err)
	assert.Empty(t, commits)

	commits, err = Parse([]byte(contract.CommitMarker+"abc def\n"), contract.CommitMarker)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Empty(t, commits[0].Files)
}

func TestParse_EmptyHeader(t *testing.T) {
	_, err := Parse([]byte(contract.CommitMarker+"\n"), contract.CommitMarker)
	assert.Error(t, err)
}

func TestPathFromHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"diff --git a/f.py b/f.py", "f.py", true},
		{"diff --git a/a b/c b/a b/c", "a b/c", true},
		{`diff --git "a/t\303\251st.go" "b/t\303\251st.go"`, "tést.go", true},
		{"diff --git x y", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := pathFromHeader(tt.header)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
