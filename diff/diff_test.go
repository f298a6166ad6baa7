package diff

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/Assets/Scenes/Level1.unity b/Assets/Scenes/Level1.unity
index 3b18e51..a1f4c2d 100644
--- a/Assets/Scenes/Level1.unity
+++ b/Assets/Scenes/Level1.unity
@@ -1,4 +1,5 @@
 %YAML 1.1
---- m_Name: Old
+--- m_Name: New
+  m_Layer: 0
 %TAG !u! tag:unity3d.com,2011:
diff --git a/Assets/Scenes/Boss.unity b/Assets/Scenes/Boss.unity
new file mode 100644
index 0000000..9e2c1aa
--- /dev/null
+++ b/Assets/Scenes/Boss.unity
@@ -0,0 +1,2 @@
+%YAML 1.1
+--- !u!1 &1
diff --git a/Assets/Scenes/Old.unity b/Assets/Scenes/Old.unity
deleted file mode 100644
index 9e2c1aa..0000000
--- a/Assets/Scenes/Old.unity
+++ /dev/null
@@ -1 +0,0 @@
-%YAML 1.1
diff --git a/Assets/Scenes/Sky.png b/Assets/Scenes/Sky.png
index 1c2b3a4..4a3b2c1 100644
Binary files a/Assets/Scenes/Sky.png and b/Assets/Scenes/Sky.png differ
diff --git a/Assets/Scenes/A.unity b/Assets/Scenes/Arena.unity
similarity index 90%
rename from Assets/Scenes/A.unity
rename to Assets/Scenes/Arena.unity
diff --git "a/Assets/Scenes/Main Menu.unity" "b/Assets/Scenes/Main Menu.unity"
index 3b18e51..a1f4c2d 100644
--- "a/Assets/Scenes/Main Menu.unity"
+++ "b/Assets/Scenes/Main Menu.unity"
@@ -1 +1 @@
-a
+b
`

func TestParse(t *testing.T) {
	objects, err := Parse(strings.NewReader(sampleDiff))
	require.NoError(t, err)
	require.Equal(t, []ChangedObject{
		{Path: "Assets/Scenes/Level1.unity", Status: StatusModified, Additions: 2, Deletions: 1},
		{Path: "Assets/Scenes/Boss.unity", Status: StatusAdded, Additions: 2},
		{Path: "Assets/Scenes/Old.unity", Status: StatusDeleted, Deletions: 1},
		{Path: "Assets/Scenes/Sky.png", Status: StatusModified, Binary: true},
		{Path: "Assets/Scenes/Arena.unity", OldPath: "Assets/Scenes/A.unity", Status: StatusRenamed},
		{Path: "Assets/Scenes/Main Menu.unity", Status: StatusModified, Additions: 1, Deletions: 1},
	}, objects)
}

func TestParseEmpty(t *testing.T) {
	objects, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, objects)
}

func TestParseMalformedHeader(t *testing.T) {
	_, err := Parse(strings.NewReader("diff --git nonsense\n"))
	require.Error(t, err)
}

func TestArtifactExtractor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diff.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleDiff), 0o644))

	objects, err := NewArtifactExtractor(path).GetDiffObjects(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 6)

	_, err = NewArtifactExtractor(filepath.Join(t.TempDir(), "missing.txt")).GetDiffObjects(context.Background())
	require.ErrorContains(t, err, "open diff artifact")
}
