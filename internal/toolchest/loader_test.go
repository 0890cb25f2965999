package toolchest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	name    string
	subject string
	index   int
}

func writeToolSet(t *testing.T, dir, file string, items []testItem) {
	t.Helper()
	var b strings.Builder
	b.WriteString("\xEF\xBB\xBF<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<BluebeamRevuToolSet>\n<Title>Tools</Title>\n")
	for _, it := range items {
		raw, err := EncodeRaw(fmt.Sprintf("<</Subtype/Circle/Subj(%s)/IC[0.2 0.3 0.6]>>", it.subject))
		require.NoError(t, err)
		fmt.Fprintf(&b, "<ToolChestItem Version=\"1\"><Name>%s</Name><Type>Bluebeam.PDF.Annotations.AnnotationCircle</Type><X>1.5</X><Y>2</Y><Index>%d</Index><Raw>%s</Raw></ToolChestItem>\n",
			it.name, it.index, raw)
	}
	b.WriteString("</BluebeamRevuToolSet>\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(b.String()), 0644))
}

func newToolchest(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, BidDir), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, DeploymentDir), 0755))
	return root
}

func TestCategoryFromFilename(t *testing.T) {
	assert.Equal(t, "Access Points", CategoryFromFilename("CDS Bluebeam Access Points [01-01-2026].btx"))
	assert.Equal(t, "Bid Tools", CategoryFromFilename("CDS Bluebeam Bid Tools [01-21-2026].btx"))
	assert.Equal(t, "Point-to-Points", CategoryFromFilename("CDS Bluebeam Point-to-Points [01-01-2026].btx"))
	assert.Equal(t, "Custom", CategoryFromFilename("Custom.btx"))
}

func TestLoad(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrToolchestMissing))
	})

	t.Run("missing deployment directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, BidDir), 0755))
		_, err := Load(root)
		assert.ErrorIs(t, err, ErrToolchestMissing)
	})

	t.Run("indexes both directions", func(t *testing.T) {
		root := newToolchest(t)
		writeToolSet(t, filepath.Join(root, BidDir), "CDS Bluebeam Bid Tools [01-21-2026].btx", []testItem{
			{"Artist AP", "Artist - Indoor Wi-Fi Access Point", 0},
			{"Prod AP", "Production - Indoor Wi-Fi Access Point", 1},
		})
		writeToolSet(t, filepath.Join(root, DeploymentDir), "CDS Bluebeam Access Points [01-01-2026].btx", []testItem{
			{"MR36H", "AP - Cisco MR36H", 0},
			{"MR36H copy", "AP - Cisco MR36H", 1},
			{"9120", "AP - Cisco 9120", 2},
		})

		ref, err := Load(root)
		require.NoError(t, err)
		assert.Equal(t, 2, ref.BidCount())
		assert.Equal(t, 2, ref.DeploymentCount())

		icon, ok := ref.Lookup("AP - Cisco MR36H", Deployment)
		require.True(t, ok)
		assert.Equal(t, "MR36H", icon.Name)
		assert.Equal(t, "Access Points", icon.Category)
		assert.Equal(t, 0, icon.Index)
		assert.Equal(t, 1.5, icon.X)
		assert.Contains(t, icon.Raw, "/Subj(AP - Cisco MR36H)")

		_, ok = ref.Lookup("AP - Cisco MR36H", Bid)
		assert.False(t, ok)

		assert.Equal(t, []string{"AP - Cisco 9120", "AP - Cisco MR36H"}, ref.Subjects(Deployment))
	})

	t.Run("malformed file is skipped", func(t *testing.T) {
		root := newToolchest(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, BidDir, "broken.btx"), []byte("<Tool><Raw>"), 0644))
		writeToolSet(t, filepath.Join(root, BidDir), "good.btx", []testItem{{"A", "Artist - Hardline", 0}})
		require.NoError(t, os.WriteFile(filepath.Join(root, BidDir, "notes.txt"), []byte("ignored"), 0644))

		ref, err := Load(root)
		require.NoError(t, err)
		assert.Equal(t, 1, ref.BidCount())
		assert.Equal(t, 0, ref.DeploymentCount())
	})
}

func TestParse(t *testing.T) {
	t.Run("invalid xml", func(t *testing.T) {
		_, err := Parse([]byte("<<not xml"))
		assert.ErrorIs(t, err, ErrInvalidXML)
	})

	t.Run("latin-1 declaration", func(t *testing.T) {
		data := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><Set><ToolChestItem><Name>Caf\xe9</Name><Raw>x</Raw></ToolChestItem></Set>")
		items, err := Parse(data)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Café", items[0].Name)
		assert.Equal(t, "x", items[0].Raw)
	})

	t.Run("undecodable raw is absent", func(t *testing.T) {
		items, err := Parse([]byte("<Set><ToolChestItem><Raw>789c00112233</Raw></ToolChestItem></Set>"))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Empty(t, items[0].Raw)
	})
}
