package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/snaplabel/internal/labels"
)

const (
	testBaseURL     = "https://snapjson.untapped.gg/"
	testImagePrefix = testBaseURL + "art/render/framebreak/common/512/"
)

// resetFlags restores every flag to its default so commands can run repeatedly
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	for _, c := range []*cobra.Command{RootCmd, showCmd} {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	}
}

// execute runs the root command with args against an isolated config
func execute(t *testing.T, dataDir string, args ...string) (string, string, error) {
	t.Helper()

	resetFlags()
	t.Cleanup(func() {
		resetFlags()
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})

	var out, errOut bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&errOut)
	RootCmd.SetArgs(append(args,
		"--config", filepath.Join(t.TempDir(), "none.toml"),
		"--data", dataDir))

	err := RootCmd.Execute()
	return out.String(), errOut.String(), err
}

// mockAPI serves two cards, one variant and every image
func mockAPI(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder("GET", testBaseURL+"v2/latest/en/cards.json",
		httpmock.NewStringResponder(http.StatusOK, `[{"defId":"Hulk","series":1},{"defId":"Groot","series":2}]`))
	httpmock.RegisterResponder("GET", testBaseURL+"v2/latest/en/artVariants.json",
		httpmock.NewStringResponder(http.StatusOK, `[{"defId":"Groot_v1","source":1}]`))
	for _, v := range []string{"Hulk", "Groot", "Groot_v1"} {
		httpmock.RegisterResponder("GET", testImagePrefix+v+".webp",
			httpmock.NewStringResponder(http.StatusOK, "RIFF"+v))
	}
}

func TestRootCmd_Guards(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		errorMsg string
		output   string
	}{
		{"no action shows help", nil, "", "Usage:"},
		{"images without scope", []string{"-i"}, "need a scope", ""},
		{"boxes without scope", []string{"-b"}, "need a scope", ""},
		{"from-disk without predefined", []string{"--from-disk", "-a"}, "--from-disk", ""},
		{"positional argument", []string{"Groot"}, "unknown command", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			out, _, err := execute(t, dataDir, tt.args...)

			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
			}
			if tt.output != "" {
				assert.Contains(t, out, tt.output)
			}

			entries, err := os.ReadDir(dataDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing written")
		})
	}
}

func TestRootCmd_Version(t *testing.T) {
	out, _, err := execute(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestRootCmd_ScopeAloneDownloads(t *testing.T) {
	mockAPI(t)
	dataDir := t.TempDir()

	out, _, err := execute(t, dataDir, "-c", "Groot")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dataDir, "Groot", "Groot.webp"))
	assert.FileExists(t, filepath.Join(dataDir, "Groot", "Groot_v1.webp"))
	assert.NoFileExists(t, filepath.Join(dataDir, "Groot", "Groot.txt"), "no labels without -b")
	assert.Contains(t, out, "Images:")
}

func TestRootCmd_CardAndAllTogether(t *testing.T) {
	mockAPI(t)
	dataDir := t.TempDir()

	_, _, err := execute(t, dataDir, "-c", "Groot", "-a")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dataDir, "Hulk", "Hulk.webp"))
	assert.FileExists(t, filepath.Join(dataDir, "Groot", "Groot_v1.webp"))
}

func TestRootCmd_FailuresListedOnlyInDebug(t *testing.T) {
	t.Run("silent without debug", func(t *testing.T) {
		mockAPI(t)
		out, errOut, err := execute(t, t.TempDir(), "-c", "Nobody")
		require.NoError(t, err, "failures are not fatal")

		assert.Contains(t, out, "Metadata:")
		assert.NotContains(t, out, "failures")
		assert.NotContains(t, out, "Nobody")
		assert.Empty(t, errOut)
	})

	t.Run("listed with debug", func(t *testing.T) {
		mockAPI(t)
		out, errOut, err := execute(t, t.TempDir(), "-c", "Nobody", "-d")
		require.NoError(t, err)

		assert.Contains(t, out, "1 failures:")
		assert.Contains(t, out, "[unknown-card]")
		assert.Contains(t, errOut, "card not recognized")
	})
}

func TestShowCmd_Palette(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	dataDir := t.TempDir()
	dir := filepath.Join(dataDir, "Groot")
	require.NoError(t, os.MkdirAll(dir, 0755))

	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, "Groot.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	classesPath := filepath.Join(dataDir, "predefined_classes.txt")
	require.NoError(t, labels.WriteClasses(classesPath, []string{"Groot"}))
	result := labels.NewGenerator(dataDir, classesPath, nil).Generate("Groot", 0)
	require.True(t, result.OK(), "unexpected errors: %v", result.Err())

	out, _, err := execute(t, dataDir, "show", "Groot", "--width", "8")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[38;2;")
	assert.Contains(t, out, "0 0.5 0.5 1 1")

	out, _, err = execute(t, dataDir, "show", "Groot", "--width", "8", "--256")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[38;5;")
	assert.NotContains(t, out, "\x1b[38;2;")
}
