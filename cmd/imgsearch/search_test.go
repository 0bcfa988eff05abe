package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imgsearch/pkg/pipeline"
)

func TestCleanQueries(t *testing.T) {
	queries, err := cleanQueries([]string{"  selfie stick ", "", "   ", "cats"})
	require.NoError(t, err)
	assert.Equal(t, []string{"selfie stick", "cats"}, queries)

	_, err = cleanQueries(nil)
	assert.Error(t, err)
}

func TestCleanQueriesRejectsPaths(t *testing.T) {
	for _, arg := range []string{"../x", "a/b", ".."} {
		_, err := cleanQueries([]string{"cats", arg})
		assert.ErrorIs(t, err, pipeline.ErrInvalidQuery, "query %q", arg)
	}
}

func newFlagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "")
	cmd.Flags().IntVar(&concurrent, "concurrent", 0, "")
	cmd.Flags().IntVar(&pages, "pages", 0, "")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestBuildFlagsOnlyExplicit(t *testing.T) {
	quiet = false
	flags := buildFlags(newFlagCmd(t, "-o", "/tmp/out", "--concurrent", "0"))

	assert.Equal(t, map[string]interface{}{
		"output":               "/tmp/out",
		"concurrent-downloads": 0,
	}, flags)
}

func TestBuildFlagsQuietLowersLogLevel(t *testing.T) {
	quiet = true
	t.Cleanup(func() { quiet = false })

	flags := buildFlags(newFlagCmd(t, "--pages", "2"))
	assert.Equal(t, "error", flags["log-level"])
	assert.Equal(t, 2, flags["pages"])

	flags = buildFlags(newFlagCmd(t, "--log-level", "debug"))
	assert.Equal(t, "debug", flags["log-level"])
}
