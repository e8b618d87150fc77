package main

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitzberger/cli-browser/internal/browser"
	"github.com/kitzberger/cli-browser/internal/config"
)

// newContentFlags mirrors the flag set of the content command on fresh state.
func newContentFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	resetFlagValues()
	t.Cleanup(resetFlagValues)

	cmd := &cobra.Command{Use: "content"}
	addBrowseFlags(cmd)
	fs := cmd.Flags()
	fs.SetNormalizeFunc(contentFlagAliases)
	return fs
}

func resetFlagValues() {
	withDeleted, withoutHidden, withoutPast, withoutFuture = false, false, false, false
	limit = config.DefaultLimit
	columns, tableName, typeValue, subtypeValue = "", "", "", ""
	groupByPID, groupBySite, withURL, withSite = false, false, false, false
}

func TestContentAliases(t *testing.T) {
	fs := newContentFlags(t)
	require.NoError(t, fs.Parse([]string{"--CType=list", "--list_type", "news_pi1", "--without-hidden"}))

	opts := browseOptions(fs, nil)
	assert.Equal(t, "list", opts.Type)
	assert.Equal(t, "news_pi1", opts.Subtype)
	assert.True(t, opts.Restrictions.ExcludeHidden)
	assert.False(t, opts.Restrictions.IncludeDeleted)
}

func TestColumnsFlag(t *testing.T) {
	fs := newContentFlags(t)
	require.NoError(t, fs.Parse([]string{"--columns"}))
	opts := browseOptions(fs, nil)
	assert.True(t, opts.PromptColumns)
	assert.Nil(t, opts.Columns)

	fs = newContentFlags(t)
	require.NoError(t, fs.Parse([]string{"--columns= uid, header,,bodytext "}))
	opts = browseOptions(fs, nil)
	assert.False(t, opts.PromptColumns)
	assert.Equal(t, []string{"uid", "header", "bodytext"}, opts.Columns)

	fs = newContentFlags(t)
	require.NoError(t, fs.Parse(nil))
	opts = browseOptions(fs, nil)
	assert.False(t, opts.PromptColumns)
	assert.Nil(t, opts.Columns)
}

func TestLimitFallsBackToConfig(t *testing.T) {
	cfg := &config.Config{Browser: config.BrowserConfig{Limit: 20}}

	fs := newContentFlags(t)
	require.NoError(t, fs.Parse(nil))
	assert.Equal(t, 20, browseOptions(fs, cfg).Limit)

	fs = newContentFlags(t)
	require.NoError(t, fs.Parse([]string{"-l", "3"}))
	assert.Equal(t, 3, browseOptions(fs, cfg).Limit)
}

func TestInvalidLimitIsInputError(t *testing.T) {
	fs := newContentFlags(t)
	require.NoError(t, fs.Parse([]string{"--limit=0"}))

	err := browseOptions(fs, nil).Validate()
	var inputErr *browser.InputValidationError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "limit", inputErr.Field)
}

func TestFlagErrorsAreInputErrors(t *testing.T) {
	err := rootCmd.FlagErrorFunc()(contentCmd, errors.New("unknown flag: --bogus"))

	var inputErr *browser.InputValidationError
	require.True(t, errors.As(err, &inputErr))
	assert.Contains(t, inputErr.Error(), "--bogus")
}

func TestTimezoneResolvesFromEmbeddedDatabase(t *testing.T) {
	cfg := &config.Config{Browser: config.BrowserConfig{Timezone: "Europe/Berlin"}}

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}
