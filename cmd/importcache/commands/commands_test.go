package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/importcache/cmd/importcache/commands"
	"go.trai.ch/importcache/internal/app"
	"go.trai.ch/importcache/internal/build"
	"go.trai.ch/importcache/internal/core/domain"
)

type mockApp struct {
	configured   app.LogOptions
	lookupFunc   func(ctx context.Context, dir string, opts app.LookupOptions) (*app.LookupResult, error)
	completeFunc func(ctx context.Context, dir string, kind domain.ImportKind, partial, baseDir string) ([]domain.CompletionItem, error)
	watchFunc    func(ctx context.Context, dir string, opts app.WatchOptions) error
}

func (m *mockApp) Configure(opts app.LogOptions) {
	m.configured = opts
}

func (m *mockApp) Lookup(ctx context.Context, dir string, opts app.LookupOptions) (*app.LookupResult, error) {
	if m.lookupFunc != nil {
		return m.lookupFunc(ctx, dir, opts)
	}
	return &app.LookupResult{}, nil
}

func (m *mockApp) Complete(
	ctx context.Context,
	dir string,
	kind domain.ImportKind,
	partial, baseDir string,
) ([]domain.CompletionItem, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, dir, kind, partial, baseDir)
	}
	return nil, nil
}

func (m *mockApp) Watch(ctx context.Context, dir string, opts app.WatchOptions) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, dir, opts)
	}
	return nil
}

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Library(t *testing.T) {
	var captured app.LookupOptions
	var capturedDir string
	mock := &mockApp{
		lookupFunc: func(_ context.Context, dir string, opts app.LookupOptions) (*app.LookupResult, error) {
			capturedDir, captured = dir, opts
			return &app.LookupResult{
				Import:  &domain.ResolvedImport{Kind: domain.KindLibrary, Name: "Collections", Source: "/usr/lib/robot/Collections.py"},
				Library: &domain.LibraryDoc{Name: "Collections", Keywords: []domain.KeywordDoc{{Name: "Append To List"}}},
			}, nil
		},
	}

	out, err := execute(t, mock, "library", "Collections", "a", "b", "-C", "/proj", "--base-dir", "tests", "--quiet")
	require.NoError(t, err)

	assert.Equal(t, "/proj", capturedDir)
	assert.Equal(t, app.LookupOptions{
		Kind:    domain.KindLibrary,
		Name:    "Collections",
		Args:    []string{"a", "b"},
		BaseDir: "tests",
	}, captured)
	assert.Equal(t, app.LogOptions{Format: "auto", Quiet: true}, mock.configured)
	assert.Contains(t, out, "import:\n  kind: library\n  name: Collections\n  source: /usr/lib/robot/Collections.py\n")
	assert.Contains(t, out, "library:\n  name: Collections\n")
	assert.Contains(t, out, "- name: Append To List\n")
	assert.NotContains(t, out, "resource:")
}

func TestCommands_Resource(t *testing.T) {
	t.Run("takes exactly one name", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "resource", "a.resource", "extra")
		require.Error(t, err)
	})

	t.Run("returns lookup errors", func(t *testing.T) {
		mock := &mockApp{
			lookupFunc: func(context.Context, string, app.LookupOptions) (*app.LookupResult, error) {
				return nil, domain.ErrImportNotFound
			},
		}
		_, err := execute(t, mock, "resource", "missing.resource")
		require.ErrorIs(t, err, domain.ErrImportNotFound)
	})
}

func TestCommands_Variables(t *testing.T) {
	var captured app.LookupOptions
	mock := &mockApp{
		lookupFunc: func(_ context.Context, _ string, opts app.LookupOptions) (*app.LookupResult, error) {
			captured = opts
			return &app.LookupResult{}, nil
		},
	}

	_, err := execute(t, mock, "variables", "vars.py", "staging", "--log-format", "json", "--trace")
	require.NoError(t, err)
	assert.Equal(t, domain.KindVariables, captured.Kind)
	assert.Equal(t, []string{"staging"}, captured.Args)
	assert.Equal(t, app.LogOptions{Format: "json", Trace: true}, mock.configured)
}

func TestCommands_Complete(t *testing.T) {
	items := []domain.CompletionItem{
		{Label: "common.resource", Kind: "resource", Detail: "/proj/resources/common.resource"},
		{Label: "lib/", Kind: "directory"},
	}
	var capturedKind domain.ImportKind
	var capturedPartial string
	mock := &mockApp{
		completeFunc: func(_ context.Context, _ string, kind domain.ImportKind, partial, _ string) ([]domain.CompletionItem, error) {
			capturedKind, capturedPartial = kind, partial
			return items, nil
		},
	}

	out, err := execute(t, mock, "complete", "resource", "co")
	require.NoError(t, err)
	assert.Equal(t, domain.KindResource, capturedKind)
	assert.Equal(t, "co", capturedPartial)
	assert.Equal(t, "common.resource\nlib/\n", out)

	out, err = execute(t, mock, "complete", "resource", "--detail")
	require.NoError(t, err)
	assert.Empty(t, capturedPartial)
	assert.Contains(t, out, "detail: /proj/resources/common.resource")

	_, err = execute(t, mock, "complete", "keyword", "x")
	require.ErrorIs(t, err, domain.ErrUnknownImportKind)
}

func TestCommands_Watch(t *testing.T) {
	var captured app.WatchOptions
	mock := &mockApp{
		watchFunc: func(_ context.Context, _ string, opts app.WatchOptions) error {
			captured = opts
			return errors.New("simulated error")
		},
	}

	_, err := execute(t, mock, "watch", "--metrics-addr", "localhost:9464")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated error")
	assert.Equal(t, "localhost:9464", captured.MetricsAddr)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)

	assert.Contains(t, out, build.Version)
}
