package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/importcache/internal/adapters/documents"
	"go.trai.ch/importcache/internal/adapters/fs"
	"go.trai.ch/importcache/internal/adapters/robotfile"
	"go.trai.ch/importcache/internal/adapters/telemetry"
	"go.trai.ch/importcache/internal/adapters/watcher"
	"go.trai.ch/importcache/internal/app"
	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newComponents(t *testing.T, loader *mocks.MockConfigLoader, log *mocks.MockLogger) ComponentProvider {
	t.Helper()
	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	application := app.New(
		loader,
		log,
		w,
		documents.NewStore(),
		robotfile.NewParser(),
		fs.NewWalker(),
		nil,
		telemetry.NewNoOpTracer(),
	)
	return func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{App: application, Logger: log}, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := newComponents(t, mocks.NewMockConfigLoader(ctrl), mocks.NewMockLogger(ctrl))

	stdout := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stdout, io.Discard, provider)

	assert.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "importcache version")
}

// TestRun_Resource runs a lookup against a real workspace.
func TestRun_Resource(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "common.resource")
	require.NoError(t, os.WriteFile(source, []byte("*** Settings ***\nLibrary    Collections\n"), 0o600))

	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load(root).Return(domain.DefaultConfig(root), nil)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	stdout := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"resource", "common.resource", "-C", root}, stdout, io.Discard,
		newComponents(t, loader, log))

	require.Equal(t, 0, exitCode)
	assert.Contains(t, stdout.String(), "source: "+source)
	assert.Contains(t, stdout.String(), "name: Collections")
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, io.Discard, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run returns 1 and logs the error when the command fails.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	loader := mocks.NewMockConfigLoader(ctrl)
	log := mocks.NewMockLogger(ctrl)

	loadErr := errors.New("load failed")
	loader.EXPECT().Load(gomock.Any()).Return(nil, loadErr)
	log.EXPECT().Error(gomock.Cond(func(err error) bool { return errors.Is(err, loadErr) }))

	exitCode := run(context.Background(), []string{"library", "Collections"}, io.Discard, io.Discard,
		newComponents(t, loader, log))

	assert.Equal(t, 1, exitCode)
}
