package imports_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/importcache/internal/adapters/documents"
	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/importcache/internal/core/ports"
	"go.trai.ch/importcache/internal/core/ports/mocks"
	"go.trai.ch/importcache/internal/engine/dispatcher"
	"go.trai.ch/importcache/internal/engine/imports"
	"go.uber.org/mock/gomock"
)

const (
	robotLib        = "/usr/lib/robot"
	collectionsPath = "/usr/lib/robot/Collections.py"
)

type managerTestMocks struct {
	resolver  *mocks.MockImportResolver
	docs      *mocks.MockDocumentationProvider
	completer *mocks.MockCompleter
	documents *mocks.MockDocumentStore
	parser    *mocks.MockResourceParser
	watcher   *mocks.MockFileWatcher
	logger    *mocks.MockLogger
	tracer    *mocks.MockTracer
}

// setupManagerTest creates a manager searching /usr/lib/robot with common mocks.
// opts may replace collaborators before the manager is built.
func setupManagerTest(t *testing.T, opts ...func(*imports.Deps)) (*imports.Manager, managerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := managerTestMocks{
		resolver:  mocks.NewMockImportResolver(ctrl),
		docs:      mocks.NewMockDocumentationProvider(ctrl),
		completer: mocks.NewMockCompleter(ctrl),
		documents: mocks.NewMockDocumentStore(ctrl),
		parser:    mocks.NewMockResourceParser(ctrl),
		watcher:   mocks.NewMockFileWatcher(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
		tracer:    mocks.NewMockTracer(ctrl),
	}

	mockSpan := mocks.NewMockSpan(ctrl)
	mockSpan.EXPECT().End().AnyTimes()
	mockSpan.EXPECT().RecordError(gomock.Any()).AnyTimes()
	mockSpan.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string) (context.Context, ports.Span) {
			return ctx, mockSpan
		},
	).AnyTimes()
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	cfg := domain.DefaultConfig("/proj")
	cfg.Search.SearchPaths = []string{robotLib}
	cfg.Timeouts.Load = 30 * time.Second

	d := dispatcher.New(4)
	t.Cleanup(d.Close)

	deps := imports.Deps{
		Resolver:   m.resolver,
		Docs:       m.docs,
		Completer:  m.completer,
		Documents:  m.documents,
		Parser:     m.parser,
		Watcher:    m.watcher,
		Dispatcher: d,
		Logger:     m.logger,
		Tracer:     m.tracer,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return imports.New(cfg, deps), m
}

// resolveTo makes the resolver map every name to source.
func resolveTo(m managerTestMocks, source string) {
	m.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.ImportRequest) (*domain.ResolvedImport, error) {
			return &domain.ResolvedImport{Kind: req.Kind, Name: req.Name, Source: source}, nil
		},
	).AnyTimes()
}

func TestManager_GetLibrary_SingleFlight(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mgr, m := setupManagerTest(t)
		resolveTo(m, collectionsPath)

		doc := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
		release := make(chan struct{})
		m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).DoAndReturn(
			func(context.Context, domain.ImportRequest) (*domain.LibraryDoc, error) {
				<-release
				return doc, nil
			},
		).Times(1)
		m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil).Times(1)

		const callers = 10
		results := make([]*domain.LibraryDoc, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := mgr.GetLibrary(context.Background(), "Collections", nil, "/proj", "")
				assert.NoError(t, err)
				results[i] = got
			}()
		}

		synctest.Wait()
		close(release)
		wg.Wait()

		for _, got := range results {
			assert.Same(t, doc, got)
		}
	})
}

func TestManager_CollectionsScenario(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	first := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
	second := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
	gomock.InOrder(
		m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(first, nil),
		m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(second, nil),
	)

	pattern := filepath.Join(robotLib, "**")
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), mgr, []string{pattern}).Return(ports.WatchHandle(7), nil).Times(2)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(7)).Return(nil).Times(1)

	var notified [][]*domain.LibraryDoc
	mgr.OnLibrariesChanged(func(_ context.Context, docs []*domain.LibraryDoc) {
		notified = append(notified, docs)
	})

	got, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
	require.NoError(t, err)
	assert.Same(t, first, got)

	mgr.OnFileChangeBatch(ctx, []domain.FileChange{{Path: collectionsPath, Kind: domain.ChangeModified}})

	require.Len(t, notified, 1)
	assert.Equal(t, []*domain.LibraryDoc{first}, notified[0])
	assert.Equal(t, 0, mgr.Stats().Libraries.Valid)

	got, err = mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestManager_IrrelevantChangeIsNoOp(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).
		Return(&domain.LibraryDoc{Name: "Collections", Source: collectionsPath}, nil).Times(1)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil)

	mgr.OnLibrariesChanged(func(context.Context, []*domain.LibraryDoc) {
		t.Fatal("unexpected libraries notification")
	})
	mgr.OnResourcesChanged(func(context.Context, []*domain.ResourceDoc) {
		t.Fatal("unexpected resources notification")
	})
	mgr.OnVariablesChanged(func(context.Context, []*domain.VariablesDoc) {
		t.Fatal("unexpected variables notification")
	})

	_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
	require.NoError(t, err)

	mgr.OnFileChangeBatch(ctx, []domain.FileChange{
		{Path: "/home/user/notes.txt", Kind: domain.ChangeModified},
		{Path: "/usr/lib/robotframework/other.py", Kind: domain.ChangeCreated},
	})

	// Still cached: no second computation.
	_, err = mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.Stats().Libraries.Valid)
}

func TestManager_TimeoutDoesNotPoisonCache(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mgr, m := setupManagerTest(t)
		ctx := context.Background()
		resolveTo(m, collectionsPath)

		doc := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
		gomock.InOrder(
			m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).DoAndReturn(
				func(ctx context.Context, _ domain.ImportRequest) (*domain.LibraryDoc, error) {
					<-ctx.Done()
					return nil, ctx.Err()
				},
			),
			m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(doc, nil),
		)
		m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil).Times(1)

		_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
		require.ErrorIs(t, err, domain.ErrComputeTimeout)
		assert.Equal(t, 0, mgr.Stats().Libraries.Valid)

		got, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
		require.NoError(t, err)
		assert.Same(t, doc, got)
	})
}

func TestManager_ReleaseEvictsUnreferencedEntry(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).
		Return(&domain.LibraryDoc{Name: "Collections", Source: collectionsPath}, nil).Times(2)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(3), nil).Times(2)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(3)).Return(nil).Times(1)

	_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "file:///proj/a.robot")
	require.NoError(t, err)
	assert.Equal(t, 1, mgr.Stats().Libraries.Referenced)

	mgr.Release(ctx, "file:///proj/a.robot")

	stats := mgr.Stats()
	assert.Equal(t, 0, stats.Libraries.Entries)
	assert.Equal(t, 0, stats.Referrers)

	// A fresh entry is created and computed again without any invalidation.
	_, err = mgr.GetLibrary(ctx, "Collections", nil, "/proj", "file:///proj/a.robot")
	require.NoError(t, err)
}

func TestManager_ReleaseKeepsEntryWithOtherReferrers(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).
		Return(&domain.LibraryDoc{Name: "Collections", Source: collectionsPath}, nil).Times(1)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil).Times(1)

	_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "a.robot")
	require.NoError(t, err)
	_, err = mgr.GetLibrary(ctx, "Collections", nil, "/proj", "b.robot")
	require.NoError(t, err)

	mgr.Release(ctx, "a.robot")
	mgr.Release(ctx, "unknown.robot")

	stats := mgr.Stats()
	assert.Equal(t, 1, stats.Libraries.Entries)
	assert.Equal(t, 1, stats.Libraries.Valid)
}

func TestManager_ResolutionFailure(t *testing.T) {
	mgr, m := setupManagerTest(t)

	m.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, domain.ErrImportNotFound)

	_, err := mgr.GetLibrary(context.Background(), "Missing", nil, "/proj", "a.robot")

	require.ErrorIs(t, err, domain.ErrResolutionFailed)
	require.ErrorIs(t, err, domain.ErrImportNotFound)
	assert.Equal(t, 0, mgr.Stats().Libraries.Entries)
}

func TestManager_WatcherRegistrationFailureIsNotFatal(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	doc := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(doc, nil).Times(1)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(ports.WatchHandle(0), errors.New("too many open files"))
	m.logger.EXPECT().Warn(gomock.Any()).Times(1)

	got, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
	require.NoError(t, err)
	assert.Same(t, doc, got)

	got, err = mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
	require.NoError(t, err)
	assert.Same(t, doc, got)
}

func TestManager_RecordedErrorsAreCached(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, "/proj/lib/Broken.py")

	doc := &domain.LibraryDoc{
		Name:   "Broken",
		Source: "/proj/lib/Broken.py",
		Errors: []domain.DocError{{Message: "invalid syntax", TypeName: "SyntaxError", Line: 3}},
	}
	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(doc, nil).Times(1)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), []string{filepath.Join("/proj/lib", "**")}).
		Return(ports.WatchHandle(1), nil)

	for range 2 {
		got, err := mgr.GetLibrary(ctx, "Broken", nil, "/proj", "")
		require.NoError(t, err)
		assert.Len(t, got.Problems(), 1)
	}
}

func TestManager_ArgumentsAreSeparateEntries(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, "/proj/lib/Remote.py")

	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.ImportRequest) (*domain.LibraryDoc, error) {
			return &domain.LibraryDoc{Name: req.Name, Source: "/proj/lib/Remote.py"}, nil
		},
	).Times(2)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil).Times(2)

	_, err := mgr.GetLibrary(ctx, "Remote", []string{"http://a"}, "/proj", "")
	require.NoError(t, err)
	_, err = mgr.GetLibrary(ctx, "Remote", []string{"http://b"}, "/proj", "")
	require.NoError(t, err)
	_, err = mgr.GetLibrary(ctx, "./lib/Remote.py", []string{"http://a"}, "/proj", "")
	require.NoError(t, err)

	assert.Equal(t, 2, mgr.Stats().Libraries.Entries)
}

func TestManager_PackageLibraryWatchesSearchLocations(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()

	pkg := "/proj/lib/mypkg"
	m.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(&domain.ResolvedImport{
		Kind:            domain.KindLibrary,
		Name:            "mypkg",
		Source:          filepath.Join(pkg, "__init__.py"),
		SearchLocations: []string{pkg},
	}, nil).AnyTimes()
	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).
		Return(&domain.LibraryDoc{Name: "mypkg"}, nil).Times(1)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), []string{filepath.Join(pkg, "**")}).
		Return(ports.WatchHandle(5), nil)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(5)).Return(nil)

	doc, err := mgr.GetLibrary(ctx, "mypkg", nil, "/proj", "")
	require.NoError(t, err)
	assert.Equal(t, []string{pkg}, doc.SearchLocations)

	mgr.OnFileChangeBatch(ctx, []domain.FileChange{{Path: filepath.Join(pkg, "sub", "keywords.py"), Kind: domain.ChangeCreated}})

	assert.Equal(t, 0, mgr.Stats().Libraries.Valid)
}

func TestManager_UnlocatedLibraryFallsBackToSearchRoots(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()

	m.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).
		Return(&domain.ResolvedImport{Kind: domain.KindLibrary, Name: "NotYetInstalled"}, nil).AnyTimes()
	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(&domain.LibraryDoc{
		Name:   "NotYetInstalled",
		Errors: []domain.DocError{{Message: "No module named 'NotYetInstalled'", TypeName: "ModuleNotFoundError"}},
	}, nil)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), []string{filepath.Join(robotLib, "**")}).
		Return(ports.WatchHandle(9), nil)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(9)).Return(nil)

	_, err := mgr.GetLibrary(ctx, "NotYetInstalled", nil, "/proj", "")
	require.NoError(t, err)

	mgr.OnFileChangeBatch(ctx, []domain.FileChange{{Path: filepath.Join(robotLib, "NotYetInstalled.py"), Kind: domain.ChangeCreated}})

	assert.Equal(t, 0, mgr.Stats().Libraries.Valid)
}

func TestManager_GetVariables_WatchesExactFile(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, "/proj/vars/dev.py")

	doc := &domain.VariablesDoc{Name: "dev.py", Source: "/proj/vars/dev.py"}
	m.docs.EXPECT().VariablesDoc(gomock.Any(), gomock.Any()).Return(doc, nil).Times(1)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), []string{"/proj/vars/dev.py"}).
		Return(ports.WatchHandle(2), nil)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(2)).Return(nil)

	var notified []*domain.VariablesDoc
	mgr.OnVariablesChanged(func(_ context.Context, docs []*domain.VariablesDoc) {
		notified = append(notified, docs...)
	})

	_, err := mgr.GetVariables(ctx, "vars/dev.py", nil, "/proj", "")
	require.NoError(t, err)

	// A sibling file does not affect the entry.
	mgr.OnFileChangeBatch(ctx, []domain.FileChange{{Path: "/proj/vars/prod.py", Kind: domain.ChangeModified}})
	assert.Empty(t, notified)

	mgr.OnFileChangeBatch(ctx, []domain.FileChange{{Path: "/proj/vars/dev.py", Kind: domain.ChangeDeleted}})
	assert.Equal(t, []*domain.VariablesDoc{doc}, notified)
}

func TestManager_GetResource_FromDisk(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	source := "/proj/resources/common.resource"
	resolveTo(m, source)

	text := &domain.TextDocument{Path: source, Text: "*** Keywords ***\n"}
	ns := &domain.Namespace{Source: source}
	// Loading and the check after subscribing both open the document.
	m.documents.EXPECT().Open(gomock.Any(), source).Return(text, nil).Times(4)
	m.parser.EXPECT().ParseResource(gomock.Any(), text).DoAndReturn(
		func(context.Context, *domain.TextDocument) (*domain.ResourceDoc, error) {
			return &domain.ResourceDoc{Name: "common", Source: source, Namespace: ns}, nil
		},
	).Times(2)
	m.documents.EXPECT().Subscribe(source, gomock.Any()).Return(func() {}).Times(2)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), []string{source}).Return(ports.WatchHandle(4), nil).Times(2)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(4)).Return(nil)

	gotNS, doc, err := mgr.GetResource(ctx, "resources/common.resource", "/proj", "")
	require.NoError(t, err)
	assert.Same(t, ns, gotNS)
	assert.False(t, doc.Versioned)

	mgr.OnFileChangeBatch(ctx, []domain.FileChange{{Path: source, Kind: domain.ChangeModified}})

	_, _, err = mgr.GetResource(ctx, "resources/common.resource", "/proj", "")
	require.NoError(t, err)
}

func TestManager_GetResource_LiveEditedDocument(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	source := "/proj/resources/common.resource"
	resolveTo(m, source)

	text := &domain.TextDocument{Path: source, Text: "*** Keywords ***\n", Version: 4, Versioned: true}
	// Loading and the check after subscribing both open the document.
	m.documents.EXPECT().Open(gomock.Any(), source).Return(text, nil).Times(4)
	m.parser.EXPECT().ParseResource(gomock.Any(), text).DoAndReturn(
		func(context.Context, *domain.TextDocument) (*domain.ResourceDoc, error) {
			return &domain.ResourceDoc{Name: "common", Source: source}, nil
		},
	).Times(2)

	var listener ports.DocumentListener
	unsubscribed := 0
	m.documents.EXPECT().Subscribe(source, gomock.Any()).DoAndReturn(
		func(_ string, fn ports.DocumentListener) func() {
			listener = fn
			return func() { unsubscribed++ }
		},
	).Times(2)
	// Live-edited documents never get a file watcher.
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	var notified []*domain.ResourceDoc
	mgr.OnResourcesChanged(func(_ context.Context, docs []*domain.ResourceDoc) {
		notified = append(notified, docs...)
	})

	_, doc, err := mgr.GetResource(ctx, "common.resource", "/proj/resources", "")
	require.NoError(t, err)
	assert.True(t, doc.Versioned)
	assert.Equal(t, 4, doc.Version)

	require.NotNil(t, listener)
	listener(ctx, text)

	assert.Equal(t, 1, unsubscribed)
	assert.Equal(t, []*domain.ResourceDoc{doc}, notified)

	_, again, err := mgr.GetResource(ctx, "common.resource", "/proj/resources", "")
	require.NoError(t, err)
	assert.NotSame(t, doc, again)
}

func TestManager_GetResource_OpenFailure(t *testing.T) {
	mgr, m := setupManagerTest(t)
	resolveTo(m, "/proj/gone.resource")

	m.documents.EXPECT().Open(gomock.Any(), "/proj/gone.resource").Return(nil, errors.New("no such file"))

	_, _, err := mgr.GetResource(context.Background(), "gone.resource", "/proj", "")

	require.ErrorIs(t, err, domain.ErrDocumentOpenFailed)
	assert.Equal(t, 0, mgr.Stats().Resources.Valid)
}

func TestManager_CompleteIsNotCached(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()

	items := []domain.CompletionItem{{Label: "Collections", Kind: "library"}}
	m.completer.EXPECT().Complete(gomock.Any(), domain.KindLibrary, "Coll", "/proj", gomock.Any()).
		Return(items, nil).Times(2)
	m.completer.EXPECT().Complete(gomock.Any(), domain.KindResource, "res", "/proj", gomock.Any()).
		Return(nil, nil)
	m.completer.EXPECT().Complete(gomock.Any(), domain.KindVariables, "va", "/proj", gomock.Any()).
		Return(nil, errors.New("worker crashed"))

	for range 2 {
		got, err := mgr.CompleteLibrary(ctx, "Coll", "/proj")
		require.NoError(t, err)
		assert.Equal(t, items, got)
	}

	_, err := mgr.CompleteResource(ctx, "res", "/proj")
	require.NoError(t, err)

	_, err = mgr.CompleteVariables(ctx, "va", "/proj")
	require.Error(t, err)
}

func TestManager_FindDoesNotCreateEntries(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	resolved, err := mgr.FindLibrary(ctx, "Collections", nil, "/proj")
	require.NoError(t, err)
	assert.Equal(t, collectionsPath, resolved.Source)

	_, err = mgr.FindResource(ctx, "x.resource", "/proj")
	require.NoError(t, err)
	_, err = mgr.FindVariables(ctx, "vars.py", nil, "/proj")
	require.NoError(t, err)

	stats := mgr.Stats()
	assert.Zero(t, stats.Libraries.Entries+stats.Resources.Entries+stats.Variables.Entries)
}

func TestManager_ClearCache(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	doc := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(doc, nil)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(1)).Return(nil)

	var notified []*domain.LibraryDoc
	mgr.OnLibrariesChanged(func(_ context.Context, docs []*domain.LibraryDoc) {
		notified = append(notified, docs...)
	})

	_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "a.robot")
	require.NoError(t, err)

	mgr.ClearCache(ctx)

	assert.Equal(t, []*domain.LibraryDoc{doc}, notified)
	stats := mgr.Stats()
	assert.Equal(t, 0, stats.Libraries.Entries)
	assert.Equal(t, 0, stats.Referrers)
}

func TestManager_Close(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).
		Return(&domain.LibraryDoc{Name: "Collections", Source: collectionsPath}, nil)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(1)).Return(nil)

	_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
	require.NoError(t, err)

	mgr.Close(ctx)
	mgr.Close(ctx)

	_, err = mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
	require.ErrorIs(t, err, domain.ErrManagerClosed)
}

func TestManager_Metrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockImportResolver(ctrl)
	docs := mocks.NewMockDocumentationProvider(ctrl)
	metrics := mocks.NewMockMetrics(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	d := dispatcher.New(1)
	t.Cleanup(d.Close)

	mgr := imports.New(domain.DefaultConfig("/proj"), imports.Deps{
		Resolver:   resolver,
		Docs:       docs,
		Dispatcher: d,
		Logger:     logger,
		Metrics:    metrics,
	})

	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).
		Return(&domain.ResolvedImport{Name: "Collections", Source: collectionsPath}, nil).Times(2)
	docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).
		Return(&domain.LibraryDoc{Name: "Collections", Source: collectionsPath}, nil)

	metrics.EXPECT().SetEntries(domain.KindLibrary, 1).Times(2)
	gomock.InOrder(
		metrics.EXPECT().CacheMiss(domain.KindLibrary),
		metrics.EXPECT().ObserveCompute(domain.KindLibrary, gomock.Any(), nil),
		metrics.EXPECT().CacheHit(domain.KindLibrary),
	)

	for range 2 {
		_, err := mgr.GetLibrary(context.Background(), "Collections", nil, "/proj", "")
		require.NoError(t, err)
	}
}

func TestManager_LookupRacingReleaseDoesNotStrandWatchers(t *testing.T) {
	var armed atomic.Bool
	entered := make(chan struct{})
	proceed := make(chan struct{})

	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	metrics.EXPECT().SetEntries(gomock.Any(), gomock.Any()).Do(func(domain.ImportKind, int) {
		if armed.CompareAndSwap(true, false) {
			close(entered)
			<-proceed
		}
	}).AnyTimes()
	metrics.EXPECT().Evicted(domain.KindLibrary).Times(1)
	metrics.EXPECT().CacheHit(gomock.Any()).AnyTimes()
	metrics.EXPECT().CacheMiss(gomock.Any()).AnyTimes()
	metrics.EXPECT().ObserveCompute(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	mgr, m := setupManagerTest(t, func(d *imports.Deps) { d.Metrics = metrics })
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).
		Return(&domain.LibraryDoc{Name: "Collections", Source: collectionsPath}, nil).Times(2)
	gomock.InOrder(
		m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil),
		m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(2), nil),
	)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(1)).Return(nil).Times(1)
	m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(2)).Return(nil).Times(1)

	_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "a.robot")
	require.NoError(t, err)

	// The second lookup holds the entry but stops before reading it.
	armed.Store(true)
	done := make(chan error, 1)
	go func() {
		_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
		done <- err
	}()
	<-entered

	mgr.Release(ctx, "a.robot")
	close(proceed)
	require.NoError(t, <-done)

	// The lookup computed into an entry that is still in the table.
	stats := mgr.Stats()
	assert.Equal(t, 1, stats.Libraries.Entries)
	assert.Equal(t, 1, stats.Libraries.Valid)

	mgr.Close(ctx)
}

func TestManager_EditDuringResourceLoadIsNotLost(t *testing.T) {
	store := documents.NewStore()
	mgr, m := setupManagerTest(t, func(d *imports.Deps) { d.Documents = store })
	ctx := context.Background()
	source := "/proj/resources/common.resource"
	resolveTo(m, source)

	store.DidOpen(ctx, source, "*** Keywords ***\nOld\n", 1)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	var parsed []int
	m.parser.EXPECT().ParseResource(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, text *domain.TextDocument) (*domain.ResourceDoc, error) {
			if len(parsed) == 0 {
				close(entered)
				<-proceed
			}
			parsed = append(parsed, text.Version)
			return &domain.ResourceDoc{Name: "common", Source: source, Doc: text.Text}, nil
		},
	).Times(2)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	type result struct {
		doc *domain.ResourceDoc
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, doc, err := mgr.GetResource(ctx, "common.resource", "/proj/resources", "")
		done <- result{doc, err}
	}()

	<-entered
	store.DidChange(ctx, source, "*** Keywords ***\nNew\n", 2)
	close(proceed)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, []int{1, 2}, parsed)
	assert.Equal(t, 2, res.doc.Version)
	assert.Equal(t, "*** Keywords ***\nNew\n", res.doc.Doc)

	// Later edits still reach the cached document.
	var notified []*domain.ResourceDoc
	mgr.OnResourcesChanged(func(_ context.Context, docs []*domain.ResourceDoc) {
		notified = append(notified, docs...)
	})
	store.DidChange(ctx, source, "*** Keywords ***\nNewer\n", 3)
	assert.Equal(t, []*domain.ResourceDoc{res.doc}, notified)
}

func TestManager_ResolveOutlivesCancelledCaller(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mgr, m := setupManagerTest(t)

		release := make(chan struct{})
		m.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, req domain.ImportRequest) (*domain.ResolvedImport, error) {
				select {
				case <-release:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				return &domain.ResolvedImport{Kind: req.Kind, Name: req.Name, Source: collectionsPath}, nil
			},
		).Times(1)

		cancelled, cancel := context.WithCancel(context.Background())
		var firstErr, secondErr error
		var second *domain.ResolvedImport
		var wg sync.WaitGroup
		wg.Add(2)
		// The cancelled caller starts the shared resolution.
		go func() {
			defer wg.Done()
			_, firstErr = mgr.FindLibrary(cancelled, "Collections", nil, "/proj")
		}()
		synctest.Wait()
		go func() {
			defer wg.Done()
			second, secondErr = mgr.FindLibrary(context.Background(), "Collections", nil, "/proj")
		}()
		synctest.Wait()

		cancel()
		synctest.Wait()

		close(release)
		wg.Wait()

		require.ErrorIs(t, firstErr, domain.ErrResolutionFailed)
		require.ErrorIs(t, firstErr, context.Canceled)
		require.NoError(t, secondErr)
		assert.Equal(t, collectionsPath, second.Source)
	})
}

func TestManager_ChangeDuringComputationInvalidatesFreshDocument(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mgr, m := setupManagerTest(t)
		ctx := context.Background()
		resolveTo(m, collectionsPath)

		first := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
		second := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
		release := make(chan struct{})
		gomock.InOrder(
			m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).DoAndReturn(
				func(context.Context, domain.ImportRequest) (*domain.LibraryDoc, error) {
					<-release
					return first, nil
				},
			),
			m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(second, nil),
		)
		m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil).Times(2)
		m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(1)).Return(nil).Times(1)

		var notified [][]*domain.LibraryDoc
		mgr.OnLibrariesChanged(func(_ context.Context, docs []*domain.LibraryDoc) {
			notified = append(notified, docs)
		})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			got, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
			assert.NoError(t, err)
			assert.Same(t, first, got)
		}()
		synctest.Wait()

		go func() {
			defer wg.Done()
			mgr.OnFileChangeBatch(ctx, []domain.FileChange{{Path: collectionsPath, Kind: domain.ChangeModified}})
		}()
		synctest.Wait()
		assert.Empty(t, notified, "the change waits for the computation")

		close(release)
		wg.Wait()

		require.Len(t, notified, 1)
		assert.Equal(t, []*domain.LibraryDoc{first}, notified[0])
		assert.Equal(t, 0, mgr.Stats().Libraries.Valid)

		got, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
		require.NoError(t, err)
		assert.Same(t, second, got)
	})
}

func TestManager_ReleaseDuringComputationEvictsEntry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		metrics := mocks.NewMockMetrics(ctrl)
		metrics.EXPECT().SetEntries(gomock.Any(), gomock.Any()).AnyTimes()
		metrics.EXPECT().Evicted(domain.KindLibrary).Times(1)
		metrics.EXPECT().CacheHit(gomock.Any()).AnyTimes()
		metrics.EXPECT().CacheMiss(gomock.Any()).AnyTimes()
		metrics.EXPECT().ObserveCompute(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

		mgr, m := setupManagerTest(t, func(d *imports.Deps) { d.Metrics = metrics })
		ctx := context.Background()
		resolveTo(m, collectionsPath)

		first := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
		second := &domain.LibraryDoc{Name: "Collections", Source: collectionsPath}
		release := make(chan struct{})
		gomock.InOrder(
			m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).DoAndReturn(
				func(context.Context, domain.ImportRequest) (*domain.LibraryDoc, error) {
					<-release
					return first, nil
				},
			),
			m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(second, nil),
		)
		gomock.InOrder(
			m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(1), nil),
			m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Return(ports.WatchHandle(2), nil),
		)
		m.watcher.EXPECT().RemoveFileWatcher(gomock.Any(), ports.WatchHandle(1)).Return(nil).Times(1)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "a.robot")
			assert.NoError(t, err)
		}()
		synctest.Wait()

		go func() {
			defer wg.Done()
			mgr.Release(ctx, "a.robot")
		}()
		synctest.Wait()

		close(release)
		wg.Wait()

		stats := mgr.Stats()
		assert.Equal(t, 0, stats.Libraries.Entries)
		assert.Equal(t, 0, stats.Referrers)

		got, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
		require.NoError(t, err)
		assert.Same(t, second, got)
	})
}

func TestManager_NullDocumentationFails(t *testing.T) {
	mgr, m := setupManagerTest(t)
	ctx := context.Background()
	resolveTo(m, collectionsPath)

	m.docs.EXPECT().LibraryDoc(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.docs.EXPECT().VariablesDoc(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.watcher.EXPECT().AddFileWatchers(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := mgr.GetLibrary(ctx, "Collections", nil, "/proj", "")
	require.ErrorIs(t, err, domain.ErrComputeFailed)

	_, err = mgr.GetVariables(ctx, "vars.py", nil, "/proj", "")
	require.ErrorIs(t, err, domain.ErrComputeFailed)

	stats := mgr.Stats()
	assert.Equal(t, 0, stats.Libraries.Valid)
	assert.Equal(t, 0, stats.Variables.Valid)
}
