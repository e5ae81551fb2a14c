package upgrade_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/depbump/internal/gitworkflow"
	"github.com/temirov/depbump/internal/rewrite"
	"github.com/temirov/depbump/internal/scanner"
	"github.com/temirov/depbump/internal/ui"
	"github.com/temirov/depbump/internal/upgrade"
)

const (
	testFilePermissions      = 0o644
	testDirectoryPermissions = 0o755
	testDeclaration          = "libraryDependencies += \"org.x\" % \"y\" % \"1.2.3\"\n"
	testUpgradedDeclaration  = "libraryDependencies += \"org.x\" % \"y\" % \"1.3.0\"\n"
	testOtherDeclaration     = "libraryDependencies += \"org.z\" % \"w\" % \"0.1.0\"\n"
	testFailingRepository    = "beta"
)

type notification struct {
	message  string
	severity ui.Severity
}

type shownResult struct {
	name    string
	payload any
}

type recordingPresenter struct {
	mutex         sync.Mutex
	notifications []notification
	results       []shownResult
}

func (presenter *recordingPresenter) ShowResult(name string, payload any) {
	presenter.mutex.Lock()
	defer presenter.mutex.Unlock()
	presenter.results = append(presenter.results, shownResult{name: name, payload: payload})
}

func (presenter *recordingPresenter) Notify(message string, severity ui.Severity) {
	presenter.mutex.Lock()
	defer presenter.mutex.Unlock()
	presenter.notifications = append(presenter.notifications, notification{message: message, severity: severity})
}

func (presenter *recordingPresenter) messages() []string {
	presenter.mutex.Lock()
	defer presenter.mutex.Unlock()
	messages := make([]string, 0, len(presenter.notifications))
	for _, recorded := range presenter.notifications {
		messages = append(messages, recorded.message)
	}
	return messages
}

func (presenter *recordingPresenter) severityOf(message string) ui.Severity {
	presenter.mutex.Lock()
	defer presenter.mutex.Unlock()
	for _, recorded := range presenter.notifications {
		if recorded.message == message {
			return recorded.severity
		}
	}
	return ""
}

type workflowInvocation struct {
	repositoryRoot string
	files          []string
	libraries      []rewrite.LibrarySpec
}

type recordingWorkflow struct {
	mutex       sync.Mutex
	invocations []workflowInvocation
}

func (workflow *recordingWorkflow) Run(_ context.Context, repositoryRoot string, changedFiles []string, libraries []rewrite.LibrarySpec) gitworkflow.WorkflowResult {
	workflow.mutex.Lock()
	workflow.invocations = append(workflow.invocations, workflowInvocation{repositoryRoot: repositoryRoot, files: changedFiles, libraries: libraries})
	workflow.mutex.Unlock()

	repositoryName := filepath.Base(repositoryRoot)
	if repositoryName == testFailingRepository {
		return gitworkflow.WorkflowResult{RepositoryRoot: repositoryRoot, Message: fmt.Sprintf("Failed to push branch 'upgrade-y-1.3.0' in %s", repositoryName)}
	}
	return gitworkflow.WorkflowResult{RepositoryRoot: repositoryRoot, Success: true, Message: fmt.Sprintf("PR created for '%s'", repositoryName)}
}

func (workflow *recordingWorkflow) sortedInvocations() []workflowInvocation {
	workflow.mutex.Lock()
	defer workflow.mutex.Unlock()
	invocations := append([]workflowInvocation(nil), workflow.invocations...)
	sort.Slice(invocations, func(left int, right int) bool {
		return invocations[left].repositoryRoot < invocations[right].repositoryRoot
	})
	return invocations
}

func writeFixture(testInstance *testing.T, root string, files map[string]string) {
	testInstance.Helper()
	for relativePath, content := range files {
		absolutePath := filepath.Join(root, filepath.FromSlash(relativePath))
		require.NoError(testInstance, os.MkdirAll(filepath.Dir(absolutePath), testDirectoryPermissions))
		require.NoError(testInstance, os.WriteFile(absolutePath, []byte(content), testFilePermissions))
	}
}

func markRepository(testInstance *testing.T, repositoryRoot string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Join(repositoryRoot, ".git"), testDirectoryPermissions))
}

func readFixture(testInstance *testing.T, root string, relativePath string) string {
	testInstance.Helper()
	content, readError := os.ReadFile(filepath.Join(root, filepath.FromSlash(relativePath)))
	require.NoError(testInstance, readError)
	return string(content)
}

func newTestCoordinator(testInstance *testing.T, presenter ui.Presenter, workflow upgrade.WorkflowRunner) *upgrade.Coordinator {
	testInstance.Helper()
	coordinator, coordinatorError := upgrade.NewCoordinator(upgrade.Dependencies{
		Presenter: presenter,
		Scanner:   scanner.NewScanner(nil),
		Workflow:  workflow,
	})
	require.NoError(testInstance, coordinatorError)
	return coordinator
}

func TestNewCoordinatorValidatesDependencies(testInstance *testing.T) {
	testCases := []struct {
		name          string
		dependencies  upgrade.Dependencies
		expectedError error
	}{
		{
			name:          "missing_presenter",
			dependencies:  upgrade.Dependencies{Scanner: scanner.NewScanner(nil), Workflow: &recordingWorkflow{}},
			expectedError: upgrade.ErrPresenterNotConfigured,
		},
		{
			name:          "missing_scanner",
			dependencies:  upgrade.Dependencies{Presenter: &recordingPresenter{}, Workflow: &recordingWorkflow{}},
			expectedError: upgrade.ErrScannerNotConfigured,
		},
		{
			name:          "missing_workflow",
			dependencies:  upgrade.Dependencies{Presenter: &recordingPresenter{}, Scanner: scanner.NewScanner(nil)},
			expectedError: upgrade.ErrWorkflowNotConfigured,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			coordinator, coordinatorError := upgrade.NewCoordinator(testCase.dependencies)
			require.ErrorIs(testInstance, coordinatorError, testCase.expectedError)
			require.Nil(testInstance, coordinator)
		})
	}
}

func TestCoordinatorRejectsIncompleteInput(testInstance *testing.T) {
	library := rewrite.NewLibrarySpec("org.x", "y", "1.3.0")

	testCases := []struct {
		name                 string
		request              upgrade.Request
		expectedError        error
		expectedNotification string
	}{
		{
			name:                 "missing_root",
			request:              upgrade.Request{Root: "  ", Libraries: []rewrite.LibrarySpec{library}},
			expectedError:        upgrade.ErrRootDirectoryRequired,
			expectedNotification: "Select a directory first.",
		},
		{
			name:                 "missing_libraries",
			request:              upgrade.Request{Root: testInstance.TempDir()},
			expectedError:        upgrade.ErrLibrariesRequired,
			expectedNotification: "Enter at least one library.",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			presenter := &recordingPresenter{}
			workflow := &recordingWorkflow{}
			coordinator := newTestCoordinator(testInstance, presenter, workflow)

			_, runError := coordinator.Run(context.Background(), testCase.request)

			require.ErrorIs(testInstance, runError, testCase.expectedError)
			require.Equal(testInstance, []string{testCase.expectedNotification}, presenter.messages())
			require.Equal(testInstance, ui.SeverityWarning, presenter.severityOf(testCase.expectedNotification))
			require.Empty(testInstance, workflow.sortedInvocations())
		})
	}
}

func TestCoordinatorPreviewShowsDiffsWithoutWriting(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeFixture(testInstance, root, map[string]string{
		"build.sbt":          testDeclaration,
		"project/Deps.scala": testOtherDeclaration,
		"notes.txt":          testDeclaration,
	})

	presenter := &recordingPresenter{}
	workflow := &recordingWorkflow{}
	coordinator := newTestCoordinator(testInstance, presenter, workflow)

	summary, runError := coordinator.Run(context.Background(), upgrade.Request{
		Root:       root,
		Libraries:  []rewrite.LibrarySpec{rewrite.NewLibrarySpec("org.x", "y", "1.3.0")},
		Mode:       scanner.ModePreview,
		Extensions: []string{".scala", ".sbt"},
		Workers:    2,
	})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, scanner.ModePreview, summary.Mode)
	require.Equal(testInstance, 1, summary.FilesChanged)
	require.Len(testInstance, presenter.results, 1)
	require.Equal(testInstance, "preview", presenter.results[0].name)

	diffs, isDiffMap := presenter.results[0].payload.(map[string]string)
	require.True(testInstance, isDiffMap)
	require.Len(testInstance, diffs, 1)
	require.Contains(testInstance, diffs["build.sbt"], "+"+testUpgradedDeclaration[:len(testUpgradedDeclaration)-1])
	require.Contains(testInstance, diffs["build.sbt"], "-"+testDeclaration[:len(testDeclaration)-1])

	require.Equal(testInstance, testDeclaration, readFixture(testInstance, root, "build.sbt"))
	require.Empty(testInstance, workflow.sortedInvocations())
}

func TestCoordinatorReportsNoChanges(testInstance *testing.T) {
	testCases := []struct {
		name string
		mode scanner.Mode
	}{
		{name: "preview", mode: scanner.ModePreview},
		{name: "apply", mode: scanner.ModeApply},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			root := testInstance.TempDir()
			writeFixture(testInstance, root, map[string]string{"build.sbt": testUpgradedDeclaration})

			presenter := &recordingPresenter{}
			workflow := &recordingWorkflow{}
			coordinator := newTestCoordinator(testInstance, presenter, workflow)

			summary, runError := coordinator.Run(context.Background(), upgrade.Request{
				Root:      root,
				Libraries: []rewrite.LibrarySpec{rewrite.NewLibrarySpec("org.x", "y", "1.3.0")},
				Mode:      testCase.mode,
			})

			require.NoError(testInstance, runError)
			require.Zero(testInstance, summary.FilesChanged)
			require.Equal(testInstance, []string{"No changes detected."}, presenter.messages())
			require.Empty(testInstance, presenter.results)
			require.Empty(testInstance, workflow.sortedInvocations())
		})
	}
}

func TestCoordinatorSurfacesRewriteWarnings(testInstance *testing.T) {
	root := testInstance.TempDir()
	writeFixture(testInstance, root, map[string]string{
		"build.sbt": "libraryDependencies += \"org.x\" % \"y\" % missingVersion\n",
	})

	presenter := &recordingPresenter{}
	coordinator := newTestCoordinator(testInstance, presenter, &recordingWorkflow{})

	summary, runError := coordinator.Run(context.Background(), upgrade.Request{
		Root:      root,
		Libraries: []rewrite.LibrarySpec{rewrite.NewLibrarySpec("org.x", "y", "1.3.0")},
	})

	expectedWarning := "build.sbt: missingVersion used for org.x:y but its definition was not found"
	require.NoError(testInstance, runError)
	require.Equal(testInstance, []string{expectedWarning}, summary.Warnings)
	require.Equal(testInstance, []string{expectedWarning, "No changes detected."}, presenter.messages())
	require.Equal(testInstance, ui.SeverityWarning, presenter.severityOf(expectedWarning))
}

func TestCoordinatorApplyPublishesEachRepositoryIndependently(testInstance *testing.T) {
	root := testInstance.TempDir()
	markRepository(testInstance, filepath.Join(root, "alpha"))
	markRepository(testInstance, filepath.Join(root, testFailingRepository))
	writeFixture(testInstance, root, map[string]string{
		"alpha/build.sbt":               testDeclaration,
		"alpha/project/Deps.scala":      testOtherDeclaration,
		"beta/build.sbt":                testDeclaration + testOtherDeclaration,
		"loose/standalone.sbt":          testDeclaration,
		"alpha/project/unchanged.scala": "object Unchanged\n",
	})

	presenter := &recordingPresenter{}
	workflow := &recordingWorkflow{}
	coordinator := newTestCoordinator(testInstance, presenter, workflow)

	libraries := []rewrite.LibrarySpec{
		rewrite.NewLibrarySpec("org.z", "w", "0.2.0"),
		rewrite.NewLibrarySpec("org.x", "y", "1.3.0"),
	}
	summary, runError := coordinator.Run(context.Background(), upgrade.Request{
		Root:      root,
		Libraries: libraries,
		Mode:      scanner.ModeApply,
		Workers:   2,
	})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 4, summary.FilesChanged)
	require.Equal(testInstance, 4, summary.FilesWritten)
	require.Equal(testInstance, 1, summary.FilesOutsideRepositories)
	require.Equal(testInstance, 1, summary.RepositoriesSucceeded)
	require.Equal(testInstance, 1, summary.RepositoriesFailed)
	require.Len(testInstance, summary.Results, 2)

	require.Equal(testInstance, testUpgradedDeclaration, readFixture(testInstance, root, "alpha/build.sbt"))
	require.Equal(testInstance, testUpgradedDeclaration, readFixture(testInstance, root, "loose/standalone.sbt"))

	invocations := workflow.sortedInvocations()
	require.Len(testInstance, invocations, 2)

	require.Equal(testInstance, "alpha", filepath.Base(invocations[0].repositoryRoot))
	require.Len(testInstance, invocations[0].files, 2)
	require.Equal(testInstance, libraries, invocations[0].libraries)
	require.Equal(testInstance, testFailingRepository, filepath.Base(invocations[1].repositoryRoot))
	require.Equal(testInstance, libraries, invocations[1].libraries)

	messages := presenter.messages()
	require.Contains(testInstance, messages, "Wrote 1 file(s) outside any git repo (no branch/PR created).")
	require.Contains(testInstance, messages, "Creating branch and PR for 'alpha'…")
	require.Contains(testInstance, messages, "Creating branch and PR for 'beta'…")
	require.Contains(testInstance, messages, "PR created for 'alpha'")
	require.Equal(testInstance, ui.SeverityError, presenter.severityOf("Failed to push branch 'upgrade-y-1.3.0' in beta"))
	require.Equal(testInstance, "Applied changes to 4 file(s) across 3 repo(s).", messages[len(messages)-1])

	require.Len(testInstance, presenter.results, 1)
	require.Equal(testInstance, "upgrade", presenter.results[0].name)
}

func TestCoordinatorPassesOnlyChangedLibrariesToWorkflow(testInstance *testing.T) {
	root := testInstance.TempDir()
	markRepository(testInstance, root)
	writeFixture(testInstance, root, map[string]string{"build.sbt": testDeclaration})

	presenter := &recordingPresenter{}
	workflow := &recordingWorkflow{}
	coordinator := newTestCoordinator(testInstance, presenter, workflow)

	changedLibrary := rewrite.NewLibrarySpec("org.x", "y", "1.3.0")
	_, runError := coordinator.Run(context.Background(), upgrade.Request{
		Root: root,
		Libraries: []rewrite.LibrarySpec{
			rewrite.NewLibrarySpec("org.absent", "missing", "9.9.9"),
			changedLibrary,
		},
		Mode: scanner.ModeApply,
	})

	require.NoError(testInstance, runError)
	invocations := workflow.sortedInvocations()
	require.Len(testInstance, invocations, 1)
	require.Equal(testInstance, []rewrite.LibrarySpec{changedLibrary}, invocations[0].libraries)
	require.Equal(testInstance, []string{filepath.Join(invocations[0].repositoryRoot, "build.sbt")}, invocations[0].files)
	require.Contains(testInstance, presenter.messages(), "Applied changes to 1 file(s) across 1 repo(s).")
}
