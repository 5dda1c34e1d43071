package importjob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/screening-desk/internal/frappe"
	"github.com/jonathan/screening-desk/internal/types"
)

type fakeBackend struct {
	job       *types.ImportJob
	result    *types.ImportResult
	runErr    error
	joinMsg   string
	joinErr   error
	runCalls  []string
	joinCalls []string
}

func (b *fakeBackend) GetImportJob(_ context.Context, _ string) (*types.ImportJob, error) {
	return b.job, nil
}

func (b *fakeBackend) RunImport(_ context.Context, docname string) (*types.ImportResult, error) {
	b.runCalls = append(b.runCalls, docname)
	return b.result, b.runErr
}

func (b *fakeBackend) JoinWorkspace(_ context.Context, workspace string) (string, error) {
	b.joinCalls = append(b.joinCalls, workspace)
	return b.joinMsg, b.joinErr
}

func savedJob() *types.ImportJob {
	return &types.ImportJob{Name: "IMP-0001", SlackExport: "/private/files/export.zip"}
}

func TestButtons(t *testing.T) {
	t.Run("new document has none", func(t *testing.T) {
		assert.Empty(t, Buttons(&types.ImportJob{Name: "new-slack-to-raven-import-1", IsNew: true}))
		assert.Empty(t, Buttons(nil))
	})

	t.Run("saved document with export", func(t *testing.T) {
		buttons := Buttons(savedJob())
		require.Len(t, buttons, 2)
		assert.Equal(t, LabelRunImport, buttons[0].Label)
		assert.True(t, buttons[0].Primary)
		assert.True(t, buttons[0].Enabled)
		assert.Equal(t, LabelJoinWorkspace, buttons[1].Label)
		assert.True(t, buttons[1].Enabled)
	})

	t.Run("saved document without export", func(t *testing.T) {
		buttons := Buttons(&types.ImportJob{Name: "IMP-0002"})
		require.Len(t, buttons, 2)
		assert.False(t, buttons[0].Enabled)
		assert.Equal(t, MsgMissingExport, buttons[0].Hint)
		assert.True(t, buttons[1].Enabled)
	})
}

func TestForm_Load(t *testing.T) {
	f := NewForm(&fakeBackend{job: savedJob()})
	job, err := f.Load(context.Background(), "IMP-0001")
	require.NoError(t, err)
	assert.Equal(t, "IMP-0001", job.Name)

	f = NewForm(&fakeBackend{})
	_, err = f.Load(context.Background(), "missing")
	assert.True(t, frappe.IsNotFound(err))
}

func TestForm_RunImport(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantKind   types.NoticeKind
		wantColour string
	}{
		{"completed", types.ImportCompleted, types.NoticeSuccess, "green"},
		{"failed", types.ImportFailed, types.NoticeError, "red"},
		{"other", "Partially Completed", types.NoticeError, "red"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{result: &types.ImportResult{Status: tt.status}}
			notice, result, err := NewForm(backend).RunImport(context.Background(), savedJob())
			require.NoError(t, err)
			require.NotNil(t, notice)
			assert.Equal(t, tt.wantKind, notice.Kind)
			assert.Equal(t, tt.wantColour, notice.Indicator())
			assert.Equal(t, TitleFinished, notice.Title)
			assert.Equal(t, "Status: "+tt.status, notice.Message)
			assert.Equal(t, tt.status, result.Status)
			assert.Equal(t, []string{"IMP-0001"}, backend.runCalls)
		})
	}
}

func TestForm_RunImportWithoutExport(t *testing.T) {
	backend := &fakeBackend{}
	notice, _, err := NewForm(backend).RunImport(context.Background(), &types.ImportJob{Name: "IMP-0002"})
	assert.ErrorIs(t, err, ErrMissingExport)
	assert.Equal(t, MsgMissingExport, notice.Message)
	assert.Empty(t, backend.runCalls)
}

func TestForm_RunImportNewDocument(t *testing.T) {
	backend := &fakeBackend{}
	_, _, err := NewForm(backend).RunImport(context.Background(), &types.ImportJob{Name: "new-1", IsNew: true, SlackExport: "x.zip"})
	assert.ErrorIs(t, err, ErrNewDocument)
	assert.Empty(t, backend.runCalls)
}

func TestForm_RunImportNoResult(t *testing.T) {
	notice, result, err := NewForm(&fakeBackend{}).RunImport(context.Background(), savedJob())
	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.Nil(t, result)
}

func TestForm_RunImportFailure(t *testing.T) {
	backend := &fakeBackend{runErr: &frappe.ApplicationError{Messages: []string{"Invalid ZIP"}}}
	notice, _, err := NewForm(backend).RunImport(context.Background(), savedJob())
	require.Error(t, err)
	assert.True(t, notice.Blocking())
	assert.Equal(t, "Invalid ZIP", notice.Message)
}

func TestForm_JoinWorkspace(t *testing.T) {
	t.Run("default workspace", func(t *testing.T) {
		backend := &fakeBackend{joinMsg: "Added to Slack"}
		notice, err := NewForm(backend).JoinWorkspace(context.Background(), savedJob())
		require.NoError(t, err)
		require.NotNil(t, notice)
		assert.Equal(t, "Added to Slack", notice.Message)
		assert.Equal(t, TitleDone, notice.Title)
		assert.Equal(t, "green", notice.Indicator())
		assert.Equal(t, []string{"Slack"}, backend.joinCalls)
	})

	t.Run("named workspace is trimmed", func(t *testing.T) {
		backend := &fakeBackend{}
		job := savedJob()
		job.WorkspaceName = "  Alpinos "
		notice, err := NewForm(backend).JoinWorkspace(context.Background(), job)
		require.NoError(t, err)
		assert.Nil(t, notice, "no confirmation without a message")
		assert.Equal(t, []string{"Alpinos"}, backend.joinCalls)
	})

	t.Run("failure", func(t *testing.T) {
		backend := &fakeBackend{joinErr: &frappe.TransportError{Message: "HTTP request failed"}}
		notice, err := NewForm(backend).JoinWorkspace(context.Background(), savedJob())
		require.Error(t, err)
		assert.True(t, notice.Blocking())
		assert.Equal(t, "HTTP request failed", notice.Message)
	})
}
