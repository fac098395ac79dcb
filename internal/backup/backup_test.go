package backup

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/repository"
)

// memRepo is an in-memory Repository that counts writes
type memRepo struct {
	shortcuts []model.SearchShortcut
	snippets  []model.Snippet
	favorites []string
	writes    int

	failSnippets bool
}

func (m *memRepo) SearchShortcuts(context.Context) ([]model.SearchShortcut, error) {
	return m.shortcuts, nil
}

func (m *memRepo) SetSearchShortcuts(_ context.Context, list []model.SearchShortcut) error {
	m.writes++
	m.shortcuts = list
	return nil
}

func (m *memRepo) Snippets(context.Context) ([]model.Snippet, error) { return m.snippets, nil }

func (m *memRepo) SetSnippets(_ context.Context, list []model.Snippet) error {
	if m.failSnippets {
		return errors.New("disk full")
	}
	m.writes++
	m.snippets = list
	return nil
}

func (m *memRepo) Favorites(context.Context) ([]string, error) { return m.favorites, nil }

func (m *memRepo) SetFavorites(_ context.Context, keys []string) error {
	m.writes++
	m.favorites = keys
	return nil
}

func TestImport_RejectsNewerVersionWithoutMutation(t *testing.T) {
	repo := &memRepo{snippets: []model.Snippet{{Alias: "addr", Content: "Main St 1"}}}
	body := `{"version": 99, "snippets": [{"alias":"x","content":"y"}], "favorites": ["apps:a"]}`

	report, err := Import(context.Background(), repo, strings.NewReader(body))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedVersion))
	assert.Nil(t, report)
	assert.Zero(t, repo.writes)
	assert.Equal(t, []model.Snippet{{Alias: "addr", Content: "Main St 1"}}, repo.snippets)
}

func TestImport_CurrentFormat(t *testing.T) {
	repo := &memRepo{}
	body := `{
		"version": 2,
		"snippets": [{"alias": "iban", "content": "NL00 BANK 0123"}],
		"searchShortcuts": [
			{"id": "s1", "alias": "gh", "urlTemplate": "https://github.com/search?q=%s", "description": "GitHub", "color": 255},
			{"alias": "bad", "urlTemplate": "https://no-placeholder.example"}
		],
		"favorites": ["apps:com.app.a", "contacts:42"]
	}`

	report, err := Import(context.Background(), repo, strings.NewReader(body))
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Version)
	assert.Equal(t, 1, report.Snippets)
	assert.Equal(t, 1, report.SearchShortcuts)
	assert.Equal(t, 2, report.Favorites)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 4, report.Total())

	require.Len(t, repo.shortcuts, 1)
	assert.Equal(t, "s1", repo.shortcuts[0].ID)
	require.NotNil(t, repo.shortcuts[0].Color)
	assert.Equal(t, 255, *repo.shortcuts[0].Color)
	assert.Equal(t, []string{"apps:com.app.a", "contacts:42"}, repo.favorites)
}

func TestImport_LegacyKeys(t *testing.T) {
	repo := &memRepo{}
	body := `{
		"version": 1,
		"quickCopy": [{"alias": "mail", "content": "me@example.com"}],
		"customShortcuts": [
			{"type": "search", "alias": "r"},
			{"type": "search", "alias": "so", "urlTemplate": "https://stackoverflow.com/search?q=%s"},
			{"type": "app", "alias": "cam"},
			{"type": "search", "alias": "unknown"}
		],
		"favorites": ["com.app.b"]
	}`

	report, err := Import(context.Background(), repo, strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Snippets)
	assert.Equal(t, 2, report.SearchShortcuts)
	assert.Equal(t, 2, report.Skipped)

	assert.Equal(t, []model.Snippet{{Alias: "mail", Content: "me@example.com"}}, repo.snippets)
	require.Len(t, repo.shortcuts, 2)
	assert.Equal(t, "r", repo.shortcuts[0].Alias)
	assert.Equal(t, "https://www.reddit.com/search/?q=%s", repo.shortcuts[0].URLTemplate)
	assert.NotEmpty(t, repo.shortcuts[0].ID)
	assert.Equal(t, "so", repo.shortcuts[1].Alias)
	assert.Equal(t, []string{"apps:com.app.b"}, repo.favorites)
}

func TestImport_MissingVersionIsLegacy(t *testing.T) {
	repo := &memRepo{}
	report, err := Import(context.Background(), repo, strings.NewReader(`{"quickCopy": []}`))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Version)
	assert.NotNil(t, repo.snippets)
}

func TestImport_SectionsAreIndependent(t *testing.T) {
	repo := &memRepo{failSnippets: true}
	body := `{
		"version": 2,
		"snippets": [{"alias": "a", "content": "b"}],
		"searchShortcuts": "not an array",
		"favorites": ["apps:x"]
	}`

	report, err := Import(context.Background(), repo, strings.NewReader(body))
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Contains(t, report.Errors, SectionSnippets)
	assert.Contains(t, report.Errors, SectionSearchShortcuts)
	assert.NotContains(t, report.Errors, SectionFavorites)
	assert.Equal(t, []string{"apps:x"}, repo.favorites)
}

func TestImport_MalformedDocument(t *testing.T) {
	repo := &memRepo{}
	_, err := Import(context.Background(), repo, strings.NewReader(`{"version": "two"}`))
	assert.Error(t, err)

	_, err = Import(context.Background(), repo, strings.NewReader(`not json`))
	assert.Error(t, err)
	assert.Zero(t, repo.writes)
}

func TestExportImport_RoundTripThroughRepository(t *testing.T) {
	ctx := context.Background()
	src, err := repository.Open(filepath.Join(t.TempDir(), "src.db"))
	require.NoError(t, err)
	defer src.Close()

	color := 0xff0000
	require.NoError(t, src.SetSearchShortcuts(ctx, []model.SearchShortcut{{
		Alias:         "y",
		URLTemplate:   "https://www.youtube.com/results?search_query=%s",
		Description:   "YouTube",
		Color:         &color,
		SuggestionURL: "https://suggest.example/?q=%s",
		PackageName:   "com.google.android.youtube",
	}}))
	require.NoError(t, src.SetSnippets(ctx, []model.Snippet{{Alias: "addr", Content: "Main St 1"}}))
	require.NoError(t, src.SetFavorites(ctx, []string{"apps:com.app.a"}))

	var buf bytes.Buffer
	exported, err := Export(ctx, src, &buf)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, exported.Version)
	assert.Contains(t, buf.String(), `"searchShortcuts"`)

	dst, err := repository.Open(filepath.Join(t.TempDir(), "dst.db"))
	require.NoError(t, err)
	defer dst.Close()

	report, err := Import(ctx, dst, &buf)
	require.NoError(t, err)
	assert.True(t, report.OK())

	wantShortcuts, _ := src.SearchShortcuts(ctx)
	gotShortcuts, err := dst.SearchShortcuts(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantShortcuts, gotShortcuts)

	gotSnippets, err := dst.Snippets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Snippet{{Alias: "addr", Content: "Main St 1"}}, gotSnippets)

	gotFavorites, err := dst.Favorites(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apps:com.app.a"}, gotFavorites)
}

func TestExport_EmptyRepositoryWritesArrays(t *testing.T) {
	var buf bytes.Buffer
	_, err := Export(context.Background(), &memRepo{}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"snippets": []`)
	assert.Contains(t, buf.String(), `"favorites": []`)
}
