package library

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

func newTestLibrary(t *testing.T) *LibSQLLibrary {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	l, err := NewLibSQLLibrary("file:" + dbPath)
	require.NoError(t, err)
	require.NoError(t, l.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = l.Close()
		_ = os.RemoveAll(dir)
	})
	return l
}

func seedRule(t *testing.T, l *LibSQLLibrary) *StoredRule {
	t.Helper()
	r := &StoredRule{
		Name:        "age-check",
		Description: "Adults only.",
		Source:      `{">": [{"var": "age"}, 18]}`,
		Tags:        []string{"demo", "access"},
		SampleData:  json.RawMessage(`{"age": 42}`),
	}
	require.NoError(t, l.Save(context.Background(), r))
	return r
}

// --- Save/Get Tests ---

func TestSaveAndGet(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()

	r := &StoredRule{
		Name:        "discount",
		Description: "Ten percent over fifty.",
		Source:      `{"if": [{">": [{"var": "total"}, 50]}, 0.1, 0]}`,
		Tags:        []string{"pricing", "demo"},
		DataSchema:  json.RawMessage(`{"type": "object", "properties": {"total": {"type": "number"}}}`),
		SampleData:  json.RawMessage(`{"total": 80}`),
	}
	require.NoError(t, l.Save(ctx, r))
	require.NotEmpty(t, r.ID)

	got, err := l.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, "discount", got.Name)
	assert.Equal(t, "Ten percent over fifty.", got.Description)
	assert.Equal(t, r.Source, got.Source)
	assert.Equal(t, []string{"demo", "pricing"}, got.Tags)
	assert.JSONEq(t, string(r.DataSchema), string(got.DataSchema))
	assert.JSONEq(t, `{"total": 80}`, string(got.SampleData))
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestSave_UpsertByNameKeepsID(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()
	first := seedRule(t, l)

	second := &StoredRule{
		Name:   first.Name,
		Source: `{">=": [{"var": "age"}, 21]}`,
		Tags:   []string{"strict"},
	}
	require.NoError(t, l.Save(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := l.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Source, got.Source)
	assert.Equal(t, []string{"strict"}, got.Tags)
}

func TestSave_RejectsInvalidSource(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()

	err := l.Save(ctx, &StoredRule{Name: "broken", Source: `{"if": [`})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeParse))

	_, err = l.GetByName(ctx, "broken")
	assert.True(t, rule.IsCode(err, rule.ErrCodeNotFound))
}

func TestSave_RequiresName(t *testing.T) {
	l := newTestLibrary(t)
	err := l.Save(context.Background(), &StoredRule{Source: `true`})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeValidation))
}

func TestGetByName(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()
	r := seedRule(t, l)

	got, err := l.GetByName(ctx, "age-check")
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	parsed, err := got.Rule()
	require.NoError(t, err)
	assert.Equal(t, ">", parsed.Op)
}

func TestGet_NotFound(t *testing.T) {
	l := newTestLibrary(t)
	_, err := l.Get(context.Background(), "nonexistent")
	require.Error(t, err)
	var rerr *rule.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, rule.ErrCodeNotFound, rerr.Code)
}

// --- List Tests ---

func TestList_Filters(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()

	save := func(name, desc string, tags ...string) {
		require.NoError(t, l.Save(ctx, &StoredRule{
			Name:        name,
			Description: desc,
			Source:      `{"var": "x"}`,
			Tags:        tags,
		}))
	}
	save("cart-sum", "Adds up the cart.", "pricing")
	save("access-gate", "Blocks minors.", "access", "demo")
	save("banner-pick", "Chooses a banner.", "demo")

	list, err := l.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "access-gate", list[0].Name)
	assert.Equal(t, "banner-pick", list[1].Name)
	assert.Equal(t, "cart-sum", list[2].Name)

	list, err = l.List(ctx, Filter{Tag: "demo"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "access-gate", list[0].Name)
	assert.Equal(t, "banner-pick", list[1].Name)

	list, err = l.List(ctx, Filter{Search: "cart"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "cart-sum", list[0].Name)

	// Search also covers descriptions.
	list, err = l.List(ctx, Filter{Search: "minors"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "access-gate", list[0].Name)

	list, err = l.List(ctx, Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "banner-pick", list[0].Name)
}

func TestList_Empty(t *testing.T) {
	l := newTestLibrary(t)
	list, err := l.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

// --- Update Tests ---

func TestUpdate(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()
	r := seedRule(t, l)

	desc := "Adults only, strictly."
	require.NoError(t, l.Update(ctx, r.ID, Update{Description: &desc}))

	got, err := l.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, desc, got.Description)
	assert.Equal(t, r.Source, got.Source)
	assert.Equal(t, []string{"access", "demo"}, got.Tags)
}

func TestUpdate_ReplacesTags(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()
	r := seedRule(t, l)

	require.NoError(t, l.Update(ctx, r.ID, Update{Tags: []string{"archived"}}))

	got, err := l.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"archived"}, got.Tags)
}

func TestUpdate_ClearsTags(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()
	r := seedRule(t, l)

	require.NoError(t, l.Update(ctx, r.ID, Update{Tags: []string{}}))

	got, err := l.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestUpdate_RejectsInvalidSource(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()
	r := seedRule(t, l)

	bad := `{"and": [true,`
	err := l.Update(ctx, r.ID, Update{Source: &bad})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeParse))

	got, err := l.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Source, got.Source)
}

func TestUpdate_NotFound(t *testing.T) {
	l := newTestLibrary(t)
	desc := "ghost"
	err := l.Update(context.Background(), "nonexistent", Update{Description: &desc})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeNotFound))
}

func TestUpdate_TagsOnlyNotFound(t *testing.T) {
	l := newTestLibrary(t)
	err := l.Update(context.Background(), "nonexistent", Update{Tags: []string{"x"}})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeNotFound))
}

func TestUpdate_NoFieldsIsNoop(t *testing.T) {
	l := newTestLibrary(t)
	assert.NoError(t, l.Update(context.Background(), "nonexistent", Update{}))
}

// --- Delete Tests ---

func TestDelete(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()
	r := seedRule(t, l)

	require.NoError(t, l.Delete(ctx, r.ID))

	_, err := l.Get(ctx, r.ID)
	assert.True(t, rule.IsCode(err, rule.ErrCodeNotFound))

	// Tag rows go with the rule.
	tags, err := l.Tags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)

	err = l.Delete(ctx, r.ID)
	assert.True(t, rule.IsCode(err, rule.ErrCodeNotFound))
}

// --- Tag Tests ---

func TestTags_DistinctSorted(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, &StoredRule{Name: "a", Source: `true`, Tags: []string{"zeta", "demo"}}))
	require.NoError(t, l.Save(ctx, &StoredRule{Name: "b", Source: `false`, Tags: []string{"demo", "alpha"}}))

	tags, err := l.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "demo", "zeta"}, tags)
}

func TestSave_IgnoresBlankAndDuplicateTags(t *testing.T) {
	l := newTestLibrary(t)
	ctx := context.Background()

	require.NoError(t, l.Save(ctx, &StoredRule{
		Name:   "dup-tags",
		Source: `true`,
		Tags:   []string{"demo", "demo", "  ", ""},
	}))

	got, err := l.GetByName(ctx, "dup-tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, got.Tags)
}
