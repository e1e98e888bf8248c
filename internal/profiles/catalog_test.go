package profiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/ltdomains/domain-analyzer/pkg/domainerrors"
)

func TestDefaultCatalog_ValidatesClean(t *testing.T) {
	cat, err := DefaultCatalog("whois")
	require.NoError(t, err)
	require.NotNil(t, cat)

	p, ok := cat.Get("content")
	require.True(t, ok)
	assert.Equal(t, CategoryAnalysis, p.Category)
	assert.Equal(t, []string{"http"}, p.Dependencies)
}

func TestDefaultCatalog_QuickWhoisVariant(t *testing.T) {
	cat, err := DefaultCatalog("quick-whois")
	require.NoError(t, err)

	standard, ok := cat.Get("standard")
	require.True(t, ok)
	assert.Contains(t, standard.Members, "quick-whois")
	assert.NotContains(t, standard.Members, "whois")
}

func TestByCategory(t *testing.T) {
	cat, err := DefaultCatalog("whois")
	require.NoError(t, err)

	core := cat.ByCategory(CategoryCore)
	names := make([]string, 0, len(core))
	for _, p := range core {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "http")
	assert.Contains(t, names, "dns")
	assert.NotContains(t, names, "content")
}

func TestValidate_RejectsUnknownDependency(t *testing.T) {
	_, err := NewCatalog([]Profile{
		{Name: "a", Category: CategoryAnalysis, Dependencies: []string{"ghost"}},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownProfile))
}

func TestValidate_RejectsCoreWithDependencies(t *testing.T) {
	_, err := NewCatalog([]Profile{
		{Name: "x", Category: CategoryCore, Dependencies: []string{"y"}},
		{Name: "y", Category: CategoryCore},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformed))
}

func TestValidate_RejectsDependencyCycle(t *testing.T) {
	_, err := NewCatalog([]Profile{
		{Name: "a", Category: CategoryAnalysis, Dependencies: []string{"b"}},
		{Name: "b", Category: CategoryAnalysis, Dependencies: []string{"a"}},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCircularDependency))
}

func TestValidate_RejectsMetaCycle(t *testing.T) {
	_, err := NewCatalog([]Profile{
		{Name: "m1", Category: CategoryMeta, Members: []string{"m2"}},
		{Name: "m2", Category: CategoryMeta, Members: []string{"m1"}},
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformed))
}

func TestValidate_RejectsEmptyMetaMembers(t *testing.T) {
	_, err := NewCatalog([]Profile{
		{Name: "empty-meta", Category: CategoryMeta},
	})
	require.Error(t, err)
}

func TestSortByTieBreak(t *testing.T) {
	cat, err := DefaultCatalog("whois")
	require.NoError(t, err)

	sorted := cat.SortByTieBreak([]string{"seo", "http", "headers", "dns"})
	assert.Equal(t, []string{"dns", "http", "headers", "seo"}, sorted)
}
