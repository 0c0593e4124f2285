package reconcile_test

import (
	"context"
	"testing"

	"github.com/alejandrodnm/eicfolio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePlatform_FindsExisting(t *testing.T) {
	h := newHarness(testOptions())
	h.portfolio.platforms = []domain.Platform{{ID: "p-1", Name: "Other"}, {ID: "p-2", Name: "EIC"}}

	p, err := h.rec.EnsurePlatform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p-2", p.ID)
	assert.Len(t, h.portfolio.platforms, 2)
	assert.Empty(t, h.writes)
}

func TestEnsurePlatform_CreatesMissing(t *testing.T) {
	h := newHarness(testOptions())

	p, err := h.rec.EnsurePlatform(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EIC", p.Name)
	assert.Equal(t, "https://webapp.eic.eu/", p.URL)
	require.Len(t, h.writes, 1)
	assert.Equal(t, domain.WritePlatform, h.writes[0].Kind)
}

func TestEnsureTag_CreatedWithUserID(t *testing.T) {
	h := newHarness(testOptions())

	tag, err := h.rec.EnsureTag(context.Background(), "EIC")
	require.NoError(t, err)
	assert.Equal(t, "user-1", tag.UserID)

	again, err := h.rec.EnsureTag(context.Background(), "EIC")
	require.NoError(t, err)
	assert.Equal(t, tag, again)
	assert.Len(t, h.portfolio.tags, 1)
}

func TestEnsureAccount_UsesBaseCurrency(t *testing.T) {
	h := newHarness(testOptions())
	h.portfolio.user.BaseCurrency = "CZK"

	a, err := h.rec.EnsureAccount(context.Background(), "platform-9")
	require.NoError(t, err)
	assert.Equal(t, "EIC account", a.Name)
	assert.Equal(t, "CZK", a.Currency)
	assert.Equal(t, "platform-9", a.PlatformID)

	b, err := h.reconciler(testOptions()).EnsureAccount(context.Background(), "platform-9")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Len(t, h.portfolio.accounts, 1)
}
