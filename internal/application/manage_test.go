package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creatorpulse/creatorpulse/internal/domain"
)

func TestManageSources_CreateAndList(t *testing.T) {
	repo := &fakeSourceRepo{}
	uc := NewManageSourcesUseCase(repo, testLogger())
	userID := domain.NewUserID().String()

	out, err := uc.Create(context.Background(), CreateSourceInput{
		UserID: userID,
		Type:   "twitter",
		Handle: "@golang",
	})

	require.NoError(t, err)
	assert.Equal(t, "golang", out.Handle)
	assert.Equal(t, "golang", out.DisplayName)
	assert.True(t, out.IsActive)

	list, err := uc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestManageSources_Duplicate(t *testing.T) {
	repo := &fakeSourceRepo{}
	uc := NewManageSourcesUseCase(repo, testLogger())
	userID := domain.NewUserID().String()
	input := CreateSourceInput{UserID: userID, Type: "rss", Handle: "https://go.dev/blog/feed.atom"}

	_, err := uc.Create(context.Background(), input)
	require.NoError(t, err)
	_, err = uc.Create(context.Background(), input)

	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestManageSources_Validation(t *testing.T) {
	uc := NewManageSourcesUseCase(&fakeSourceRepo{}, testLogger())
	userID := domain.NewUserID().String()

	tests := []struct {
		name  string
		input CreateSourceInput
	}{
		{"bad_user", CreateSourceInput{UserID: "x", Type: "twitter", Handle: "golang"}},
		{"bad_type", CreateSourceInput{UserID: userID, Type: "myspace", Handle: "golang"}},
		{"bad_handle", CreateSourceInput{UserID: userID, Type: "blog", Handle: "not a url"}},
		{"empty_handle", CreateSourceInput{UserID: userID, Type: "twitter", Handle: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), tt.input)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestManageSources_ForeignSourceNotFound(t *testing.T) {
	repo := &fakeSourceRepo{}
	uc := NewManageSourcesUseCase(repo, testLogger())
	owner := domain.NewUserID().String()
	intruder := domain.NewUserID().String()

	out, err := uc.Create(context.Background(), CreateSourceInput{UserID: owner, Type: "youtube", Handle: "GoogleDevelopers"})
	require.NoError(t, err)

	err = uc.Delete(context.Background(), intruder, out.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.SetActive(context.Background(), intruder, out.ID, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, uc.Delete(context.Background(), owner, out.ID))
	assert.Empty(t, repo.sources)
}

func TestManageSources_SetActive(t *testing.T) {
	repo := &fakeSourceRepo{}
	uc := NewManageSourcesUseCase(repo, testLogger())
	userID := domain.NewUserID().String()

	out, err := uc.Create(context.Background(), CreateSourceInput{UserID: userID, Type: "twitter", Handle: "golang"})
	require.NoError(t, err)

	toggled, err := uc.SetActive(context.Background(), userID, out.ID, false)

	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	assert.False(t, repo.sources[0].IsActive())
}

type fakeSourceCache struct {
	invalidated []domain.SourceID
}

func (c *fakeSourceCache) Invalidate(sourceID domain.SourceID) {
	c.invalidated = append(c.invalidated, sourceID)
}

func TestManageSources_InvalidatesFetchCache(t *testing.T) {
	repo := &fakeSourceRepo{}
	fetched := &fakeSourceCache{}
	uc := NewManageSourcesUseCase(repo, testLogger()).WithCache(fetched)
	userID := domain.NewUserID().String()

	out, err := uc.Create(context.Background(), CreateSourceInput{UserID: userID, Type: "twitter", Handle: "golang"})
	require.NoError(t, err)
	assert.Empty(t, fetched.invalidated)

	_, err = uc.SetActive(context.Background(), userID, out.ID, false)
	require.NoError(t, err)
	require.NoError(t, uc.Delete(context.Background(), userID, out.ID))

	err = uc.Delete(context.Background(), userID, out.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	id, err := domain.ParseSourceID(out.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.SourceID{id, id}, fetched.invalidated)
}

func seedDraft(t *testing.T, repo *fakeDraftRepo, userID domain.UserID) *domain.Draft {
	t.Helper()
	d, err := domain.NewDraft(userID, domain.PlatformTwitter, "golang", "Go 1.24 is out #golang")
	require.NoError(t, err)
	require.NoError(t, repo.SaveAll(context.Background(), []*domain.Draft{d}))
	return d
}

func TestManageDrafts_OwnerScoped(t *testing.T) {
	repo := &fakeDraftRepo{}
	uc := NewManageDraftsUseCase(repo, testLogger())
	owner := domain.NewUserID()
	d := seedDraft(t, repo, owner)
	intruder := domain.NewUserID().String()

	_, err := uc.Get(context.Background(), intruder, d.ID().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Update(context.Background(), intruder, d.ID().String(), "hijacked")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = uc.Delete(context.Background(), intruder, d.ID().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := uc.Get(context.Background(), owner.String(), d.ID().String())
	require.NoError(t, err)
	assert.Equal(t, "Go 1.24 is out #golang", got.Content)
}

func TestManageDrafts_EditAndSave(t *testing.T) {
	repo := &fakeDraftRepo{}
	uc := NewManageDraftsUseCase(repo, testLogger())
	owner := domain.NewUserID()
	d := seedDraft(t, repo, owner)

	edited, err := uc.Update(context.Background(), owner.String(), d.ID().String(), "rewritten #Go #gophers")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "gophers"}, edited.Hashtags)

	_, err = uc.Update(context.Background(), owner.String(), d.ID().String(), strings.Repeat("x", 281))
	assert.ErrorIs(t, err, domain.ErrDraftTooLong)

	saved, err := uc.Save(context.Background(), owner.String(), d.ID().String())
	require.NoError(t, err)
	assert.Equal(t, "saved", saved.Status)

	list, err := uc.List(context.Background(), ListDraftsInput{UserID: owner.String(), Status: "saved"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = uc.List(context.Background(), ListDraftsInput{UserID: owner.String(), Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStyleSamples_ChunksByBatchSize(t *testing.T) {
	repo := &fakeStyleRepo{}
	embedder := &fakeEmbedder{}
	uc := NewStyleSamplesUseCase(repo, embedder, testLogger()).WithBatchSize(100)
	userID := domain.NewUserID().String()

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "sample post"
	}

	out, err := uc.Add(context.Background(), userID, texts)

	require.NoError(t, err)
	assert.Len(t, out, 250)
	assert.Equal(t, []int{100, 100, 50}, embedder.batches)
	assert.True(t, out[0].HasVector)
	assert.Len(t, repo.samples, 250)
}

func TestStyleSamples_RejectsEmptyText(t *testing.T) {
	repo := &fakeStyleRepo{}
	embedder := &fakeEmbedder{}
	uc := NewStyleSamplesUseCase(repo, embedder, testLogger())

	_, err := uc.Add(context.Background(), domain.NewUserID().String(), []string{"ok", "   "})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, embedder.batches)
	assert.Empty(t, repo.samples)
}

func TestStyleSamples_NoEmbedder(t *testing.T) {
	uc := NewStyleSamplesUseCase(&fakeStyleRepo{}, nil, testLogger())

	_, err := uc.Add(context.Background(), domain.NewUserID().String(), []string{"hello"})

	assert.ErrorIs(t, err, ErrEmbeddingsUnavailable)
}

func TestStyleSamples_EmbedderErrorSavesNothing(t *testing.T) {
	repo := &fakeStyleRepo{}
	uc := NewStyleSamplesUseCase(repo, &fakeEmbedder{err: errors.New("quota")}, testLogger())

	_, err := uc.Add(context.Background(), domain.NewUserID().String(), []string{"hello"})

	assert.Error(t, err)
	assert.Empty(t, repo.samples)
}

func TestStyleSamples_ListAndDelete(t *testing.T) {
	repo := &fakeStyleRepo{}
	uc := NewStyleSamplesUseCase(repo, &fakeEmbedder{}, testLogger())
	userID := domain.NewUserID().String()

	added, err := uc.Add(context.Background(), userID, []string{"one", "two"})
	require.NoError(t, err)

	err = uc.Delete(context.Background(), domain.NewUserID().String(), added[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, uc.Delete(context.Background(), userID, added[0].ID))

	list, err := uc.List(context.Background(), userID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "two", list[0].Content)
}

func TestProfile_DefaultsAndUpdate(t *testing.T) {
	repo := newFakeProfileRepo()
	uc := NewProfileUseCase(repo, testLogger())
	userID := domain.NewUserID().String()

	got, err := uc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTone, got.Tone)
	assert.Equal(t, []string{"twitter", "linkedin", "instagram", "threads"}, got.TargetPlatforms)

	updated, err := uc.Update(context.Background(), UpdateProfileInput{
		UserID:          userID,
		DisplayName:     "Ana",
		Niche:           "devrel",
		Tone:            "casual",
		TargetPlatforms: []string{"threads"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"threads"}, updated.TargetPlatforms)

	_, err = uc.Update(context.Background(), UpdateProfileInput{
		UserID:          userID,
		TargetPlatforms: []string{"fax"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPlatform)
}

func TestSubscriptions_Lifecycle(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	uc := NewSubscriptionsUseCase(repo, testLogger())
	userID := domain.NewUserID().String()

	_, err := uc.Create(context.Background(), userID, "https://hooks.example.com/pulse", "short")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	sub, err := uc.Create(context.Background(), userID, "https://hooks.example.com/pulse", "0123456789abcdef")
	require.NoError(t, err)
	assert.True(t, sub.IsActive)

	_, err = uc.Create(context.Background(), userID, "https://hooks.example.com/pulse", "0123456789abcdef")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	list, err := uc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, uc.Delete(context.Background(), userID, sub.ID))
	err = uc.Delete(context.Background(), userID, sub.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGenerateImage_ForDraft(t *testing.T) {
	repo := &fakeDraftRepo{}
	images := &fakeImages{url: "https://img.example.com/1.png"}
	uc := NewGenerateImageUseCase(repo, images, testLogger())
	owner := domain.NewUserID()
	d := seedDraft(t, repo, owner)

	out, err := uc.ForDraft(context.Background(), owner.String(), d.ID().String())

	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/1.png", out.ImageURL)
	require.Len(t, images.prompts, 1)
	assert.Contains(t, images.prompts[0], `"golang"`)
}

func TestGenerateImage_Validation(t *testing.T) {
	uc := NewGenerateImageUseCase(&fakeDraftRepo{}, &fakeImages{}, testLogger())

	_, err := uc.ForPrompt(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.ForPrompt(context.Background(), strings.Repeat("a", maxImagePromptLength+1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	disabled := NewGenerateImageUseCase(&fakeDraftRepo{}, nil, testLogger())
	_, err = disabled.ForPrompt(context.Background(), "a gopher")
	assert.ErrorIs(t, err, ErrImagesUnavailable)
}

type searcherStub struct {
	gotLimit int
	hits     []domain.ContentHit
}

func (s *searcherStub) Search(ctx context.Context, userID domain.UserID, query string, limit int) ([]domain.ContentHit, error) {
	s.gotLimit = limit
	return s.hits, nil
}

func TestSearchContent(t *testing.T) {
	stub := &searcherStub{hits: []domain.ContentHit{{Title: "Go 1.24"}}}
	uc := NewSearchContentUseCase(stub, testLogger())
	userID := domain.NewUserID().String()

	hits, err := uc.Execute(context.Background(), userID, "generics", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.Equal(t, 20, stub.gotLimit)

	_, err = uc.Execute(context.Background(), userID, " ", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	disabled := NewSearchContentUseCase(nil, testLogger())
	_, err = disabled.Execute(context.Background(), userID, "generics", 10)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
}
