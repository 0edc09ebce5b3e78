//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/database"
	"github.com/esolrine-stories/internal/models"
	"github.com/rs/zerolog"
)

// setupStoryRepo migrates a clean TEST_POSTGRES_DSN schema to the bilingual layout
func setupStoryRepo(t *testing.T) (*database.DB, StoryRepository) {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}
	db := database.Wrap(sqlDB, zerolog.Nop())

	reset := func() {
		_, _ = db.Exec(`DROP TABLE IF EXISTS stories`)
		_, _ = db.Exec(`DROP TABLE IF EXISTS schema_migrations`)
	}
	reset()
	t.Cleanup(func() {
		reset()
		db.Close()
	})

	if _, err := database.NewMigrator(db, config.MigrationsConfig{}, zerolog.Nop()).Up(context.Background()); err != nil {
		t.Fatalf("migrate up failed: %v", err)
	}
	return db, NewStoryRepo(db)
}

func newInput(title string, published bool) *models.StoryInput {
	return &models.StoryInput{
		TitleFr:   title + " (fr)",
		TitleEn:   title,
		ContentFr: "<p>fr</p>",
		ContentEn: "<p>en</p>",
		ExcerptFr: "fr",
		ExcerptEn: "en",
		Tags:      []string{},
		Published: published,
	}
}

func TestStoryRepo_CreateDefaults(t *testing.T) {
	_, repo := setupStoryRepo(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)
	story, err := repo.Create(ctx, newInput("Hello", false))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if story.ID <= 0 {
		t.Errorf("Expected generated id, got %d", story.ID)
	}
	if !story.CreatedAt.Equal(story.UpdatedAt) {
		t.Errorf("Expected created_at == updated_at, got %s and %s", story.CreatedAt, story.UpdatedAt)
	}
	if story.PublishDate.Before(before) {
		t.Errorf("Expected publish date defaulted to now, got %s", story.PublishDate)
	}
	if story.Published {
		t.Error("Expected unpublished story")
	}
	if story.CoverImage != nil {
		t.Errorf("Expected no cover image, got %v", *story.CoverImage)
	}
	if story.Tags == nil || len(story.Tags) != 0 {
		t.Errorf("Expected empty tags, got %v", story.Tags)
	}

	other, err := repo.Create(ctx, newInput("World", false))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if other.ID <= story.ID {
		t.Errorf("Expected increasing ids, got %d then %d", story.ID, other.ID)
	}
}

func TestStoryRepo_GetByIDRoundTrip(t *testing.T) {
	_, repo := setupStoryRepo(t)
	ctx := context.Background()

	cover := "https://blob.example.com/c.png"
	publishDate := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	input := newInput("Fox", true)
	input.CoverImage = &cover
	input.Tags = []string{"forest", "magic", "forest"}
	input.PublishDate = &publishDate

	created, err := repo.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.TitleFr != "Fox (fr)" || got.ContentEn != "<p>en</p>" {
		t.Errorf("Unexpected story %+v", got)
	}
	if got.CoverImage == nil || *got.CoverImage != cover {
		t.Errorf("Unexpected cover %v", got.CoverImage)
	}
	if strings.Join(got.Tags, ",") != "forest,magic,forest" {
		t.Errorf("Tags must keep order and duplicates, got %v", got.Tags)
	}
	if !got.PublishDate.Equal(publishDate) {
		t.Errorf("Expected publish date %s, got %s", publishDate, got.PublishDate)
	}

	missing, err := repo.GetByID(ctx, created.ID+1000)
	if err != nil || missing != nil {
		t.Errorf("Expected (nil, nil) for unknown id, got (%v, %v)", missing, err)
	}
}

func TestStoryRepo_ListOrdering(t *testing.T) {
	_, repo := setupStoryRepo(t)
	ctx := context.Background()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	a := newInput("A", true)
	a.PublishDate = &newer
	b := newInput("B", true)
	b.PublishDate = &older
	c := newInput("C", false)

	storyA, _ := repo.Create(ctx, a)
	storyB, _ := repo.Create(ctx, b)
	storyC, _ := repo.Create(ctx, c)

	published, err := repo.List(ctx, ListOptions{PublishedOnly: true})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(published) != 2 || published[0].ID != storyA.ID || published[1].ID != storyB.ID {
		t.Errorf("Expected [A, B] by publish date, got %v", ids(published))
	}

	// Touch B so it becomes the most recently updated.
	title := "B2"
	if _, err := repo.Update(ctx, storyB.ID, &models.StoryPatch{TitleEn: &title}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := repo.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 || all[0].ID != storyB.ID || all[1].ID != storyC.ID || all[2].ID != storyA.ID {
		t.Errorf("Expected [B, C, A] by updated_at, got %v", ids(all))
	}

	count, err := repo.Count(ctx, ListOptions{PublishedOnly: true})
	if err != nil || count != 2 {
		t.Errorf("Expected 2 published, got %d (%v)", count, err)
	}
}

func TestStoryRepo_UpdateSparse(t *testing.T) {
	_, repo := setupStoryRepo(t)
	ctx := context.Background()

	cover := "https://blob.example.com/c.png"
	input := newInput("Owl", false)
	input.CoverImage = &cover
	input.Tags = []string{"night"}
	created, _ := repo.Create(ctx, input)

	title := "Owl at dawn"
	updated, err := repo.Update(ctx, created.ID, &models.StoryPatch{TitleEn: &title})
	if err != nil || updated == nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.TitleEn != title || updated.TitleFr != created.TitleFr || updated.ContentEn != created.ContentEn {
		t.Errorf("Only title_en should change, got %+v", updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("updated_at must advance: %s -> %s", created.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("created_at must not change")
	}

	// An empty patch still advances updated_at.
	touched, err := repo.Update(ctx, created.ID, &models.StoryPatch{})
	if err != nil || touched == nil {
		t.Fatalf("empty Update failed: %v", err)
	}
	if !touched.UpdatedAt.After(updated.UpdatedAt) {
		t.Errorf("updated_at must advance on an empty patch: %s -> %s", updated.UpdatedAt, touched.UpdatedAt)
	}

	empty := ""
	cleared, err := repo.Update(ctx, created.ID, &models.StoryPatch{CoverImage: &empty, Tags: []string{}})
	if err != nil {
		t.Fatalf("clearing Update failed: %v", err)
	}
	if cleared.CoverImage != nil || len(cleared.Tags) != 0 {
		t.Errorf("Expected cover and tags cleared, got %v %v", cleared.CoverImage, cleared.Tags)
	}

	missing, err := repo.Update(ctx, created.ID+1000, &models.StoryPatch{TitleEn: &title})
	if err != nil || missing != nil {
		t.Errorf("Expected (nil, nil) for unknown id, got (%v, %v)", missing, err)
	}
}

func TestStoryRepo_PublishScenario(t *testing.T) {
	_, repo := setupStoryRepo(t)
	ctx := context.Background()

	draft, _ := repo.Create(ctx, newInput("Draft", false))

	published, err := repo.List(ctx, ListOptions{PublishedOnly: true})
	if err != nil || len(published) != 0 {
		t.Fatalf("Expected no published stories, got %d (%v)", len(published), err)
	}

	yes := true
	if _, err := repo.Update(ctx, draft.ID, &models.StoryPatch{Published: &yes}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	published, err = repo.List(ctx, ListOptions{PublishedOnly: true})
	if err != nil || len(published) != 1 || published[0].ID != draft.ID {
		t.Errorf("Expected the draft to be listed once published, got %v (%v)", ids(published), err)
	}
}

func TestStoryRepo_DeleteAndStream(t *testing.T) {
	_, repo := setupStoryRepo(t)
	ctx := context.Background()

	first, _ := repo.Create(ctx, newInput("One", true))
	second, _ := repo.Create(ctx, newInput("Two", true))

	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, first.ID); err != nil {
		t.Errorf("Deleting a missing id should succeed, got %v", err)
	}

	gone, _ := repo.GetByID(ctx, first.ID)
	if gone != nil {
		t.Error("Expected deleted story to be gone")
	}

	var streamed []int64
	err := repo.StreamAll(ctx, func(s *models.Story) error {
		streamed = append(streamed, s.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamAll failed: %v", err)
	}
	if len(streamed) != 1 || streamed[0] != second.ID {
		t.Errorf("Expected only the second story, got %v", streamed)
	}
}

func TestStoryRepo_MissingTableIsUnavailable(t *testing.T) {
	db, repo := setupStoryRepo(t)
	ctx := context.Background()

	if _, err := db.Exec(`DROP TABLE stories`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	_, err := repo.List(ctx, ListOptions{PublishedOnly: true})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
}

func ids(stories []*models.Story) []int64 {
	out := make([]int64, 0, len(stories))
	for _, s := range stories {
		out = append(out, s.ID)
	}
	return out
}
