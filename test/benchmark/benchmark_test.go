package benchmark

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/locale"
	"github.com/esolrine-stories/internal/mocks"
	"github.com/esolrine-stories/internal/models"
	"github.com/esolrine-stories/internal/repository"
	"github.com/esolrine-stories/internal/service"
	"github.com/esolrine-stories/internal/validation"
	"github.com/rs/zerolog"
)

func newServices(repo *mocks.MockStoryRepository) *service.Services {
	cfg := &config.Config{Site: config.SiteConfig{BaseURL: "https://esolrine.test"}}
	return service.NewServices(&repository.Repositories{Story: repo}, mocks.NewMockMigrator(), mocks.NewMockPageCache(), cfg, zerolog.Nop())
}

func seedRepo(n int) *mocks.MockStoryRepository {
	repo := mocks.NewMockStoryRepository()
	paragraph := strings.Repeat("<p data-indent=\"2\">Il était une fois un renard.</p>", 40)
	for i := 0; i < n; i++ {
		repo.Create(context.Background(), &models.StoryInput{
			TitleFr:   fmt.Sprintf("Histoire %d", i),
			TitleEn:   fmt.Sprintf("Story %d", i),
			ContentFr: paragraph,
			ContentEn: paragraph,
			ExcerptFr: "extrait",
			ExcerptEn: "excerpt",
			Tags:      []string{"forest", "magic"},
			Published: i%2 == 0,
		})
	}
	return repo
}

// BenchmarkStreamStories benchmarks the NDJSON export
func BenchmarkStreamStories(b *testing.B) {
	svc := newServices(seedRepo(500))
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		if err := svc.Export.StreamStories(ctx, rec, "ndjson"); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(500*b.N)/b.Elapsed().Seconds(), "rows/sec")
}

// BenchmarkCreateSanitized benchmarks validation plus HTML sanitizing on create
func BenchmarkCreateSanitized(b *testing.B) {
	svc := newServices(mocks.NewMockStoryRepository())
	validator := validation.NewValidator()
	ctx := context.Background()
	content := strings.Repeat(`<p data-indent="2" style="text-indent: 2em;">Once <em>upon</em> a time</p><script>x()</script>`, 50)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		input, errs := validator.ValidateCreate(&models.StoryRequest{
			TitleFr:   "Le renard",
			TitleEn:   "The fox",
			ContentFr: content,
			ContentEn: content,
			ExcerptFr: "Un renard",
			ExcerptEn: "A fox",
			Tags:      []string{" forest ", "magic"},
		})
		if len(errs) > 0 {
			b.Fatalf("unexpected validation errors: %v", errs)
		}
		if _, err := svc.Story.Create(ctx, input); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPublishedStories benchmarks the localized listing with a warm cache
func BenchmarkPublishedStories(b *testing.B) {
	svc := newServices(seedRepo(200))
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		loc := locale.English
		if i%2 == 0 {
			loc = locale.French
		}
		if _, err := svc.Story.PublishedStories(ctx, loc); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPairLegacy benchmarks the bilingual merge planning
func BenchmarkPairLegacy(b *testing.B) {
	rows := make([]models.LegacyRow, 0, 2000)
	for i := int64(1); i <= 1000; i++ {
		fr := 2*i - 1
		en := 2 * i
		rows = append(rows,
			models.LegacyRow{ID: fr, Title: "fr", Language: "fr", TranslationID: &en},
			models.LegacyRow{ID: en, Title: "en", Language: "en"},
		)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if units := models.PairLegacy(rows); len(units) != 1000 {
			b.Fatalf("expected 1000 units, got %d", len(units))
		}
	}
}
