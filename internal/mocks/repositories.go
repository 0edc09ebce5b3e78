package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/esolrine-stories/internal/models"
	"github.com/esolrine-stories/internal/repository"
)

// MockStoryRepository is an in-memory implementation of StoryRepository
// with the same ordering and timestamp rules as the Postgres one.
type MockStoryRepository struct {
	mu sync.Mutex

	Stories     map[int64]*models.Story
	ListError   error
	GetError    error
	InsertError error
	UpdateError error
	DeleteError error

	// InsertErrorAfter lets that many creates succeed before InsertError applies
	InsertErrorAfter int

	ListCalls   int
	UpdateCalls int

	inserted int
	nextID   int64
	lastTime time.Time
}

// Verify interface compliance
var _ repository.StoryRepository = (*MockStoryRepository)(nil)

func NewMockStoryRepository() *MockStoryRepository {
	return &MockStoryRepository{
		Stories: make(map[int64]*models.Story),
		nextID:  1,
	}
}

// Seed stores a copy of story as is, keeping its id and timestamps
func (m *MockStoryRepository) Seed(story *models.Story) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := copyStory(story)
	m.Stories[cp.ID] = cp
	if cp.ID >= m.nextID {
		m.nextID = cp.ID + 1
	}
	if cp.UpdatedAt.After(m.lastTime) {
		m.lastTime = cp.UpdatedAt
	}
}

func (m *MockStoryRepository) List(ctx context.Context, opts repository.ListOptions) ([]*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}

	stories := make([]*models.Story, 0, len(m.Stories))
	for _, story := range m.Stories {
		if opts.PublishedOnly && !story.Published {
			continue
		}
		stories = append(stories, copyStory(story))
	}

	sort.Slice(stories, func(i, j int) bool {
		a, b := stories[i], stories[j]
		if opts.PublishedOnly {
			if !a.PublishDate.Equal(b.PublishDate) {
				return a.PublishDate.After(b.PublishDate)
			}
		} else if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID > b.ID
	})
	return stories, nil
}

func (m *MockStoryRepository) GetByID(ctx context.Context, id int64) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetError != nil {
		return nil, m.GetError
	}
	story, ok := m.Stories[id]
	if !ok {
		return nil, nil
	}
	return copyStory(story), nil
}

func (m *MockStoryRepository) Create(ctx context.Context, input *models.StoryInput) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertError != nil && m.inserted >= m.InsertErrorAfter {
		return nil, m.InsertError
	}
	m.inserted++

	now := m.tick()
	story := &models.Story{
		ID:          m.nextID,
		TitleFr:     input.TitleFr,
		TitleEn:     input.TitleEn,
		ContentFr:   input.ContentFr,
		ContentEn:   input.ContentEn,
		ExcerptFr:   input.ExcerptFr,
		ExcerptEn:   input.ExcerptEn,
		CoverImage:  nonEmpty(input.CoverImage),
		Tags:        append([]string{}, input.Tags...),
		Published:   input.Published,
		PublishDate: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.PublishDate != nil {
		story.PublishDate = *input.PublishDate
	}
	m.nextID++
	m.Stories[story.ID] = story
	return copyStory(story), nil
}

func (m *MockStoryRepository) Update(ctx context.Context, id int64, patch *models.StoryPatch) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	story, ok := m.Stories[id]
	if !ok {
		return nil, nil
	}

	if patch.TitleFr != nil {
		story.TitleFr = *patch.TitleFr
	}
	if patch.TitleEn != nil {
		story.TitleEn = *patch.TitleEn
	}
	if patch.ContentFr != nil {
		story.ContentFr = *patch.ContentFr
	}
	if patch.ContentEn != nil {
		story.ContentEn = *patch.ContentEn
	}
	if patch.ExcerptFr != nil {
		story.ExcerptFr = *patch.ExcerptFr
	}
	if patch.ExcerptEn != nil {
		story.ExcerptEn = *patch.ExcerptEn
	}
	if patch.CoverImage != nil {
		story.CoverImage = nonEmpty(patch.CoverImage)
	}
	if patch.Tags != nil {
		story.Tags = append([]string{}, patch.Tags...)
	}
	if patch.Published != nil {
		story.Published = *patch.Published
	}
	if patch.PublishDate != nil {
		story.PublishDate = *patch.PublishDate
	}
	story.UpdatedAt = m.tick()
	return copyStory(story), nil
}

func (m *MockStoryRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Stories, id)
	return nil
}

func (m *MockStoryRepository) Count(ctx context.Context, opts repository.ListOptions) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListError != nil {
		return 0, m.ListError
	}
	count := 0
	for _, story := range m.Stories {
		if !opts.PublishedOnly || story.Published {
			count++
		}
	}
	return count, nil
}

func (m *MockStoryRepository) StreamAll(ctx context.Context, callback func(*models.Story) error) error {
	m.mu.Lock()
	if m.ListError != nil {
		m.mu.Unlock()
		return m.ListError
	}
	ids := make([]int64, 0, len(m.Stories))
	for id := range m.Stories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	stories := make([]*models.Story, 0, len(ids))
	for _, id := range ids {
		stories = append(stories, copyStory(m.Stories[id]))
	}
	m.mu.Unlock()

	for _, story := range stories {
		if err := callback(story); err != nil {
			return err
		}
	}
	return nil
}

// tick returns a timestamp strictly after every one handed out before
func (m *MockStoryRepository) tick() time.Time {
	now := time.Now().UTC()
	if !now.After(m.lastTime) {
		now = m.lastTime.Add(time.Microsecond)
	}
	m.lastTime = now
	return now
}

func copyStory(s *models.Story) *models.Story {
	cp := *s
	cp.Tags = append([]string{}, s.Tags...)
	if s.CoverImage != nil {
		cover := *s.CoverImage
		cp.CoverImage = &cover
	}
	return &cp
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
