package store

import (
	"context"
	"fmt"
	"time"

	"github.com/benflix/benflix/lib/types"
	"github.com/benflix/benflix/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	_ Store    = (*GormStore)(nil)
	_ Accounts = (*GormStore)(nil)
	_ Seeder   = (*GormStore)(nil)
)

// GormStore implements Store, Accounts and Seeder on a gorm connection.
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

type Option func(*GormStore)

// WithClock overrides the timestamp source used for favorites and links.
func WithClock(now func() time.Time) Option {
	return func(s *GormStore) {
		s.now = now
	}
}

func New(db *gorm.DB, opts ...Option) *GormStore {
	s := &GormStore{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying connection.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return wrap("ping", err)
	}
	return wrap("ping", sqlDB.PingContext(ctx))
}

func (s *GormStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, wrap("list categories", err)
	}
	return categories, nil
}

func (s *GormStore) ShowsByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Show, error) {
	shows := []models.Show{}
	err := s.db.WithContext(ctx).
		Model(&models.Show{}).
		Select("shows.*").
		Joins("JOIN show_categories ON show_categories.show_id = shows.id").
		Where("show_categories.category_id = ?", categoryID).
		Order("show_categories.created_at ASC").
		Order("shows.title ASC").
		Find(&shows).Error
	if err != nil {
		return nil, wrap("shows by category", err)
	}
	return shows, nil
}

func (s *GormStore) EpisodesByShow(ctx context.Context, showID uuid.UUID) ([]models.Episode, error) {
	episodes := []models.Episode{}
	err := s.db.WithContext(ctx).
		Where("show_id = ?", showID).
		Order("episode_number ASC").
		Order("created_at ASC").
		Find(&episodes).Error
	if err != nil {
		return nil, wrap("episodes by show", err)
	}
	return episodes, nil
}

func (s *GormStore) GetShow(ctx context.Context, showID uuid.UUID) (*models.Show, error) {
	var show models.Show
	if err := s.db.WithContext(ctx).Where("id = ?", showID).First(&show).Error; err != nil {
		return nil, wrap("get show", err)
	}
	return &show, nil
}

func (s *GormStore) FavoriteExists(ctx context.Context, userID, showID uuid.UUID) (bool, error) {
	var fav models.Favorite
	res := s.db.WithContext(ctx).
		Select("id").
		Where("user_id = ? AND show_id = ?", userID, showID).
		Limit(1).
		Find(&fav)
	if res.Error != nil {
		return false, wrap("favorite exists", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) InsertFavorite(ctx context.Context, userID, showID uuid.UUID) (bool, error) {
	fav := models.Favorite{
		UserID:    userID,
		ShowID:    showID,
		CreatedAt: s.now(),
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "show_id"}},
			DoNothing: true,
		}).
		Create(&fav)
	if res.Error != nil {
		return false, wrap("insert favorite", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) DeleteFavorite(ctx context.Context, userID, showID uuid.UUID) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND show_id = ?", userID, showID).
		Delete(&models.Favorite{}).Error
	return wrap("delete favorite", err)
}

func (s *GormStore) FavoriteShows(ctx context.Context, userID uuid.UUID) ([]models.Show, error) {
	shows := []models.Show{}
	err := s.db.WithContext(ctx).
		Model(&models.Show{}).
		Select("shows.*").
		Joins("JOIN favorites ON favorites.show_id = shows.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&shows).Error
	if err != nil {
		return nil, wrap("favorite shows", err)
	}
	return shows, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return wrap("create user", s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, wrap("user by email", err)
	}
	return &user, nil
}

func (s *GormStore) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, wrap("user by id", err)
	}
	return &user, nil
}

func (s *GormStore) CreateSession(ctx context.Context, sess *models.Session) error {
	return wrap("create session", s.db.WithContext(ctx).Create(sess).Error)
}

func (s *GormStore) SessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error; err != nil {
		return nil, wrap("session by id", err)
	}
	return &sess, nil
}

func (s *GormStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	return wrap("delete session", s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error)
}

func (s *GormStore) EnsureCategory(ctx context.Context, name string) (*models.Category, error) {
	category := models.Category{Name: name, CreatedAt: s.now()}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&category)
	if res.Error != nil {
		return nil, wrap("ensure category", res.Error)
	}
	if res.RowsAffected > 0 {
		return &category, nil
	}

	var existing models.Category
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err != nil {
		return nil, wrap("ensure category", err)
	}
	return &existing, nil
}

func (s *GormStore) CreateShow(ctx context.Context, show *models.Show) error {
	return wrap("create show", s.db.WithContext(ctx).Create(show).Error)
}

func (s *GormStore) LinkShowCategories(ctx context.Context, showID uuid.UUID, categoryIDs []uuid.UUID) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	now := s.now()
	links := make([]models.ShowCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		links = append(links, models.ShowCategory{ShowID: showID, CategoryID: id, CreatedAt: now})
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "show_id"}, {Name: "category_id"}},
			DoNothing: true,
		}).
		Create(&links).Error
	return wrap("link show categories", err)
}

func (s *GormStore) CreateEpisodes(ctx context.Context, episodes []models.Episode) error {
	if len(episodes) == 0 {
		return nil
	}
	return wrap("create episodes", s.db.WithContext(ctx).CreateInBatches(&episodes, 100).Error)
}

func (s *GormStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	tables := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.Category{}, &c.Categories},
		{&models.Show{}, &c.Shows},
		{&models.Episode{}, &c.Episodes},
		{&models.ShowCategory{}, &c.Links},
		{&models.Favorite{}, &c.Favorites},
		{&models.User{}, &c.Users},
	}
	for _, t := range tables {
		if err := s.db.WithContext(ctx).Model(t.model).Count(t.dst).Error; err != nil {
			return Counts{}, wrap(fmt.Sprintf("count %T", t.model), err)
		}
	}
	return c, nil
}

// Stats gathers the catalog overview and data-quality counts.
func (s *GormStore) Stats(ctx context.Context) (types.StatsData, error) {
	var st types.StatsData
	counts, err := s.Counts(ctx)
	if err != nil {
		return st, err
	}
	st.TotalCategories = counts.Categories
	st.TotalShows = counts.Shows
	st.TotalEpisodes = counts.Episodes
	st.TotalFavorites = counts.Favorites
	st.TotalUsers = counts.Users

	db := s.db.WithContext(ctx)
	checks := []struct {
		op  string
		q   *gorm.DB
		dst *int64
	}{
		{"count empty categories", db.Model(&models.Category{}).
			Where("NOT EXISTS (SELECT 1 FROM show_categories WHERE show_categories.category_id = categories.id)"), &st.EmptyCategories},
		{"count uncategorized shows", db.Model(&models.Show{}).
			Where("NOT EXISTS (SELECT 1 FROM show_categories WHERE show_categories.show_id = shows.id)"), &st.ShowsWithoutCategory},
		{"count shows without episodes", db.Model(&models.Show{}).
			Where("NOT EXISTS (SELECT 1 FROM episodes WHERE episodes.show_id = shows.id)"), &st.ShowsWithoutEpisodes},
		{"count episodes without duration", db.Model(&models.Episode{}).
			Where("duration IS NULL"), &st.EpisodesWithoutDuration},
	}
	for _, c := range checks {
		if err := c.q.Count(c.dst).Error; err != nil {
			return st, wrap(c.op, err)
		}
	}

	err = db.Model(&models.ShowCategory{}).
		Select("categories.name AS category, COUNT(*) AS count").
		Joins("JOIN categories ON categories.id = show_categories.category_id").
		Group("categories.name").
		Order("count DESC").
		Order("categories.name ASC").
		Scan(&st.CategoryDistribution).Error
	if err != nil {
		return st, wrap("category distribution", err)
	}
	return st, nil
}
