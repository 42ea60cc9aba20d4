package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/models"
	"github.com/idnofunny/backend/internal/util"
)

// defaultCategories are created on every deployment
var defaultCategories = []string{
	"Humor",
	"Tecnologia",
	"Política",
	"Games",
	"Anime",
	"Aleatório",
}

// devPassword is the shared password for seeded dev accounts
const devPassword = "senha-de-teste"

// Seeder populates the database with categories and development data
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedCategories creates the default categories if they are missing. Safe to
// run on every startup.
func (s *Seeder) SeedCategories() error {
	for _, name := range defaultCategories {
		var category models.Category
		err := s.db.Where("name = ?", name).
			FirstOrCreate(&category, models.Category{Name: name}).Error
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", name, err)
		}
	}
	logger.Log.Info("categories seeded", zap.Int("count", len(defaultCategories)))
	return nil
}

// SeedDev fills the database with fake users, memes, comments and social
// activity for local development
func (s *Seeder) SeedDev() error {
	if err := s.SeedCategories(); err != nil {
		return err
	}

	users, err := s.seedUsers(25)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	memes, err := s.seedMemes(users, 120)
	if err != nil {
		return fmt.Errorf("failed to seed memes: %w", err)
	}

	if err := s.seedComments(users, memes, 300); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}
	if err := s.seedLikes(users, memes); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}
	if err := s.seedFollows(users); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}
	if err := s.seedViews(users, memes); err != nil {
		return fmt.Errorf("failed to seed views: %w", err)
	}

	logger.Log.Info("dev seed complete",
		zap.Int("users", len(users)),
		zap.Int("memes", len(memes)))
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(devPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Username(), i)
		user := models.User{
			Email:        fmt.Sprintf("%s@example.com", username),
			Username:     username,
			PasswordHash: &hashStr,
			IsActive:     true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedMemes(users []models.User, count int) ([]models.Meme, error) {
	var categories []models.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return nil, err
	}

	memes := make([]models.Meme, 0, count)
	for i := 0; i < count; i++ {
		owner := users[rand.Intn(len(users))]
		meme := models.Meme{
			UserID:    owner.ID,
			Title:     gofakeit.Sentence(rand.Intn(6) + 2),
			MediaURL:  fmt.Sprintf("/static/memes/seed-%d.jpg", i),
			MediaType: models.MediaKindImage,
			CreatedAt: gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now()),
		}
		if rand.Intn(10) == 0 {
			meme.MediaType = models.MediaKindVideo
			meme.MediaURL = fmt.Sprintf("/static/videos/seed-%d.mp4", i)
		}
		if len(categories) > 0 && rand.Intn(3) > 0 {
			meme.CategoryID = &categories[rand.Intn(len(categories))].ID
		}
		if err := s.db.Create(&meme).Error; err != nil {
			return nil, err
		}

		if err := s.attachHashtags(&meme); err != nil {
			return nil, err
		}
		memes = append(memes, meme)
	}
	return memes, nil
}

func (s *Seeder) attachHashtags(meme *models.Meme) error {
	for i := 0; i < rand.Intn(4); i++ {
		name := util.NormalizeHashtag(gofakeit.BuzzWord())
		if name == "" {
			continue
		}
		var tag models.Hashtag
		if err := s.db.Where("name = ?", name).
			FirstOrCreate(&tag, models.Hashtag{Name: name}).Error; err != nil {
			return err
		}
		link := models.MemeHashtag{MemeID: meme.ID, HashtagID: tag.ID}
		if err := s.db.Where("meme_id = ? AND hashtag_id = ?", meme.ID, tag.ID).
			FirstOrCreate(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedComments(users []models.User, memes []models.Meme, count int) error {
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		meme := memes[rand.Intn(len(memes))]
		comment := models.Comment{
			MemeID:    meme.ID,
			UserID:    author.ID,
			Text:      gofakeit.Sentence(rand.Intn(12) + 2),
			CreatedAt: gofakeit.DateRange(meme.CreatedAt, time.Now()),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLikes(users []models.User, memes []models.Meme) error {
	for _, meme := range memes {
		for _, user := range users {
			if rand.Intn(5) != 0 {
				continue
			}
			like := models.MemeLike{UserID: user.ID, MemeID: meme.ID}
			if err := s.db.Where("user_id = ? AND meme_id = ?", user.ID, meme.ID).
				FirstOrCreate(&like).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedFollows(users []models.User) error {
	for _, follower := range users {
		for _, followed := range users {
			if follower.ID == followed.ID || rand.Intn(6) != 0 {
				continue
			}
			follow := models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
			if err := s.db.Where("follower_id = ? AND followed_id = ?", follower.ID, followed.ID).
				FirstOrCreate(&follow).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) seedViews(users []models.User, memes []models.Meme) error {
	for _, meme := range memes {
		views := 0
		for _, user := range users {
			if rand.Intn(3) != 0 {
				continue
			}
			view := models.MemeView{UserID: user.ID, MemeID: meme.ID}
			if err := s.db.Where("user_id = ? AND meme_id = ?", user.ID, meme.ID).
				FirstOrCreate(&view).Error; err != nil {
				return err
			}
			views++
		}
		if views > 0 {
			err := s.db.Model(&models.Meme{}).Where("id = ?", meme.ID).
				UpdateColumn("views", views).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}
