// Package seed populates a database with sample profiles, posts and
// conversations for development.
package seed

import (
	"fmt"
	"log"
	"time"

	"encore/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options controls the size and shape of a seeded dataset.
type Options struct {
	Profiles        int     `yaml:"profiles"`
	PostsPerProfile int     `yaml:"posts_per_profile"`
	FollowRatio     float64 `yaml:"follow_ratio"`
	PrivateRatio    float64 `yaml:"private_ratio"`
	LikeRatio       float64 `yaml:"like_ratio"`
	CommentsPerPost int     `yaml:"comments_per_post"`
	Conversations   int     `yaml:"conversations"`
	MessagesPerChat int     `yaml:"messages_per_conversation"`
	Seed            int64   `yaml:"seed"`
}

// Result summarizes what a run created.
type Result struct {
	Profiles      []*models.Profile
	Posts         int
	Follows       int
	Likes         int
	Comments      int
	Conversations int
	Messages      int
}

// Seeder writes sample data through a Factory.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, seed)}
}

// ClearAll deletes every row the seeder can create, children first.
func (s *Seeder) ClearAll() error {
	tables := []any{
		&models.Message{}, &models.Conversation{},
		&models.Comment{}, &models.Like{}, &models.Save{},
		&models.PostMedia{}, &models.Post{}, &models.MediaAsset{},
		&models.Follow{}, &models.Block{},
		&models.ActiveProfile{}, &models.ProfileMembership{}, &models.Profile{},
	}
	for _, t := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return fmt.Errorf("clear %T: %w", t, err)
		}
	}
	log.Println("database cleared")
	return nil
}

// Run seeds a full dataset according to opts.
func (s *Seeder) Run(opts Options) (*Result, error) {
	if opts.Profiles < 2 {
		return nil, fmt.Errorf("at least 2 profiles are required, got %d", opts.Profiles)
	}
	if opts.Seed != 0 {
		s.factory = NewFactory(s.db, opts.Seed)
	}
	res := &Result{}
	r := s.factory.rand

	for i := 0; i < opts.Profiles; i++ {
		p, err := s.factory.CreateProfile(uint(i+1), r.Float64() < opts.PrivateRatio)
		if err != nil {
			return nil, err
		}
		res.Profiles = append(res.Profiles, p)
	}

	var follows []models.Follow
	for _, a := range res.Profiles {
		for _, b := range res.Profiles {
			if a.ID != b.ID && r.Float64() < opts.FollowRatio {
				follows = append(follows, models.Follow{FollowerID: a.ID, FollowedID: b.ID})
			}
		}
	}
	if len(follows) > 0 {
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(follows, 500).Error; err != nil {
			return nil, fmt.Errorf("seed follows: %w", err)
		}
	}
	res.Follows = len(follows)

	start := time.Now().Add(-30 * 24 * time.Hour)
	var posts []*models.Post
	for _, p := range res.Profiles {
		for i := 0; i < opts.PostsPerProfile; i++ {
			at := start.Add(time.Duration(r.Int63n(int64(30 * 24 * time.Hour))))
			posts = append(posts, s.factory.NewPost(p.ID, at))
		}
	}
	if len(posts) > 0 {
		if err := s.db.CreateInBatches(posts, 500).Error; err != nil {
			return nil, fmt.Errorf("seed posts: %w", err)
		}
	}
	res.Posts = len(posts)

	var likes []models.Like
	var comments []*models.Comment
	for _, post := range posts {
		for _, p := range res.Profiles {
			if p.ID != post.ProfileID && r.Float64() < opts.LikeRatio {
				likes = append(likes, models.Like{ProfileID: p.ID, PostID: post.ID})
			}
		}
		for i := 0; i < opts.CommentsPerPost; i++ {
			author := res.Profiles[r.Intn(len(res.Profiles))]
			comments = append(comments, s.factory.NewComment(post.ID, author.ID, post.CreatedAt.Add(time.Duration(i+1)*time.Minute)))
		}
	}
	if len(likes) > 0 {
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(likes, 500).Error; err != nil {
			return nil, fmt.Errorf("seed likes: %w", err)
		}
	}
	if len(comments) > 0 {
		if err := s.db.CreateInBatches(comments, 500).Error; err != nil {
			return nil, fmt.Errorf("seed comments: %w", err)
		}
	}
	res.Likes = len(likes)
	res.Comments = len(comments)

	if err := s.seedConversations(opts, res); err != nil {
		return nil, err
	}

	log.Printf("seeded %d profiles, %d posts, %d follows, %d likes, %d comments, %d conversations, %d messages",
		len(res.Profiles), res.Posts, res.Follows, res.Likes, res.Comments, res.Conversations, res.Messages)
	return res, nil
}

func (s *Seeder) seedConversations(opts Options, res *Result) error {
	r := s.factory.rand
	seen := make(map[[2]uint]bool)
	maxPairs := len(res.Profiles) * (len(res.Profiles) - 1) / 2

	for len(seen) < opts.Conversations && len(seen) < maxPairs {
		a := res.Profiles[r.Intn(len(res.Profiles))]
		b := res.Profiles[r.Intn(len(res.Profiles))]
		if a.ID == b.ID {
			continue
		}
		low, high := models.PairKey(a.ID, b.ID)
		if seen[[2]uint{low, high}] {
			continue
		}
		seen[[2]uint{low, high}] = true

		conv := &models.Conversation{MemberLowID: low, MemberHighID: high}
		if err := s.db.Create(conv).Error; err != nil {
			return fmt.Errorf("seed conversation: %w", err)
		}

		at := time.Now().Add(-time.Duration(opts.MessagesPerChat+1) * time.Hour)
		var last time.Time
		for i := 0; i < opts.MessagesPerChat; i++ {
			sender := low
			if i%2 == 1 {
				sender = high
			}
			last = at.Add(time.Duration(i) * time.Hour)
			if err := s.db.Create(s.factory.NewMessage(conv.ID, sender, last)).Error; err != nil {
				return fmt.Errorf("seed message: %w", err)
			}
			res.Messages++
		}
		if opts.MessagesPerChat > 0 {
			if err := s.db.Model(conv).Update("last_message_at", last).Error; err != nil {
				return fmt.Errorf("seed conversation activity: %w", err)
			}
		}
		res.Conversations++
	}
	return nil
}
