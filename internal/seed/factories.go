package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"encore/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var profileKinds = []models.ProfileKind{
	models.ProfileKindArtist,
	models.ProfileKindArtist,
	models.ProfileKindArtist,
	models.ProfileKindGroup,
	models.ProfileKindInstitution,
	models.ProfileKindLabel,
}

var instruments = []string{
	"guitar", "bass", "drums", "piano", "violin", "cello", "trumpet", "saxophone",
	"vocals", "synth", "turntables", "clarinet", "flute", "harp",
}

// Factory builds and persists sample rows. Users are implicit: a user is just
// the id a membership points at.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
	seq  int
}

// NewFactory creates a factory. A zero seed uses the current time.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Factory{db: db, rand: rand.New(rand.NewSource(seed))}
}

// handle derives a unique, lowercase handle from a display name.
func (f *Factory) handle(name string) string {
	f.seq++
	base := strings.ToLower(strings.Join(strings.Fields(name), ""))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, base)
	if len(base) > 40 {
		base = base[:40]
	}
	return fmt.Sprintf("%s%d", base, f.seq)
}

// CreateProfile persists a profile owned by ownerUserID and makes it the
// owner's active profile.
func (f *Factory) CreateProfile(ownerUserID uint, private bool, overrides ...func(*models.Profile)) (*models.Profile, error) {
	kind := profileKinds[f.rand.Intn(len(profileKinds))]
	name := gofakeit.Name()
	switch kind {
	case models.ProfileKindGroup:
		name = fmt.Sprintf("The %s %ss", gofakeit.HipsterWord(), gofakeit.Noun())
	case models.ProfileKindInstitution:
		name = gofakeit.City() + " Conservatory"
	case models.ProfileKindLabel:
		name = gofakeit.Company() + " Records"
	}

	p := &models.Profile{
		Kind:        kind,
		Handle:      f.handle(name),
		DisplayName: name,
		Bio:         gofakeit.Sentence(12),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		IsPrivate:   private,
		IsVerified:  f.rand.Intn(10) == 0,
	}
	if kind == models.ProfileKindArtist {
		n := 1 + f.rand.Intn(3)
		for i := 0; i < n; i++ {
			p.Instruments = append(p.Instruments, instruments[f.rand.Intn(len(instruments))])
		}
	}
	for _, override := range overrides {
		override(p)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.ProfileMembership{
			UserID:    ownerUserID,
			ProfileID: p.ID,
			Role:      models.MembershipRoleOwner,
		}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"profile_id", "updated_at"}),
		}).Create(&models.ActiveProfile{UserID: ownerUserID, ProfileID: p.ID}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

// NewPost builds an unsaved text post at the given time.
func (f *Factory) NewPost(profileID uint, at time.Time) *models.Post {
	body := gofakeit.Paragraph(1, 2, 12, " ")
	if f.rand.Intn(4) == 0 {
		body = fmt.Sprintf("New %s out now: %q", []string{"single", "EP", "album", "video"}[f.rand.Intn(4)], gofakeit.HipsterSentence(3))
	}
	return &models.Post{ProfileID: profileID, Body: &body, CreatedAt: at}
}

// NewComment builds an unsaved comment.
func (f *Factory) NewComment(postID, profileID uint, at time.Time) *models.Comment {
	return &models.Comment{
		PostID:    postID,
		ProfileID: profileID,
		Body:      gofakeit.Sentence(8),
		CreatedAt: at,
	}
}

// NewMessage builds an unsaved message.
func (f *Factory) NewMessage(conversationID, profileID uint, at time.Time) *models.Message {
	return &models.Message{
		ConversationID: conversationID,
		ProfileID:      profileID,
		Body:           gofakeit.Sentence(6),
		CreatedAt:      at,
	}
}
