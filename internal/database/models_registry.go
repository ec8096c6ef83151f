package database

import "encore/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Profile{},
		&models.ProfileMembership{},
		&models.ActiveProfile{},
		&models.Follow{},
		&models.Block{},
		&models.MediaAsset{},
		&models.Post{},
		&models.PostMedia{},
		&models.Like{},
		&models.Save{},
		&models.Comment{},
		&models.Conversation{},
		&models.Message{},
	}
}
