// internal/models/party.go
package models

import "golang.org/x/crypto/bcrypt"

// Party is an identity-provider record used only for token issuance. The
// ledger core never consults it; callers are plain addresses to the core.
type Party struct {
	BaseModel
	Address       string `json:"address" gorm:"uniqueIndex;size:128;not null"`
	AccessKeyHash string `json:"-" gorm:"size:255;not null"`
}

func (p *Party) SetAccessKey(key string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	p.AccessKeyHash = string(hash)
	return nil
}

func (p *Party) CheckAccessKey(key string) error {
	return bcrypt.CompareHashAndPassword([]byte(p.AccessKeyHash), []byte(key))
}
