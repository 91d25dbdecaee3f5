package file

import (
	"encoding/json"
	"errors"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/aesanjagral/caseledger/pkg/models"
)

// UserModel authenticates against a flat users file. Passwords are stored
// as bcrypt hashes.
type UserModel struct {
	Path string
}

// Get returns the user with matching credentials. A missing user yields
// ErrNoRecord; a wrong password surfaces bcrypt's mismatch error so the
// caller can treat both alike.
func (m *UserModel) Get(username, password string) (*models.User, error) {
	data, err := os.ReadFile(m.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, models.ErrNoRecord
	}
	if err != nil {
		return nil, err
	}

	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Username == username {
			if err := bcrypt.CompareHashAndPassword([]byte(users[i].Password), []byte(password)); err != nil {
				return nil, err
			}
			return &users[i], nil
		}
	}
	return nil, models.ErrNoRecord
}
