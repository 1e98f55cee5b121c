// Package identity persists users and their bearer tokens.
package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inote-dev/inote/internal/apperr"
	"github.com/inote-dev/inote/internal/auth"
	"github.com/inote-dev/inote/internal/groups"
	"github.com/inote-dev/inote/internal/models"
	"github.com/inote-dev/inote/internal/types"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 8
	tokenName         = "inote-token"

	msgBadCredentials = "These credentials do not match our records."
	msgInvalidToken   = "Unauthenticated."
)

type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// EditInput is a partial patch of the caller's own account.
type EditInput struct {
	Name                 *string
	Password             *string
	PasswordConfirmation *string
}

type Service struct {
	db       *gorm.DB
	tokenTTL time.Duration
	now      func() time.Time
}

func NewService(db *gorm.DB, tokenTTL time.Duration) *Service {
	return &Service{db: db, tokenTTL: tokenTTL, now: time.Now}
}

// Register creates a user and issues its first token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	fields := map[string][]string{}
	if name == "" {
		fields["name"] = append(fields["name"], "The name field is required.")
	}
	if email == "" {
		fields["email"] = append(fields["email"], "The email field is required.")
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = append(fields["email"], "The email field must be a valid email address.")
	}
	if msg := checkPassword(in.Password, in.PasswordConfirmation); msg != "" {
		fields["password"] = append(fields["password"], msg)
	}
	if len(fields) > 0 {
		return nil, "", apperr.Validation("The given data was invalid.", fields)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}

	user := models.User{Name: name, Email: email, PasswordHash: hash}
	var token string

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, 0, "name", name); err != nil {
			return err
		}
		if err := ensureUnique(tx, 0, "email", email); err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		token, err = s.issueToken(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// Login checks name and password and issues a new token. Unknown names and
// wrong passwords produce the same NotFound error.
func (s *Service) Login(ctx context.Context, name, password string) (*models.User, string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("name = ?", strings.TrimSpace(name)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperr.NotFound(msgBadCredentials)
		}
		return nil, "", apperr.Internal(err)
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, "", apperr.NotFound(msgBadCredentials)
	}

	token, err := s.issueToken(s.db.WithContext(ctx), user.ID)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// Authenticate resolves a bearer token to the user it was issued to. The
// token must verify and its AccessToken row must still exist.
func (s *Service) Authenticate(ctx context.Context, bearer string) (types.AuthenticatedUser, error) {
	claims, err := auth.VerifyJWT(bearer)
	if err != nil {
		return types.AuthenticatedUser{}, apperr.Unauthenticated(msgInvalidToken)
	}

	var token models.AccessToken
	err = s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND expires_at > ?", claims.ID, claims.UserID, s.now()).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.AuthenticatedUser{}, apperr.Unauthenticated(msgInvalidToken)
		}
		return types.AuthenticatedUser{}, apperr.Internal(err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, token.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.AuthenticatedUser{}, apperr.Unauthenticated(msgInvalidToken)
		}
		return types.AuthenticatedUser{}, apperr.Internal(err)
	}

	return types.AuthenticatedUser{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Get loads the caller's full user record.
func (s *Service) Get(ctx context.Context, actor types.AuthenticatedUser) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, actor.ID).Error; err != nil {
		return nil, apperr.FromDB(err, "User not found")
	}
	return &user, nil
}

// Logout revokes every token of actor.
func (s *Service) Logout(ctx context.Context, actor types.AuthenticatedUser) error {
	return revokeAll(s.db.WithContext(ctx), actor.ID)
}

// Edit renames the caller and/or changes their password. Notes and tasks keep
// the old name in their by field.
func (s *Service) Edit(ctx context.Context, actor types.AuthenticatedUser, in EditInput) (*models.User, error) {
	updates := map[string]interface{}{}
	fields := map[string][]string{}

	var name string
	if in.Name != nil {
		name = strings.TrimSpace(*in.Name)
		if name == "" {
			fields["name"] = []string{"The name field must be a string."}
		} else {
			updates["name"] = name
		}
	}

	if in.Password != nil && *in.Password != "" {
		confirmation := ""
		if in.PasswordConfirmation != nil {
			confirmation = *in.PasswordConfirmation
		}
		if msg := checkPassword(*in.Password, confirmation); msg != "" {
			fields["password"] = []string{msg}
		} else {
			hash, err := auth.HashPassword(*in.Password)
			if err != nil {
				return nil, apperr.Internal(err)
			}
			updates["password_hash"] = hash
		}
	}

	if len(fields) > 0 {
		return nil, apperr.Validation("The given data was invalid.", fields)
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, actor.ID).Error; err != nil {
			return apperr.FromDB(err, "User not found")
		}
		if name != "" {
			if err := ensureUnique(tx, user.ID, "name", name); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return apperr.FromDB(err, "User not found")
		}
		return tx.First(&user, user.ID).Error
	})
	if err != nil {
		return nil, apperr.FromDB(err, "User not found")
	}

	return &user, nil
}

// Delete removes the caller's account in one transaction: the groups they
// lead (with the group cascade), the notes and tasks attributed to their
// name, their memberships and their tokens.
func (s *Service) Delete(ctx context.Context, actor types.AuthenticatedUser) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, actor.ID).Error; err != nil {
			return apperr.FromDB(err, "User not found")
		}

		if err := groups.PurgeLedBy(tx, user.ID); err != nil {
			return err
		}
		if err := tx.Where(map[string]interface{}{"by": user.Name}).Delete(&models.Note{}).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := tx.Where(map[string]interface{}{"by": user.Name}).Delete(&models.Task{}).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.GroupMembership{}).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := revokeAll(tx, user.ID); err != nil {
			return err
		}
		if err := tx.Where("id = ?", user.ID).Delete(&models.User{}).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
}

func (s *Service) issueToken(tx *gorm.DB, userID uint) (string, error) {
	row := models.AccessToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      tokenName,
		ExpiresAt: s.now().Add(s.tokenTTL),
	}
	if err := tx.Create(&row).Error; err != nil {
		return "", apperr.Internal(err)
	}

	token, err := auth.GenerateJWT(userID, row.ID, row.ExpiresAt)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return token, nil
}

func revokeAll(tx *gorm.DB, userID uint) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.AccessToken{}).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func ensureUnique(tx *gorm.DB, exceptID uint, column, value string) error {
	var count int64
	if err := tx.Model(&models.User{}).
		Where(column+" = ?", value).
		Where("id <> ?", exceptID).
		Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.Conflict(column, "The "+column+" has already been taken.")
	}
	return nil
}

func checkPassword(password, confirmation string) string {
	switch {
	case password == "":
		return "The password field is required."
	case len(password) < minPasswordLength:
		return "The password field must be at least 8 characters."
	case password != confirmation:
		return "The password field confirmation does not match."
	}
	return ""
}
