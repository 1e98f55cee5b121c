// Package groups implements group lifecycle and membership: creation with the
// creator as leader, join by entry code, leader-only edit and delete, leave,
// and the cascading cleanup of notes and tasks tagged with a group's name.
//
// Every mutating operation runs in a single database transaction. Membership
// uniqueness is enforced by the (group_id, user_id) primary key, and joins
// insert with ON CONFLICT DO NOTHING so concurrent joins both succeed.
package groups

import (
	"context"
	"strings"

	"github.com/inote-dev/inote/internal/apperr"
	"github.com/inote-dev/inote/internal/models"
	"github.com/inote-dev/inote/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxFieldLength = 255

const (
	msgGroupNotFound   = "Group not found"
	msgJoinNotFound    = "Group not found or entry code incorrect"
	msgNotLeader       = "Unauthorized"
	msgLeaderCantLeave = "Leader cannot leave the group. Please delete the group or transfer leadership."
)

type CreateInput struct {
	Name      string
	EntryCode string
}

// JoinInput identifies a group by id or by name. GroupID wins when both are
// set.
type JoinInput struct {
	GroupID   *uint
	Name      *string
	EntryCode string
}

// EditInput is a partial patch. Nil fields are left unchanged.
type EditInput struct {
	Name         *string
	EntryCode    *string
	KickMemberID *uint
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create makes a new group led by actor and attaches actor as its first
// member.
func (s *Service) Create(ctx context.Context, actor types.AuthenticatedUser, in CreateInput) (*models.Group, error) {
	name, err := cleanField("name", in.Name)
	if err != nil {
		return nil, err
	}
	code, err := cleanField("entry_code", in.EntryCode)
	if err != nil {
		return nil, err
	}

	group := models.Group{Name: name, EntryCode: code, LeaderID: actor.ID}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUnique(tx, 0, "name", name); err != nil {
			return err
		}
		if err := ensureUnique(tx, 0, "entry_code", code); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&group).Error; err != nil {
			return apperr.FromDB(err, "")
		}
		return addMember(tx, group.ID, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, group.ID)
}

// Join adds actor to the group matching both the identifier and the entry
// code. Joining a group twice is a no-op. The not-found message does not say
// whether the group or the code was wrong.
func (s *Service) Join(ctx context.Context, actor types.AuthenticatedUser, in JoinInput) (*models.Group, error) {
	if in.GroupID == nil && in.Name == nil {
		return nil, apperr.Field("group_id", "The group id or name field is required.")
	}
	if strings.TrimSpace(in.EntryCode) == "" {
		return nil, apperr.Field("entry_code", "The entry code field is required.")
	}

	var groupID uint

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("entry_code = ?", in.EntryCode)
		if in.GroupID != nil {
			q = q.Where("id = ?", *in.GroupID)
		} else {
			q = q.Where("name = ?", *in.Name)
		}

		var group models.Group
		if err := q.First(&group).Error; err != nil {
			return apperr.FromDB(err, msgJoinNotFound)
		}
		groupID = group.ID

		return addMember(tx, group.ID, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, groupID)
}

// Edit applies a leader's patch: rename, rotate the entry code, and/or kick
// one member. Name and code may collide with the group's own current values
// but not with another group's.
func (s *Service) Edit(ctx context.Context, actor types.AuthenticatedUser, groupID uint, in EditInput) (*models.Group, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := loadForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if group.LeaderID != actor.ID {
			return apperr.Forbidden(msgNotLeader)
		}

		updates := map[string]interface{}{}

		if in.Name != nil {
			name, err := cleanField("name", *in.Name)
			if err != nil {
				return err
			}
			if err := ensureUnique(tx, group.ID, "name", name); err != nil {
				return err
			}
			updates["name"] = name
		}

		if in.EntryCode != nil {
			code, err := cleanField("entry_code", *in.EntryCode)
			if err != nil {
				return err
			}
			if err := ensureUnique(tx, group.ID, "entry_code", code); err != nil {
				return err
			}
			updates["entry_code"] = code
		}

		if in.KickMemberID != nil {
			if err := validateKick(tx, group, *in.KickMemberID); err != nil {
				return err
			}
		}

		if len(updates) > 0 {
			if err := tx.Model(group).Updates(updates).Error; err != nil {
				return apperr.FromDB(err, msgGroupNotFound)
			}
		}

		if in.KickMemberID != nil {
			if err := removeMember(tx, group.ID, *in.KickMemberID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, groupID)
}

// Delete removes a group, its memberships and every note and task whose
// category equals the group's name. It returns the groups actor still
// belongs to.
func (s *Service) Delete(ctx context.Context, actor types.AuthenticatedUser, groupID uint) ([]models.Group, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := loadForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if group.LeaderID != actor.ID {
			return apperr.Forbidden(msgNotLeader)
		}
		return purge(tx, group)
	})
	if err != nil {
		return nil, err
	}

	return s.ListForUser(ctx, actor.ID)
}

// Leave removes actor's membership. The leader cannot leave. Leaving a group
// one is not a member of succeeds.
func (s *Service) Leave(ctx context.Context, actor types.AuthenticatedUser, groupID uint) ([]models.Group, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := loadForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if group.LeaderID == actor.ID {
			return apperr.Forbidden(msgLeaderCantLeave)
		}
		return removeMember(tx, group.ID, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.ListForUser(ctx, actor.ID)
}

// ListForUser returns every group userID leads or is a member of, ordered
// by creation.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]models.Group, error) {
	tx := s.db.WithContext(ctx)

	memberOf := tx.Model(&models.GroupMembership{}).Select("group_id").Where("user_id = ?", userID)

	groups := []models.Group{}
	if err := tx.Scopes(withRoster).
		Where("leader_id = ?", userID).
		Or("id IN (?)", memberOf).
		Order("id").
		Find(&groups).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	return groups, nil
}

// Get returns one group with its leader and members loaded.
func (s *Service) Get(ctx context.Context, groupID uint) (*models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Scopes(withRoster).First(&group, groupID).Error; err != nil {
		return nil, apperr.FromDB(err, msgGroupNotFound)
	}
	return &group, nil
}

// RequireLeader fails with NotFound when the group does not exist and with
// Forbidden when actor does not lead it. Edit and Delete repeat the check
// inside their transactions.
func (s *Service) RequireLeader(ctx context.Context, actor types.AuthenticatedUser, groupID uint) error {
	var group models.Group
	if err := s.db.WithContext(ctx).Select("id", "leader_id").First(&group, groupID).Error; err != nil {
		return apperr.FromDB(err, msgGroupNotFound)
	}
	if group.LeaderID != actor.ID {
		return apperr.Forbidden(msgNotLeader)
	}
	return nil
}

// IsParticipant reports whether userID leads or belongs to the group.
func (s *Service) IsParticipant(ctx context.Context, groupID, userID uint) (bool, error) {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return false, err
	}
	return group.LeaderID == userID || group.HasMember(userID), nil
}

// PurgeLedBy deletes every group leaderID leads, with the same cascade as
// Delete. tx must be an open transaction.
func PurgeLedBy(tx *gorm.DB, leaderID uint) error {
	var led []models.Group
	if err := tx.Where("leader_id = ?", leaderID).Find(&led).Error; err != nil {
		return apperr.Internal(err)
	}
	for i := range led {
		if err := purge(tx, &led[i]); err != nil {
			return err
		}
	}
	return nil
}

func purge(tx *gorm.DB, group *models.Group) error {
	if err := tx.Where("category = ?", group.Name).Delete(&models.Note{}).Error; err != nil {
		return apperr.Internal(err)
	}
	if err := tx.Where("category = ?", group.Name).Delete(&models.Task{}).Error; err != nil {
		return apperr.Internal(err)
	}
	if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupMembership{}).Error; err != nil {
		return apperr.Internal(err)
	}
	if err := tx.Where("id = ?", group.ID).Delete(&models.Group{}).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func withRoster(db *gorm.DB) *gorm.DB {
	return db.Preload("Leader").Preload("Memberships.User")
}

// loadForUpdate reads the group row, locking it on databases with row-level
// locks so concurrent edits of the same group serialize.
func loadForUpdate(tx *gorm.DB, groupID uint) (*models.Group, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var group models.Group
	if err := q.First(&group, groupID).Error; err != nil {
		return nil, apperr.FromDB(err, msgGroupNotFound)
	}
	return &group, nil
}

func addMember(tx *gorm.DB, groupID, userID uint) error {
	membership := models.GroupMembership{GroupID: groupID, UserID: userID}
	if err := tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&membership).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func removeMember(tx *gorm.DB, groupID, userID uint) error {
	if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMembership{}).Error; err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func validateKick(tx *gorm.DB, group *models.Group, userID uint) error {
	if userID == group.LeaderID {
		return apperr.Field("kick_member_id", "The group leader cannot be removed from the group.")
	}

	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count == 0 {
		return apperr.Field("kick_member_id", "The selected kick member id is invalid.")
	}
	return nil
}

// ensureUnique fails with Conflict when another group (id != exceptID)
// already uses value in column.
func ensureUnique(tx *gorm.DB, exceptID uint, column, value string) error {
	var count int64
	if err := tx.Model(&models.Group{}).
		Where(column+" = ?", value).
		Where("id <> ?", exceptID).
		Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.Conflict(column, "The "+strings.ReplaceAll(column, "_", " ")+" has already been taken.")
	}
	return nil
}

func cleanField(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	label := strings.ReplaceAll(field, "_", " ")
	if value == "" {
		return "", apperr.Field(field, "The "+label+" field is required.")
	}
	if len(value) > maxFieldLength {
		return "", apperr.Field(field, "The "+label+" field must not be greater than 255 characters.")
	}
	return value, nil
}
