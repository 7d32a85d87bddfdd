// Package users 实现用户注册与资料修改.
package users

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeisme/soundvault/pkg/internal/auth"
	"github.com/yeisme/soundvault/pkg/internal/model"
	nlog "github.com/yeisme/soundvault/pkg/log"
	"github.com/yeisme/soundvault/pkg/rule"
)

// CreateInput 注册参数.
type CreateInput struct {
	Username  string `json:"username"  form:"username"`
	Email     string `json:"email"     form:"email"`
	Password  string `json:"password"  form:"password"`
	Password2 string `json:"password2" form:"password2"`
}

// UpdateInput 资料修改参数，nil 字段保持不变. 修改密码需同时提供 Password2.
type UpdateInput struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Password2 *string `json:"password2"`
}

// IdentityCache 用户资料变化后使缓存失效.
type IdentityCache interface {
	Forget(ctx context.Context, userID uint) error
}

// Service 用户服务.
type Service struct {
	db          *gorm.DB
	hasher      *auth.Hasher
	minPassword int
	identities  IdentityCache
}

// NewService 创建用户服务，identities 可为空.
func NewService(db *gorm.DB, hasher *auth.Hasher, minPassword int, identities IdentityCache) *Service {
	return &Service{db: db, hasher: hasher, minPassword: minPassword, identities: identities}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Create 校验并创建用户，所有校验错误一次返回.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.User, error) {
	username, email := normalize(in.Username), normalize(in.Email)

	ve := &ValidationError{}
	s.checkUsername(ctx, ve, username, 0)
	s.checkEmail(ctx, ve, email, 0)
	s.checkPassword(ve, in.Password, in.Password2)

	if err := ve.orNil(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}

	nlog.Logger().Info().Uint("user_id", u.ID).Str("username", u.Username).Msg("user created")

	return u, nil
}

// Update 修改当前用户的资料.
func (s *Service) Update(ctx context.Context, user *model.User, in UpdateInput) (*model.User, error) {
	fields := map[string]any{}
	ve := &ValidationError{}

	if in.Username != nil {
		username := normalize(*in.Username)
		if username != user.Username {
			s.checkUsername(ctx, ve, username, user.ID)
			fields["username"] = username
		}
	}

	if in.Email != nil {
		email := normalize(*in.Email)
		if email != user.Email {
			s.checkEmail(ctx, ve, email, user.ID)
			fields["email"] = email
		}
	}

	if in.Password != nil {
		confirm := ""
		if in.Password2 != nil {
			confirm = *in.Password2
		}

		s.checkPassword(ve, *in.Password, confirm)
	}

	if err := ve.orNil(); err != nil {
		return nil, err
	}

	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}

		fields["password_hash"] = hash
	}

	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.User{ID: user.ID}).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("update user %d: %w", user.ID, err)
		}

		if s.identities != nil {
			if err := s.identities.Forget(ctx, user.ID); err != nil {
				nlog.Logger().Warn().Err(err).Uint("user_id", user.ID).Msg("forget cached user failed")
			}
		}
	}

	var out model.User
	if err := s.db.WithContext(ctx).First(&out, user.ID).Error; err != nil {
		return nil, fmt.Errorf("reload user %d: %w", user.ID, err)
	}

	return &out, nil
}

func (s *Service) checkUsername(ctx context.Context, ve *ValidationError, username string, exceptID uint) {
	if rule.ValidateVar(username, "required,username") != nil {
		ve.add(CodeInvalidUsername)

		return
	}

	if s.taken(ctx, "username", username, exceptID) {
		ve.add(CodeUsernameTaken)
	}
}

func (s *Service) checkEmail(ctx context.Context, ve *ValidationError, email string, exceptID uint) {
	if rule.ValidateVar(email, "required,email") != nil {
		ve.add(CodeInvalidEmail)

		return
	}

	if s.taken(ctx, "email", email, exceptID) {
		ve.add(CodeEmailTaken)
	}
}

func (s *Service) checkPassword(ve *ValidationError, password, confirm string) {
	if len(password) < s.minPassword {
		ve.add(CodePasswordTooShort)
	}

	if password != confirm {
		ve.add(CodePasswordsDoNotMatch)
	}
}

// taken 唯一索引覆盖软删除的用户，因此这里也包含它们. 查询失败时视为未占用，由插入报错兜底.
func (s *Service) taken(ctx context.Context, column, value string, exceptID uint) bool {
	var count int64

	q := s.db.WithContext(ctx).Unscoped().Model(&model.User{}).Where(column+" = ?", value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&count).Error; err != nil {
		nlog.Logger().Error().Err(err).Str("column", column).Msg("check user uniqueness failed")

		return false
	}

	return count > 0
}
