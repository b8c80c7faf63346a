package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Riciboyz/threads-backend/db/model"
	"github.com/Riciboyz/threads-backend/env"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// compared against when the email is unknown, so both rejection paths cost a
// bcrypt verification ("wrongpassword", cost 12)
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Service turns credentials into a verified identity and an opaque bearer
// token, and turns tokens back into identities on later requests.
type Service struct {
	db       *gorm.DB
	logger   *logrus.Logger
	validate *validator.Validate
	cost     int
	ttl      time.Duration
}

func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{
		db:       db,
		logger:   logger,
		validate: validator.New(),
		cost:     env.BCRYPT_COST,
		ttl:      env.SESSION_TTL,
	}
}

type RegisterParams struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=30"`
	Displayname string `json:"displayname" validate:"max=50"`
	Password    string `json:"password" validate:"required,min=8"`
}

// Register creates a user with a bcrypt-hashed password. The duplicate
// pre-checks only exist for the fast user-facing error; the unique indexes on
// email and username stay the source of truth, so a duplicate-key violation
// at insert time is mapped back to the same errors.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*model.User, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if p.Displayname == "" {
		p.Displayname = p.Username
	}

	db := s.db.WithContext(ctx)
	var exists bool
	if err := db.Model(&model.User{}).Select("count(*) > 0").Where("email = ?", p.Email).Find(&exists).Error; err != nil {
		return nil, storageErr(err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}
	if err := db.Model(&model.User{}).Select("count(*) > 0").Where("username = ?", p.Username).Find(&exists).Error; err != nil {
		return nil, storageErr(err)
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	u := &model.User{
		Email:       p.Email,
		Username:    p.Username,
		Displayname: p.Displayname,
		Pass:        string(hash),
	}
	if err := db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateKind(ctx, p.Email)
		}
		return nil, storageErr(err)
	}
	u.Pass = ""
	return u, nil
}

// duplicateKind resolves which unique index fired when a concurrent
// registration won the race past the pre-checks.
func (s *Service) duplicateKind(ctx context.Context, email string) error {
	var exists bool
	err := s.db.WithContext(ctx).Model(&model.User{}).Select("count(*) > 0").Where("email = ?", email).Find(&exists).Error
	if err == nil && exists {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

// Login verifies the password and issues a fresh session. pushToken is
// optional; sessions that carry one receive mobile pushes.
func (s *Service) Login(ctx context.Context, email, password, pushToken string) (*model.User, *model.Session, error) {
	u := &model.User{}
	if err := s.db.WithContext(ctx).First(u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, storageErr(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Pass), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, nil, storageErr(err)
	}
	sess := &model.Session{
		UserID:    u.ID,
		Token:     token,
		PushToken: pushToken,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, nil, storageErr(err)
	}
	return u, sess, nil
}

// VerifySession resolves a bearer token back to its user. Expired tokens are
// rejected at verification time whether or not the sweep has removed them.
func (s *Service) VerifySession(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	sess := &model.Session{}
	if err := s.db.WithContext(ctx).First(sess, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, storageErr(err)
	}
	if sess.Expired() {
		return nil, ErrSessionExpired
	}
	u := &model.User{}
	if err := s.db.WithContext(ctx).First(u, "id = ?", sess.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, storageErr(err)
	}
	return u, nil
}

// Logout invalidates the specific token. Other sessions of the same user stay
// valid.
func (s *Service) Logout(ctx context.Context, token string) error {
	res := s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Session{})
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteExpiredSessions removes sessions past expiry and reports how many
// went. Deletes are idempotent; overlapping sweeps are safe.
func (s *Service) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", time.Now()).Delete(&model.Session{})
	if res.Error != nil {
		return 0, storageErr(res.Error)
	}
	return res.RowsAffected, nil
}
