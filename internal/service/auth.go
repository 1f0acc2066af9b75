package service

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/quillmark/quillmark-back/internal/config"
	"github.com/quillmark/quillmark-back/internal/db"
)

const TokenTTL = 15 * time.Minute

var (
	ErrCredentialsTaken     = errors.New("credentials taken")
	ErrLoginUserNotFound    = errors.New("user not found")
	ErrIncorrectCredentials = errors.New("incorrect credentials")
	ErrInvalidToken         = errors.New("invalid token")
)

type (
	// TokenClaims is the bearer token payload: sub carries the decimal
	// user id, email rides along for convenience.
	TokenClaims struct {
		jwt.RegisteredClaims
		Email string `json:"email"`
	}

	Auth struct {
		db     *gorm.DB
		secret []byte
		logger *zap.SugaredLogger
	}
)

func NewAuth(db *gorm.DB, cfg *config.Config, l *zap.SugaredLogger) *Auth {
	return &Auth{
		db:     db,
		secret: []byte(cfg.JWTSecret),
		logger: l,
	}
}

func (s *Auth) SignUp(email, pass string) (*db.User, error) {
	hash, err := s.bcryptGen(pass)
	if err != nil {
		return nil, errors.Wrap(err, "bcryptGen")
	}
	user := db.User{
		Email:    email,
		Password: hash,
	}
	res := s.db.Create(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrCredentialsTaken
		}
		return nil, errors.Wrap(res.Error, "create user")
	}
	return &user, nil
}

func (s *Auth) SignIn(email, pass string) (string, error) {
	user := db.User{}
	res := s.db.Where("email = ?", email).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return "", ErrLoginUserNotFound
		}
		return "", errors.Wrap(res.Error, "find user")
	}

	if err := s.bcryptCheck(user.Password, pass); err != nil {
		return "", ErrIncorrectCredentials
	}

	return s.SignToken(user.ID, user.Email)
}

func (s *Auth) SignToken(userID uint64, email string) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (s *Auth) ParseToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Auth) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), 14)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *Auth) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}
