package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/foodgram-project/backend/internal/models"
	"github.com/foodgram-project/backend/internal/types"
)

const tokenTTL = 24 * time.Hour

// AuthService issues and validates JWT tokens and manages user credentials.
// Logged-out tokens are denylisted in redis until they expire; without
// redis, logout is a client-side concern.
type AuthService struct {
	db        *gorm.DB
	redis     *redis.Client
	jwtSecret string
}

func NewAuthService(db *gorm.DB, redisClient *redis.Client, jwtSecret string) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		jwtSecret: jwtSecret,
	}
}

// Register creates a user with a hashed password and returns it.
// Username and email uniqueness violations come back as field errors.
func (s *AuthService) Register(email, username, firstName, lastName, password string) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newValidationError("email", "user with this email already exists")
	}
	if err := s.db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newValidationError("username", "user with this username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hashedPassword),
	}

	if err := s.db.Create(&user).Error; err != nil {
		// A concurrent register may win the race past the pre-checks.
		if isUniqueViolation(err) {
			return nil, newValidationError("username", "user with this username or email already exists")
		}
		return nil, err
	}

	return &user, nil
}

// Login verifies the credentials and returns a signed token.
func (s *AuthService) Login(email, password string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.generateToken(&user)
}

// Logout denylists the token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.redis == nil {
		return nil
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		return err
	}
	ttl := tokenTTL
	if exp := claims.ExpiresAt; exp != nil {
		ttl = time.Until(exp.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, denylistKey(token), "1", ttl).Err()
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	claims := types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses the token and returns its claims. Denylisted tokens
// are rejected as if they were invalid.
func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &types.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*types.TokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if s.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if n, err := s.redis.Exists(ctx, denylistKey(tokenString)).Result(); err == nil && n > 0 {
			return nil, errors.New("token revoked")
		}
	}

	return claims, nil
}

func denylistKey(token string) string {
	return fmt.Sprintf("auth:denylist:%s", token)
}
