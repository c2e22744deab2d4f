package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"tableorder/internal/domain/model"
	"tableorder/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// 店舗とオーナーの作成（CLIから使う）
type CreateOwnerInput struct {
	RestaurantName string
	Email          string
	Password       string
}

type CreateOwnerOutput struct {
	Restaurant model.Restaurant
	Owner      model.StaffUser
}

var (
	// 入力が不正
	ErrRestaurantNameRequired = errors.New("restaurant name required")
	ErrInvalidEmailFormat     = errors.New("invalid email format")
	ErrPasswordTooShort       = errors.New("password too short")
	ErrWeakPassword           = errors.New("weak password")

	// 競合
	ErrEmailAlreadyExists = errors.New("email already exists")
)

const minPasswordLen = 12

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// CreateOwnerUsecase は店舗とオーナーを1トランザクションで作る。
type CreateOwnerUsecase struct {
	tx     repository.TransactionManager
	hasher PasswordHasher
}

// DI
func NewCreateOwnerUsecase(tx repository.TransactionManager, hasher PasswordHasher) *CreateOwnerUsecase {
	return &CreateOwnerUsecase{tx: tx, hasher: hasher}
}

func (u *CreateOwnerUsecase) Execute(ctx context.Context, in CreateOwnerInput) (CreateOwnerOutput, error) {
	var out CreateOwnerOutput

	name := strings.TrimSpace(in.RestaurantName)
	if name == "" {
		return out, ErrRestaurantNameRequired
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !isValidEmailFormat(email) {
		return out, ErrInvalidEmailFormat
	}
	// password の長さチェック
	if len(in.Password) < minPasswordLen {
		return out, ErrPasswordTooShort
	}
	// よくある弱いパスワードの拒否
	if isWeakPassword(in.Password) {
		return out, ErrWeakPassword
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		// email重複チェック
		existing, err := r.StaffUsers().FindByEmail(ctx, email)
		if err == nil && existing != nil {
			return ErrEmailAlreadyExists
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		rest := model.Restaurant{Name: name}
		if err := r.Restaurants().Create(ctx, &rest); err != nil {
			return err
		}

		owner := model.StaffUser{
			RestaurantID: rest.ID,
			Email:        email,
			PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
			Role:         model.RoleOwner,
			IsActive:     true,
		}
		if err := r.StaffUsers().Create(ctx, &owner); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrEmailAlreadyExists
			}
			return err
		}

		out.Restaurant = rest
		out.Owner = owner
		return nil
	})
	if err != nil {
		return CreateOwnerOutput{}, err
	}
	return out, nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

// パスワードのよくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"qwertyuiop":   {},
		"letmein":      {},
		"admin123":     {},
	}

	_, ok := weak[normalized]
	return ok
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
