package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"tableorder/internal/domain/model"
	"tableorder/internal/repository"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email    string
	Password string
}

// token 形
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// handlerがJSONにして返す
type LoginOutput struct {
	Staff model.StaffUser `json:"staff"`
	Token AccessToken     `json:"token"`
}

// メールまたはパスワードが違う。停止中スタッフも同じ扱い。
var ErrInvalidCredentials = errors.New("invalid credentials")

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(staffID string, restaurantID string, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginUsecase struct {
	staffRepo repository.StaffUserRepository
	verifier  PasswordVerifier
	issuer    AccessTokenIssuer
	clock     Clock
}

// DI
func NewLoginUsecase(
	staffRepo repository.StaffUserRepository,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		staffRepo: staffRepo,
		verifier:  verifier,
		issuer:    issuer,
		clock:     clock,
	}
}

// スタッフのログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return out, ErrInvalidCredentials
	}

	//emailでスタッフ取得
	staff, err := u.staffRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	//停止スタッフはログイン不可
	if !staff.IsActive {
		return out, ErrInvalidCredentials
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, staff.PasswordHash); !ok {
		return out, ErrInvalidCredentials
	}

	//AccessToken発行
	now := u.clock.Now()
	token, exp, err := u.issuer.Issue(staff.ID, staff.RestaurantID, staff.Role, now)
	if err != nil {
		return out, err
	}

	//最終ログイン時刻更新
	staff.LastLoginAt = &now
	if err := u.staffRepo.Update(ctx, staff); err != nil {
		return out, err
	}

	out.Staff = *staff
	out.Token = AccessToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(exp.Sub(now).Seconds()),
	}
	return out, nil
}
