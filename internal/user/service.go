// Package user はユーザー登録・認証のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/kazuki/feedhub/internal/auth"
	"github.com/kazuki/feedhub/internal/model"
	"github.com/kazuki/feedhub/internal/repository"
)

// Service はユーザー登録とログインを提供する。
type Service struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(users repository.UserRepository, tokens *auth.TokenManager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

// Register は新規ユーザーを登録する。
// パスワードはbcryptでハッシュ化して保存する。
// メールアドレスが登録済みの場合はDuplicateEmailエラーを返す。
func (s *Service) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	u := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login はメールアドレスとパスワードを検証し、JWTを発行する。
// ユーザーの存在有無を呼び出し側に区別させないため、
// 未登録・パスワード不一致のどちらも同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, model.NewInvalidCredentialError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, model.NewInvalidCredentialError()
	}

	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("トークンの発行に失敗しました: %w", err)
	}
	return token, u, nil
}
