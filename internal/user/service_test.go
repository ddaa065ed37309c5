package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kazuki/feedhub/internal/auth"
	"github.com/kazuki/feedhub/internal/model"
)

// mockUserRepo はUserRepositoryのテスト用モック。
type mockUserRepo struct {
	byEmail map[string]*model.User
	created *model.User
}

func (m *mockUserRepo) FindByID(_ context.Context, _ int64) (*model.User, error) {
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return m.byEmail[email], nil
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = 100
	m.created = user
	return nil
}

func newTestService(repo *mockUserRepo) *Service {
	return NewService(repo, auth.NewTokenManager("test-secret", time.Hour))
}

func TestService_Register_HashesPassword(t *testing.T) {
	repo := &mockUserRepo{byEmail: map[string]*model.User{}}
	svc := newTestService(repo)

	u, err := svc.Register(context.Background(), "kazuki@example.com", "s3cret-pass", "Kazuki")
	if err != nil {
		t.Fatalf("Register() がエラーを返した: %v", err)
	}

	if u.ID != 100 {
		t.Errorf("ID = %d, 採番されたIDが設定されるべき", u.ID)
	}
	if u.PasswordHash == "s3cret-pass" {
		t.Error("パスワードは平文で保存してはならない")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")); err != nil {
		t.Errorf("保存されたハッシュが元のパスワードと照合できない: %v", err)
	}
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{byEmail: map[string]*model.User{
		"taken@example.com": {ID: 1, Email: "taken@example.com"},
	}}
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), "taken@example.com", "s3cret-pass", "")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateEmail {
		t.Errorf("err = %v, want DUPLICATE_EMAIL", err)
	}
}

func TestService_Login_Success(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.DefaultCost)
	repo := &mockUserRepo{byEmail: map[string]*model.User{
		"kazuki@example.com": {ID: 42, Email: "kazuki@example.com", PasswordHash: string(hash)},
	}}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewService(repo, tokens)

	token, u, err := svc.Login(context.Background(), "kazuki@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login() がエラーを返した: %v", err)
	}
	if u.ID != 42 {
		t.Errorf("ID = %d, want 42", u.ID)
	}

	// 発行されたトークンが検証可能であること
	userID, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("発行されたトークンが検証できない: %v", err)
	}
	if userID != 42 {
		t.Errorf("トークンのuserID = %d, want 42", userID)
	}
}

func TestService_Login_SameErrorForMissingUserAndWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.DefaultCost)
	repo := &mockUserRepo{byEmail: map[string]*model.User{
		"kazuki@example.com": {ID: 1, Email: "kazuki@example.com", PasswordHash: string(hash)},
	}}
	svc := newTestService(repo)

	// 未登録ユーザー
	_, _, errMissing := svc.Login(context.Background(), "nobody@example.com", "whatever")
	// パスワード不一致
	_, _, errWrong := svc.Login(context.Background(), "kazuki@example.com", "wrong")

	var apiErr1, apiErr2 *model.APIError
	if !errors.As(errMissing, &apiErr1) || !errors.As(errWrong, &apiErr2) {
		t.Fatalf("err = %v / %v", errMissing, errWrong)
	}

	// ユーザーの存在有無を区別させないため、同じエラーコードを返す
	if apiErr1.Code != apiErr2.Code || apiErr1.Code != model.ErrCodeInvalidCredential {
		t.Errorf("codes = %q / %q, want 同一の INVALID_CREDENTIAL", apiErr1.Code, apiErr2.Code)
	}
}
