package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"

	"github.com/kazuki/feedhub/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Register は新規ユーザーを登録する。
	Register(ctx context.Context, email, password, name string) (*model.User, error)
	// Login は認証を行い、JWTトークンとユーザー情報を返す。
	Login(ctx context.Context, email, password string) (string, *model.User, error)
}

// UserHandler はユーザー登録・ログインのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// loginResponse はログイン成功時のAPIレスポンス。
type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// Register はユーザー登録を処理する。
// POST /auth/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_EMAIL",
			Message:  "メールアドレスの形式が不正です。",
			Category: "validation",
			Action:   "正しいメールアドレスを指定してください。",
		})
		return
	}

	if len(req.Password) < minPasswordLength {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "WEAK_PASSWORD",
			Message:  "パスワードは8文字以上で指定してください。",
			Category: "validation",
			Action:   "より長いパスワードを指定してください。",
		})
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login はログインを処理する。
// POST /auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	token, user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}
}
