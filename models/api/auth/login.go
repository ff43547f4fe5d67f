package authapimodels

import (
	"net/mail"

	"org-portal-backend/lib/utils/helpers"

	"github.com/pkg/errors"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("صيغة البريد الإلكتروني غير صحيحة")
	}
	if r.Password == "" {
		return errors.New("كلمة المرور مطلوبة")
	}
	return nil
}

type JWTResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type JWTRefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r JWTRefreshRequest) Validate() error {
	if helpers.IsBlank(r.RefreshToken) {
		return errors.New("رمز التحديث مطلوب")
	}
	return nil
}
