package handlers

import (
	"net/http"

	"github.com/idnofunny/backend/internal/models"
)

func (s *HandlersTestSuite) verificationCode(userID string) string {
	s.codes.mu.Lock()
	defer s.codes.mu.Unlock()
	return s.codes.codes["verify:"+userID]
}

func (s *HandlersTestSuite) TestRegisterVerifyLoginFlow() {
	w := s.request(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "novo@example.com",
		"username": "novato",
		"password": "segredo-forte",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	body := s.decode(w)
	userID := body["user"].(map[string]interface{})["id"].(string)

	// The account is unusable until the emailed code comes back
	w = s.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "novo@example.com",
		"password": "segredo-forte",
	})
	s.Equal(http.StatusForbidden, w.Code)

	code := s.verificationCode(userID)
	s.Require().Len(code, 6)

	w = s.request(http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"email": "novo@example.com",
		"code":  code,
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotEmpty(s.decode(w)["token"])

	w = s.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "novo@example.com",
		"password": "segredo-forte",
	})
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestRegisterDuplicateEmailConflicts() {
	s.createUser("original")

	w := s.request(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "ORIGINAL@example.com",
		"username": "someone_else",
		"password": "segredo-forte",
	})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestVerifyWithWrongCode() {
	w := s.request(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "novo@example.com",
		"username": "novato",
		"password": "segredo-forte",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.request(http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"email": "novo@example.com",
		"code":  "000000",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestResendVerificationCode() {
	w := s.request(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    "novo@example.com",
		"username": "novato",
		"password": "segredo-forte",
	})
	s.Require().Equal(http.StatusCreated, w.Code)
	userID := s.decode(w)["user"].(map[string]interface{})["id"].(string)

	w = s.request(http.MethodPost, "/api/v1/auth/resend-code", "", map[string]string{
		"email": "novo@example.com",
	})
	s.Require().Equal(http.StatusOK, w.Code)

	s.Len(s.verificationCode(userID), 6)
}

func (s *HandlersTestSuite) TestPasswordResetFlow() {
	user, _ := s.createUser("esquecida")

	w := s.request(http.MethodPost, "/api/v1/auth/password/forgot", "", map[string]string{
		"email": user.Email,
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var stored models.User
	s.Require().NoError(s.db.First(&stored, "id = ?", user.ID).Error)
	s.Require().NotNil(stored.ResetToken)

	w = s.request(http.MethodPost, "/api/v1/auth/password/reset", "", map[string]string{
		"token":        *stored.ResetToken,
		"new_password": "nova-senha-123",
	})
	s.Require().Equal(http.StatusOK, w.Code)

	// Old password is dead, new one works
	w = s.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": testPassword,
	})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "nova-senha-123",
	})
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestPasswordForgotUnknownEmailStaysSilent() {
	w := s.request(http.MethodPost, "/api/v1/auth/password/forgot", "", map[string]string{
		"email": "ghost@example.com",
	})
	s.Equal(http.StatusOK, w.Code)
}
