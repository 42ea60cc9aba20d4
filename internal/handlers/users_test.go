package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/idnofunny/backend/internal/models"
)

func (s *HandlersTestSuite) TestGetMeIncludesPrivateFields() {
	user, token := s.createUser("eu_mesma")

	w := s.request(http.MethodGet, "/api/v1/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	me := s.decode(w)["user"].(map[string]interface{})
	s.Equal(user.Email, me["email"])
	s.Equal(true, me["is_active"])
}

func (s *HandlersTestSuite) TestUpdateUsername() {
	_, token := s.createUser("antigo_nome")

	w := s.request(http.MethodPatch, "/api/v1/me", token, map[string]string{
		"username": "novo_nome",
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("novo_nome", s.decode(w)["user"].(map[string]interface{})["username"])
}

func (s *HandlersTestSuite) TestUpdateUsernameTakenConflicts() {
	s.createUser("ocupado")
	_, token := s.createUser("trocadora")

	w := s.request(http.MethodPatch, "/api/v1/me", token, map[string]string{
		"username": "OCUPADO",
	})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestUploadAvatar() {
	user, token := s.createUser("vaidosa")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="avatar"; filename="face.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	s.Require().NoError(err)
	_, err = part.Write(pngBytes(s.T(), 8, 8))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	w := s.postMultipart("/api/v1/me/avatar", token, &buf, mw.FormDataContentType())
	s.Require().Equal(http.StatusOK, w.Code)

	avatarURL := s.decode(w)["avatar_url"].(string)
	s.Contains(avatarURL, "avatars/")
	s.True(strings.HasSuffix(avatarURL, ".jpg"))

	var stored models.User
	s.Require().NoError(s.db.First(&stored, "id = ?", user.ID).Error)
	s.Require().NotNil(stored.AvatarURL)
	s.Equal(avatarURL, *stored.AvatarURL)
}

func (s *HandlersTestSuite) TestDeleteMeAnonymizes() {
	user, token := s.createUser("arrependida")
	meme := s.createMeme(user.ID, "fica no ar")

	w := s.request(http.MethodDelete, "/api/v1/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var stored models.User
	s.Require().NoError(s.db.First(&stored, "id = ?", user.ID).Error)
	s.True(strings.HasPrefix(stored.Username, "deleted_"))
	s.Contains(stored.Email, "@anonymized.invalid")
	s.False(stored.IsActive)
	s.Nil(stored.PasswordHash)

	// The meme survives under the scrubbed identity
	var storedMeme models.Meme
	s.Require().NoError(s.db.First(&storedMeme, "id = ?", meme.ID).Error)
	s.Equal(user.ID, storedMeme.UserID)

	// And the old token no longer works for writes that need an active user
	w = s.request(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": testPassword,
	})
	s.NotEqual(http.StatusOK, w.Code)
}

func (s *HandlersTestSuite) TestUserProfileCounts() {
	user, _ := s.createUser("perfil")
	fan, fanToken := s.createUser("fa")
	meme := s.createMeme(user.ID, "um")
	s.createMeme(user.ID, "dois")
	s.Require().NoError(s.db.Create(&models.Follow{FollowerID: fan.ID, FollowedID: user.ID}).Error)
	s.Require().NoError(s.db.Create(&models.MemeLike{UserID: fan.ID, MemeID: meme.ID}).Error)

	w := s.request(http.MethodGet, "/api/v1/users/"+user.ID, fanToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	profile := s.decode(w)["user"].(map[string]interface{})
	s.EqualValues(1, profile["follower_count"])
	s.EqualValues(0, profile["following_count"])
	s.EqualValues(2, profile["meme_count"])
	s.EqualValues(1, profile["total_likes"])
	s.Equal(true, profile["is_following"])

	// Anonymous view has no viewer-relative field
	w = s.request(http.MethodGet, "/api/v1/users/"+user.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	profile = s.decode(w)["user"].(map[string]interface{})
	_, present := profile["is_following"]
	s.False(present)
}

func (s *HandlersTestSuite) TestToggleFollowRoundTrip() {
	target, _ := s.createUser("seguida")
	_, token := s.createUser("seguidora")

	w := s.request(http.MethodPost, "/api/v1/users/"+target.ID+"/follow", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["following"])

	w = s.request(http.MethodPost, "/api/v1/users/"+target.ID+"/follow", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, s.decode(w)["following"])
}

func (s *HandlersTestSuite) TestSelfFollowRejected() {
	user, token := s.createUser("narcisista")

	w := s.request(http.MethodPost, "/api/v1/users/"+user.ID+"/follow", token, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	var count int64
	s.db.Model(&models.Follow{}).Count(&count)
	s.EqualValues(0, count)
}

func (s *HandlersTestSuite) TestFollowersAndFollowingLists() {
	target, _ := s.createUser("popular")
	fan1, token1 := s.createUser("fa1")
	_, token2 := s.createUser("fa2")

	w := s.request(http.MethodPost, "/api/v1/users/"+target.ID+"/follow", token1, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.request(http.MethodPost, "/api/v1/users/"+target.ID+"/follow", token2, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/users/"+target.ID+"/followers", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["users"].([]interface{}), 2)

	w = s.request(http.MethodGet, "/api/v1/users/"+fan1.ID+"/following", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	following := s.decode(w)["users"].([]interface{})
	s.Require().Len(following, 1)
	s.Equal("popular", following[0].(map[string]interface{})["username"])
}

func (s *HandlersTestSuite) TestUserMemesListing() {
	user, _ := s.createUser("autora")
	other, _ := s.createUser("outra")
	s.createMeme(user.ID, "dela-1")
	s.createMeme(other.ID, "da-outra")

	w := s.request(http.MethodGet, "/api/v1/users/"+user.ID+"/memes", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	memes := s.decode(w)["memes"].([]interface{})
	s.Require().Len(memes, 1)
	s.Equal("dela-1", memes[0].(map[string]interface{})["title"])
}

func (s *HandlersTestSuite) TestLikedMemesOrderedByLikeTime() {
	owner, _ := s.createUser("dona")
	fan, token := s.createUser("fa")
	first := s.createMeme(owner.ID, "curtido-antes")
	second := s.createMeme(owner.ID, "curtido-depois")

	likeOld := models.MemeLike{UserID: fan.ID, MemeID: first.ID}
	s.Require().NoError(s.db.Create(&likeOld).Error)
	s.db.Model(&models.MemeLike{}).Where("id = ?", likeOld.ID).
		Update("created_at", time.Now().Add(-time.Hour))
	s.Require().NoError(s.db.Create(&models.MemeLike{UserID: fan.ID, MemeID: second.ID}).Error)

	w := s.request(http.MethodGet, "/api/v1/me/likes", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	memes := s.decode(w)["memes"].([]interface{})
	s.Require().Len(memes, 2)
	s.Equal("curtido-depois", memes[0].(map[string]interface{})["title"])
	s.Equal("curtido-antes", memes[1].(map[string]interface{})["title"])
}

func (s *HandlersTestSuite) TestViewHistory() {
	owner, _ := s.createUser("dona")
	_, token := s.createUser("espectadora")
	meme := s.createMeme(owner.ID, "assistido")

	w := s.request(http.MethodGet, "/api/v1/memes/"+meme.ID, token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.request(http.MethodGet, "/api/v1/me/history", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	memes := s.decode(w)["memes"].([]interface{})
	s.Require().Len(memes, 1)
	s.Equal("assistido", memes[0].(map[string]interface{})["title"])
}

func (s *HandlersTestSuite) TestUnknownUserProfile() {
	w := s.request(http.MethodGet, "/api/v1/users/00000000-0000-0000-0000-000000000000", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}
