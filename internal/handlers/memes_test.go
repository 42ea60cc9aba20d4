package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"time"

	"github.com/idnofunny/backend/internal/models"
)

func (s *HandlersTestSuite) postMultipart(path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) TestCreateMemePublishesImage() {
	_, token := s.createUser("criadora")

	body, contentType := s.multipartMeme("Gato engraçado", "Gatos, #gatos, HUMOR", "")
	w := s.postMultipart("/api/v1/memes", token, body, contentType)
	s.Require().Equal(http.StatusCreated, w.Code)

	meme := s.decode(w)["meme"].(map[string]interface{})
	s.Equal("Gato engraçado", meme["title"])
	s.Equal("image", meme["media_type"])

	// Hashtags come back normalized and deduplicated
	tags := meme["hashtags"].([]interface{})
	s.Require().Len(tags, 2)
	s.Equal("gatos", tags[0])
	s.Equal("humor", tags[1])

	var count int64
	s.db.Model(&models.Meme{}).Count(&count)
	s.EqualValues(1, count)
}

func (s *HandlersTestSuite) TestCreateMemeWithCategory() {
	_, token := s.createUser("criadora")
	category := models.Category{Name: "Humor"}
	s.Require().NoError(s.db.Create(&category).Error)

	body, contentType := s.multipartMeme("Com categoria", "", category.ID)
	w := s.postMultipart("/api/v1/memes", token, body, contentType)
	s.Require().Equal(http.StatusCreated, w.Code)

	meme := s.decode(w)["meme"].(map[string]interface{})
	s.Equal("Humor", meme["category"].(map[string]interface{})["name"])
}

func (s *HandlersTestSuite) TestCreateMemeUnknownCategoryRejected() {
	_, token := s.createUser("criadora")

	body, contentType := s.multipartMeme("Sem categoria", "", "11111111-1111-1111-1111-111111111111")
	w := s.postMultipart("/api/v1/memes", token, body, contentType)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	var count int64
	s.db.Model(&models.Meme{}).Count(&count)
	s.EqualValues(0, count)
}

func (s *HandlersTestSuite) TestCreateMemeRejectsMismatchedContent() {
	_, token := s.createUser("criadora")

	// Declared as PNG, but the bytes are not an image
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("title", "Falso"))
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="media"; filename="fake.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	s.Require().NoError(err)
	_, err = part.Write([]byte("this is just text pretending to be an image"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	w := s.postMultipart("/api/v1/memes", token, &buf, mw.FormDataContentType())
	s.Equal(http.StatusBadRequest, w.Code)

	// Nothing was persisted
	var count int64
	s.db.Model(&models.Meme{}).Count(&count)
	s.EqualValues(0, count)
}

func (s *HandlersTestSuite) TestFeedPopularitySort() {
	owner, _ := s.createUser("dona")
	fan1, _ := s.createUser("fa1")
	fan2, _ := s.createUser("fa2")

	old := s.createMeme(owner.ID, "velho")
	popular := s.createMeme(owner.ID, "popular")
	s.createMeme(owner.ID, "novo")

	// Spread creation times so recency is deterministic
	s.db.Model(&models.Meme{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().Add(-2*time.Hour))
	s.db.Model(&models.Meme{}).Where("id = ?", popular.ID).
		Update("created_at", time.Now().Add(-1*time.Hour))

	s.Require().NoError(s.db.Create(&models.MemeLike{UserID: fan1.ID, MemeID: popular.ID}).Error)
	s.Require().NoError(s.db.Create(&models.MemeLike{UserID: fan2.ID, MemeID: popular.ID}).Error)
	s.Require().NoError(s.db.Create(&models.MemeLike{UserID: fan1.ID, MemeID: old.ID}).Error)

	w := s.request(http.MethodGet, "/api/v1/memes?sort=popular", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	memes := s.decode(w)["memes"].([]interface{})
	s.Require().Len(memes, 3)
	s.Equal("popular", memes[0].(map[string]interface{})["title"])
	s.Equal("velho", memes[1].(map[string]interface{})["title"])
	s.Equal("novo", memes[2].(map[string]interface{})["title"])
	s.EqualValues(2, memes[0].(map[string]interface{})["like_count"])
}

func (s *HandlersTestSuite) TestFeedViewerAnnotations() {
	owner, _ := s.createUser("dona")
	_, token := s.createUser("fa")
	meme := s.createMeme(owner.ID, "anotado")

	var viewer models.User
	s.Require().NoError(s.db.First(&viewer, "username = ?", "fa").Error)
	s.Require().NoError(s.db.Create(&models.MemeLike{UserID: viewer.ID, MemeID: meme.ID}).Error)
	s.Require().NoError(s.db.Create(&models.Follow{FollowerID: viewer.ID, FollowedID: owner.ID}).Error)

	w := s.request(http.MethodGet, "/api/v1/memes", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	first := s.decode(w)["memes"].([]interface{})[0].(map[string]interface{})
	s.Equal(true, first["is_liked_by_me"])
	s.Equal(true, first["owner_is_followed"])

	// The same page anonymously keeps counts but drops viewer flags
	w = s.request(http.MethodGet, "/api/v1/memes", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	first = s.decode(w)["memes"].([]interface{})[0].(map[string]interface{})
	s.EqualValues(1, first["like_count"])
	s.Equal(false, first["is_liked_by_me"])
	s.Equal(false, first["owner_is_followed"])
}

func (s *HandlersTestSuite) TestFeedHashtagFilter() {
	owner, _ := s.createUser("dona")
	tagged := s.createMeme(owner.ID, "com-tag")
	s.createMeme(owner.ID, "sem-tag")

	tag := models.Hashtag{Name: "gatos"}
	s.Require().NoError(s.db.Create(&tag).Error)
	s.Require().NoError(s.db.Create(&models.MemeHashtag{MemeID: tagged.ID, HashtagID: tag.ID}).Error)

	w := s.request(http.MethodGet, "/api/v1/memes?hashtag=%23GATOS", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	memes := s.decode(w)["memes"].([]interface{})
	s.Require().Len(memes, 1)
	s.Equal("com-tag", memes[0].(map[string]interface{})["title"])
}

func (s *HandlersTestSuite) TestFeedTitleSearch() {
	owner, _ := s.createUser("dona")
	s.createMeme(owner.ID, "Gato de segunda-feira")
	s.createMeme(owner.ID, "Cachorro qualquer")

	w := s.request(http.MethodGet, "/api/v1/memes?q=gato", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	memes := s.decode(w)["memes"].([]interface{})
	s.Require().Len(memes, 1)
	s.Equal("Gato de segunda-feira", memes[0].(map[string]interface{})["title"])
}

func (s *HandlersTestSuite) TestGetMemeRecordsViewOncePerUser() {
	owner, _ := s.createUser("dona")
	_, token := s.createUser("espectadora")
	meme := s.createMeme(owner.ID, "visto")

	for i := 0; i < 3; i++ {
		w := s.request(http.MethodGet, "/api/v1/memes/"+meme.ID, token, nil)
		s.Require().Equal(http.StatusOK, w.Code)
	}

	var stored models.Meme
	s.Require().NoError(s.db.First(&stored, "id = ?", meme.ID).Error)
	s.Equal(1, stored.Views)

	// Anonymous reads never count
	w := s.request(http.MethodGet, "/api/v1/memes/"+meme.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Require().NoError(s.db.First(&stored, "id = ?", meme.ID).Error)
	s.Equal(1, stored.Views)
}

func (s *HandlersTestSuite) TestToggleMemeLikeRoundTrip() {
	owner, _ := s.createUser("dona")
	_, token := s.createUser("fa")
	meme := s.createMeme(owner.ID, "curtido")

	w := s.request(http.MethodPost, "/api/v1/memes/"+meme.ID+"/like", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["liked"])

	w = s.request(http.MethodPost, "/api/v1/memes/"+meme.ID+"/like", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, s.decode(w)["liked"])

	var count int64
	s.db.Model(&models.MemeLike{}).Count(&count)
	s.EqualValues(0, count)
}

func (s *HandlersTestSuite) TestLikeMissingMemeNotFound() {
	_, token := s.createUser("fa")
	w := s.request(http.MethodPost, "/api/v1/memes/00000000-0000-0000-0000-000000000000/like", token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestReportMeme() {
	owner, _ := s.createUser("dona")
	reporter, token := s.createUser("denunciante")
	meme := s.createMeme(owner.ID, "suspeito")

	w := s.request(http.MethodPost, "/api/v1/memes/"+meme.ID+"/report", token, map[string]string{
		"reason": "conteúdo ofensivo",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var report models.Report
	s.Require().NoError(s.db.First(&report, "meme_id = ?", meme.ID).Error)
	s.Equal(reporter.ID, report.ReporterID)
	s.Equal("conteúdo ofensivo", report.Reason)
}

func (s *HandlersTestSuite) TestDeleteMemeOwnerOnly() {
	owner, ownerToken := s.createUser("dona")
	_, otherToken := s.createUser("intrusa")
	meme := s.createMeme(owner.ID, "meu")

	w := s.request(http.MethodDelete, "/api/v1/memes/"+meme.ID, otherToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/memes/"+meme.ID, ownerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var count int64
	s.db.Model(&models.Meme{}).Count(&count)
	s.EqualValues(0, count)
}

func (s *HandlersTestSuite) TestGetCategories() {
	s.Require().NoError(s.db.Create(&models.Category{Name: "Humor"}).Error)
	s.Require().NoError(s.db.Create(&models.Category{Name: "Games"}).Error)

	w := s.request(http.MethodGet, "/api/v1/categories", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	categories := s.decode(w)["categories"].([]interface{})
	s.Require().Len(categories, 2)
	s.Equal("Games", categories[0].(map[string]interface{})["name"])
	s.Equal("Humor", categories[1].(map[string]interface{})["name"])
}
