package handlers

import (
	"net/http"
	"time"

	"github.com/idnofunny/backend/internal/models"
)

func (s *HandlersTestSuite) postComment(memeID, token, text string, parentID *string) *map[string]interface{} {
	payload := map[string]interface{}{"text": text}
	if parentID != nil {
		payload["parent_id"] = *parentID
	}
	w := s.request(http.MethodPost, "/api/v1/memes/"+memeID+"/comments", token, payload)
	if w.Code != http.StatusCreated {
		return nil
	}
	body := s.decode(w)
	comment := body["comment"].(map[string]interface{})
	return &comment
}

func (s *HandlersTestSuite) TestCreateCommentAndReply() {
	owner, _ := s.createUser("dona")
	_, token := s.createUser("comentarista")
	meme := s.createMeme(owner.ID, "comentado")

	comment := s.postComment(meme.ID, token, "muito bom!", nil)
	s.Require().NotNil(comment)
	parentID := (*comment)["id"].(string)

	// Flood control would trip on an immediate follow-up; age the first
	// comment past the window
	s.db.Model(&models.Comment{}).Where("id = ?", parentID).
		Update("created_at", time.Now().Add(-2*time.Second))

	reply := s.postComment(meme.ID, token, "respondendo a mim mesma", &parentID)
	s.Require().NotNil(reply)
	s.Equal(parentID, (*reply)["parent_id"])
}

func (s *HandlersTestSuite) TestCommentProfanityRejected() {
	owner, _ := s.createUser("dona")
	_, token := s.createUser("boca_suja")
	meme := s.createMeme(owner.ID, "alvo")

	w := s.request(http.MethodPost, "/api/v1/memes/"+meme.ID+"/comments", token,
		map[string]string{"text": "que lixo de meme"})
	s.Equal(http.StatusBadRequest, w.Code)

	var count int64
	s.db.Model(&models.Comment{}).Count(&count)
	s.EqualValues(0, count)
}

func (s *HandlersTestSuite) TestCommentDuplicateRejected() {
	owner, _ := s.createUser("dona")
	_, token := s.createUser("repetitiva")
	meme := s.createMeme(owner.ID, "alvo")

	first := s.postComment(meme.ID, token, "ótimo meme", nil)
	s.Require().NotNil(first)

	s.db.Model(&models.Comment{}).Where("id = ?", (*first)["id"]).
		Update("created_at", time.Now().Add(-time.Minute))

	// Same text modulo case and whitespace is still a duplicate
	w := s.request(http.MethodPost, "/api/v1/memes/"+meme.ID+"/comments", token,
		map[string]string{"text": "  ÓTIMO MEME  "})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestCommentFloodRejected() {
	owner, _ := s.createUser("dona")
	_, token := s.createUser("apressada")
	meme := s.createMeme(owner.ID, "alvo")

	first := s.postComment(meme.ID, token, "primeiro", nil)
	s.Require().NotNil(first)

	w := s.request(http.MethodPost, "/api/v1/memes/"+meme.ID+"/comments", token,
		map[string]string{"text": "segundo logo em seguida"})
	s.Equal(http.StatusTooManyRequests, w.Code)

	var count int64
	s.db.Model(&models.Comment{}).Count(&count)
	s.EqualValues(1, count)
}

func (s *HandlersTestSuite) TestCommentParentOnOtherMemeRejected() {
	owner, _ := s.createUser("dona")
	_, token := s.createUser("perdida")
	memeA := s.createMeme(owner.ID, "alvo-a")
	memeB := s.createMeme(owner.ID, "alvo-b")

	parent := s.postComment(memeA.ID, token, "comentário no meme A", nil)
	s.Require().NotNil(parent)
	parentID := (*parent)["id"].(string)

	s.db.Model(&models.Comment{}).Where("id = ?", parentID).
		Update("created_at", time.Now().Add(-time.Minute))

	w := s.request(http.MethodPost, "/api/v1/memes/"+memeB.ID+"/comments", token,
		map[string]interface{}{"text": "resposta no meme errado", "parent_id": parentID})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestGetCommentsAnnotated() {
	owner, _ := s.createUser("dona")
	author, token := s.createUser("comentarista")
	fan, _ := s.createUser("fa")
	meme := s.createMeme(owner.ID, "comentado")

	comment := models.Comment{MemeID: meme.ID, UserID: author.ID, Text: "no topo"}
	s.Require().NoError(s.db.Create(&comment).Error)
	reply := models.Comment{MemeID: meme.ID, UserID: fan.ID, Text: "resposta", ParentID: &comment.ID}
	s.Require().NoError(s.db.Create(&reply).Error)
	s.Require().NoError(s.db.Create(&models.CommentLike{UserID: author.ID, CommentID: comment.ID}).Error)

	w := s.request(http.MethodGet, "/api/v1/memes/"+meme.ID+"/comments", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	comments := s.decode(w)["comments"].([]interface{})
	s.Require().Len(comments, 1) // replies don't show at the top level
	top := comments[0].(map[string]interface{})
	s.Equal("no topo", top["text"])
	s.EqualValues(1, top["like_count"])
	s.EqualValues(1, top["reply_count"])
	s.Equal(true, top["is_liked_by_me"])

	// Replies listed under their parent, oldest first
	w = s.request(http.MethodGet, "/api/v1/memes/"+meme.ID+"/comments?parent_id="+comment.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	replies := s.decode(w)["comments"].([]interface{})
	s.Require().Len(replies, 1)
	s.Equal("resposta", replies[0].(map[string]interface{})["text"])
}

func (s *HandlersTestSuite) TestToggleCommentLikeRoundTrip() {
	owner, _ := s.createUser("dona")
	author, _ := s.createUser("comentarista")
	_, token := s.createUser("fa")
	meme := s.createMeme(owner.ID, "comentado")

	comment := models.Comment{MemeID: meme.ID, UserID: author.ID, Text: "curta isso"}
	s.Require().NoError(s.db.Create(&comment).Error)

	w := s.request(http.MethodPost, "/api/v1/comments/"+comment.ID+"/like", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["liked"])

	w = s.request(http.MethodPost, "/api/v1/comments/"+comment.ID+"/like", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, s.decode(w)["liked"])
}

func (s *HandlersTestSuite) TestDeleteCommentAuthorOnly() {
	owner, _ := s.createUser("dona")
	author, authorToken := s.createUser("comentarista")
	_, otherToken := s.createUser("intrusa")
	meme := s.createMeme(owner.ID, "comentado")

	comment := models.Comment{MemeID: meme.ID, UserID: author.ID, Text: "apague-me"}
	s.Require().NoError(s.db.Create(&comment).Error)

	w := s.request(http.MethodDelete, "/api/v1/comments/"+comment.ID, otherToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.request(http.MethodDelete, "/api/v1/comments/"+comment.ID, authorToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var count int64
	s.db.Model(&models.Comment{}).Count(&count)
	s.EqualValues(0, count)
}
