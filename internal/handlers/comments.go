package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/idnofunny/backend/internal/database"
	"github.com/idnofunny/backend/internal/dto"
	apierrors "github.com/idnofunny/backend/internal/errors"
	"github.com/idnofunny/backend/internal/feed"
	"github.com/idnofunny/backend/internal/logger"
	"github.com/idnofunny/backend/internal/metrics"
	"github.com/idnofunny/backend/internal/models"
	"github.com/idnofunny/backend/internal/moderation"
	"github.com/idnofunny/backend/internal/util"
)

const maxCommentPageSize = 100

// CreateComment posts a comment on a meme. Every candidate runs through the
// abuse gate before anything is written; a rejected comment leaves no trace.
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	memeID := c.Param("id")

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if !h.memeExists(c, memeID) {
		return
	}

	err := h.gate.Evaluate(c.Request.Context(), moderation.CommentInput{
		AuthorID: userID,
		MemeID:   memeID,
		Text:     req.Text,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.respondGateError(c, err)
		return
	}

	comment := models.Comment{
		MemeID:   memeID,
		UserID:   userID,
		Text:     req.Text,
		ParentID: req.ParentID,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		logger.Log.Error("comment create failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to post comment")
		return
	}

	kind := "top_level"
	if comment.ParentID != nil {
		kind = "reply"
	}
	metrics.App().CommentsTotal.WithLabelValues(kind).Inc()

	database.DB.Preload("User").First(&comment, "id = ?", comment.ID)
	annotated := feed.AnnotatedComment{Comment: comment}
	c.JSON(http.StatusCreated, gin.H{"comment": dto.ToCommentResponse(&annotated)})
}

// GetComments lists a meme's comments with per-viewer annotations. Without
// a parent_id it returns top-level comments newest first; with one it
// returns that comment's replies oldest first.
func (h *Handlers) GetComments(c *gin.Context) {
	memeID := c.Param("id")
	page, perPage := util.ParsePagination(c.Query("page"), c.Query("per_page"), maxCommentPageSize)

	if !h.memeExists(c, memeID) {
		return
	}

	query := database.DB.Preload("User").Where("meme_id = ?", memeID)
	if parentID := c.Query("parent_id"); parentID != "" {
		query = query.Where("parent_id = ?", parentID).Order("created_at ASC")
	} else {
		query = query.Where("parent_id IS NULL").Order("created_at DESC")
	}

	var comments []models.Comment
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&comments).Error; err != nil {
		logger.Log.Error("comment query failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to load comments")
		return
	}

	annotated, err := h.engine.AnnotateComments(c.Request.Context(), viewerID(c), comments)
	if err != nil {
		logger.Log.Error("comment annotation failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to load comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentResponses(annotated),
		"page":     page,
		"per_page": perPage,
	})
}

// ToggleCommentLike flips the caller's like on a comment
func (h *Handlers) ToggleCommentLike(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	commentID := c.Param("commentId")

	var count int64
	if err := database.DB.Model(&models.Comment{}).
		Where("id = ?", commentID).Count(&count).Error; err != nil {
		util.RespondInternalError(c)
		return
	}
	if count == 0 {
		util.RespondNotFound(c, "comment")
		return
	}

	liked, err := h.social.ToggleCommentLike(c.Request.Context(), userID, commentID)
	if err != nil {
		logger.Log.Error("comment like toggle failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to toggle like")
		return
	}

	action := "unliked"
	if liked {
		action = "liked"
	}
	metrics.App().LikesTotal.WithLabelValues("comment", action).Inc()

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// DeleteComment removes the caller's own comment. Replies survive with a
// dangling parent reference the same way the author's other history does.
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	commentID := c.Param("commentId")

	var comment models.Comment
	err := database.DB.First(&comment, "id = ?", commentID).Error
	if util.HandleDBError(c, err, "comment") {
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "You can only delete your own comments")
		return
	}

	if err := database.DB.Delete(&comment).Error; err != nil {
		logger.Log.Error("comment delete failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

// respondGateError maps abuse gate rejections onto API error codes
func (h *Handlers) respondGateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, moderation.ErrProfanity):
		metrics.App().CommentGateRejections.WithLabelValues("profanity").Inc()
		util.RespondWithAPIError(c, apierrors.ProfanityRejected())
	case errors.Is(err, moderation.ErrDuplicate):
		metrics.App().CommentGateRejections.WithLabelValues("duplicate").Inc()
		util.RespondWithAPIError(c, apierrors.DuplicateContent())
	case errors.Is(err, moderation.ErrFlood):
		metrics.App().CommentGateRejections.WithLabelValues("flood").Inc()
		util.RespondWithAPIError(c, apierrors.FloodRate())
	case errors.Is(err, moderation.ErrParentNotFound):
		metrics.App().CommentGateRejections.WithLabelValues("bad_parent").Inc()
		util.RespondNotFound(c, "parent comment")
	default:
		logger.Log.Error("comment gate failed", zap.Error(err))
		util.RespondInternalError(c, "Failed to post comment")
	}
}
