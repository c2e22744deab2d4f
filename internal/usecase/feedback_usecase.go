package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"tableorder/internal/domain/model"
	repo "tableorder/internal/repository"
)

const feedbackMaxLen = 2000

type FeedbackUsecase struct {
	feedbacks   repo.FeedbackRepository
	restaurants repo.RestaurantRepository
}

// DI
func NewFeedbackUsecase(feedbacks repo.FeedbackRepository, restaurants repo.RestaurantRepository) *FeedbackUsecase {
	return &FeedbackUsecase{feedbacks: feedbacks, restaurants: restaurants}
}

type SubmitFeedbackInput struct {
	RestaurantID string
	FeedbackText string
	Rating       int
}

type FeedbackListOutput struct {
	Items []model.Feedback `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *FeedbackUsecase) Submit(ctx context.Context, in SubmitFeedbackInput) (model.Feedback, error) {
	text := strings.TrimSpace(in.FeedbackText)
	if in.RestaurantID == "" || text == "" || in.Rating == 0 {
		return model.Feedback{}, NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}
	if !validID(in.RestaurantID) {
		return model.Feedback{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return model.Feedback{}, NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	if utf8.RuneCountInString(text) > feedbackMaxLen {
		return model.Feedback{}, NewHTTPError(http.StatusBadRequest, "feedback too long")
	}

	if _, err := u.restaurants.FindByID(ctx, in.RestaurantID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Feedback{}, NewHTTPError(http.StatusNotFound, "restaurant not found")
		}
		return model.Feedback{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	f := model.Feedback{
		RestaurantID: in.RestaurantID,
		FeedbackText: text,
		Rating:       in.Rating,
	}
	if err := u.feedbacks.Create(ctx, &f); err != nil {
		return model.Feedback{}, NewHTTPError(http.StatusInternalServerError, "Failed to submit feedback")
	}
	return f, nil
}

// スタッフ用の一覧（新しい順）
func (u *FeedbackUsecase) List(ctx context.Context, restaurantID string, page int, limit int) (FeedbackListOutput, error) {
	if !validID(restaurantID) {
		return FeedbackListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid restaurant id")
	}
	page, limit = normalizePage(page, limit)

	items, total, err := u.feedbacks.ListByRestaurant(ctx, restaurantID, page, limit)
	if err != nil {
		return FeedbackListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if items == nil {
		items = []model.Feedback{}
	}
	return FeedbackListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// page>=1, 1<=limit<=100
func normalizePage(page int, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
