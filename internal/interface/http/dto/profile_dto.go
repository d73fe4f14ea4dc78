package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/market-backend/internal/domain/entity"
	"github.com/ignatzorin/market-backend/internal/usecase/review"
)

type CredentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	DisplayName string   `json:"display_name" binding:"required"`
	Bio         string   `json:"bio"`
	AvatarURL   *string  `json:"avatar_url"`
	Skills      []string `json:"skills"`
}

type ChooseRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	UserID  uuid.UUID       `json:"user_id"`
	Email   string          `json:"email"`
	Profile ProfileResponse `json:"profile"`
	Tokens  TokenResponse   `json:"tokens"`
}

type ProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	Skills      []string  `json:"skills"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RatingResponse struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type PublicProfileResponse struct {
	ProfileResponse
	Rating RatingResponse `json:"rating"`
}

type SubmitReviewRequest struct {
	JobID   *string `json:"job_id"`
	OrderID *string `json:"order_id"`
	Rating  int     `json:"rating" binding:"required"`
	Comment string  `json:"comment"`
}

type ReviewResponse struct {
	ID         uuid.UUID  `json:"id"`
	JobID      *uuid.UUID `json:"job_id"`
	OrderID    *uuid.UUID `json:"order_id"`
	ReviewerID uuid.UUID  `json:"reviewer_id"`
	RevieweeID uuid.UUID  `json:"reviewee_id"`
	Rating     int        `json:"rating"`
	Comment    *string    `json:"comment"`
	CreatedAt  time.Time  `json:"created_at"`
}

type UserReviewsResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Rating  RatingResponse   `json:"rating"`
}

func ToProfileResponse(p *entity.Profile) ProfileResponse {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return ProfileResponse{
		ID:          p.ID,
		Role:        string(p.Role),
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		Skills:      skills,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToRatingResponse(s entity.RatingSummary) RatingResponse {
	return RatingResponse{Average: s.Average, Count: s.Count}
}

func ToReviewResponse(r *entity.Review) ReviewResponse {
	return ReviewResponse{
		ID:         r.ID,
		JobID:      r.JobID,
		OrderID:    r.OrderID,
		ReviewerID: r.ReviewerID,
		RevieweeID: r.RevieweeID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

func ToUserReviewsResponse(r *review.UserReviews) UserReviewsResponse {
	resp := UserReviewsResponse{
		Reviews: make([]ReviewResponse, 0, len(r.Reviews)),
		Rating:  ToRatingResponse(r.Summary),
	}
	for _, rv := range r.Reviews {
		resp.Reviews = append(resp.Reviews, ToReviewResponse(rv))
	}
	return resp
}
