package services

import "errors"

var (
	ErrContentNotFound       = errors.New("content not found")
	ErrReviewNotFound        = errors.New("review not found")
	ErrWordNotFound          = errors.New("blocked word not found")
	ErrModelVersionNotFound  = errors.New("model version not found")
	ErrInvalidContentType    = errors.New("invalid content type")
	ErrInvalidGoldLabel      = errors.New("gold label must be allow, review or block")
	ErrInvalidThresholds     = errors.New("thresholds must satisfy 0 <= allow < review < block <= 1")
	ErrInvalidRetrainCount   = errors.New("retrain threshold must be at least 1")
	ErrImageNotAllowed       = errors.New("images can only be attached to posts")
	ErrEmptyWord             = errors.New("word and category are required")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrContentProcessing     = errors.New("content is being processed")

	// ErrClaimLost means the item left Processing while it was being scored, so the result is discarded.
	ErrClaimLost = errors.New("processing claim lost")

	// ErrNotEnoughTrainingData is recoverable: the retrain loop tries again on its next cycle.
	ErrNotEnoughTrainingData = errors.New("not enough gold labels to train")
)
