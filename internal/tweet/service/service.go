package service

import (
	"context"
	"errors"

	"github.com/featherline/backend/internal/common/apperror"
	"github.com/featherline/backend/internal/common/logger"
	"github.com/featherline/backend/internal/observability/metrics"
	"github.com/featherline/backend/internal/tweet/domain"
	tweetrepo "github.com/featherline/backend/internal/tweet/repository"
)

// Publisher receives every created tweet for live fan-out. A nil publisher
// disables streaming.
type Publisher interface {
	Publish(tweet domain.AnnotatedTweet)
}

type Service struct {
	repo   tweetrepo.Repository
	stream Publisher
	log    *logger.Logger
}

func NewService(repo tweetrepo.Repository, stream Publisher, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		stream: stream,
		log:    log,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.AnnotatedTweet, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Tweet, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Tweet, error) {
	tweet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, tweetrepo.ErrTweetNotFound) {
			return domain.Tweet{}, apperror.NotFound("Tweet")
		}
		return domain.Tweet{}, err
	}
	return tweet, nil
}

// Create takes the owner from the authenticated caller, never from the
// request body.
func (s *Service) Create(ctx context.Context, ownerID, ownerUsername, message string) (domain.Tweet, error) {
	tweet, err := s.repo.Create(ctx, ownerID, message)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": ownerID,
			"action":  "tweet_create_failed",
		}).Errorf("create tweet failed: %v", err)
		return domain.Tweet{}, err
	}

	metrics.TweetsCreatedTotal.Inc()
	s.log.WithFields(ctx, logger.Fields{
		"user_id":  ownerID,
		"tweet_id": tweet.ID,
		"action":   "tweet_created",
	}).Info("tweet created")

	if s.stream != nil {
		s.stream.Publish(domain.AnnotatedTweet{Tweet: tweet, Username: ownerUsername})
	}

	return tweet, nil
}

func (s *Service) Update(ctx context.Context, id int64, message string) (domain.Tweet, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, tweetrepo.ErrTweetNotFound) {
			return domain.Tweet{}, apperror.NotFound("Tweet")
		}
		return domain.Tweet{}, err
	}

	tweet, err := s.repo.UpdateMessage(ctx, id, message)
	if err != nil {
		if errors.Is(err, tweetrepo.ErrTweetNotFound) {
			return domain.Tweet{}, apperror.NotFound("Tweet")
		}
		s.log.WithFields(ctx, logger.Fields{
			"tweet_id": id,
			"action":   "tweet_update_failed",
		}).Errorf("update tweet failed: %v", err)
		return domain.Tweet{}, err
	}

	metrics.TweetsUpdatedTotal.Inc()
	return tweet, nil
}

// Delete of an already-deleted id reports not found rather than success.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, tweetrepo.ErrTweetNotFound) {
			return apperror.NotFound("Tweet")
		}
		s.log.WithFields(ctx, logger.Fields{
			"tweet_id": id,
			"action":   "tweet_delete_failed",
		}).Errorf("delete tweet failed: %v", err)
		return err
	}

	metrics.TweetsDeletedTotal.Inc()
	return nil
}
