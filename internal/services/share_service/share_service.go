package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"mintyfresh/internal/lib/jwt"
	"mintyfresh/internal/lib/logger/sl"
	"mintyfresh/internal/transport/http/dto"
)

var ErrInvalidShareToken = errors.New("invalid share token")

// ShareService получатель share-интента: выпускает подписанную ссылку на медиа минта
type ShareService struct {
	log     *slog.Logger
	secret  []byte
	ttl     time.Duration
	baseURL string
}

func NewShareService(log *slog.Logger, secret string, ttl time.Duration, baseURL string) *ShareService {
	return &ShareService{
		log:     log,
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *ShareService) Issue(mediaURL, name string) (*dto.ShareResponse, error) {
	const op = "service.ShareService.Issue"

	log := s.log.With(
		slog.String("op", op),
		slog.String("media_url", mediaURL),
	)

	if mediaURL == "" {
		return nil, fmt.Errorf("%s: media url is required", op)
	}

	token, err := jwt.NewShareToken(mediaURL, name, s.secret, s.ttl)
	if err != nil {
		log.Error("failed to sign share token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("share link issued")

	return &dto.ShareResponse{
		MediaURL:  mediaURL,
		Name:      name,
		Link:      s.baseURL + "/" + url.PathEscape(token),
		ExpiresAt: time.Now().Add(s.ttl).UTC(),
	}, nil
}

// Resolve проверяет подпись ссылки и возвращает медиа, на которое она указывает
func (s *ShareService) Resolve(token string) (*dto.ShareResponse, error) {
	const op = "service.ShareService.Resolve"

	claims, err := jwt.ParseShareToken(token, s.secret)
	if err != nil {
		s.log.With(slog.String("op", op)).Info("rejected share token", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidShareToken)
	}

	resp := &dto.ShareResponse{
		MediaURL: claims.MediaURL,
		Name:     claims.Name,
		Link:     s.baseURL + "/" + url.PathEscape(token),
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}

	return resp, nil
}
