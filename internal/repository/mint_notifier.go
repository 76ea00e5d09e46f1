package repository

import (
	"context"
	"fmt"
	"log/slog"

	"mintyfresh/internal/collection"
	redisapp "mintyfresh/internal/storage/redis"
)

// MintChannel канал Redis, в который индексатор публикует изменения минтов кошелька
func MintChannel(owner string) string {
	return "mints:" + owner
}

type MintNotifier struct {
	log    *slog.Logger
	client *redisapp.Client
}

func NewMintNotifier(log *slog.Logger, client *redisapp.Client) *MintNotifier {
	return &MintNotifier{
		log:    log,
		client: client,
	}
}

func (n *MintNotifier) Publish(ctx context.Context, owner string) error {
	return n.client.Publish(ctx, MintChannel(owner), "changed").Err()
}

// Source источник изменений для scope кошелька owner
func (n *MintNotifier) Source(owner string) collection.ChangeSource {
	return &MintChangeSource{
		log:    n.log,
		client: n.client,
		owner:  owner,
	}
}

type MintChangeSource struct {
	log    *slog.Logger
	client *redisapp.Client
	owner  string
}

func (s *MintChangeSource) Watch(onChange func()) (func() error, error) {
	const op = "repository.MintChangeSource.Watch"

	ctx := context.Background()
	ps := s.client.Subscribe(ctx, MintChannel(s.owner))

	// ждем подтверждения подписки, иначе первые публикации теряются
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	messages := ps.Channel()
	done := make(chan struct{})

	go func() {
		defer close(done)

		for range messages {
			s.log.Debug("mint change received", slog.String("owner", s.owner))
			onChange()
		}
	}()

	stop := func() error {
		err := ps.Close()
		<-done
		return err
	}

	return stop, nil
}
