package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jrsteele09/go-room-server/auth"
	"github.com/jrsteele09/go-room-server/internal/config"
	"github.com/jrsteele09/go-room-server/internal/dbx"
	"github.com/jrsteele09/go-room-server/internal/storage"
	"github.com/jrsteele09/go-room-server/mediaprovider"
	"github.com/jrsteele09/go-room-server/presence"
	presencepg "github.com/jrsteele09/go-room-server/presence/postgresrepo"
	fakeentryrepo "github.com/jrsteele09/go-room-server/presence/repofake"
	"github.com/jrsteele09/go-room-server/rooms"
	roompg "github.com/jrsteele09/go-room-server/rooms/postgresrepo"
	fakeroomrepo "github.com/jrsteele09/go-room-server/rooms/repofake"
	"github.com/jrsteele09/go-room-server/server"
	"github.com/jrsteele09/go-room-server/token"
	"github.com/jrsteele09/go-room-server/token/redisrevocation"
	"github.com/jrsteele09/go-room-server/users"
	userpg "github.com/jrsteele09/go-room-server/users/postgresrepo"
	fakeuserrepo "github.com/jrsteele09/go-room-server/users/repofake"
	"github.com/rs/zerolog/log"
)

const denyListCleanupInterval = 10 * time.Minute

type app struct {
	services server.Services
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Err(err).Msg("failed to close resource")
		}
	}
}

type stores struct {
	users   users.UserRepo
	rooms   rooms.RoomRepo
	entries presence.EntryRepo
}

func buildApp(ctx context.Context, c config.Config) (*app, error) {
	a := &app{}

	st, err := a.openStores(ctx, c)
	if err != nil {
		a.Close()
		return nil, err
	}

	managerOpts := []token.ManagerOption{
		token.WithIssuer(c.GetTokenIssuer()),
		token.WithAccessKey(c.GetProviderAccessKey()),
		token.WithSessionExpiry(c.GetSessionExpiry()),
		token.WithRoomAccessExpiry(c.GetRoomAccessExpiry()),
	}
	denyList, err := a.openDenyList(ctx, c)
	if err != nil {
		a.Close()
		return nil, err
	}
	if denyList != nil {
		managerOpts = append(managerOpts, token.WithRevokedTokenCache(denyList))
	}

	tokens, err := token.NewManager(c.GetJWTSecret(), c.GetRoomTokenSecret(), managerOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	provider, err := newMediaProvider(c)
	if err != nil {
		a.Close()
		return nil, err
	}

	authService, err := auth.NewService(st.users, tokens)
	if err != nil {
		a.Close()
		return nil, err
	}
	registry := rooms.NewRegistry(st.rooms, st.users, tokens, provider)
	hub := presence.NewHub(st.entries, presence.WithRoomValidator(registry.Exists))
	a.closers = append(a.closers, func() error { hub.Close(); return nil })

	a.services = server.Services{
		Auth:     authService,
		Guard:    auth.NewGuard(tokens, c.GetSessionCookieName()),
		Rooms:    registry,
		Presence: hub,
	}
	return a, nil
}

// openStores uses postgres when a DSN is configured and in-memory repositories
// otherwise.
func (a *app) openStores(ctx context.Context, c config.Config) (*stores, error) {
	dsn := c.GetDatabaseDSN()
	if dsn == "" {
		log.Warn().Msg("DATABASE_DSN not set, using in-memory storage")
		return &stores{
			users:   fakeuserrepo.NewFakeUserRepo(),
			rooms:   fakeroomrepo.NewFakeRoomRepo(),
			entries: fakeentryrepo.NewFakeEntryRepo(),
		}, nil
	}

	db, err := storage.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)

	if err := storage.RunMigrations(ctx, db); err != nil {
		return nil, err
	}
	if err := closeStalePresence(ctx, db); err != nil {
		return nil, err
	}
	return &stores{
		users:   userpg.NewPostgresRepository(db),
		rooms:   roompg.NewPostgresRepository(db),
		entries: presencepg.NewPostgresRepository(db),
	}, nil
}

func closeStalePresence(ctx context.Context, db *sql.DB) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := presencepg.NewPostgresRepository(tx).CloseActive(ctx, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("[closeStalePresence] %w", err)
		}
		if n > 0 {
			log.Info().Int64("entries", n).Msg("closed stale presence entries")
		}
		return nil
	})
}

// openDenyList returns nil when logout revocation is disabled.
func (a *app) openDenyList(ctx context.Context, c config.Config) (token.RevokedTokenCache, error) {
	if !c.GetRevokeOnLogout() {
		return nil, nil
	}

	if addr := c.GetRedisAddr(); addr != "" {
		client, err := redisrevocation.Connect(ctx, redisrevocation.Config{
			Addr:     addr,
			Password: c.GetRedisPassword(),
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return redisrevocation.New(client), nil
	}

	log.Warn().Msg("REDIS_ADDR not set, logout deny-list is local to this process")
	cache := token.NewInMemoryRevokedTokenCache()
	go func() {
		ticker := time.NewTicker(denyListCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cache.Cleanup()
			}
		}
	}()
	return cache, nil
}

func newMediaProvider(c config.Config) (mediaprovider.Client, error) {
	baseURL := c.GetProviderURL()
	if baseURL == "" {
		log.Warn().Msg("MEDIA_PROVIDER_URL not set, using the in-process media provider")
		return mediaprovider.NewFake(), nil
	}

	src, err := token.NewManagementTokenSource(c.GetProviderAccessKey(), c.GetProviderSecret(), c.GetManagementTokenExpiry())
	if err != nil {
		return nil, err
	}
	return mediaprovider.NewHTTPClient(baseURL, src,
		mediaprovider.WithTemplateID(c.GetProviderTemplateID()),
		mediaprovider.WithTimeout(c.GetProviderTimeout()),
	)
}
