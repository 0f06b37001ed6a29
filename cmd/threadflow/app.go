package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/threadflow/threadflow/internal/boardapi"
	"github.com/threadflow/threadflow/internal/notify"
	"github.com/threadflow/threadflow/internal/provider"
	"github.com/threadflow/threadflow/pkg/agents/sheets"
	"github.com/threadflow/threadflow/pkg/agents/supervisor"
	"github.com/threadflow/threadflow/pkg/agents/taskboard"
	"github.com/threadflow/threadflow/pkg/boardcache"
	"github.com/threadflow/threadflow/pkg/chat"
	"github.com/threadflow/threadflow/pkg/config"
	"github.com/threadflow/threadflow/pkg/threadflow/checkpoint"
)

// app bundles everything the serve and chat commands share.
type app struct {
	logger     *slog.Logger
	supervisor *supervisor.Supervisor
	board      *boardapi.Client
	notifier   chat.Notifier
	stores     []checkpoint.Store
}

// Close releases the checkpoint stores.
func (a *app) Close() {
	for _, store := range a.stores {
		if err := store.Close(); err != nil {
			a.logger.Warn("closing checkpoint store failed", "error", err)
		}
	}
}

// storeSet holds one checkpoint store per graph, so the supervisor
// and its delegates never interleave sequence numbers on a shared
// thread ID.
type storeSet struct {
	supervisor checkpoint.Store
	taskboard  checkpoint.Store
	sheets     checkpoint.Store
}

func (s storeSet) all() []checkpoint.Store {
	return []checkpoint.Store{s.supervisor, s.taskboard, s.sheets}
}

func openStores(cfg config.CheckpointConfig) (storeSet, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storeSet{
			supervisor: checkpoint.NewMemoryStore(),
			taskboard:  checkpoint.NewMemoryStore(),
			sheets:     checkpoint.NewMemoryStore(),
		}, nil

	case config.BackendSQLite:
		var set storeSet
		var opened []checkpoint.Store
		for _, slot := range []struct {
			namespace string
			target    *checkpoint.Store
		}{
			{"supervisor", &set.supervisor},
			{"taskboard", &set.taskboard},
			{"sheets", &set.sheets},
		} {
			store, err := checkpoint.NewSQLiteStore(cfg.Path, checkpoint.WithNamespace(slot.namespace))
			if err != nil {
				for _, s := range opened {
					s.Close()
				}
				return storeSet{}, fmt.Errorf("opening sqlite checkpoint store: %w", err)
			}
			*slot.target = store
			opened = append(opened, store)
		}
		return set, nil

	case config.BackendRedis:
		prefix := cfg.RedisPrefix
		if prefix == "" {
			prefix = "threadflow:checkpoint:"
		}
		open := func(namespace string) checkpoint.Store {
			return checkpoint.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
				checkpoint.WithPrefix(prefix+namespace+":"))
		}
		return storeSet{
			supervisor: open("supervisor"),
			taskboard:  open("taskboard"),
			sheets:     open("sheets"),
		}, nil

	default:
		return storeSet{}, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}

// buildApp wires collaborators, stores, and agents from the
// configuration.
func buildApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	boardID, err := strconv.ParseInt(cfg.Board.BoardID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("board.board_id must be numeric: %w", err)
	}

	stores, err := openStores(cfg.Checkpoint)
	if err != nil {
		return nil, err
	}
	a := &app{logger: logger, stores: stores.all()}
	built := false
	defer func() {
		if !built {
			a.Close()
		}
	}()

	clientOpts := []provider.Option{
		provider.WithMaxTokens(cfg.LLM.MaxTokens),
		provider.WithTemperature(cfg.LLM.Temperature),
		provider.WithLogger(logger),
	}
	if cfg.LLM.BaseURL != "" {
		clientOpts = append(clientOpts, provider.WithBaseURL(cfg.LLM.BaseURL))
	}
	if cfg.LLM.Model != "" {
		clientOpts = append(clientOpts, provider.WithModel(cfg.LLM.Model))
	}
	client := provider.NewClient(cfg.LLM.APIKey, clientOpts...)
	classifier := provider.NewClassifier(client, logger)
	responder := provider.NewResponder(client, logger)
	decider := provider.NewDecider(client, logger)

	boardOpts := []boardapi.Option{
		boardapi.WithBoardID(boardID),
		boardapi.WithLogger(logger),
	}
	if cfg.Board.Endpoint != "" {
		boardOpts = append(boardOpts, boardapi.WithEndpoint(cfg.Board.Endpoint))
	}
	a.board = boardapi.NewClient(cfg.Board.Token, boardOpts...)

	cache := boardcache.New(a.board.Fetcher(),
		boardcache.WithTTL(cfg.Cache.TTL),
		boardcache.WithLogger(logger),
	)

	if cfg.Notify.Enabled {
		a.notifier = notify.NewWebhook(cfg.Notify.WebhookURL, notify.WithLogger(logger))
	}

	tbOpts := []taskboard.Option{
		taskboard.WithCheckpointStore(stores.taskboard),
		taskboard.WithLogger(logger),
	}
	if a.notifier != nil {
		tbOpts = append(tbOpts, taskboard.WithNotifier(a.notifier, cfg.Notify.Channel))
	}
	tb, err := taskboard.New(cache, classifier, responder, tbOpts...)
	if err != nil {
		return nil, err
	}

	shOpts := []sheets.Option{
		sheets.WithCheckpointStore(stores.sheets),
		sheets.WithLogger(logger),
	}
	if cfg.Sheets.DefaultFile != "" {
		shOpts = append(shOpts, sheets.WithDefaultFile(cfg.Sheets.DefaultFile))
	}
	sh, err := sheets.New(sheets.NewDirSource(cfg.Sheets.Dir), responder, shOpts...)
	if err != nil {
		return nil, err
	}

	sup, err := supervisor.New(decider, responder, tb, sh,
		supervisor.WithCheckpointStore(stores.supervisor),
		supervisor.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	a.supervisor = sup

	built = true
	return a, nil
}
