// Package bot assembles the transport, authorization, dispatch, and
// workflow components into one runnable service.
package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nikitaproks/vpn-bot/internal/bot/audit"
	"github.com/nikitaproks/vpn-bot/internal/bot/config"
	"github.com/nikitaproks/vpn-bot/internal/bot/dialog"
	"github.com/nikitaproks/vpn-bot/internal/bot/dispatch"
	"github.com/nikitaproks/vpn-bot/internal/bot/events"
	"github.com/nikitaproks/vpn-bot/internal/bot/guard"
	"github.com/nikitaproks/vpn-bot/internal/bot/transport"
	"github.com/nikitaproks/vpn-bot/internal/bot/workflow"
	"github.com/nikitaproks/vpn-bot/internal/linode"
	"github.com/nikitaproks/vpn-bot/internal/shared/logger"
)

// Service coordinates all bot components and manages their lifecycle.
type Service struct {
	config *config.Config
	logger *logger.Logger

	telegram   *transport.Telegram
	dispatcher *dispatch.Dispatcher
	bus        *events.Bus
	journal    *audit.Store

	ctx    context.Context
	cancel context.CancelFunc

	signalChan chan os.Signal
	shutdownWg sync.WaitGroup
	pollWg     sync.WaitGroup
	isRunning  bool
	mu         sync.Mutex
}

// NewService creates a Service instance and initializes all components in
// dependency order.
func NewService(cfg *config.Config, log *logger.Logger) (*Service, error) {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		config:     cfg,
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
		signalChan: make(chan os.Signal, 1),
	}

	if err := s.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize service components: %w", err)
	}

	return s, nil
}

func (s *Service) initializeComponents() error {
	s.logger.Info("initializing service components")

	// Allow-list first: a misconfigured guard must fail startup.
	ids, err := guard.ParseAllowList(s.config.Telegram.AllowedChatIDs)
	if err != nil {
		return fmt.Errorf("failed to parse allowed chat IDs: %w", err)
	}
	allow := guard.NewAllowList(ids)
	s.logger.Debug("allow-list loaded", "chats", allow.Size())

	// Event bus and the audit journal subscribed to it.
	s.bus = events.NewBus(s.logger)

	journal, err := audit.NewStore(s.config.Audit.Path, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open audit journal: %w", err)
	}
	s.journal = journal
	s.bus.SubscribeAll(s.journal.Listen())
	s.logger.Debug("audit journal attached", "path", s.config.Audit.Path)

	// Provisioning client.
	clientOpts := []linode.Option{}
	if s.config.Linode.BaseURL != "" {
		clientOpts = append(clientOpts, linode.WithBaseURL(s.config.Linode.BaseURL))
	}
	provisioner := linode.NewClient(s.config.Linode.Token, s.logger, clientOpts...)

	// Telegram transport.
	s.telegram, err = transport.NewTelegram(s.config.Telegram.Token, s.logger,
		transport.WithPollTimeout(s.config.Telegram.PollTimeout))
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram transport: %w", err)
	}

	// Workflows and routing.
	sessions := dialog.NewStore()
	wfCfg := workflow.Config{
		LabelPrefix:         s.config.Bot.LabelPrefix,
		MaxInstances:        s.config.Bot.MaxInstances,
		StackScriptID:       s.config.Linode.StackScriptID,
		Image:               s.config.Linode.Image,
		Plan:                s.config.Linode.Plan,
		ShadowsocksPassword: s.config.Shadowsocks.Password,
	}
	spawn := workflow.NewSpawn(provisioner, sessions, s.telegram, s.bus, s.logger, wfCfg)
	del := workflow.NewDelete(provisioner, sessions, s.telegram, s.bus, s.logger, wfCfg)
	router := workflow.NewRouter(provisioner, sessions, s.telegram, spawn, del, s.logger, wfCfg)

	// Guard wraps the router; the dispatcher serializes per chat.
	guarded := guard.Middleware(allow, s.telegram, s.logger, router.Handle)
	s.dispatcher = dispatch.New(guarded, s.logger)

	s.logger.Info("all service components initialized successfully")
	return nil
}

// Start begins consuming updates. It returns once polling is running;
// shutdown is driven by signals or Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("service is already running")
	}

	s.logger.Info("starting bot service")
	s.setupSignalHandling()

	s.pollWg.Add(1)
	go func() {
		defer s.pollWg.Done()
		s.telegram.Poll(s.ctx, s.dispatcher.Dispatch)
	}()

	s.isRunning = true
	s.logger.Info("bot service started successfully")
	return nil
}

func (s *Service) setupSignalHandling() {
	signal.Notify(s.signalChan, syscall.SIGINT, syscall.SIGTERM)

	s.shutdownWg.Add(1)
	go s.handleSignals()
}

func (s *Service) handleSignals() {
	defer s.shutdownWg.Done()

	select {
	case sig := <-s.signalChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()

		if err := s.Stop(shutdownCtx); err != nil {
			s.logger.Error("error during graceful shutdown", "error", err)
		}

	case <-s.ctx.Done():
		s.logger.Debug("signal handler exiting due to service context cancellation")
	}
}

func (s *Service) shutdownTimeout() time.Duration {
	if s.config != nil && s.config.Service.ShutdownTimeout > 0 {
		return s.config.Service.ShutdownTimeout
	}
	return 30 * time.Second
}

// WaitForShutdown blocks until the service has been shut down.
func (s *Service) WaitForShutdown() {
	s.logger.Info("service running, waiting for shutdown signal")
	s.shutdownWg.Wait()
	s.logger.Info("service shutdown complete")
}

// Stop shuts down all components: polling first so no new events arrive,
// then the dispatcher drains in-flight events, then the bus and journal.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		s.logger.Warn("service is not running")
		return nil
	}

	s.logger.Info("stopping bot service")

	signal.Stop(s.signalChan)

	var lastErr error

	// 1. Stop the update stream.
	s.cancel()
	s.pollWg.Wait()
	s.logger.Info("update polling stopped")

	// 2. Drain per-chat mailboxes.
	if err := s.dispatcher.Stop(ctx); err != nil {
		s.logger.Error("failed to stop dispatcher", "error", err)
		lastErr = err
	} else {
		s.logger.Info("dispatcher stopped successfully")
	}

	// 3. Tear down the event bus, then the journal behind it.
	if err := s.bus.Close(); err != nil {
		s.logger.Error("failed to close event bus", "error", err)
		lastErr = err
	}
	if err := s.journal.Close(); err != nil {
		s.logger.Error("failed to close audit journal", "error", err)
		lastErr = err
	}

	s.isRunning = false

	if lastErr != nil {
		return fmt.Errorf("service shutdown completed with errors: %w", lastErr)
	}

	s.logger.Info("bot service stopped successfully")
	return nil
}
