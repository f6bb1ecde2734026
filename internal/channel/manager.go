package channel

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/stellarlinkco/lostfound/internal/bus"
	"github.com/stellarlinkco/lostfound/internal/config"
	"github.com/stellarlinkco/lostfound/internal/logger"
)

type ChannelManager struct {
	channels map[string]Channel
	bus      *bus.MessageBus
	log      *logger.Logger
}

// NewChannelManager builds the enabled channels and subscribes each one to
// its outbound replies.
func NewChannelManager(cfg config.ChannelsConfig, gwCfg config.GatewayConfig, b *bus.MessageBus) (*ChannelManager, error) {
	m := &ChannelManager{
		channels: make(map[string]Channel),
		bus:      b,
		log:      logger.Named("channel-mgr"),
	}

	if cfg.Telegram.Enabled {
		ch, err := NewTelegramChannel(cfg.Telegram, b)
		if err != nil {
			return nil, fmt.Errorf("init telegram channel: %w", err)
		}
		m.Register(ch)
	}

	if cfg.WebUI.Enabled {
		ch, err := NewWebUIChannel(cfg.WebUI, gwCfg, b)
		if err != nil {
			return nil, fmt.Errorf("init webui channel: %w", err)
		}
		m.Register(ch)
	}

	return m, nil
}

// Register adds ch and routes outbound messages for its name to ch.Send.
func (m *ChannelManager) Register(ch Channel) {
	m.channels[ch.Name()] = ch
	m.bus.SubscribeOutbound(ch.Name(), func(msg bus.OutboundMessage) {
		if err := ch.Send(msg); err != nil {
			m.log.Error().Err(err).Str("channel", ch.Name()).Str("chat_id", msg.ChatID).Msg("send failed")
		}
	})
}

func (m *ChannelManager) StartAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(m.channels))

	for name, ch := range m.channels {
		wg.Add(1)
		go func(name string, ch Channel) {
			defer wg.Done()
			m.log.Info().Str("channel", name).Msg("starting")
			if err := ch.Start(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}(name, ch)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

func (m *ChannelManager) StopAll() error {
	for name, ch := range m.channels {
		m.log.Info().Str("channel", name).Msg("stopping")
		if err := ch.Stop(); err != nil {
			m.log.Warn().Err(err).Str("channel", name).Msg("error stopping")
		}
	}
	return nil
}

// EnabledChannels returns the registered channel names in sorted order.
func (m *ChannelManager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
