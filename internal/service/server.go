package service

import (
	"context"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// ServerService wraps server status, storage and event subscription methods.
type ServerService struct {
	caller rpc.Caller
}

// NewServerService creates a ServerService.
func NewServerService(c rpc.Caller) *ServerService {
	return &ServerService{caller: c}
}

// Ping returns "pong" from the server, or from the health server in
// fallback mode.
func (s *ServerService) Ping(ctx context.Context) (string, error) {
	return invoke(ctx, s.caller, MethodPing, rpc.NoParams{})
}

func (s *ServerService) GetStatus(ctx context.Context) (model.ServerStatus, error) {
	return invoke(ctx, s.caller, MethodGetStatus, rpc.NoParams{})
}

func (s *ServerService) GetServerInfo(ctx context.Context) (model.ServerInfo, error) {
	return invoke(ctx, s.caller, MethodGetServerInfo, rpc.NoParams{})
}

func (s *ServerService) GetMetrics(ctx context.Context) (model.ServerMetrics, error) {
	return invoke(ctx, s.caller, MethodGetMetrics, rpc.NoParams{})
}

func (s *ServerService) GetStorageInfo(ctx context.Context) (model.StorageInfo, error) {
	return invoke(ctx, s.caller, MethodGetStorageInfo, rpc.NoParams{})
}

// SetRetentionPolicy replaces the server's file retention policy.
func (s *ServerService) SetRetentionPolicy(ctx context.Context, p model.RetentionPolicy) (model.RetentionPolicyResult, error) {
	if err := validateRetentionPolicy(p); err != nil {
		return model.RetentionPolicyResult{}, err
	}
	return invoke(ctx, s.caller, MethodSetRetentionPolicy, p)
}

// CleanupOldFiles applies the retention policy now.
func (s *ServerService) CleanupOldFiles(ctx context.Context) (model.CleanupResult, error) {
	return invoke(ctx, s.caller, MethodCleanupOldFiles, rpc.NoParams{})
}

// SubscribeEvents asks the server to push notifications for topics.
func (s *ServerService) SubscribeEvents(ctx context.Context, topics []string, filters map[string]any) (model.SubscriptionResult, error) {
	if len(topics) == 0 {
		return model.SubscriptionResult{}, invalid("topics", "at least one topic is required")
	}
	if err := validateTopics(topics); err != nil {
		return model.SubscriptionResult{}, err
	}
	return invoke(ctx, s.caller, MethodSubscribeEvents, TopicsParams{Topics: topics, Filters: filters})
}

// UnsubscribeEvents removes topics. No topics removes every subscription.
func (s *ServerService) UnsubscribeEvents(ctx context.Context, topics []string) (model.SubscriptionResult, error) {
	if err := validateTopics(topics); err != nil {
		return model.SubscriptionResult{}, err
	}
	return invoke(ctx, s.caller, MethodUnsubscribeEvents, TopicsParams{Topics: topics})
}

func (s *ServerService) GetSubscriptionStats(ctx context.Context) (model.SubscriptionStats, error) {
	return invoke(ctx, s.caller, MethodGetSubscriptionStats, rpc.NoParams{})
}
