// Package notify carries change notifications out of the asset registry.
// Every logical mutation produces exactly one Notification, published only
// after the mutation has been applied to the store.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChangeKind identifies the logical mutation behind a notification.
type ChangeKind string

const (
	KindAssetCreated             ChangeKind = "AssetCreated"
	KindAssetUpdated             ChangeKind = "AssetUpdated"
	KindWhitelistedStatusChanged ChangeKind = "WhitelistedStatusChanged"
	KindMinLiquidityChanged      ChangeKind = "MinLiquidityChanged"
	KindChainAddressesChanged    ChangeKind = "ChainAddressesChanged"
	KindListingStageChanged      ChangeKind = "ListingStageChanged"
	KindOracleSourceChanged      ChangeKind = "OracleSourceStatusChanged"
	KindTradePropChanged         ChangeKind = "TradePropsChanged"
	KindRiskPropsChanged         ChangeKind = "RiskPropsChanged"
	KindSpreadConfigChanged      ChangeKind = "SpreadConfigChanged"
	KindDeviationConfigChanged   ChangeKind = "DeviationConfigChanged"
	KindTimedMarketAssetCreated  ChangeKind = "TimedMarketAssetCreated"
	KindTimedMarketAssetUpdated  ChangeKind = "TimedMarketAssetUpdated"
	KindTimedMarketSymbolChanged ChangeKind = "TimedMarketSymbolChanged"
	KindTimedMarketWindowUpdated ChangeKind = "TimedMarketWindowUpdated"
)

// FieldChange names one changed field and its new value.
type FieldChange struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// Notification is the structured record emitted for one mutation. Single
// setters carry one FieldChange; snapshot kinds carry the full field list.
type Notification struct {
	ID        uuid.UUID     `json:"id"`
	AssetID   uint64        `json:"asset_id"`
	Kind      ChangeKind    `json:"kind"`
	Fields    []FieldChange `json:"fields,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewNotification stamps a notification with an id and the current time.
func NewNotification(assetID uint64, kind ChangeKind, fields ...FieldChange) Notification {
	return Notification{
		ID:        uuid.New(),
		AssetID:   assetID,
		Kind:      kind,
		Fields:    fields,
		Timestamp: time.Now().UTC(),
	}
}

// Sink receives notifications from the registry. Implementations must not
// block for long; delivery failures are the sink's problem, never the
// registry's.
type Sink interface {
	Publish(ctx context.Context, n Notification) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Publish(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
