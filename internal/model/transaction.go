package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionKind string

const (
	TxTap          TransactionKind = "tap"
	TxBooster      TransactionKind = "booster"
	TxTheme        TransactionKind = "theme"
	TxBuff         TransactionKind = "buff"
	TxRedeem       TransactionKind = "redeem"
	TxTransferOut  TransactionKind = "transfer_out"
	TxTransferIn   TransactionKind = "transfer_in"
	TxOfflineBonus TransactionKind = "offline_bonus"
	TxAchievement  TransactionKind = "achievement"
	TxQuest        TransactionKind = "quest"
	TxReferral     TransactionKind = "referral"
)

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
)

// TransactionRecord is the append-only ledger entry paired with every
// balance mutation. Only redemptions ever sit in pending; records are never
// deleted, only status-transitioned.
type TransactionRecord struct {
	ID             uuid.UUID
	UserTelegramID int64
	Amount         float64 // signed: debits negative, credits positive
	Kind           TransactionKind
	Status         TransactionStatus
	Details        string
	PaymentMethod  *string
	PaymentDetails *string
	CreatedAt      time.Time
	ResolvedAt     *time.Time
}

// AdminAction is one audit-log row for a moderation decision.
type AdminAction struct {
	ID              uuid.UUID
	AdminTelegramID int64
	Action          string
	TransactionID   *uuid.UUID
	Details         string
	CreatedAt       time.Time
}
