package models

import (
	"time"
)

// FaucetDetail is the full on-chain state of a single faucet contract,
// persisted to the faucet_details table and served by the faucet detail
// endpoint. ImageURL and Description stay empty until metadata enrichment.
type FaucetDetail struct {
	FaucetAddress  string    `json:"faucet_address" db:"faucet_address"`
	ChainID        int64     `json:"chain_id" db:"chain_id"`
	NetworkName    string    `json:"network_name" db:"network_name"`
	FactoryAddress string    `json:"factory_address" db:"factory_address"`
	FactoryType    string    `json:"factory_type" db:"factory_type"`
	FaucetName     string    `json:"faucet_name" db:"faucet_name"`
	TokenAddress   string    `json:"token_address" db:"token_address"`
	TokenSymbol    string    `json:"token_symbol" db:"token_symbol"`
	TokenDecimals  int       `json:"token_decimals" db:"token_decimals"`
	IsEther        bool      `json:"is_ether" db:"is_ether"`
	Balance        string    `json:"balance" db:"balance"`
	ClaimAmount    string    `json:"claim_amount" db:"claim_amount"`
	StartTime      int64     `json:"start_time" db:"start_time"`
	EndTime        int64     `json:"end_time" db:"end_time"`
	IsClaimActive  bool      `json:"is_claim_active" db:"is_claim_active"`
	IsPaused       bool      `json:"is_paused" db:"is_paused"`
	OwnerAddress   string    `json:"owner_address" db:"owner_address"`
	UseBackend     bool      `json:"use_backend" db:"use_backend"`
	Slug           string    `json:"slug" db:"slug"`
	ImageURL       string    `json:"image_url" db:"image_url"`
	Description    string    `json:"description" db:"description"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// FaucetMeta is the compact listing row stored in network_faucets and
// returned by the faucet listing endpoints.
type FaucetMeta struct {
	FaucetAddress  string `json:"faucet_address" db:"faucet_address"`
	ChainID        int64  `json:"chain_id" db:"chain_id"`
	NetworkName    string `json:"network_name" db:"network_name"`
	FactoryAddress string `json:"factory_address" db:"factory_address"`
	FactoryType    string `json:"factory_type" db:"factory_type"`
	FaucetName     string `json:"faucet_name" db:"faucet_name"`
	Slug           string `json:"slug" db:"slug"`
	TokenSymbol    string `json:"token_symbol" db:"token_symbol"`
	IsEther        bool   `json:"is_ether" db:"is_ether"`
	IsClaimActive  bool   `json:"is_claim_active" db:"is_claim_active"`
	OwnerAddress   string `json:"owner_address" db:"owner_address"`
	StartTime      int64  `json:"start_time" db:"start_time"`
}

// MetaFromDetail projects a detail row onto its listing form.
func MetaFromDetail(d *FaucetDetail) *FaucetMeta {
	return &FaucetMeta{
		FaucetAddress:  d.FaucetAddress,
		ChainID:        d.ChainID,
		NetworkName:    d.NetworkName,
		FactoryAddress: d.FactoryAddress,
		FactoryType:    d.FactoryType,
		FaucetName:     d.FaucetName,
		Slug:           d.Slug,
		TokenSymbol:    d.TokenSymbol,
		IsEther:        d.IsEther,
		IsClaimActive:  d.IsClaimActive,
		OwnerAddress:   d.OwnerAddress,
		StartTime:      d.StartTime,
	}
}
