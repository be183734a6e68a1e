package core

import "github.com/shopspring/decimal"

// DashboardStats is the aggregate the backend computes for a reporting period.
type DashboardStats struct {
	Period struct {
		StartDate     string `json:"start_date"`
		EndDate       string `json:"end_date"`
		Days          int    `json:"days"`
		FinancialYear string `json:"financial_year,omitempty"`
	} `json:"period"`
	Collections struct {
		TotalCollections       int             `json:"total_collections"`
		TotalCollectionsAmount decimal.Decimal `json:"total_collections_amount"`
		TotalExpenditure       decimal.Decimal `json:"total_expenditure"`
		TotalCash              decimal.Decimal `json:"total_cash"`
		TotalCheques           decimal.Decimal `json:"total_cheques"`
		AverageCollection      decimal.Decimal `json:"average_collection"`
	} `json:"collections"`
	Receipts struct {
		TotalReceipts    int `json:"total_receipts"`
		ReceiptsThisWeek int `json:"receipts_this_week"`
	} `json:"receipts"`
	Reconciliation struct {
		CompletedReconciliations int    `json:"completed_reconciliations"`
		LastReconciliationDate   string `json:"last_reconciliation_date,omitempty"`
	} `json:"reconciliation"`
}

// GeneralContributions breaks down the general fund by purpose.
type GeneralContributions struct {
	Tithe         decimal.Decimal `json:"tithe"`
	Membership    decimal.Decimal `json:"membership"`
	Birthday      decimal.Decimal `json:"birthday"`
	Wedding       decimal.Decimal `json:"wedding"`
	SpecialThanks decimal.Decimal `json:"special_thanks"`
	Others        decimal.Decimal `json:"others"`
}

// CollectionStatistics is the per-fund breakdown for a date range.
type CollectionStatistics struct {
	TotalCollection          decimal.Decimal      `json:"total_collection"`
	CashCollection           decimal.Decimal      `json:"cash_collection"`
	OnlineCollection         decimal.Decimal      `json:"online_collection"`
	GeneralContributions     GeneralContributions `json:"general_contributions"`
	SocialAidFund            decimal.Decimal      `json:"st_stephen_social_aid_fund"`
	MissionAndEvangelismFund decimal.Decimal      `json:"mission_and_evangelism_fund"`
}

// CollectionSummary is a recent collection row shown on the dashboard.
type CollectionSummary struct {
	ID              string          `json:"id"`
	CollectionDate  string          `json:"collection_date"`
	TotalCollection decimal.Decimal `json:"total_collection"`
	Status          string          `json:"status"`
	ReceiptCount    int             `json:"receipt_count"`
}
