package enum

type CorporateActionType string

const (
	Split        CorporateActionType = "split"
	CashDividend CorporateActionType = "cash_dividend"
	Merger       CorporateActionType = "merger"
	Spinoff      CorporateActionType = "spinoff"
)

func ValidCorporateActionType(t CorporateActionType) bool {
	switch t {
	case Split:
		fallthrough
	case CashDividend:
		fallthrough
	case Merger:
		fallthrough
	case Spinoff:
		return true
	default:
		return false
	}
}

type ActionStatus string

const (
	// action recorded, not yet applied to the ledger
	ActionPending ActionStatus = "pending"
	// adjustments committed, lots mutated
	ActionApplied ActionStatus = "applied"
	// previously applied, then rolled back from adjustment snapshots
	ActionReversed ActionStatus = "reversed"
)

type MergerType string

const (
	StockForStock MergerType = "stock_for_stock"
	CashMerger    MergerType = "cash"
	MixedMerger   MergerType = "mixed"
)

func ValidMergerType(t MergerType) bool {
	switch t {
	case StockForStock:
		fallthrough
	case CashMerger:
		fallthrough
	case MixedMerger:
		return true
	default:
		return false
	}
}

type LotStatus string

const (
	LotOpen   LotStatus = "open"
	LotClosed LotStatus = "closed"
)

type SymbolStatus string

const (
	SymbolActive   SymbolStatus = "active"
	SymbolInactive SymbolStatus = "inactive"
)
