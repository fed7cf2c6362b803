package models

// MutationDirection is the side of the bank statement line. Only credits
// (money in) enter the reconciliation pool; debits are parsed then discarded.
type MutationDirection string

const (
	MutationDirectionCredit MutationDirection = "Credit"
	MutationDirectionDebit  MutationDirection = "Debit"
)

func (d MutationDirection) Valid() bool {
	return d == MutationDirectionCredit || d == MutationDirectionDebit
}

// MutationStatus is the lifecycle state of an imported bank mutation.
// Approved, Recorded and Ignored are terminal.
type MutationStatus string

const (
	MutationStatusUnmatched    MutationStatus = "Unmatched"
	MutationStatusMatchedDraft MutationStatus = "MatchedDraft"
	MutationStatusApproved     MutationStatus = "Approved"
	MutationStatusRecorded     MutationStatus = "Recorded"
	MutationStatusIgnored      MutationStatus = "Ignored"
)

func (s MutationStatus) Valid() bool {
	switch s {
	case MutationStatusUnmatched, MutationStatusMatchedDraft, MutationStatusApproved,
		MutationStatusRecorded, MutationStatusIgnored:
		return true
	}
	return false
}

func (s MutationStatus) Terminal() bool {
	return s == MutationStatusApproved || s == MutationStatusRecorded || s == MutationStatusIgnored
}

type MatchStatus string

const (
	MatchStatusDraft    MatchStatus = "Draft"
	MatchStatusApproved MatchStatus = "Approved"
)

// CandidateKind tags the three settlement sources.
type CandidateKind string

const (
	CandidateKindSale    CandidateKind = "Sale"
	CandidateKindDeposit CandidateKind = "Deposit"
	CandidateKindInvoice CandidateKind = "Invoice"
)

func (k CandidateKind) Valid() bool {
	return k == CandidateKindSale || k == CandidateKindDeposit || k == CandidateKindInvoice
}

type ReconciliationStatus string

const (
	ReconciliationStatusPending ReconciliationStatus = "Pending"
	ReconciliationStatusSettled ReconciliationStatus = "Settled"
)

// ConfidenceTier is advisory UI guidance only. It never blocks or
// auto-executes a match.
type ConfidenceTier string

const (
	ConfidenceTierPerfect  ConfidenceTier = "Perfect"
	ConfidenceTierPossible ConfidenceTier = "Possible"
	ConfidenceTierNone     ConfidenceTier = "None"
)

// ManualEntryCategory classifies a mutation recorded without a candidate.
type ManualEntryCategory string

const (
	ManualEntryCategoryOwnerCapital   ManualEntryCategory = "OwnerCapital"
	ManualEntryCategoryOwnerLoan      ManualEntryCategory = "OwnerLoan"
	ManualEntryCategoryOtherIncome    ManualEntryCategory = "OtherIncome"
	ManualEntryCategorySupplierRefund ManualEntryCategory = "SupplierRefund"
)

func (c ManualEntryCategory) Valid() bool {
	switch c {
	case ManualEntryCategoryOwnerCapital, ManualEntryCategoryOwnerLoan,
		ManualEntryCategoryOtherIncome, ManualEntryCategorySupplierRefund:
		return true
	}
	return false
}

type LedgerReferenceType string

const (
	LedgerReferenceTypeBankMatch    LedgerReferenceType = "BankMatch"
	LedgerReferenceTypeManualRecord LedgerReferenceType = "ManualRecord"
)

type AccountMainType string

const (
	AccountMainTypeAsset     AccountMainType = "Asset"
	AccountMainTypeLiability AccountMainType = "Liability"
	AccountMainTypeEquity    AccountMainType = "Equity"
	AccountMainTypeIncome    AccountMainType = "Income"
	AccountMainTypeExpense   AccountMainType = "Expense"
)

type AccountDetailType string

const (
	AccountDetailTypeCash                AccountDetailType = "Cash"
	AccountDetailTypeBank                AccountDetailType = "Bank"
	AccountDetailTypePaymentClearing     AccountDetailType = "PaymentClearing"
	AccountDetailTypeAccountReceivable   AccountDetailType = "AccountReceivable"
	AccountDetailTypeEquity              AccountDetailType = "Equity"
	AccountDetailTypeNonCurrentLiability AccountDetailType = "NonCurrentLiability"
	AccountDetailTypeOtherIncome         AccountDetailType = "OtherIncome"
	AccountDetailTypeExpense             AccountDetailType = "Expense"
)

// AccountCode identifies the system accounts the posting engine needs to
// find without user configuration.
type AccountCode string

const (
	AccountCodeSalesClearing     AccountCode = "SalesClearing"
	AccountCodeDepositsInTransit AccountCode = "DepositsInTransit"
	AccountCodeAccountReceivable AccountCode = "AccountReceivable"
	AccountCodeOwnerCapital      AccountCode = "OwnerCapital"
	AccountCodeOwnerLoan         AccountCode = "OwnerLoan"
	AccountCodeOtherIncome       AccountCode = "OtherIncome"
	AccountCodeSupplierRefund    AccountCode = "SupplierRefund"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "A"
	UserRoleOwner   UserRole = "O"
	UserRoleCashier UserRole = "C"
)
