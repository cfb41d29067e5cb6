package constants

// Operation codes carried in field 000-000.
const (
	OpPayment = "CRT"
	OpPix     = "QRC"
	OpCancel  = "CNC"
	OpAdmin   = "ADM"
	OpConfirm = "CNF"
	OpReverse = "NCN"
)

// Field codes of the CTFClient record contract.
const (
	FieldOperation    = "000-000"
	FieldRequestID    = "001-000"
	FieldDocument     = "002-000"
	FieldAmount       = "003-000"
	FieldResultCode   = "009-000"
	FieldNetwork      = "010-000"
	FieldSubtype      = "011-000"
	FieldNSU          = "012-000"
	FieldFinancing    = "017-000"
	FieldInstallments = "018-000"
	FieldOrigDate     = "022-000"
	FieldOrigTime     = "023-000"
	FieldToken        = "027-000"
	FieldMessage      = "030-000"
	FieldMultiTx      = "099-000"
	FieldPixOrigDate  = "719-000"
	FieldTrailer      = "999-999"
)

// Payment subtypes carried in field 011-000.
const (
	SubtypeCredit            = "10"
	SubtypeCreditInstallment = "11"
	SubtypeCreditIssuer      = "12"
	SubtypeDebit             = "20"
)

// Installment financing selector, field 017-000.
const (
	FinancingMerchant = "0"
	FinancingIssuer   = "1"
)

// Protocol filenames, fixed by the engine. The request temp name stays
// invisible to the engine until the rename to RequestFile.
const (
	RequestTempFile = "IntPos.tmp"
	RequestFile     = "IntPos.001"
	AckFile         = "IntPos.Sts"
	ResponseFile    = "IntPos.001"
)

const (
	ResultApproved = "0"
	TrailerValue   = "0"
	MultiTxFlag    = "1"

	RequestIDDigits = 10

	MinInstallments = 2
	MaxInstallments = 99

	// Date Layouts (engine wire format)
	OrigDateFormat = "02012006"
	OrigTimeFormat = "150405"
)
